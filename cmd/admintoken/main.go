// file: cmd/admintoken/main.go
//
// admintoken mints admin bearer tokens for the moderation endpoints.
// There is no login flow for admins; operators run this tool and hand
// the token to the reviewer.
//
//	JWT_SECRET=... go run ./cmd/admintoken -admin admin1 -ttl 24h
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"ecolearn/internal/middleware"

	"github.com/joho/godotenv"
)

func main() {
	adminID := flag.String("admin", "", "admin user ID to put in the token subject")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	_ = godotenv.Load()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET must be set")
		os.Exit(1)
	}
	if *adminID == "" {
		fmt.Fprintln(os.Stderr, "-admin is required")
		os.Exit(1)
	}

	token, err := middleware.GenerateAdminToken(secret, *adminID, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to sign token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}

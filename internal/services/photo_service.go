// file: internal/services/photo_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/gofrs/uuid"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"
)

// Sentinel errors for photo validation and upload
var (
	ErrPhotoTooLarge    = errors.New("photo exceeds maximum size")
	ErrInvalidPhotoType = errors.New("file is not a supported image")
	ErrPhotoUnreadable  = errors.New("unable to read photo")
	ErrUploadFailed     = errors.New("photo upload failed")
)

// UploadedPhoto is the stored result of a successful upload
type UploadedPhoto struct {
	URL      string
	PublicID string
	Format   string
	Size     int
}

// PhotoStorage stores and removes submission photos
type PhotoStorage interface {
	Upload(ctx context.Context, photo io.ReadSeeker, size int64) (*UploadedPhoto, error)
	Delete(ctx context.Context, publicID string) error
}

// PhotoStorageConfig controls validation and retry behavior
type PhotoStorageConfig struct {
	MaxFileSize   int64
	AllowedTypes  []string
	Folder        string
	UploadTimeout time.Duration
	DeleteTimeout time.Duration
	MaxRetries    int
}

// DefaultPhotoStorageConfig returns the production defaults
func DefaultPhotoStorageConfig(folder string) *PhotoStorageConfig {
	return &PhotoStorageConfig{
		MaxFileSize:   10 * 1024 * 1024, // 10MB
		AllowedTypes:  []string{"image/jpeg", "image/png", "image/webp", "image/gif"},
		Folder:        folder,
		UploadTimeout: 60 * time.Second,
		DeleteTimeout: 30 * time.Second,
		MaxRetries:    3,
	}
}

type cloudinaryPhotoStorage struct {
	client *cloudinary.Cloudinary
	config *PhotoStorageConfig
	logger *zap.Logger
}

// NewCloudinaryPhotoStorage creates Cloudinary-backed photo storage
func NewCloudinaryPhotoStorage(cloudName, apiKey, apiSecret string, cfg *PhotoStorageConfig, logger *zap.Logger) (PhotoStorage, error) {
	if cloudName == "" || apiKey == "" || apiSecret == "" {
		return nil, fmt.Errorf("cloudinary credentials are required")
	}

	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}

	return &cloudinaryPhotoStorage{
		client: cld,
		config: cfg,
		logger: logger,
	}, nil
}

func (s *cloudinaryPhotoStorage) Upload(ctx context.Context, photo io.ReadSeeker, size int64) (*UploadedPhoto, error) {
	startTime := time.Now()

	if size > s.config.MaxFileSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrPhotoTooLarge, size, s.config.MaxFileSize)
	}

	contentType, err := sniffContentType(photo)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(s.config.AllowedTypes, contentType) {
		return nil, fmt.Errorf("%w: detected %s", ErrInvalidPhotoType, contentType)
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.UploadTimeout)
	defer cancel()

	publicID := ""
	if id, err := uuid.NewV4(); err == nil {
		publicID = id.String()
	}

	uploadParams := uploader.UploadParams{
		Folder:         s.config.Folder,
		PublicID:       publicID,
		UniqueFilename: ptrBool(true),
		ResourceType:   "image",
	}

	var result *uploader.UploadResult
	operation := func() error {
		if _, err := photo.Seek(0, io.SeekStart); err != nil {
			return backoff.Permanent(fmt.Errorf("%w: %v", ErrPhotoUnreadable, err))
		}
		var opErr error
		result, opErr = s.client.Upload.Upload(ctx, photo, uploadParams)
		return opErr
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = s.config.UploadTimeout / 2
	err = backoff.RetryNotify(
		operation,
		backoff.WithMaxRetries(b, uint64(s.config.MaxRetries)),
		func(err error, d time.Duration) {
			s.logger.Warn("Upload attempt failed",
				zap.Error(err),
				zap.Duration("backoff", d))
		},
	)
	if err != nil {
		s.logger.Error("All upload attempts failed",
			zap.Int("attempts", s.config.MaxRetries),
			zap.Error(err))
		return nil, fmt.Errorf("%w after %d attempts: %v", ErrUploadFailed, s.config.MaxRetries, err)
	}

	s.logger.Info("Photo uploaded",
		zap.Int64("size", size),
		zap.Duration("duration", time.Since(startTime)),
		zap.String("public_id", result.PublicID))

	return &UploadedPhoto{
		URL:      result.SecureURL,
		PublicID: result.PublicID,
		Format:   result.Format,
		Size:     result.Bytes,
	}, nil
}

func (s *cloudinaryPhotoStorage) Delete(ctx context.Context, publicID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.DeleteTimeout)
	defer cancel()

	_, err := s.client.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID: publicID,
	})
	if err != nil {
		s.logger.Error("Photo deletion failed",
			zap.String("public_id", publicID),
			zap.Error(err))
		return fmt.Errorf("failed to delete photo: %w", err)
	}

	s.logger.Info("Photo deleted", zap.String("public_id", publicID))
	return nil
}

// sniffContentType reads the first 512 bytes and resets the reader.
func sniffContentType(r io.ReadSeeker) (string, error) {
	buffer := make([]byte, 512)
	n, err := r.Read(buffer)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("%w: %v", ErrPhotoUnreadable, err)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("%w: %v", ErrPhotoUnreadable, err)
	}
	return http.DetectContentType(buffer[:n]), nil
}

func ptrBool(b bool) *bool {
	return &b
}

package models

import (
	"database/sql/driver"
	"fmt"
)

// SubmissionStatus is the moderation state of a challenge submission.
type SubmissionStatus string

const (
	StatusPending  SubmissionStatus = "pending"
	StatusApproved SubmissionStatus = "approved"
	StatusRejected SubmissionStatus = "rejected"
)

// validTransitions is the full transition table. Approved is terminal;
// rejected may only go back to pending (resubmission).
var validTransitions = map[SubmissionStatus][]SubmissionStatus{
	StatusPending:  {StatusApproved, StatusRejected},
	StatusApproved: {},
	StatusRejected: {StatusPending},
}

// ParseSubmissionStatus parses a wire value into a SubmissionStatus.
func ParseSubmissionStatus(s string) (SubmissionStatus, error) {
	switch SubmissionStatus(s) {
	case StatusPending, StatusApproved, StatusRejected:
		return SubmissionStatus(s), nil
	}
	return "", fmt.Errorf("invalid submission status %q", s)
}

// IsValid reports whether the status is one of the known states.
func (s SubmissionStatus) IsValid() bool {
	_, ok := validTransitions[s]
	return ok
}

// CanTransitionTo reports whether moving from s to target is allowed.
func (s SubmissionStatus) CanTransitionTo(target SubmissionStatus) bool {
	for _, t := range validTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (s SubmissionStatus) IsTerminal() bool {
	return len(validTransitions[s]) == 0
}

func (s SubmissionStatus) String() string {
	return string(s)
}

// Value implements driver.Valuer
func (s SubmissionStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// Scan implements sql.Scanner
func (s *SubmissionStatus) Scan(value interface{}) error {
	switch v := value.(type) {
	case string:
		*s = SubmissionStatus(v)
	case []byte:
		*s = SubmissionStatus(v)
	default:
		return fmt.Errorf("cannot scan %T into SubmissionStatus", value)
	}
	if !s.IsValid() {
		return fmt.Errorf("invalid submission status %q in database", string(*s))
	}
	return nil
}

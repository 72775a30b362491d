package model

import (
	"errors"
	"fmt"
)

var (
	ErrPatientNotFound    = errors.New("patient not found")
	ErrSettlementInFlight = errors.New("settlement already in progress for patient")
)

// NetworkError wraps a transport or HTTP failure from the backend. It is
// the only retryable error class.
type NetworkError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: http %d: %s", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// NoPendingItemsError is returned when a settlement is requested for a
// patient with nothing Pending.
type NoPendingItemsError struct {
	PatientID string
}

func (e *NoPendingItemsError) Error() string {
	return fmt.Sprintf("patient %s has no pending items", e.PatientID)
}

// InvalidSettlementError is returned when pending items exist but none of
// them can be submitted.
type InvalidSettlementError struct {
	PatientID string
	Reason    string
}

func (e *InvalidSettlementError) Error() string {
	return fmt.Sprintf("invalid settlement for patient %s: %s", e.PatientID, e.Reason)
}

// MalformedRecordError describes a raw field that was replaced by a safe
// default during normalization.
type MalformedRecordError struct {
	PatientID string
	Field     string
	Value     string
	Reason    string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("patient %s: malformed %s %q: %s", e.PatientID, e.Field, e.Value, e.Reason)
}

// IsRetryable reports whether err came from the network and may succeed on
// another attempt.
func IsRetryable(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// UserMessage maps an engine error to the notification shown to the user.
func UserMessage(err error) string {
	var (
		np *NoPendingItemsError
		is *InvalidSettlementError
		ne *NetworkError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &np):
		return "No pending bills to pay for this patient."
	case errors.As(err, &is):
		return "Nothing payable: all pending items have a zero price."
	case errors.Is(err, ErrSettlementInFlight):
		return "A payment for this patient is already being processed."
	case errors.Is(err, ErrPatientNotFound):
		return "Patient not found. Refresh the patient list and try again."
	case errors.As(err, &ne):
		return "Could not reach the billing server. Please try again."
	default:
		return "Something went wrong. Please try again."
	}
}

package model

import (
	"errors"
	"fmt"
	"net/http"
)

// FailureKind enumerates the ways a check can fail
type FailureKind string

const (
	InvalidInput              FailureKind = "invalid_input"
	NoCaptionsAvailable       FailureKind = "no_captions_available"
	BotDetected               FailureKind = "bot_detected"
	TransientRetrievalFailure FailureKind = "transient_retrieval_failure"
	PermanentRetrievalFailure FailureKind = "permanent_retrieval_failure"
	InsufficientContent       FailureKind = "insufficient_content"
	ExtractionFailed          FailureKind = "extraction_failed"
	FactCheckFailed           FailureKind = "fact_check_failed"
	ConfigurationError        FailureKind = "configuration_error"
	Internal                  FailureKind = "internal"
)

// Severity separates caller mistakes from dependency or server faults
type Severity int

const (
	SeverityClient Severity = iota
	SeverityServer
)

// Severity returns the severity class of the failure kind
func (k FailureKind) Severity() Severity {
	switch k {
	case InvalidInput, NoCaptionsAvailable, InsufficientContent, PermanentRetrievalFailure:
		return SeverityClient
	default:
		return SeverityServer
	}
}

// HTTPStatus maps the failure kind to a response status
func (k FailureKind) HTTPStatus() int {
	if k.Severity() == SeverityClient {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// Failure is a classified pipeline failure
type Failure struct {
	Kind    FailureKind
	Message string // Human-readable reason, safe to show callers
	Op      string // Stage that failed
	Err     error  // Underlying cause, never shown to callers
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %s: %v", f.Op, f.Message, f.Err)
	}
	return fmt.Sprintf("%s: %s", f.Op, f.Message)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// PublicMessage returns the text that may cross the system boundary
func (f *Failure) PublicMessage() string {
	if f.Kind == Internal || f.Message == "" {
		return "Internal server error"
	}
	return f.Message
}

// NewFailure builds a Failure of the given kind
func NewFailure(kind FailureKind, op, message string, err error) *Failure {
	return &Failure{Kind: kind, Message: message, Op: op, Err: err}
}

// AsFailure extracts a *Failure from err, wrapping anything else as Internal
func AsFailure(err error) *Failure {
	if err == nil {
		return nil
	}
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	return &Failure{Kind: Internal, Op: "unknown", Message: "Internal server error", Err: err}
}

// IsKind reports whether err is a Failure of the given kind
func IsKind(err error, kind FailureKind) bool {
	var f *Failure
	return errors.As(err, &f) && f.Kind == kind
}

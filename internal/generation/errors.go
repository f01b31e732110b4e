package generation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Provider failure classes. A *ProviderError matches exactly one of these
// with errors.Is.
var (
	ErrRateLimited    = errors.New("rate limited")
	ErrPolicyRejected = errors.New("rejected by content policy")
	ErrTimeout        = errors.New("provider timeout")
	ErrUnavailable    = errors.New("provider unavailable")
	ErrUnknown        = errors.New("provider error")
)

type ProviderError struct {
	Service string
	Kind    error
	Err     error
}

func NewProviderError(service string, kind, err error) *ProviderError {
	if kind == nil {
		kind = ErrUnknown
	}
	return &ProviderError{Service: service, Kind: kind, Err: err}
}

func (e *ProviderError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Service, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Service, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Retryable reports whether the same request may succeed later.
func (e *ProviderError) Retryable() bool {
	return e.Kind == ErrRateLimited || e.Kind == ErrTimeout || e.Kind == ErrUnavailable
}

// KindFromStatus maps an HTTP status from a provider API onto a failure class.
func KindFromStatus(code int) error {
	switch {
	case code == http.StatusTooManyRequests:
		return ErrRateLimited
	case code == http.StatusRequestTimeout || code == http.StatusGatewayTimeout:
		return ErrTimeout
	case code == http.StatusUnprocessableEntity:
		return ErrPolicyRejected
	case code >= 500:
		return ErrUnavailable
	default:
		return ErrUnknown
	}
}

// Classify returns the failure class of err.
func Classify(err error) error {
	for _, kind := range []error{ErrRateLimited, ErrPolicyRejected, ErrTimeout, ErrUnavailable} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	return ErrUnknown
}

// Pipeline stages, also used as log labels.
const (
	StagePrompt = "prompt_synthesis"
	StageImage  = "image_generation"
	StageUpload = "upload"
	StageCopy   = "copy_generation"
)

// StageError reports the stage at which a work item stopped.
type StageError struct {
	Stage string
	Cause error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Cause)
}

func (e *StageError) Unwrap() error { return e.Cause }

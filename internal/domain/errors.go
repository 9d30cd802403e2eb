package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoProxyAvailable is returned when every proxy candidate failed its liveness probe.
	ErrNoProxyAvailable = errors.New("no working proxies available")
	// ErrRetriesExhausted is returned when a page could not be fetched within the retry guard.
	ErrRetriesExhausted = errors.New("retries exhausted")
)

// RetryableError marks a failure the fetch loop should retry after a backoff.
type RetryableError struct {
	// Op names the step that failed (e.g. "fetch page", "decode page")
	Op string
	// StatusCode is the HTTP status, zero for transport faults
	StatusCode int
	Err        error
}

func (e *RetryableError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Op + ": retryable failure"
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// FatalError marks a failure that must abort the run.
type FatalError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *FatalError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: fatal status %d", e.Op, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Op + ": fatal failure"
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// MalformedItemError indicates a listing item that cannot be normalized.
type MalformedItemError struct {
	Field   string
	Message string
}

func (e *MalformedItemError) Error() string {
	return fmt.Sprintf("malformed item field %s: %s", e.Field, e.Message)
}

// ConfigError indicates a problem with the run configuration.
type ConfigError struct {
	// Field contains the name of the setting that caused the error
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config error in field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("config error: %s", e.Message)
}

// IsRetryable reports whether err carries a RetryableError.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// IsFatal reports whether err must abort the run.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe) || errors.Is(err, ErrNoProxyAvailable)
}

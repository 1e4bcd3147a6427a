package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation     = errors.New("validation error")
	ErrConfiguration  = errors.New("configuration error")
	ErrAuth           = errors.New("authentication error")
	ErrNotFound       = errors.New("not found")
	ErrNoMatch        = errors.New("no catalog match")
	ErrNoValidEpisode = errors.New("no valid episode number")
	ErrRateLimited    = errors.New("rate limited")
	ErrTransient      = errors.New("transient failure")
)

// Wrap builds an error message that includes collaborator context while
// tagging it with the provided marker for later classification. The marker
// should be one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsRetryable reports whether the error should be retried internally before
// it is surfaced to the batch (rate limits, transient 5xx, timeouts).
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransient) || errors.Is(err, ErrRateLimited)
}

// IsSoft reports whether the error should skip the current record and let the
// batch continue. Retryable errors become soft once retries are exhausted.
func IsSoft(err error) bool {
	switch {
	case errors.Is(err, ErrNoMatch),
		errors.Is(err, ErrNoValidEpisode),
		errors.Is(err, ErrNotFound),
		IsRetryable(err):
		return true
	}
	return false
}

// IsFatal reports whether the error must abort the whole run.
func IsFatal(err error) bool {
	return errors.Is(err, ErrConfiguration) || errors.Is(err, ErrValidation)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}

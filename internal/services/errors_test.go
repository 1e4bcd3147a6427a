package services

import (
	"errors"
	"strings"
	"testing"
)

func TestWrapPreservesMarkerAndCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(ErrTransient, "anilist", "search", "execute request", cause)

	if !errors.Is(err, ErrTransient) {
		t.Fatal("wrapped error should match its marker")
	}
	if !errors.Is(err, cause) {
		t.Fatal("wrapped error should match its cause")
	}
	for _, fragment := range []string{"anilist", "search", "execute request", "connection reset"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Errorf("error %q should contain %q", err.Error(), fragment)
		}
	}
}

func TestWrapNilMarkerDefaultsToTransient(t *testing.T) {
	err := Wrap(nil, "x", "y", "z", nil)
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("nil marker should default to transient, got %v", err)
	}
}

func TestClassification(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		retryable bool
		soft      bool
		fatal     bool
	}{
		{"transient", Wrap(ErrTransient, "a", "b", "c", nil), true, true, false},
		{"rate limited", Wrap(ErrRateLimited, "a", "b", "c", nil), true, true, false},
		{"no match", Wrap(ErrNoMatch, "a", "b", "c", nil), false, true, false},
		{"no valid episode", Wrap(ErrNoValidEpisode, "a", "b", "c", nil), false, true, false},
		{"not found", Wrap(ErrNotFound, "a", "b", "c", nil), false, true, false},
		{"configuration", Wrap(ErrConfiguration, "a", "b", "c", nil), false, false, true},
		{"validation", Wrap(ErrValidation, "a", "b", "c", nil), false, false, true},
		{"auth", Wrap(ErrAuth, "a", "b", "c", nil), false, false, false},
		{"plain", errors.New("plain"), false, false, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsRetryable(tc.err); got != tc.retryable {
				t.Errorf("IsRetryable = %v, want %v", got, tc.retryable)
			}
			if got := IsSoft(tc.err); got != tc.soft {
				t.Errorf("IsSoft = %v, want %v", got, tc.soft)
			}
			if got := IsFatal(tc.err); got != tc.fatal {
				t.Errorf("IsFatal = %v, want %v", got, tc.fatal)
			}
		})
	}
}

package services_test

import (
	"errors"
	"strings"
	"testing"

	"textloom/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrProvider, "filters", "generate", "step failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrProvider) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"filters", "generate", "step failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestRetryableClassification(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"nil", nil, false},
		{"provider", services.Wrap(services.ErrProvider, "grid", "generate", "http 500", nil), true},
		{"unmarked", errors.New("connection reset"), true},
		{"validation", services.Wrap(services.ErrValidation, "filters", "plan", "bad intensity", nil), false},
		{"configuration", services.Wrap(services.ErrConfiguration, "bridge", "client", "missing api key", nil), false},
		{"safety", services.Wrap(services.ErrSafetyBlocked, "grid", "generate", "refused", nil), false},
		{"token limit", services.Wrap(services.ErrTokenLimit, "filters", "generate", "too long", nil), false},
		{"dependency", services.Wrap(services.ErrDependencyNotReady, "bridge", "generate", "missing input", nil), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := services.Retryable(tc.err); got != tc.retryable {
				t.Fatalf("Retryable(%v) = %v, want %v", tc.err, got, tc.retryable)
			}
		})
	}
}

func TestDetailsStripsMarker(t *testing.T) {
	err := services.Wrap(services.ErrProvider, "bridge", "generate", "http 429", nil)
	if got := services.Details(err); got != "bridge: generate: http 429" {
		t.Fatalf("unexpected details %q", got)
	}
	if got := services.Details(nil); got != "" {
		t.Fatalf("expected empty details for nil, got %q", got)
	}
}

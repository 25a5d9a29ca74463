package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrProvider marks a remote provider call that failed after retries.
	ErrProvider = errors.New("provider error")
	// ErrValidation marks a provider response that did not satisfy its contract.
	ErrValidation = errors.New("validation error")
	// ErrConfiguration marks missing or unusable configuration (keys, URLs).
	ErrConfiguration = errors.New("configuration error")
	// ErrNotFound marks lookups that produced no result.
	ErrNotFound = errors.New("not found")
	// ErrTransient marks failures that are expected to succeed on retry.
	ErrTransient = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatalToRun reports whether an error from a batch stage should abort the
// whole run. Detection and direction failures are fatal; everything else the
// pipeline degrades around.
func IsFatalToRun(err error) bool {
	return errors.Is(err, ErrProvider) ||
		errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrConfiguration)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
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

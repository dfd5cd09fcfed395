// Package validator checks corpus records before they reach the
// preprocessor or the index. It returns per-field error details.
package validator

import (
	"fmt"
	"sort"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/pkg/errors"
)

const (
	maxIDLength       = 256
	maxContentsLength = 1048576
)

// ValidationError holds per-field validation failure messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		names = append(names, field)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, field := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", field, e.Fields[field]))
	}
	return strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return apperrors.ErrInvalidDocument
}

// ValidateDocument checks that a record carries a usable id and contents.
// present reports which JSON keys were seen, so that a missing key can be
// told apart from an empty value.
func ValidateDocument(id, contents string, present map[string]bool) error {
	errs := make(map[string]string)

	if present != nil && !present["id"] {
		errs["id"] = "missing"
	} else if strings.TrimSpace(id) == "" {
		errs["id"] = "must not be empty"
	} else if len(id) > maxIDLength {
		errs["id"] = fmt.Sprintf("must be at most %d characters", maxIDLength)
	} else if strings.ContainsAny(id, " \t\r\n") {
		errs["id"] = "must not contain whitespace"
	}

	if present != nil && !present["contents"] {
		errs["contents"] = "missing"
	} else if len(contents) > maxContentsLength {
		errs["contents"] = fmt.Sprintf("must be at most %d characters", maxContentsLength)
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

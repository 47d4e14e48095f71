package ledger

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors. Callers test with errors.Is; every returned error wraps one.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("transport plan not found")
	ErrInvalidState = errors.New("invalid state transition")
	ErrPersistence  = errors.New("persistence failure")
)

// ValidationError lists the offending fields by their JSON name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// RowFailure reports a vehicle entry whose plan row could not be written.
// Index is the position in the request's vehicles array.
type RowFailure struct {
	Index   int    `json:"index"`
	PlanID  string `json:"plan_id"`
	Message string `json:"message"`
}

// CreateError is returned when no row of a submission was written.
type CreateError struct {
	Failures []RowFailure
}

func (e *CreateError) Error() string {
	return fmt.Sprintf("%s: all %d plan rows failed", ErrPersistence, len(e.Failures))
}

func (e *CreateError) Unwrap() error {
	return ErrPersistence
}

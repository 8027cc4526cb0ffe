package rentbook

import (
	"errors"
	"fmt"

	"github.com/xraph/rentbook/types"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrNotFound     = errors.New("rentbook: not found")
	ErrInvalidInput = errors.New("rentbook: invalid input")

	// Tenant errors
	ErrTenantNotFound = errors.New("rentbook: tenant not found")

	// Ledger errors
	ErrEntryNotFound   = errors.New("rentbook: entry not found")
	ErrInvalidReading  = errors.New("rentbook: current reading is below previous reading")
	ErrDuplicatePeriod = errors.New("rentbook: tenant already has an entry for this period")
	ErrPrecondition    = errors.New("rentbook: precondition failed")
	ErrEmptyPatch      = errors.New("rentbook: patch changes nothing")
)

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("rentbook: validation failed for %s: %s", e.Field, e.Message)
}

// Is makes every ValidationError match ErrInvalidInput.
func (e ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// InvalidReadingError reports a meter reading that went backwards.
type InvalidReadingError struct {
	Previous types.Reading
	Current  types.Reading
}

func (e *InvalidReadingError) Error() string {
	return fmt.Sprintf("rentbook: current reading %s is below previous reading %s",
		e.Current.String(), e.Previous.String())
}

func (e *InvalidReadingError) Is(target error) bool {
	return target == ErrInvalidReading || target == ErrInvalidInput
}

// PreconditionError reports an operation attempted on a record in the
// wrong state, such as settling an entry with nothing outstanding.
type PreconditionError struct {
	Op     string
	Reason string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("rentbook: %s: %s", e.Op, e.Reason)
}

func (e *PreconditionError) Is(target error) bool {
	return target == ErrPrecondition
}

// MultiError represents multiple errors that occurred.
type MultiError struct {
	Errors []error
}

func (e MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "rentbook: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("rentbook: %d errors occurred: %v", len(e.Errors), e.Errors[0])
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (e MultiError) Unwrap() []error {
	return e.Errors
}

// Add adds an error to the multi-error.
func (e *MultiError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if there are any errors.
func (e MultiError) HasErrors() bool {
	return len(e.Errors) > 0
}

// First returns the first error or nil.
func (e MultiError) First() error {
	if len(e.Errors) > 0 {
		return e.Errors[0]
	}
	return nil
}

// ErrOrNil returns nil when e is empty, the lone error when it holds
// one, and e otherwise.
func (e MultiError) ErrOrNil() error {
	switch len(e.Errors) {
	case 0:
		return nil
	case 1:
		return e.Errors[0]
	}
	return e
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrTenantNotFound) ||
		errors.Is(err, ErrEntryNotFound)
}

// IsValidation returns true if the error reports bad caller input.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

package reconcile

import (
	"fmt"

	"bizcard/internal/services"
)

// DuplicateKeyError reports a save or rename onto a name that is already stored.
type DuplicateKeyError struct {
	Name string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("a card named %q already exists", e.Name)
}

func (e *DuplicateKeyError) Is(target error) bool {
	return target == services.ErrConflict
}

// NotFoundError reports an update or delete whose selector matched no rows.
type NotFoundError struct {
	Selector Selector
	Value    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no card with %s = %q", e.Selector, e.Value)
}

func (e *NotFoundError) Is(target error) bool {
	return target == services.ErrNotFound
}

// InvalidSelectorError reports a selector outside {id, name, email}, or an id
// selector whose value is not an integer.
type InvalidSelectorError struct {
	Selector string
	Value    string
}

func (e *InvalidSelectorError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("invalid value %q for selector %q", e.Value, e.Selector)
	}
	return fmt.Sprintf("invalid selector %q (allowed: id, name, email)", e.Selector)
}

func (e *InvalidSelectorError) Is(target error) bool {
	return target == services.ErrValidation
}

// InvalidFieldError reports an update target that is not a record text field.
type InvalidFieldError struct {
	Field string
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("invalid field %q", e.Field)
}

func (e *InvalidFieldError) Is(target error) bool {
	return target == services.ErrValidation
}

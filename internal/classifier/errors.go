package classifier

import (
	"fmt"
	"strings"

	"bizcard/internal/contact"
	"bizcard/internal/services"
)

// MinFragments is the smallest number of non-blank fragments that can be
// classified.
const MinFragments = 2

// InsufficientDataError reports that too few non-blank fragments were supplied.
type InsufficientDataError struct {
	Count int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: need at least %d non-empty fragments, got %d", MinFragments, e.Count)
}

// Is lets callers match the error against services.ErrValidation.
func (e *InsufficientDataError) Is(target error) bool {
	return target == services.ErrValidation
}

// PatternAmbiguityError is returned in strict mode when a fragment matches
// content rules for more than one field.
type PatternAmbiguityError struct {
	Index  int
	Text   string
	Fields []contact.Field
}

func (e *PatternAmbiguityError) Error() string {
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = string(f)
	}
	return fmt.Sprintf("ambiguous fragment %d %q matches %s", e.Index, e.Text, strings.Join(names, ", "))
}

// Is lets callers match the error against services.ErrValidation.
func (e *PatternAmbiguityError) Is(target error) bool {
	return target == services.ErrValidation
}

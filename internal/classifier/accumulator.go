package classifier

import (
	"strings"

	"bizcard/internal/contact"
)

// Outcome describes what the accumulator did with a candidate.
type Outcome string

const (
	OutcomeAccepted Outcome = "accepted"
	// OutcomeDropped marks a candidate refused because the field is full.
	OutcomeDropped Outcome = "dropped"
	// OutcomeReplaced marks a candidate that evicted the earliest kept one.
	OutcomeReplaced Outcome = "replaced"
)

// Policy controls how candidates for one field are collected and joined.
type Policy struct {
	// Limit caps the number of kept candidates. Zero means unbounded.
	Limit int
	// Evict makes a full field drop its earliest candidate instead of
	// refusing the new one.
	Evict     bool
	Separator string
}

// DefaultPolicies returns the reducer for each field. Fields without an entry
// concatenate their candidates with no separator.
func DefaultPolicies() map[contact.Field]Policy {
	return map[contact.Field]Policy{
		contact.FieldPhone: {Limit: 2, Separator: " & "},
		contact.FieldState: {Limit: 1, Evict: true},
	}
}

// Accumulator collects candidate values per field.
type Accumulator struct {
	policies   map[contact.Field]Policy
	candidates map[contact.Field][]string
}

// NewAccumulator returns an empty accumulator. Nil policies uses DefaultPolicies.
func NewAccumulator(policies map[contact.Field]Policy) *Accumulator {
	if policies == nil {
		policies = DefaultPolicies()
	}
	return &Accumulator{
		policies:   policies,
		candidates: make(map[contact.Field][]string, len(contact.Fields)),
	}
}

// Add records a candidate for field according to its policy.
func (a *Accumulator) Add(field contact.Field, value string) Outcome {
	policy := a.policies[field]
	current := a.candidates[field]
	if policy.Limit > 0 && len(current) >= policy.Limit {
		if !policy.Evict {
			return OutcomeDropped
		}
		current = append(current[:0:0], current[1:]...)
		a.candidates[field] = append(current, value)
		return OutcomeReplaced
	}
	a.candidates[field] = append(current, value)
	return OutcomeAccepted
}

// Candidates returns a copy of the values kept for field.
func (a *Accumulator) Candidates(field contact.Field) []string {
	return append([]string(nil), a.candidates[field]...)
}

// Join reduces the candidates for field to a single value. The second return
// is false when no candidate was kept.
func (a *Accumulator) Join(field contact.Field) (string, bool) {
	values := a.candidates[field]
	if len(values) == 0 {
		return "", false
	}
	return strings.Join(values, a.policies[field].Separator), true
}

// Finalize flattens the accumulator into a record. Fields with no candidates
// hold contact.Sentinel.
func Finalize(acc *Accumulator) contact.Record {
	record := contact.NewRecord()
	if acc == nil {
		return record
	}
	for _, field := range contact.Fields {
		if value, ok := acc.Join(field); ok {
			record.Set(field, value)
		}
	}
	return record
}

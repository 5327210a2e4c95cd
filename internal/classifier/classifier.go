package classifier

import (
	"strings"

	"bizcard/internal/contact"
)

// Assignment traces how one fragment was classified.
type Assignment struct {
	Index   int           `json:"index"`
	Text    string        `json:"text"`
	Rule    string        `json:"rule,omitempty"`
	Field   contact.Field `json:"field,omitempty"`
	Value   string        `json:"value,omitempty"`
	Outcome Outcome       `json:"outcome,omitempty"`
}

// Classifier applies an ordered rule table to card fragments. It holds no
// mutable state and is safe for concurrent use.
type Classifier struct {
	rules    []Rule
	policies map[contact.Field]Policy
	strict   bool
}

// New builds a classifier with the default rule table.
func New(opts Options) *Classifier {
	return &Classifier{
		rules:    DefaultRules(opts),
		policies: DefaultPolicies(),
		strict:   opts.StrictAmbiguity,
	}
}

// NewWithRules builds a classifier from a custom rule table.
func NewWithRules(rules []Rule, policies map[contact.Field]Policy, strict bool) *Classifier {
	if policies == nil {
		policies = DefaultPolicies()
	}
	return &Classifier{rules: append([]Rule(nil), rules...), policies: policies, strict: strict}
}

// Classify converts fragments into a record.
func (c *Classifier) Classify(fragments []contact.Fragment) (contact.Record, error) {
	record, _, err := c.Explain(fragments)
	return record, err
}

// ClassifyTexts classifies plain strings in top-to-bottom order.
func (c *Classifier) ClassifyTexts(texts ...string) (contact.Record, error) {
	return c.Classify(contact.Fragments(texts...))
}

// Explain classifies fragments and reports the rule applied to each one.
// Blank fragments are skipped before positions are assigned.
func (c *Classifier) Explain(fragments []contact.Fragment) (contact.Record, []Assignment, error) {
	kept := make([]contact.Fragment, 0, len(fragments))
	for _, fragment := range fragments {
		if fragment.Blank() {
			continue
		}
		kept = append(kept, fragment)
	}
	if len(kept) < MinFragments {
		return contact.Record{}, nil, &InsufficientDataError{Count: len(kept)}
	}

	acc := NewAccumulator(c.policies)
	trace := make([]Assignment, 0, len(kept))
	last := len(kept) - 1
	for i, fragment := range kept {
		text := strings.TrimSpace(fragment.Text)
		pos := Position{Index: i, Last: last}
		step := Assignment{Index: fragment.Index, Text: text}

		if c.strict {
			if err := c.checkAmbiguity(fragment.Index, text, pos); err != nil {
				return contact.Record{}, nil, err
			}
		}

		for _, rule := range c.rules {
			value, ok := rule.Match(text, pos)
			if !ok {
				continue
			}
			step.Rule = rule.Name
			step.Field = rule.Field
			step.Value = value
			step.Outcome = acc.Add(rule.Field, value)
			break
		}
		trace = append(trace, step)
	}
	return Finalize(acc), trace, nil
}

func (c *Classifier) checkAmbiguity(index int, text string, pos Position) error {
	var fields []contact.Field
	for _, rule := range c.rules {
		if rule.Positional {
			if _, ok := rule.Match(text, pos); ok {
				return nil
			}
			continue
		}
		if rule.Fallback {
			continue
		}
		if _, ok := rule.Match(text, pos); !ok {
			continue
		}
		if !containsField(fields, rule.Field) {
			fields = append(fields, rule.Field)
		}
	}
	if len(fields) > 1 {
		return &PatternAmbiguityError{Index: index, Text: text, Fields: fields}
	}
	return nil
}

func containsField(fields []contact.Field, f contact.Field) bool {
	for _, existing := range fields {
		if existing == f {
			return true
		}
	}
	return false
}

// Classify runs a classifier with default options over plain strings.
func Classify(texts ...string) (contact.Record, error) {
	return New(Options{}).ClassifyTexts(texts...)
}

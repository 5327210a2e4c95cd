package reconcile

import (
	"strconv"
	"strings"

	"bizcard/internal/contact"
	"bizcard/internal/store"
)

// Selector names the column used to locate rows for update and delete.
type Selector string

const (
	SelectID    Selector = "id"
	SelectName  Selector = "name"
	SelectEmail Selector = "email"
)

// Selectors lists the allowed selectors.
var Selectors = []Selector{SelectID, SelectName, SelectEmail}

// ParseSelector validates raw against the selector whitelist.
func ParseSelector(raw string) (Selector, error) {
	switch key := Selector(strings.ToLower(strings.TrimSpace(raw))); key {
	case SelectID, SelectName, SelectEmail:
		return key, nil
	default:
		return "", &InvalidSelectorError{Selector: raw}
	}
}

// column resolves the selector and the lookup value the store should bind.
func (s Selector) column(value string) (store.Column, any, error) {
	value = strings.TrimSpace(value)
	if s == SelectID {
		id, err := strconv.ParseInt(value, 10, 64)
		if err != nil || id <= 0 {
			return "", nil, &InvalidSelectorError{Selector: string(s), Value: value}
		}
		return store.ColumnID, id, nil
	}
	if s == SelectEmail {
		// Save and Update store emails lowercased.
		value = strings.ToLower(value)
	}
	return store.Column(s), value, nil
}

func parseTarget(raw string) (contact.Field, error) {
	f, ok := contact.ParseField(raw)
	if !ok {
		return "", &InvalidFieldError{Field: raw}
	}
	return f, nil
}

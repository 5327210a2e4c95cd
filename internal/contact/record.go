package contact

import (
	"fmt"
	"strings"
)

// Sentinel marks a field that no fragment populated.
const Sentinel = "NA"

// Field names a text column of a contact record. The string form matches the
// store column and JSON key.
type Field string

const (
	FieldName        Field = "name"
	FieldDesignation Field = "designation"
	FieldCompany     Field = "company_name"
	FieldPhone       Field = "phone"
	FieldEmail       Field = "email"
	FieldWebsite     Field = "website"
	FieldStreet      Field = "street"
	FieldCity        Field = "city"
	FieldState       Field = "state"
	FieldPinCode     Field = "pin_code"
)

// Fields lists every text field in store column order.
var Fields = []Field{
	FieldName,
	FieldDesignation,
	FieldCompany,
	FieldPhone,
	FieldEmail,
	FieldWebsite,
	FieldStreet,
	FieldCity,
	FieldState,
	FieldPinCode,
}

// ParseField resolves a field name case-insensitively. A few aliases used by
// older card exports are accepted ("company", "mobile_number", "pincode").
func ParseField(raw string) (Field, bool) {
	key := strings.ToLower(strings.TrimSpace(raw))
	switch key {
	case "company":
		return FieldCompany, true
	case "mobile_number", "mobile":
		return FieldPhone, true
	case "pincode", "pin":
		return FieldPinCode, true
	}
	for _, f := range Fields {
		if string(f) == key {
			return f, true
		}
	}
	return "", false
}

// Label returns a human-readable column heading.
func (f Field) Label() string {
	switch f {
	case FieldName:
		return "Name"
	case FieldDesignation:
		return "Designation"
	case FieldCompany:
		return "Company"
	case FieldPhone:
		return "Phone"
	case FieldEmail:
		return "Email"
	case FieldWebsite:
		return "Website"
	case FieldStreet:
		return "Street"
	case FieldCity:
		return "City"
	case FieldState:
		return "State"
	case FieldPinCode:
		return "Pin Code"
	default:
		return string(f)
	}
}

// Record is a classified business card.
type Record struct {
	ID          int64  `json:"id,omitempty"`
	Name        string `json:"name"`
	Designation string `json:"designation"`
	CompanyName string `json:"company_name"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	Website     string `json:"website"`
	Street      string `json:"street"`
	City        string `json:"city"`
	State       string `json:"state"`
	PinCode     string `json:"pin_code"`
	Image       []byte `json:"-"`
}

// NewRecord returns a record with every text field set to Sentinel.
func NewRecord() Record {
	var r Record
	for _, f := range Fields {
		r.Set(f, Sentinel)
	}
	return r
}

// Get returns the value of a text field.
func (r *Record) Get(f Field) string {
	if p := r.slot(f); p != nil {
		return *p
	}
	return ""
}

// Set assigns a text field. Unknown fields are ignored.
func (r *Record) Set(f Field, value string) {
	if p := r.slot(f); p != nil {
		*p = value
	}
}

// Values returns the text fields in store column order.
func (r *Record) Values() []string {
	out := make([]string, len(Fields))
	for i, f := range Fields {
		out[i] = r.Get(f)
	}
	return out
}

// IsSet reports whether a field holds something other than the sentinel.
func (r *Record) IsSet(f Field) bool {
	v := strings.TrimSpace(r.Get(f))
	return v != "" && v != Sentinel
}

// Validate checks the record can be stored.
func (r *Record) Validate() error {
	if !r.IsSet(FieldName) {
		return fmt.Errorf("record name is required")
	}
	return nil
}

func (r *Record) slot(f Field) *string {
	switch f {
	case FieldName:
		return &r.Name
	case FieldDesignation:
		return &r.Designation
	case FieldCompany:
		return &r.CompanyName
	case FieldPhone:
		return &r.Phone
	case FieldEmail:
		return &r.Email
	case FieldWebsite:
		return &r.Website
	case FieldStreet:
		return &r.Street
	case FieldCity:
		return &r.City
	case FieldState:
		return &r.State
	case FieldPinCode:
		return &r.PinCode
	default:
		return nil
	}
}

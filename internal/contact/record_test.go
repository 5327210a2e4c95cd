package contact_test

import (
	"testing"

	"bizcard/internal/contact"
)

func TestNewRecordUsesSentinel(t *testing.T) {
	r := contact.NewRecord()
	for _, f := range contact.Fields {
		if got := r.Get(f); got != contact.Sentinel {
			t.Fatalf("field %s = %q, want sentinel", f, got)
		}
		if r.IsSet(f) {
			t.Fatalf("field %s should not count as set", f)
		}
	}
	if err := r.Validate(); err == nil {
		t.Fatal("expected validation error for sentinel name")
	}
}

func TestSetGetRoundTrip(t *testing.T) {
	r := contact.NewRecord()
	r.Set(contact.FieldCompany, "ACME Corp")
	r.Set(contact.Field("bogus"), "ignored")
	if r.CompanyName != "ACME Corp" {
		t.Fatalf("unexpected company: %q", r.CompanyName)
	}
	values := r.Values()
	if len(values) != len(contact.Fields) {
		t.Fatalf("expected %d values, got %d", len(contact.Fields), len(values))
	}
	if values[2] != "ACME Corp" {
		t.Fatalf("expected company in column 2, got %q", values[2])
	}
}

func TestParseField(t *testing.T) {
	cases := map[string]contact.Field{
		"name":          contact.FieldName,
		" EMAIL ":       contact.FieldEmail,
		"company":       contact.FieldCompany,
		"mobile_number": contact.FieldPhone,
		"pincode":       contact.FieldPinCode,
	}
	for raw, want := range cases {
		got, ok := contact.ParseField(raw)
		if !ok || got != want {
			t.Fatalf("ParseField(%q) = %q, %v", raw, got, ok)
		}
	}
	if _, ok := contact.ParseField("image"); ok {
		t.Fatal("image must not parse as a text field")
	}
}

func TestBoxExtents(t *testing.T) {
	b := contact.RectBox(10, 20, 100, 30)
	if b.Top() != 20 || b.Left() != 10 || b.Bottom() != 50 || b.Right() != 110 {
		t.Fatalf("unexpected extents: %+v", b)
	}
	if b.Height() != 30 {
		t.Fatalf("unexpected height %v", b.Height())
	}
}

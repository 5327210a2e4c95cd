package textutil

import "testing"

func TestNormalizeFragment(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"fullwidth digits", "１２３-４５６", "123-456"},
		{"nbsp and tabs", "Jane\u00a0Doe\t ", "Jane Doe"},
		{"control chars", "ACME\x00 Corp", "ACME Corp"},
		{"ligature", "ﬁnance", "finance"},
		{"blank", "  \t ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeFragment(tt.in); got != tt.want {
				t.Errorf("NormalizeFragment(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeAllDropsEmpty(t *testing.T) {
	got := NormalizeAll([]string{" a ", "", "\t", "b"})
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("unexpected result: %q", got)
	}
}

func TestRegionMatcherExact(t *testing.T) {
	m := NewRegionMatcher([]string{"Tamil Nadu", "Kerala"}, 0)
	if name, ok := m.Match("tamilnadu"); !ok || name != "Tamil Nadu" {
		t.Fatalf("expected exact match ignoring spaces, got %q %v", name, ok)
	}
	if _, ok := m.Match("Keral"); ok {
		t.Fatal("fuzzy match must be disabled with threshold 0")
	}
	if _, ok := m.Match(""); ok {
		t.Fatal("blank text must not match")
	}
}

func TestRegionMatcherFuzzy(t *testing.T) {
	m := NewRegionMatcher([]string{"Karnataka", "Kerala"}, 0.9)
	if name, ok := m.Match("Karnatka"); !ok || name != "Karnataka" {
		t.Fatalf("expected fuzzy match, got %q %v", name, ok)
	}
	if _, ok := m.Match("Springfield"); ok {
		t.Fatal("unrelated text must not match")
	}
}

func TestRegionMatcherDefaults(t *testing.T) {
	m := NewRegionMatcher(nil, 0)
	if len(m.Names()) != len(DefaultRegions) {
		t.Fatalf("expected default regions, got %d", len(m.Names()))
	}
}

func TestSanitizeToken(t *testing.T) {
	tests := map[string]string{
		"Jane Doe":      "jane_doe",
		"  ":            "unknown",
		"card (1).PNG":  "card__1_.png",
		"../etc/passwd": "etc_passwd",
	}
	for in, want := range tests {
		if got := SanitizeToken(in); got != want {
			t.Errorf("SanitizeToken(%q) = %q, want %q", in, got, want)
		}
	}
}

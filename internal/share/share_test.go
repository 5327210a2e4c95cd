package share

import (
	"errors"
	"strings"
	"testing"
	"time"

	"bizcard/internal/services"
)

const testSecret = "0123456789abcdef-test"

func newTestSigner(t *testing.T, now time.Time) *Signer {
	t.Helper()
	s, err := NewSigner(testSecret)
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	s.now = func() time.Time { return now }
	return s
}

func TestNewSignerRejectsShortSecret(t *testing.T) {
	_, err := NewSigner("short")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestIssueAndVerify(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := newTestSigner(t, now)

	tok, err := s.Issue(42, 2*time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if !tok.ExpiresAt.Equal(now.Add(2 * time.Hour)) {
		t.Fatalf("expires at %v", tok.ExpiresAt)
	}
	if err := s.Verify(tok.Value, 42); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if err := s.Verify(tok.Value, 43); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected card mismatch to fail, got %v", err)
	}

	s.now = func() time.Time { return now.Add(3 * time.Hour) }
	if err := s.Verify(tok.Value, 42); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired token to fail, got %v", err)
	}
}

func TestVerifyRejectsForeignSecret(t *testing.T) {
	now := time.Now()
	a := newTestSigner(t, now)
	b, err := NewSigner("another-secret-of-length")
	if err != nil {
		t.Fatal(err)
	}
	tok, err := a.Issue(7, 0)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if err := b.Verify(tok.Value, 7); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected foreign token to fail, got %v", err)
	}
	if err := a.Verify("", 7); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected empty token to fail, got %v", err)
	}
}

func TestIssueValidatesInput(t *testing.T) {
	s := newTestSigner(t, time.Now())
	cases := []struct {
		id  int64
		ttl time.Duration
	}{
		{0, time.Hour},
		{1, time.Second},
		{1, MaxTTL + time.Hour},
	}
	for _, tc := range cases {
		if _, err := s.Issue(tc.id, tc.ttl); !errors.Is(err, services.ErrValidation) {
			t.Fatalf("Issue(%d, %s) err = %v, want validation", tc.id, tc.ttl, err)
		}
	}
}

func TestURL(t *testing.T) {
	got := URL("https://cards.example.com/", Token{Value: "a.b+c", CardID: 5})
	if !strings.HasPrefix(got, "https://cards.example.com/share/5/vcard?token=") || !strings.Contains(got, "a.b%2Bc") {
		t.Fatalf("URL = %q", got)
	}
}

func TestQRURL(t *testing.T) {
	got := QRURL("http://127.0.0.1:7488", Token{Value: "abc", CardID: 3})
	if got != "http://127.0.0.1:7488/share/3/vcard.png?token=abc" {
		t.Fatalf("QRURL = %q", got)
	}
}

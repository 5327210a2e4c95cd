package share

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"bizcard/internal/services"
)

const (
	issuer = "bizcard"

	// DefaultTTL is used when a caller does not ask for a lifetime.
	DefaultTTL = 24 * time.Hour
	// MaxTTL bounds link lifetime.
	MaxTTL = 168 * time.Hour
	// MinSecretLength is the shortest accepted signing secret, in bytes.
	MinSecretLength = 16
)

// ErrInvalidToken is returned for malformed, expired, or mismatched tokens.
var ErrInvalidToken = errors.New("share link is invalid or has expired")

type claims struct {
	CardID int64 `json:"card_id"`
	jwt.RegisteredClaims
}

// Token is an issued share token.
type Token struct {
	Value     string    `json:"token"`
	CardID    int64     `json:"card_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Signer issues and verifies share tokens. It is safe for concurrent use.
type Signer struct {
	secret []byte
	now    func() time.Time
}

// NewSigner returns a signer for secret.
func NewSigner(secret string) (*Signer, error) {
	secret = strings.TrimSpace(secret)
	if len(secret) < MinSecretLength {
		return nil, services.Wrap(services.ErrConfiguration, "share", "init",
			fmt.Sprintf("share secret must be at least %d bytes", MinSecretLength), nil)
	}
	return &Signer{secret: []byte(secret), now: time.Now}, nil
}

// Issue signs a token for cardID valid for ttl. Zero ttl means DefaultTTL.
func (s *Signer) Issue(cardID int64, ttl time.Duration) (Token, error) {
	if cardID <= 0 {
		return Token{}, services.Wrap(services.ErrValidation, "share", "issue", "card id must be positive", nil)
	}
	if ttl == 0 {
		ttl = DefaultTTL
	}
	if ttl < time.Minute || ttl > MaxTTL {
		return Token{}, services.Wrap(services.ErrValidation, "share", "issue",
			fmt.Sprintf("lifetime must be between 1m and %s", MaxTTL), nil)
	}
	now := s.now()
	exp := now.Add(ttl)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		CardID: cardID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   strconv.FormatInt(cardID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign share token: %w", err)
	}
	return Token{Value: signed, CardID: cardID, ExpiresAt: exp.UTC().Truncate(time.Second)}, nil
}

// Verify checks that token is valid now and names cardID.
func (s *Signer) Verify(token string, cardID int64) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrInvalidToken
	}
	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return ErrInvalidToken
	}
	if c.CardID != cardID {
		return ErrInvalidToken
	}
	return nil
}

// URL builds the public vCard link for a token under base.
func URL(base string, t Token) string {
	return link(base, t, "vcard")
}

// QRURL builds the public link to the card's vCard QR code.
func QRURL(base string, t Token) string {
	return link(base, t, "vcard.png")
}

func link(base string, t Token, resource string) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	return fmt.Sprintf("%s/share/%d/%s?token=%s", base, t.CardID, resource, url.QueryEscape(t.Value))
}

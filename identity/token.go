package identity

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/unkn0wn-root/infracache/codec"
)

const BearerScheme = "Bearer"

type tokenClaims struct {
	Subject   string `json:"sub"`
	ExpiresAt int64  `json:"exp"`
	IssuedAt  int64  `json:"iat"`
}

var claimsCodec codec.JSON[tokenClaims]

// TokenIssuer issues opaque bearer tokens: base64url(claims) "." base64url(HMAC-SHA256).
type TokenIssuer struct {
	key      []byte
	lifetime time.Duration
	now      func() time.Time
}

// NewTokenIssuer requires a key of at least 32 bytes. now may be nil.
func NewTokenIssuer(key []byte, lifetime time.Duration, now func() time.Time) (*TokenIssuer, error) {
	if len(key) < 32 {
		return nil, errors.New("identity: token key must be at least 32 bytes")
	}
	if lifetime <= 0 {
		return nil, errors.New("identity: token lifetime must be positive")
	}
	if now == nil {
		now = time.Now
	}
	return &TokenIssuer{key: append([]byte(nil), key...), lifetime: lifetime, now: now}, nil
}

func (t *TokenIssuer) Issue(userID string) (*oauth2.Token, error) {
	now := t.now()
	exp := now.Add(t.lifetime)
	payload, err := claimsCodec.Encode(tokenClaims{Subject: userID, ExpiresAt: exp.Unix(), IssuedAt: now.Unix()})
	if err != nil {
		return nil, err
	}
	body := base64.RawURLEncoding.EncodeToString(payload)
	sig := base64.RawURLEncoding.EncodeToString(t.sign(body))
	return &oauth2.Token{
		AccessToken: body + "." + sig,
		TokenType:   BearerScheme,
		Expiry:      time.Unix(exp.Unix(), 0),
	}, nil
}

// Validate returns the user id an access token was issued for.
func (t *TokenIssuer) Validate(access string) (string, error) {
	body, sigPart, ok := strings.Cut(access, ".")
	if !ok || body == "" || sigPart == "" {
		return "", ErrInvalidToken
	}
	sig, err := base64.RawURLEncoding.DecodeString(sigPart)
	if err != nil || subtle.ConstantTimeCompare(t.sign(body), sig) != 1 {
		return "", ErrInvalidToken
	}
	payload, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil {
		return "", ErrInvalidToken
	}
	c, err := claimsCodec.Decode(payload)
	if err != nil || c.Subject == "" {
		return "", ErrInvalidToken
	}
	if !t.now().Before(time.Unix(c.ExpiresAt, 0)) {
		return "", ErrExpiredToken
	}
	return c.Subject, nil
}

// Authenticate validates an Authorization header value ("Bearer <token>").
func (t *TokenIssuer) Authenticate(header string) (string, error) {
	tok := ExtractBearer(header)
	if tok == "" {
		return "", ErrInvalidToken
	}
	return t.Validate(tok)
}

// ExtractBearer returns the token of a "Bearer <token>" header value, or "".
func ExtractBearer(header string) string {
	header = strings.TrimSpace(header)
	prefix := strings.ToLower(BearerScheme) + " "
	if strings.HasPrefix(strings.ToLower(header), prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

func (t *TokenIssuer) sign(body string) []byte {
	mac := hmac.New(sha256.New, t.key)
	_, _ = mac.Write([]byte(body))
	return mac.Sum(nil)
}

// Package jwtcodec decodes bearer tokens without verification and
// produces HS256-signed replacements from an edited claim-set. The
// editing model itself never touches signature bytes.
package jwtcodec

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"math/big"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/louisbranch/selfcare/internal/account"
	apperrors "github.com/louisbranch/selfcare/internal/platform/errors"
	"github.com/louisbranch/selfcare/internal/token/claims"
)

// Codec signs tokens with a shared HS256 secret.
type Codec struct {
	secret []byte
	now    func() time.Time
}

// New creates a codec. The secret must be non-empty.
func New(secret string) (*Codec, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, errors.New("signing secret is required")
	}
	return &Codec{secret: []byte(secret), now: time.Now}, nil
}

// SetNow overrides the clock, for tests.
func (c *Codec) SetNow(now func() time.Time) {
	if now != nil {
		c.now = now
	}
}

// Decode parses a token without verifying its signature. Expired tokens
// decode normally; expiry is the caller's concern.
func (c *Codec) Decode(token string) (account.DecodedToken, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return account.DecodedToken{}, apperrors.New(apperrors.CodeTokenDecodeFailed, "token is required")
	}

	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return account.DecodedToken{}, apperrors.Wrap(apperrors.CodeTokenDecodeFailed, "token is malformed", err)
	}
	payload, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return account.DecodedToken{}, apperrors.New(apperrors.CodeTokenDecodeFailed, "token payload is not an object")
	}

	return account.DecodedToken{
		Header:  parsed.Header,
		Payload: claims.Claims(payload),
	}, nil
}

// ReEncode signs the claim-set with HS256 as a replacement payload for
// the base token. The set is the complete new payload, so claims the
// editor dropped stay dropped; only the base token's kid header is
// carried over.
func (c *Codec) ReEncode(base string, set claims.ClaimSet) (string, error) {
	decoded, err := c.Decode(base)
	if err != nil {
		return "", err
	}

	payload := jwt.MapClaims{}
	for key, value := range set {
		payload[key] = value
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, payload)
	if kid, ok := decoded.Header["kid"]; ok {
		token.Header["kid"] = kid
	}
	return c.sign(token)
}

// Generate signs a fresh token carrying exactly the given claim-set.
func (c *Codec) Generate(set claims.ClaimSet) (string, error) {
	payload := jwt.MapClaims{}
	for key, value := range set {
		payload[key] = value
	}
	return c.sign(jwt.NewWithClaims(jwt.SigningMethodHS256, payload))
}

func (c *Codec) sign(token *jwt.Token) (string, error) {
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeTokenEncodeFailed, "token signing failed", err)
	}
	return signed, nil
}

// RandomSessionValues produces fresh session claims: a random session
// id, a plausible login count, and a consistent iat/exp/auth_time
// window anchored at the current clock.
func (c *Codec) RandomSessionValues() (claims.ClaimSet, error) {
	sid, err := randomSessionID()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeTokenEncodeFailed, "session id generation failed", err)
	}
	count, err := rand.Int(rand.Reader, big.NewInt(50))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeTokenEncodeFailed, "login count generation failed", err)
	}

	now := c.now().Unix()
	return claims.ClaimSet{
		"sid":        sid,
		"loginCount": count.Int64() + 1,
		"iat":        now,
		"exp":        now + 86400,
		"auth_time":  now - 300,
	}, nil
}

func randomSessionID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "sess_" + hex.EncodeToString(buf), nil
}

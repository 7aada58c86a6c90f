// Package auth implements session credentials and request authorization.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/apollostem/academy/internal/models"
)

// Verification failure reasons. Callers branch on these to distinguish a
// garbled token from a stale one.
var (
	ErrMalformed    = errors.New("token malformed")
	ErrBadSignature = errors.New("token signature invalid")
	ErrExpired      = errors.New("token expired")
)

// Identity is the claim set bound into a credential at issuance.
type Identity struct {
	UserID string
	Email  string
	Role   models.Role
}

// Credential is a verified, time-bounded claim set reconstructed from a
// presented token. It is never persisted server-side.
type Credential struct {
	UserID    string
	Email     string
	Role      models.Role
	ExpiresAt time.Time
}

// Codec signs and verifies session credentials. The secret is injected at
// construction (loaded once from config at process start) and the codec is
// otherwise stateless.
type Codec struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

// NewCodec creates a codec with the given signing secret and token lifetime.
func NewCodec(secret string, expiry time.Duration) *Codec {
	return &Codec{
		secret: []byte(secret),
		expiry: expiry,
		now:    time.Now,
	}
}

// WithClock overrides the codec's clock. Used by tests to verify expiry.
func (c *Codec) WithClock(now func() time.Time) *Codec {
	c.now = now
	return c
}

// Issue produces a signed credential for the identity. The role must belong
// to the closed enumeration; arbitrary role strings are rejected here rather
// than accepted into circulation.
func (c *Codec) Issue(identity Identity) (string, error) {
	if _, err := models.ParseRole(string(identity.Role)); err != nil {
		return "", err
	}

	now := c.now()
	claims := jwt.MapClaims{
		"sub":   identity.UserID,
		"email": identity.Email,
		"role":  string(identity.Role),
		"iss":   "academy-server",
		"iat":   now.Unix(),
		"exp":   now.Add(c.expiry).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

// Verify parses and validates a token string, returning the embedded
// credential. Unknown extra claims are ignored; only the fields the server
// reads are extracted.
func (c *Codec) Verify(tokenString string) (*Credential, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return c.secret, nil
	}, jwt.WithTimeFunc(c.now))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrBadSignature
		default:
			return nil, ErrMalformed
		}
	}
	if !token.Valid {
		return nil, ErrMalformed
	}

	sub, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	roleStr, _ := claims["role"].(string)
	role, err := models.ParseRole(roleStr)
	if err != nil {
		return nil, ErrMalformed
	}

	cred := &Credential{
		UserID: sub,
		Email:  email,
		Role:   role,
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		cred.ExpiresAt = exp.Time
	}
	return cred, nil
}

// Package auth implements password hashing, stateless JWT issuance and
// verification, and the request identity carried through contexts.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrijs2005/habits/internal/common"
)

// Identity is the verified user a request acts on behalf of.
type Identity struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// Claims is the signed token payload.
type Claims struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 tokens with a shared secret.
// Issued tokens are not stored; there is no revocation.
type TokenIssuer struct {
	secret   []byte
	validity time.Duration
	issuer   string
	now      func() time.Time
}

// NewTokenIssuer constructs a TokenIssuer. issuer may be empty.
func NewTokenIssuer(secret []byte, validity time.Duration, issuer string) *TokenIssuer {
	return &TokenIssuer{secret: secret, validity: validity, issuer: issuer, now: time.Now}
}

// Issue signs a token for id with issued-at and expiry set.
func (ti *TokenIssuer) Issue(id Identity) (string, error) {
	now := ti.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		ID:       id.ID,
		Email:    id.Email,
		Username: id.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.ID,
			Issuer:    ti.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ti.validity)),
		},
	})

	tokenString, err := token.SignedString(ti.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return tokenString, nil
}

// Verify parses tokenString and returns the identity it asserts.
//
// Every failure matches common.ErrInvalidToken; an expired token
// additionally matches common.ErrTokenExpired.
func (ti *TokenIssuer) Verify(tokenString string) (Identity, error) {
	claims := &Claims{}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(ti.now),
	}
	if ti.issuer != "" {
		opts = append(opts, jwt.WithIssuer(ti.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return ti.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, fmt.Errorf("%w: %w", common.ErrInvalidToken, common.ErrTokenExpired)
		}
		return Identity{}, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if !token.Valid || claims.ID == "" {
		return Identity{}, common.ErrInvalidToken
	}

	return Identity{ID: claims.ID, Email: claims.Email, Username: claims.Username}, nil
}

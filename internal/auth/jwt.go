// Package auth issues and verifies session tokens, hashes passwords, and
// provides the middleware that gates every protected route.
//
// AUTHENTICATION FLOW OVERVIEW:
//  1. POST /api/signup stores the account with a bcrypt hash of the password
//  2. POST /api/login checks the password and issues a signed JWT
//  3. The client sends the JWT back on every call, either as
//     "Authorization: Bearer <jwt>" or as the "token" cookie
//  4. RequireAuth validates it and puts the account ID in the request context
//  5. Handlers scope every data access by that ID and nothing else
//
// JWT STRUCTURE (three base64-encoded parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header: algorithm + token type → {"alg":"HS256","typ":"JWT"}
//	- Payload: claims → {"sub":"<accountID>","iat":...,"exp":iat+24h}
//	- Signature: HMAC-SHA256(header+"."+payload, secretKey)
//
// There is no server-side session table. The signature is the only trust
// anchor, so a token stays valid until its exp claim passes.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenLifetime is how long an issued token stays valid. It is fixed.
const TokenLifetime = 24 * time.Hour

const tokenIssuer = "car-listings"

// ErrInvalidToken is wrapped by every Validate failure that is the caller's
// fault: bad signature, malformed payload, wrong algorithm or expiry elapsed.
var ErrInvalidToken = errors.New("auth: invalid or expired token")

// TokenService handles JWT creation and validation.
//
// The secret is loaded once at startup and never changes for the life of the
// process, so a TokenService is safe for concurrent use without locking.
type TokenService struct {
	secret []byte
	now    func() time.Time
}

// NewTokenService creates a TokenService with the given secret.
// The secret should be at least 32 bytes of random data in production.
// Example: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret), now: time.Now}, nil
}

// claims is the JWT payload. The account ID lives in the standard "sub"
// (Subject) claim.
type claims struct {
	jwt.RegisteredClaims
}

// Generate creates and signs a token for accountID that expires exactly
// TokenLifetime after issuance.
//
// Signing algorithm: HS256 (HMAC-SHA256), symmetric, one key for sign and verify.
func (s *TokenService) Generate(accountID string) (string, error) {
	if accountID == "" {
		return "", errors.New("auth: account ID must not be empty")
	}

	now := s.now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenLifetime)),
			Issuer:    tokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a JWT string and returns the account ID from
// its "sub" claim.
//
// VALIDATION CHECKS (performed by the jwt library):
//   - Signature is valid (wasn't tampered with, signed with our secret)
//   - Token is not expired (exp is in the future, and exp is required)
//   - Issuer matches (prevents tokens from other apps sharing a secret)
//   - Algorithm is HS256 (prevents "alg":"none" and algorithm confusion)
//
// Every failure wraps ErrInvalidToken.
func (s *TokenService) Validate(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("%w: token expired", ErrInvalidToken)
		}
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("%w: invalid token claims", ErrInvalidToken)
	}

	if c.Subject == "" {
		return "", fmt.Errorf("%w: token has no subject", ErrInvalidToken)
	}

	return c.Subject, nil
}

package auth

import (
	"crypto"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const (
	// ScopeCustomersRead allows reading synced customers
	ScopeCustomersRead = "customers:read"
	// ScopeCustomersSync allows pushing external customers for sync
	ScopeCustomersSync = "customers:sync"
)

// JwtClaims represents JWT claims with granted scopes
type JwtClaims struct {
	jwt.RegisteredClaims
	Scopes []string `json:"scopes,omitempty"`
}

// HasScope checks if claims grant scope
func (c JwtClaims) HasScope(scope string) bool {
	for _, s := range c.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// JwtIssuer signs jwt for upstream feed clients, service itself only verifies tokens
type JwtIssuer struct {
	issuer     string
	method     jwt.SigningMethod
	timeToLive time.Duration
	privateKey crypto.PrivateKey
}

// NewJwtIssuer builds JwtIssuer
func NewJwtIssuer(issuer string, method jwt.SigningMethod, ttl time.Duration, key crypto.PrivateKey) *JwtIssuer {
	return &JwtIssuer{
		issuer:     issuer,
		method:     method,
		timeToLive: ttl,
		privateKey: key,
	}
}

// Sign issues jwt granting scopes to subject
func (j *JwtIssuer) Sign(subj string, issuedAt time.Time, scopes ...string) (string, error) {
	claims := JwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    j.issuer,
			Subject:   subj,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(j.timeToLive)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
		},
		Scopes: scopes,
	}

	return jwt.NewWithClaims(j.method, claims).SignedString(j.privateKey)
}

// JwtValidator verifies jwt signed by the configured key
type JwtValidator struct {
	method    jwt.SigningMethod
	publicKey crypto.PublicKey
}

// NewJwtValidator builds new JwtValidator
func NewJwtValidator(method jwt.SigningMethod, key crypto.PublicKey) *JwtValidator {
	return &JwtValidator{publicKey: key, method: method}
}

// Verify checks if jwt is valid and grants every scope
func (j *JwtValidator) Verify(rawToken string, scopes ...string) (JwtClaims, error) {
	var claims JwtClaims
	if _, err := jwt.ParseWithClaims(rawToken, &claims, j.keyFunc); err != nil {
		return JwtClaims{}, err
	}

	for _, s := range scopes {
		if !claims.HasScope(s) {
			return JwtClaims{}, fmt.Errorf("token doesn't grant scope %s", s)
		}
	}
	return claims, nil
}

func (j *JwtValidator) keyFunc(token *jwt.Token) (any, error) {
	if token.Method.Alg() != j.method.Alg() {
		return nil, errors.New("failed to verify signing algorithm")
	}
	return j.publicKey, nil
}

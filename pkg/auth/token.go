package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims is the JWT payload issued for admin API access
type TokenClaims struct {
	NameID string `json:"nameid,omitempty"`
	Scope  string `json:"scope,omitempty"`
	jwt.RegisteredClaims
}

// TokenValidator validates HS256 signed API tokens
type TokenValidator struct {
	signingKey []byte
	issuer     string
	audience   string
}

// NewTokenValidator creates a new token validator
func NewTokenValidator(signingKey, issuer, audience string) *TokenValidator {
	return &TokenValidator{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		audience:   audience,
	}
}

// ValidateToken parses and verifies a token and returns its claim set
func (v *TokenValidator) ValidateToken(tokenString string) (Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return v.signingKey, nil
	}, jwt.WithIssuer(v.issuer), jwt.WithAudience(v.audience))
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	tc, ok := parsed.Claims.(*TokenClaims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	claims := Claims{}
	if tc.NameID != "" {
		claims[ClaimNameID] = tc.NameID
	}
	if tc.Subject != "" {
		claims[ClaimSub] = tc.Subject
	}
	if tc.Scope != "" {
		claims[ClaimScope] = tc.Scope
	}
	return claims, nil
}

// GenerateToken mints a signed token. Used by tests and the local token tool.
func (v *TokenValidator) GenerateToken(nameID string, scope string, expiresIn time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, TokenClaims{
		NameID: nameID,
		Scope:  scope,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   nameID,
			Issuer:    v.issuer,
			Audience:  []string{v.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
		},
	})
	return token.SignedString(v.signingKey)
}

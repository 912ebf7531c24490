// Package auth validates bearer tokens and exposes the resolved claim set
// to the rest of the request pipeline.
package auth

import (
	"context"
	"strings"

	"github.com/platinummonkey/adminpanel/pkg/contextkeys"
)

// Well-known claim names consulted by the application.
const (
	// ClaimNameID is the primary subject claim issued by the token service
	ClaimNameID = "nameid"
	// ClaimSub is the legacy registered subject claim, still present on
	// tokens minted before the nameid claim was introduced
	ClaimSub = "sub"
	// ClaimScope carries the granted scopes as a space-separated list
	ClaimScope = "scope"
)

// Claims is the resolved claim set attached to an authenticated request.
// Values are kept as strings; consumers parse what they need.
type Claims map[string]string

// Get returns a claim value and whether it was present
func (c Claims) Get(name string) (string, bool) {
	val, ok := c[name]
	return val, ok
}

// Scopes returns the granted scopes parsed from the scope claim
func (c Claims) Scopes() []string {
	raw, ok := c[ClaimScope]
	if !ok || raw == "" {
		return nil
	}
	return strings.Fields(raw)
}

// HasScope checks whether the claim set grants a scope. The wildcard
// scope "*" grants everything.
func (c Claims) HasScope(scope string) bool {
	for _, s := range c.Scopes() {
		if s == "*" || s == scope {
			return true
		}
	}
	return false
}

// ClaimsFromContext retrieves the authenticated claims from the context.
// Returns nil when the request carried no valid token.
func ClaimsFromContext(ctx context.Context) Claims {
	if claims, ok := ctx.Value(contextkeys.ClaimsKey).(Claims); ok {
		return claims
	}
	return nil
}

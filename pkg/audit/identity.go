package audit

import (
	"strconv"

	"github.com/platinummonkey/adminpanel/pkg/auth"
)

// identityStrategy names one claim consulted during actor resolution
type identityStrategy struct {
	name  string
	claim string
}

// identityStrategies is the ordered list of claims tried when resolving the
// acting user. The nameid claim is the primary identity; sub covers tokens
// minted before nameid was introduced.
var identityStrategies = []identityStrategy{
	{name: "primary", claim: auth.ClaimNameID},
	{name: "legacy-subject", claim: auth.ClaimSub},
}

// ResolveActor extracts the acting user's ID from a claim set.
//
// Strategies are tried in order; the first claim that is present wins, even
// if its value turns out to be malformed. Returns ErrIdentityMissing when no
// strategy finds a claim, or a *MalformedIdentityError when the winning claim
// does not parse as a positive integer.
func ResolveActor(claims auth.Claims) (int64, error) {
	for _, strategy := range identityStrategies {
		raw, ok := claims.Get(strategy.claim)
		if !ok {
			continue
		}

		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return 0, &MalformedIdentityError{Claim: strategy.claim, Raw: raw}
		}
		return id, nil
	}

	return 0, ErrIdentityMissing
}

package audit

import (
	"net/http"
	"strings"
)

// classifierRule maps a path prefix and method to a named action
type classifierRule struct {
	prefix string
	method string
	action string
}

// classifierRules is the ordered classification table; the first matching
// rule wins. Role deletion has no rule and falls through to the fallback
// label; downstream reporting depends on that label, so adding a RoleDeleted
// rule is a breaking change for consumers.
var classifierRules = []classifierRule{
	{prefix: "/api/users", method: http.MethodPost, action: ActionUserCreated},
	{prefix: "/api/users", method: http.MethodPut, action: ActionUserUpdated},
	{prefix: "/api/users", method: http.MethodDelete, action: ActionUserDeleted},
	{prefix: "/api/roles", method: http.MethodPost, action: ActionRoleCreated},
	{prefix: "/api/roles", method: http.MethodPut, action: ActionRoleUpdated},
}

// Classify maps a request method and path to an audit action label.
// Matching is case-insensitive on the path. Requests no rule covers get the
// generic label "{METHOD}_{path}" so they are still attributable.
func Classify(method, path string) string {
	lowered := strings.ToLower(path)

	for _, rule := range classifierRules {
		if rule.method == method && strings.Contains(lowered, rule.prefix) {
			return rule.action
		}
	}

	return strings.ToUpper(method) + "_" + lowered
}

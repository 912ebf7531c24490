// Package audit captures and serves the audit trail of admin API mutations.
//
// Capture happens in middleware after the response is committed: the request
// is classified into an action, the actor is resolved from token claims, and
// the record is persisted best-effort. Retrieval offers paginated filtered
// queries and CSV export. Records are append-only; nothing in this package
// updates or deletes a persisted row.
package audit

import (
	"errors"
	"fmt"
	"time"
)

// Well-known actions assigned by the classifier.
const (
	ActionUserCreated = "UserCreated"
	ActionUserUpdated = "UserUpdated"
	ActionUserDeleted = "UserDeleted"
	ActionRoleCreated = "RoleCreated"
	ActionRoleUpdated = "RoleUpdated"
)

// Record is a single captured audit event, immutable once written
type Record struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
	Timestamp time.Time `json:"timestamp"`
}

// Entry is a Record enriched with the actor's current name and email,
// joined at query time
type Entry struct {
	Record
	UserName  string `json:"user_name"`
	UserEmail string `json:"user_email"`
}

// Page is one page of query results with pagination metadata
type Page struct {
	Entries     []*Entry `json:"entries"`
	Total       int      `json:"total"`
	Page        int      `json:"page"`
	Limit       int      `json:"limit"`
	Pages       int      `json:"pages"`
	HasPrevious bool     `json:"has_previous"`
	HasNext     bool     `json:"has_next"`
}

// Filter holds the store-level search predicates. All predicates are
// conjunctive; zero values mean "not filtered".
type Filter struct {
	// User matches as a substring of the actor's name or email
	User string
	// Action matches exactly
	Action string
	// StartDate and EndDate bound the timestamp inclusively
	StartDate time.Time
	EndDate   time.Time

	Limit  int
	Offset int
}

// ErrNotFound is returned when a requested audit record does not exist
var ErrNotFound = errors.New("audit record not found")

// ErrIdentityMissing is returned when no identity claim is present
var ErrIdentityMissing = errors.New("no identity claim present")

// MalformedIdentityError is returned when an identity claim is present but
// does not parse as a positive integer user ID
type MalformedIdentityError struct {
	Claim string
	Raw   string
}

func (e *MalformedIdentityError) Error() string {
	return fmt.Sprintf("malformed identity claim %q: %q is not a valid user id", e.Claim, e.Raw)
}

// Package users manages the admin directory of user accounts and roles.
package users

import "time"

// User is an admin panel account
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	RoleID    int64     `json:"role_id"`
	Role      string    `json:"role,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Role is a named permission grouping assigned to users
type Role struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// UpdateUserRequest is the payload for updating a user
type UpdateUserRequest struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	RoleID int64  `json:"role_id"`
}

// RoleRequest is the payload for creating or updating a role
type RoleRequest struct {
	Name string `json:"name"`
}

package users

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/adminpanel/pkg/httputil"
	"github.com/platinummonkey/adminpanel/pkg/observability"
)

// Handler provides HTTP handlers for user and role management
type Handler struct {
	store  *Store
	logger *observability.Logger
}

// NewHandler creates a new users handler
func NewHandler(store *Store, logger *observability.Logger) *Handler {
	return &Handler{
		store:  store,
		logger: logger,
	}
}

// RegisterRoutes registers user and role routes on the API subrouter
func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/users", h.ListUsers).Methods("GET")
	router.HandleFunc("/users", h.CreateUser).Methods("POST")
	router.HandleFunc("/users/{id}", h.GetUser).Methods("GET")
	router.HandleFunc("/users/{id}", h.UpdateUser).Methods("PUT")
	router.HandleFunc("/users/{id}", h.DeleteUser).Methods("DELETE")

	router.HandleFunc("/roles", h.ListRoles).Methods("GET")
	router.HandleFunc("/roles", h.CreateRole).Methods("POST")
	router.HandleFunc("/roles/{id}", h.GetRole).Methods("GET")
	router.HandleFunc("/roles/{id}", h.UpdateRole).Methods("PUT")
	router.HandleFunc("/roles/{id}", h.DeleteRole).Methods("DELETE")
}

// ListUsers handles GET /api/users
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	role := httputil.ParseQueryString(r, "role", "")
	search := httputil.ParseQueryString(r, "search", "")

	list, err := h.store.ListUsers(r.Context(), role, search)
	if err != nil {
		h.logger.WithError(err).Error("failed to list users")
		httputil.WriteInternalError(w, err)
		return
	}
	if list == nil {
		list = []*User{}
	}

	httputil.WriteSuccess(w, list)
}

// GetUser handles GET /api/users/{id}
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	u, err := h.store.GetUser(r.Context(), id)
	if err == ErrNotFound {
		httputil.WriteNotFoundError(w, "user not found")
		return
	} else if err != nil {
		h.logger.WithError(err).Error("failed to get user")
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteSuccess(w, u)
}

// CreateUser handles POST /api/users
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req UpdateUserRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Name, "name") {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Email, "email") {
		return
	}

	u, err := h.store.CreateUser(r.Context(), req.Name, req.Email, req.RoleID)
	if err != nil {
		h.logger.WithError(err).Error("failed to create user")
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteCreated(w, u)
}

// UpdateUser handles PUT /api/users/{id}
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	var req UpdateUserRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Name, "name") {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Email, "email") {
		return
	}

	if err := h.store.UpdateUser(r.Context(), id, req); err == ErrNotFound {
		httputil.WriteNotFoundError(w, "user not found")
		return
	} else if err != nil {
		h.logger.WithError(err).Error("failed to update user")
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteSuccess(w, map[string]string{"status": "updated"})
}

// DeleteUser handles DELETE /api/users/{id}
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	if err := h.store.DeleteUser(r.Context(), id); err == ErrNotFound {
		httputil.WriteNotFoundError(w, "user not found")
		return
	} else if err != nil {
		h.logger.WithError(err).Error("failed to delete user")
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteSuccess(w, map[string]string{"status": "deleted"})
}

// ListRoles handles GET /api/roles
func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.ListRoles(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("failed to list roles")
		httputil.WriteInternalError(w, err)
		return
	}
	if list == nil {
		list = []*Role{}
	}

	httputil.WriteSuccess(w, list)
}

// GetRole handles GET /api/roles/{id}
func (h *Handler) GetRole(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	role, err := h.store.GetRole(r.Context(), id)
	if err == ErrNotFound {
		httputil.WriteNotFoundError(w, "role not found")
		return
	} else if err != nil {
		h.logger.WithError(err).Error("failed to get role")
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteSuccess(w, role)
}

// CreateRole handles POST /api/roles
func (h *Handler) CreateRole(w http.ResponseWriter, r *http.Request) {
	var req RoleRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Name, "name") {
		return
	}

	role, err := h.store.CreateRole(r.Context(), req.Name)
	if err != nil {
		h.logger.WithError(err).Error("failed to create role")
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteCreated(w, role)
}

// UpdateRole handles PUT /api/roles/{id}
func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	var req RoleRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Name, "name") {
		return
	}

	if err := h.store.UpdateRole(r.Context(), id, req.Name); err == ErrNotFound {
		httputil.WriteNotFoundError(w, "role not found")
		return
	} else if err != nil {
		h.logger.WithError(err).Error("failed to update role")
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteSuccess(w, map[string]string{"status": "updated"})
}

// DeleteRole handles DELETE /api/roles/{id}
func (h *Handler) DeleteRole(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	if err := h.store.DeleteRole(r.Context(), id); err == ErrNotFound {
		httputil.WriteNotFoundError(w, "role not found")
		return
	} else if err != nil {
		h.logger.WithError(err).Error("failed to delete role")
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteSuccess(w, map[string]string{"status": "deleted"})
}

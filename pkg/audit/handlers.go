package audit

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/adminpanel/pkg/httputil"
	"github.com/platinummonkey/adminpanel/pkg/observability"
)

// Handler provides HTTP handlers for audit trail retrieval
type Handler struct {
	service *Service
	logger  *observability.Logger
}

// NewHandler creates a new audit handler
func NewHandler(service *Service, logger *observability.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers audit routes on the API subrouter
func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/audit-logs", h.List).Methods("GET")
	router.HandleFunc("/audit-logs/export", h.Export).Methods("GET")
	router.HandleFunc("/audit-logs/{id:[0-9]+}", h.Get).Methods("GET")
}

// List handles GET /api/audit-logs
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, err := httputil.ParseQueryInt(r, "page", 0)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	limit, err := httputil.ParseQueryInt(r, "limit", 0)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	startDate, err := parseDateParam(r, "startDate", false)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	endDate, err := parseDateParam(r, "endDate", true)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	result, err := h.service.List(r.Context(), ListParams{
		Page:      page,
		Limit:     limit,
		User:      httputil.ParseQueryString(r, "user", ""),
		Action:    httputil.ParseQueryString(r, "action", ""),
		StartDate: startDate,
		EndDate:   endDate,
	})
	if err != nil {
		h.logger.WithError(err).Error("failed to query audit logs")
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteSuccess(w, result)
}

// Get handles GET /api/audit-logs/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	entry, err := h.service.Get(r.Context(), id)
	if err == ErrNotFound {
		httputil.WriteNotFoundError(w, "audit record not found")
		return
	} else if err != nil {
		h.logger.WithError(err).Error("failed to get audit record")
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteSuccess(w, entry)
}

// Export handles GET /api/audit-logs/export
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	startDate, err := parseDateParam(r, "startDate", false)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	endDate, err := parseDateParam(r, "endDate", true)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	content, filename, err := h.service.ExportCSV(r.Context(), ExportParams{
		StartDate: startDate,
		EndDate:   endDate,
		Action:    httputil.ParseQueryString(r, "action", ""),
	})
	if err != nil {
		h.logger.WithError(err).Error("failed to export audit logs")
		httputil.WriteInternalError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(content)
}

// parseDateParam parses a date query parameter as RFC3339, accepting a bare
// date for day granularity. A bare end date covers the whole day.
func parseDateParam(r *http.Request, key string, endOfDay bool) (time.Time, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return time.Time{}, nil
	}

	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}

	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date for %s: %s", key, raw)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}

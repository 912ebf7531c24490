package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/adminpanel/pkg/audit"
	"github.com/platinummonkey/adminpanel/pkg/auth"
	"github.com/platinummonkey/adminpanel/pkg/config"
	"github.com/platinummonkey/adminpanel/pkg/middleware"
	"github.com/platinummonkey/adminpanel/pkg/observability"
	"github.com/platinummonkey/adminpanel/pkg/users"
)

// memAuditStore is an in-memory audit store for routing tests
type memAuditStore struct {
	mu      sync.Mutex
	entries []*audit.Entry
	nextID  int64
}

func (m *memAuditStore) Insert(ctx context.Context, record *audit.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	record.ID = m.nextID
	m.entries = append(m.entries, &audit.Entry{Record: *record})
	return nil
}

func (m *memAuditStore) Search(ctx context.Context, filter audit.Filter) ([]*audit.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*audit.Entry(nil), m.entries...), nil
}

func (m *memAuditStore) Count(ctx context.Context, filter audit.Filter) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries), nil
}

func (m *memAuditStore) Get(ctx context.Context, id int64) (*audit.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, audit.ErrNotFound
}

type serverFixture struct {
	server    *Server
	mock      sqlmock.Sqlmock
	auditMem  *memAuditStore
	validator *auth.TokenValidator
}

func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)
	metrics := observability.NewMetrics(prometheus.NewRegistry())

	userStore := users.NewStoreWithoutMigrations(db, logger)
	auditMem := &memAuditStore{}

	validator := auth.NewTokenValidator("test-key", "adminpanel", "adminpanel-api")
	service := audit.NewService(auditMem, logger, metrics)

	server := NewServer(config.ServerConfig{Host: "127.0.0.1", Port: "0"}, Deps{
		Logger:   logger,
		Metrics:  metrics,
		Health:   observability.NewHealthChecker(db, nil),
		Users:    users.NewHandler(userStore, logger),
		Audit:    audit.NewHandler(service, logger),
		Recorder: audit.NewRecorder(auditMem, userStore, logger, metrics, 4),
		Auth:     middleware.NewAuthMiddleware(validator, false),
	})

	return &serverFixture{server: server, mock: mock, auditMem: auditMem, validator: validator}
}

func (f *serverFixture) token(t *testing.T, nameID string) string {
	t.Helper()
	token, err := f.validator.GenerateToken(nameID, "*", time.Hour)
	require.NoError(t, err)
	return token
}

func TestHealthEndpointsNeedNoAuth(t *testing.T) {
	f := newServerFixture(t)

	r := httptest.NewRequest("GET", "/healthz", nil)
	w := httptest.NewRecorder()
	f.server.Router().ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAPIRejectsAnonymousRequests(t *testing.T) {
	f := newServerFixture(t)

	r := httptest.NewRequest("DELETE", "/api/users/5", nil)
	w := httptest.NewRecorder()
	f.server.Router().ServeHTTP(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, f.auditMem.entries)
}

func TestSuccessfulDeleteIsAudited(t *testing.T) {
	f := newServerFixture(t)

	// The delete itself, then the recorder's actor lookup
	f.mock.ExpectExec("DELETE FROM users").
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectQuery("SELECT (.+) FROM users").
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "role_id", "role", "created_at"}).
			AddRow(int64(5), "alice", "alice@example.com", int64(1), "admin", time.Now()))

	r := httptest.NewRequest("DELETE", "http://admin.example.com/api/users/5", nil)
	r.Header.Set("Authorization", "Bearer "+f.token(t, "5"))
	w := httptest.NewRecorder()
	f.server.Router().ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, f.auditMem.entries, 1)

	entry := f.auditMem.entries[0]
	assert.Equal(t, int64(5), entry.UserID)
	assert.Equal(t, audit.ActionUserDeleted, entry.Action)
	assert.Contains(t, entry.Details, "Endpoint: http://admin.example.com/api/users/5")
}

func TestFailedDeleteIsNotAudited(t *testing.T) {
	f := newServerFixture(t)

	f.mock.ExpectExec("DELETE FROM users").
		WithArgs(int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	r := httptest.NewRequest("DELETE", "/api/users/99", nil)
	r.Header.Set("Authorization", "Bearer "+f.token(t, "5"))
	w := httptest.NewRecorder()
	f.server.Router().ServeHTTP(w, r)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, f.auditMem.entries)
}

func TestAuditLogListingRoundTrip(t *testing.T) {
	f := newServerFixture(t)

	require.NoError(t, f.auditMem.Insert(context.Background(), &audit.Record{
		UserID:    5,
		Action:    audit.ActionUserDeleted,
		Details:   "Endpoint: /api/users/9 | IP: 10.0.0.1",
		Timestamp: time.Now().UTC(),
	}))

	r := httptest.NewRequest("GET", "/api/audit-logs", nil)
	r.Header.Set("Authorization", "Bearer "+f.token(t, "5"))
	w := httptest.NewRecorder()
	f.server.Router().ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)

	var page audit.Page
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, 1, page.Total)
	require.Len(t, page.Entries, 1)
	assert.Equal(t, audit.ActionUserDeleted, page.Entries[0].Action)
}

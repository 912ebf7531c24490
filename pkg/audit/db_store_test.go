package audit

import (
	"context"
	"database/sql"
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/adminpanel/pkg/observability"
)

func newMockStore(t *testing.T) (*DBStore, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := &DBStore{
		db:     db,
		logger: observability.NewLogger(observability.ErrorLevel, io.Discard),
	}
	return store, mock
}

func entryColumns() []string {
	return []string{"id", "user_id", "action", "details", "timestamp", "name", "email"}
}

func TestDBStoreInsert(t *testing.T) {
	store, mock := newMockStore(t)

	ts := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	record := &Record{UserID: 5, Action: ActionUserDeleted, Details: "Endpoint: /api/users/9 | IP: 10.0.0.1", Timestamp: ts}

	mock.ExpectQuery("INSERT INTO audit_logs").
		WithArgs(record.UserID, record.Action, record.Details, record.Timestamp).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	err := store.Insert(context.Background(), record)
	require.NoError(t, err)
	assert.Equal(t, int64(42), record.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDBStoreInsertError(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("INSERT INTO audit_logs").
		WillReturnError(sql.ErrConnDone)

	err := store.Insert(context.Background(), &Record{UserID: 1, Action: ActionUserCreated})
	assert.Error(t, err)
}

func TestDBStoreSearch(t *testing.T) {
	ts := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	t.Run("no filters", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectQuery("SELECT (.+) FROM audit_logs").
			WillReturnRows(sqlmock.NewRows(entryColumns()).
				AddRow(int64(1), int64(5), ActionUserDeleted, "details", ts, "alice", "alice@example.com").
				AddRow(int64(2), int64(6), ActionRoleCreated, "details", ts, "bob", "bob@example.com"))

		entries, err := store.Search(context.Background(), Filter{})
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "alice", entries[0].UserName)
		assert.Equal(t, ActionUserDeleted, entries[0].Action)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("user filter matches name or email as substring", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectQuery("SELECT (.+) FROM audit_logs").
			WithArgs("%alice%").
			WillReturnRows(sqlmock.NewRows(entryColumns()))

		_, err := store.Search(context.Background(), Filter{User: "alice"})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("all filters plus paging", func(t *testing.T) {
		store, mock := newMockStore(t)

		start := ts.Add(-24 * time.Hour)
		end := ts

		mock.ExpectQuery("SELECT (.+) FROM audit_logs").
			WithArgs("%alice%", ActionUserDeleted, start, end, 10, 2).
			WillReturnRows(sqlmock.NewRows(entryColumns()))

		_, err := store.Search(context.Background(), Filter{
			User:      "alice",
			Action:    ActionUserDeleted,
			StartDate: start,
			EndDate:   end,
			Limit:     10,
			Offset:    2,
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDBStoreCount(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT COUNT(.+) FROM audit_logs").
		WithArgs(ActionUserCreated).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	count, err := store.Count(context.Background(), Filter{Action: ActionUserCreated})
	require.NoError(t, err)
	assert.Equal(t, 7, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDBStoreGet(t *testing.T) {
	ts := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	t.Run("found", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectQuery("SELECT (.+) FROM audit_logs").
			WithArgs(int64(9)).
			WillReturnRows(sqlmock.NewRows(entryColumns()).
				AddRow(int64(9), int64(5), ActionUserUpdated, "details", ts, "alice", "alice@example.com"))

		entry, err := store.Get(context.Background(), 9)
		require.NoError(t, err)
		assert.Equal(t, int64(9), entry.ID)
		assert.Equal(t, "alice@example.com", entry.UserEmail)
	})

	t.Run("missing", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectQuery("SELECT (.+) FROM audit_logs").
			WithArgs(int64(123)).
			WillReturnRows(sqlmock.NewRows(entryColumns()))

		_, err := store.Get(context.Background(), 123)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

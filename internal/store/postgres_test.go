package store

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadgrid/leadgen/internal/model"
)

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return &PostgresStore{pool: mock}, mock
}

func userRows(u model.User) *pgxmock.Rows {
	return pgxmock.NewRows([]string{"id", "email", "name", "avatar_url", "google_id", "credits", "created_at", "updated_at"}).
		AddRow(u.ID, u.Email, u.Name, u.AvatarURL, u.GoogleID, u.Credits, u.CreatedAt, u.UpdatedAt)
}

func TestPostgresGetUser(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT id, email, name`).
		WithArgs("u-1").
		WillReturnRows(userRows(model.User{
			ID: "u-1", Email: "ana@example.com", Name: "Ana",
			Credits: 4, CreatedAt: now, UpdatedAt: now,
		}))

	u, err := s.GetUser(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", u.Email)
	assert.Equal(t, 4, u.Credits)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetUser_NotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT id, email, name`).
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows([]string{"id", "email", "name", "avatar_url", "google_id", "credits", "created_at", "updated_at"}))

	_, err := s.GetUser(context.Background(), "missing")
	assert.True(t, eris.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpsertUser(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs(pgxmock.AnyArg(), "ana@example.com", "Ana", "", "g-1", 0, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery(`SELECT id, email, name`).
		WithArgs("ana@example.com").
		WillReturnRows(userRows(model.User{
			ID: "u-1", Email: "ana@example.com", Name: "Ana", GoogleID: "g-1",
			Credits: 2, CreatedAt: now, UpdatedAt: now,
		}))

	u, err := s.UpsertUser(context.Background(), model.User{Email: "ana@example.com", Name: "Ana", GoogleID: "g-1"})
	require.NoError(t, err)
	assert.Equal(t, "u-1", u.ID)
	assert.Equal(t, 2, u.Credits)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDeductCredit(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE users SET credits = credits - 1`).
		WithArgs(pgxmock.AnyArg(), "u-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, s.DeductCredit(context.Background(), "u-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDeductCredit_Insufficient(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectExec(`UPDATE users SET credits = credits - 1`).
		WithArgs(pgxmock.AnyArg(), "u-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	// The zero-row update is disambiguated by looking the user up.
	mock.ExpectQuery(`SELECT id, email, name`).
		WithArgs("u-1").
		WillReturnRows(userRows(model.User{
			ID: "u-1", Email: "ana@example.com", Name: "Ana",
			CreatedAt: now, UpdatedAt: now,
		}))

	err := s.DeductCredit(context.Background(), "u-1")
	assert.True(t, eris.Is(err, ErrInsufficientCredits))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDeductCredit_UnknownUser(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE users SET credits = credits - 1`).
		WithArgs(pgxmock.AnyArg(), "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery(`SELECT id, email, name`).
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows([]string{"id", "email", "name", "avatar_url", "google_id", "credits", "created_at", "updated_at"}))

	err := s.DeductCredit(context.Background(), "missing")
	assert.True(t, eris.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRecordSearch(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO searches`).
		WithArgs(pgxmock.AnyArg(), (*string)(nil), "plumbers in Austin", "natural_language", 8, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	rec, err := s.RecordSearch(context.Background(), model.SearchRecord{
		Query:       "plumbers in Austin",
		SearchType:  "natural_language",
		ResultCount: 8,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.False(t, rec.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListSearches(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()
	uid := "u-1"

	mock.ExpectQuery(`SELECT id, user_id, query`).
		WithArgs("u-1", 50).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "query", "search_type", "result_count", "created_at"}).
			AddRow("s-1", &uid, "plumbers in Austin", "natural_language", 8, now).
			AddRow("s-2", &uid, "roofers near me", "text", 3, now))

	records, err := s.ListSearches(context.Background(), "u-1", 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "plumbers in Austin", records[0].Query)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSaveLeads_Empty(t *testing.T) {
	s, _ := newMockStore(t)

	n, err := s.SaveLeads(context.Background(), "u-1", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

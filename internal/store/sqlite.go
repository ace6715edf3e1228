package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/leadgrid/leadgen/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS users (
	id         TEXT PRIMARY KEY,
	email      TEXT NOT NULL UNIQUE,
	name       TEXT NOT NULL,
	avatar_url TEXT NOT NULL DEFAULT '',
	google_id  TEXT NOT NULL DEFAULT '',
	credits    INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS searches (
	id           TEXT PRIMARY KEY,
	user_id      TEXT REFERENCES users(id),
	query        TEXT NOT NULL,
	search_type  TEXT NOT NULL,
	result_count INTEGER NOT NULL DEFAULT 0,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS leads (
	user_id    TEXT NOT NULL REFERENCES users(id),
	place_id   TEXT NOT NULL,
	name       TEXT NOT NULL,
	data       TEXT NOT NULL,
	saved_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (user_id, place_id)
);

CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
CREATE INDEX IF NOT EXISTS idx_searches_user_id ON searches(user_id);
CREATE INDEX IF NOT EXISTS idx_searches_created_at ON searches(created_at);
CREATE INDEX IF NOT EXISTS idx_leads_user_id ON leads(user_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertUser(ctx context.Context, user model.User) (*model.User, error) {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, name, avatar_url, google_id, credits, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(email) DO UPDATE SET
		   name = excluded.name, avatar_url = excluded.avatar_url,
		   google_id = excluded.google_id, updated_at = excluded.updated_at`,
		user.ID, user.Email, user.Name, user.AvatarURL, user.GoogleID, user.Credits, now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: upsert user")
	}
	return s.GetUserByEmail(ctx, user.Email)
}

func (s *SQLiteStore) GetUser(ctx context.Context, id string) (*model.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, email, name, avatar_url, google_id, credits, created_at, updated_at
		 FROM users WHERE id = ?`,
		id,
	)
	return scanUser(row)
}

func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, email, name, avatar_url, google_id, credits, created_at, updated_at
		 FROM users WHERE email = ?`,
		email,
	)
	return scanUser(row)
}

func (s *SQLiteStore) AddCredits(ctx context.Context, userID string, amount int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET credits = credits + ?, updated_at = ? WHERE id = ?`,
		amount, time.Now().UTC(), userID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: add credits for %s", userID)
	}
	return checkRowsAffected(res, userID)
}

// DeductCredit decrements a single credit atomically. The guard in the WHERE
// clause prevents the balance from going negative under concurrent deducts.
func (s *SQLiteStore) DeductCredit(ctx context.Context, userID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET credits = credits - 1, updated_at = ? WHERE id = ? AND credits > 0`,
		time.Now().UTC(), userID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: deduct credit for %s", userID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		if _, err := s.GetUser(ctx, userID); err != nil {
			return err
		}
		return ErrInsufficientCredits
	}
	return nil
}

func (s *SQLiteStore) RecordSearch(ctx context.Context, record model.SearchRecord) (*model.SearchRecord, error) {
	record.ID = uuid.New().String()
	record.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO searches (id, user_id, query, search_type, result_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		record.ID, record.UserID, record.Query, record.SearchType, record.ResultCount, record.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert search")
	}
	return &record, nil
}

func (s *SQLiteStore) ListSearches(ctx context.Context, userID string, limit int) ([]model.SearchRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, query, search_type, result_count, created_at
		 FROM searches WHERE user_id = ?
		 ORDER BY created_at DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list searches")
	}
	defer rows.Close()

	var records []model.SearchRecord
	for rows.Next() {
		var rec model.SearchRecord
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Query, &rec.SearchType, &rec.ResultCount, &rec.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan search")
		}
		records = append(records, rec)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: list searches iterate")
}

func (s *SQLiteStore) SaveLeads(ctx context.Context, userID string, leads []model.BusinessRecord) (int64, error) {
	if len(leads) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	var saved int64
	for _, lead := range leads {
		if lead.PlaceID == "" {
			continue
		}
		data, err := json.Marshal(lead)
		if err != nil {
			return 0, eris.Wrap(err, "sqlite: marshal lead")
		}
		_, err = tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO leads (user_id, place_id, name, data, saved_at) VALUES (?, ?, ?, ?, ?)`,
			userID, lead.PlaceID, lead.Name, string(data), now,
		)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: save lead %s", lead.PlaceID)
		}
		saved++
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit tx")
	}
	return saved, nil
}

// helpers

func checkRowsAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "user %s", id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanUser(row scannable) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.AvatarURL, &u.GoogleID, &u.Credits, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan user")
	}
	return &u, nil
}

package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/leadgrid/leadgen/internal/db"
	"github.com/leadgrid/leadgen/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"get_user":          `SELECT id, email, name, avatar_url, google_id, credits, created_at, updated_at FROM users WHERE id = $1`,
	"get_user_by_email": `SELECT id, email, name, avatar_url, google_id, credits, created_at, updated_at FROM users WHERE email = $1`,
	"deduct_credit":     `UPDATE users SET credits = credits - 1, updated_at = $1 WHERE id = $2 AND credits > 0`,
	"insert_search":     `INSERT INTO searches (id, user_id, query, search_type, result_count, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
	"list_searches":     `SELECT id, user_id, query, search_type, result_count, created_at FROM searches WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// Pool returns the underlying database pool for subsystems that need
// direct query access.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS users (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	email      TEXT NOT NULL UNIQUE,
	name       TEXT NOT NULL,
	avatar_url TEXT NOT NULL DEFAULT '',
	google_id  TEXT NOT NULL DEFAULT '',
	credits    INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS searches (
	id           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	user_id      TEXT REFERENCES users(id),
	query        TEXT NOT NULL,
	search_type  TEXT NOT NULL,
	result_count INTEGER NOT NULL DEFAULT 0,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS leads (
	user_id  TEXT NOT NULL REFERENCES users(id),
	place_id TEXT NOT NULL,
	name     TEXT NOT NULL,
	data     JSONB NOT NULL,
	saved_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (user_id, place_id)
);

CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
CREATE INDEX IF NOT EXISTS idx_searches_user_id ON searches(user_id);
CREATE INDEX IF NOT EXISTS idx_searches_created_at ON searches(created_at);
CREATE INDEX IF NOT EXISTS idx_leads_user_id ON leads(user_id);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) UpsertUser(ctx context.Context, user model.User) (*model.User, error) {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, email, name, avatar_url, google_id, credits, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (email) DO UPDATE SET
		   name = EXCLUDED.name, avatar_url = EXCLUDED.avatar_url,
		   google_id = EXCLUDED.google_id, updated_at = EXCLUDED.updated_at`,
		user.ID, user.Email, user.Name, user.AvatarURL, user.GoogleID, user.Credits, now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: upsert user")
	}
	return s.GetUserByEmail(ctx, user.Email)
}

func (s *PostgresStore) GetUser(ctx context.Context, id string) (*model.User, error) {
	return s.queryUser(ctx,
		`SELECT id, email, name, avatar_url, google_id, credits, created_at, updated_at FROM users WHERE id = $1`,
		id,
	)
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.queryUser(ctx,
		`SELECT id, email, name, avatar_url, google_id, credits, created_at, updated_at FROM users WHERE email = $1`,
		email,
	)
}

func (s *PostgresStore) queryUser(ctx context.Context, query string, arg any) (*model.User, error) {
	var u model.User
	err := s.pool.QueryRow(ctx, query, arg).
		Scan(&u.ID, &u.Email, &u.Name, &u.AvatarURL, &u.GoogleID, &u.Credits, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrap(err, "postgres: get user")
	}
	return &u, nil
}

func (s *PostgresStore) AddCredits(ctx context.Context, userID string, amount int) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET credits = credits + $1, updated_at = $2 WHERE id = $3`,
		amount, time.Now().UTC(), userID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: add credits for %s", userID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "user %s", userID)
	}
	return nil
}

// DeductCredit decrements a single credit atomically. The guard in the WHERE
// clause prevents the balance from going negative under concurrent deducts.
func (s *PostgresStore) DeductCredit(ctx context.Context, userID string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET credits = credits - 1, updated_at = $1 WHERE id = $2 AND credits > 0`,
		time.Now().UTC(), userID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: deduct credit for %s", userID)
	}
	if tag.RowsAffected() == 0 {
		if _, err := s.GetUser(ctx, userID); err != nil {
			return err
		}
		return ErrInsufficientCredits
	}
	return nil
}

func (s *PostgresStore) RecordSearch(ctx context.Context, record model.SearchRecord) (*model.SearchRecord, error) {
	record.ID = uuid.New().String()
	record.CreatedAt = time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO searches (id, user_id, query, search_type, result_count, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		record.ID, record.UserID, record.Query, record.SearchType, record.ResultCount, record.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert search")
	}
	return &record, nil
}

func (s *PostgresStore) ListSearches(ctx context.Context, userID string, limit int) ([]model.SearchRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, query, search_type, result_count, created_at FROM searches WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list searches")
	}
	defer rows.Close()

	var records []model.SearchRecord
	for rows.Next() {
		var rec model.SearchRecord
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Query, &rec.SearchType, &rec.ResultCount, &rec.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan search")
		}
		records = append(records, rec)
	}
	return records, eris.Wrap(rows.Err(), "postgres: list searches iterate")
}

// SaveLeads bulk-upserts leads keyed by (user_id, place_id).
func (s *PostgresStore) SaveLeads(ctx context.Context, userID string, leads []model.BusinessRecord) (int64, error) {
	if len(leads) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	rows := make([][]any, 0, len(leads))
	for _, lead := range leads {
		if lead.PlaceID == "" {
			continue
		}
		data, err := json.Marshal(lead)
		if err != nil {
			return 0, eris.Wrap(err, "postgres: marshal lead")
		}
		rows = append(rows, []any{userID, lead.PlaceID, lead.Name, data, now})
	}

	n, err := db.BulkUpsert(ctx, s.pool, db.Target{
		Table:   "leads",
		Columns: []string{"user_id", "place_id", "name", "data", "saved_at"},
		Key:     []string{"user_id", "place_id"},
	}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: save leads")
	}
	return n, nil
}

// Package store persists users, credits, search history, and saved leads.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/leadgrid/leadgen/internal/model"
)

// Sentinel errors.
var (
	ErrNotFound            = eris.New("store: not found")
	ErrInsufficientCredits = eris.New("store: insufficient credits")
)

// Store defines the persistence interface behind the API surface.
type Store interface {
	// Users
	UpsertUser(ctx context.Context, user model.User) (*model.User, error)
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)

	// Credits
	AddCredits(ctx context.Context, userID string, amount int) error
	DeductCredit(ctx context.Context, userID string) error

	// Search history
	RecordSearch(ctx context.Context, record model.SearchRecord) (*model.SearchRecord, error)
	ListSearches(ctx context.Context, userID string, limit int) ([]model.SearchRecord, error)

	// Saved leads
	SaveLeads(ctx context.Context, userID string, leads []model.BusinessRecord) (int64, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

package model

import "time"

// User is an authenticated account. Accounts are created on first Google
// sign-in; Credits gate the paid search tier.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	GoogleID  string    `json:"google_id,omitempty"`
	Credits   int       `json:"credits"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Paid reports whether the user currently has search credits.
func (u *User) Paid() bool {
	return u != nil && u.Credits > 0
}

// SearchRecord is one logged search, kept for history and quota auditing.
// UserID is nil for anonymous searches.
type SearchRecord struct {
	ID          string    `json:"id"`
	UserID      *string   `json:"user_id,omitempty"`
	Query       string    `json:"query"`
	SearchType  string    `json:"search_type"`
	ResultCount int       `json:"result_count"`
	CreatedAt   time.Time `json:"created_at"`
}

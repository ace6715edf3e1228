package search

import "github.com/rotisserie/eris"

// Sentinel errors surfaced to the transport layer, which maps each to an
// HTTP status.
var (
	// ErrConfiguration means a required upstream client is missing.
	ErrConfiguration = eris.New("search: not configured")
	// ErrUpstreamProvider means a live provider call failed or returned an
	// error item.
	ErrUpstreamProvider = eris.New("search: provider error")
	// ErrValidation means the request itself is unusable.
	ErrValidation = eris.New("search: invalid request")
	// ErrAddressNotFound means geocoding resolved zero candidates.
	ErrAddressNotFound = eris.New("search: address not found")
)

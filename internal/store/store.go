// Package store reads and replaces the users document. The backing service
// has no partial update and no compare-and-swap: every write overwrites the
// whole document, so callers must serialize read-modify-write cycles.
package store

import (
	"context"
	"errors"

	"shineal/internal/model"
)

var (
	// ErrNotFound is returned when the users document was never created.
	ErrNotFound = errors.New("users document not found")
	// ErrUnavailable is returned on network failures, unexpected status
	// codes and undecodable responses.
	ErrUnavailable = errors.New("document store unavailable")
)

// Client defines whole-document access to the users collection.
type Client interface {
	FetchCollection(ctx context.Context) (model.Collection, error)
	ReplaceCollection(ctx context.Context, c model.Collection) error
	EnsureInitialized(ctx context.Context) (model.Collection, error)
}

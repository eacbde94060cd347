// Package store defines the document-store collaborator contract shared
// by the kernel, plugins, and the scheduler, plus two
// implementations: an in-memory store for tests and single-node use, and a
// Postgres-backed store for production.
package store

import (
	"context"

	"github.com/Dev-ALPM/imixs-workflow/internal/itemcollection"
)

// DocumentStore is the persistence collaborator every plugin and the kernel
// depend on. Implementations translate storage failures into
// apperrors.AccessDenied or apperrors.ProcessingError, never a bare error.
type DocumentStore interface {
	// Save persists doc and returns the stored copy. MemoryStore stamps
	// $modified and assigns a missing $uniqueid; PostgresStore rejects a
	// document without $uniqueid.
	Save(ctx context.Context, doc *itemcollection.ItemCollection) (*itemcollection.ItemCollection, error)
	// Load returns the document for id, or ok=false if none exists.
	Load(ctx context.Context, id string) (doc *itemcollection.ItemCollection, ok bool, err error)
	// Find runs an opaque search-DSL query with paging.
	Find(ctx context.Context, query string, pageSize, pageIndex int, sortBy string, reverse bool) ([]*itemcollection.ItemCollection, error)
	// GetDocumentsByType returns every document whose $type equals docType.
	GetDocumentsByType(ctx context.Context, docType string) ([]*itemcollection.ItemCollection, error)
}

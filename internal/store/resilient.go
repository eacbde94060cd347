package store

import (
	"context"

	"github.com/Dev-ALPM/imixs-workflow/internal/itemcollection"
	"github.com/Dev-ALPM/imixs-workflow/internal/logging"
	"github.com/Dev-ALPM/imixs-workflow/internal/resilience"
)

// ResilientStore decorates a DocumentStore with a circuit breaker and
// exponential backoff around every call. It is meant to wrap
// PostgresStore; MemoryStore has no fallible I/O to guard.
type ResilientStore struct {
	inner DocumentStore
	guard *resilience.Guard[saveResult]
}

type saveResult struct {
	doc  *itemcollection.ItemCollection
	docs []*itemcollection.ItemCollection
	ok   bool
}

// NewResilientStore wraps inner using cfg's breaker/retry tuning.
func NewResilientStore(inner DocumentStore, cfg resilience.Config, logger *logging.Logger) *ResilientStore {
	return &ResilientStore{inner: inner, guard: resilience.NewGuard[saveResult](cfg, logger)}
}

// Save implements DocumentStore.
func (s *ResilientStore) Save(ctx context.Context, doc *itemcollection.ItemCollection) (*itemcollection.ItemCollection, error) {
	res, err := s.guard.Run(ctx, func(ctx context.Context) (saveResult, error) {
		saved, err := s.inner.Save(ctx, doc)
		return saveResult{doc: saved}, err
	})
	if err != nil {
		return nil, err
	}
	return res.doc, nil
}

// Load implements DocumentStore.
func (s *ResilientStore) Load(ctx context.Context, id string) (*itemcollection.ItemCollection, bool, error) {
	res, err := s.guard.Run(ctx, func(ctx context.Context) (saveResult, error) {
		doc, ok, err := s.inner.Load(ctx, id)
		return saveResult{doc: doc, ok: ok}, err
	})
	if err != nil {
		return nil, false, err
	}
	return res.doc, res.ok, nil
}

// Find implements DocumentStore.
func (s *ResilientStore) Find(ctx context.Context, query string, pageSize, pageIndex int, sortBy string, reverse bool) ([]*itemcollection.ItemCollection, error) {
	res, err := s.guard.Run(ctx, func(ctx context.Context) (saveResult, error) {
		docs, err := s.inner.Find(ctx, query, pageSize, pageIndex, sortBy, reverse)
		return saveResult{docs: docs}, err
	})
	if err != nil {
		return nil, err
	}
	return res.docs, nil
}

// GetDocumentsByType implements DocumentStore.
func (s *ResilientStore) GetDocumentsByType(ctx context.Context, docType string) ([]*itemcollection.ItemCollection, error) {
	res, err := s.guard.Run(ctx, func(ctx context.Context) (saveResult, error) {
		docs, err := s.inner.GetDocumentsByType(ctx, docType)
		return saveResult{docs: docs}, err
	})
	if err != nil {
		return nil, err
	}
	return res.docs, nil
}

var _ DocumentStore = (*ResilientStore)(nil)

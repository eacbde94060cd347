package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Dev-ALPM/imixs-workflow/internal/itemcollection"
)

// MemoryStore is an in-process DocumentStore guarded by a mutex, suitable
// for tests and single-node deployments without Postgres.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]*itemcollection.ItemCollection
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]*itemcollection.ItemCollection)}
}

// Save implements DocumentStore.
func (s *MemoryStore) Save(ctx context.Context, doc *itemcollection.ItemCollection) (*itemcollection.ItemCollection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !doc.HasItem(itemcollection.ItemUniqueID) {
		_ = doc.SetItemValue(itemcollection.ItemUniqueID, uuid.NewString())
	}
	_ = doc.SetItemValue(itemcollection.ItemModified, time.Now().UTC())

	stored := doc.Clone()
	s.docs[stored.GetItemValueString(itemcollection.ItemUniqueID)] = stored
	return stored.Clone(), nil
}

// Load implements DocumentStore.
func (s *MemoryStore) Load(ctx context.Context, id string) (*itemcollection.ItemCollection, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[id]
	if !ok {
		return nil, false, nil
	}
	return doc.Clone(), true, nil
}

// Find implements DocumentStore. The query DSL supported here is a single
// "type=<value>" clause, the same single clause PostgresStore supports; any
// other query matches every document.
func (s *MemoryStore) Find(ctx context.Context, query string, pageSize, pageIndex int, sortBy string, reverse bool) ([]*itemcollection.ItemCollection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wantType := ""
	if strings.HasPrefix(query, "type=") {
		wantType = strings.TrimPrefix(query, "type=")
	}

	var matches []*itemcollection.ItemCollection
	for _, doc := range s.docs {
		if wantType != "" && doc.GetItemValueString("$type") != wantType {
			continue
		}
		matches = append(matches, doc)
	}
	sortDocs(matches, sortBy, reverse)
	return paginate(matches, pageSize, pageIndex), nil
}

// GetDocumentsByType implements DocumentStore.
func (s *MemoryStore) GetDocumentsByType(ctx context.Context, docType string) ([]*itemcollection.ItemCollection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*itemcollection.ItemCollection
	for _, doc := range s.docs {
		if doc.GetItemValueString("$type") == docType {
			out = append(out, doc.Clone())
		}
	}
	sortDocs(out, "", false)
	return out, nil
}

func sortDocs(docs []*itemcollection.ItemCollection, sortBy string, reverse bool) {
	if sortBy == "" {
		sortBy = itemcollection.ItemModified
	}
	sort.Slice(docs, func(i, j int) bool {
		a, b := docs[i].GetItemValueString(sortBy), docs[j].GetItemValueString(sortBy)
		if reverse {
			return a > b
		}
		return a < b
	})
}

func paginate(docs []*itemcollection.ItemCollection, pageSize, pageIndex int) []*itemcollection.ItemCollection {
	if pageSize <= 0 {
		out := make([]*itemcollection.ItemCollection, len(docs))
		for i, d := range docs {
			out[i] = d.Clone()
		}
		return out
	}
	start := pageIndex * pageSize
	if start >= len(docs) {
		return nil
	}
	end := start + pageSize
	if end > len(docs) {
		end = len(docs)
	}
	out := make([]*itemcollection.ItemCollection, end-start)
	for i, d := range docs[start:end] {
		out[i] = d.Clone()
	}
	return out
}

var _ DocumentStore = (*MemoryStore)(nil)

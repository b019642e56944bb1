package memory

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"normas/internal/model"
	"normas/internal/repository"
)

// DocumentMemory is an in-process repository.DocumentRepository used for local development and tests.
type DocumentMemory struct {
	mu   sync.RWMutex
	docs map[string]model.Document
}

// NewDocumentMemory returns an empty store.
func NewDocumentMemory() *DocumentMemory {
	return &DocumentMemory{docs: make(map[string]model.Document)}
}

var _ repository.DocumentRepository = (*DocumentMemory)(nil)

func (r *DocumentMemory) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.docs[doc.ID]; exists {
		return nil, fmt.Errorf("duplicate key value violates unique constraint: id %q", doc.ID)
	}
	stored := *doc
	r.docs[doc.ID] = stored
	return &stored, nil
}

func (r *DocumentMemory) FindByID(ctx context.Context, id string) (*model.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.docs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &d, nil
}

func (r *DocumentMemory) List(ctx context.Context) ([]model.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]model.Document, 0, len(r.docs))
	for _, d := range r.docs {
		items = append(items, d)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID > items[j].ID
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items, nil
}

func (r *DocumentMemory) Update(ctx context.Context, id string, patch model.DocumentPatch, updatedAt time.Time) (*model.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.docs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	d = patch.Apply(d)
	d.UpdatedAt = updatedAt
	r.docs[id] = d
	return &d, nil
}

func (r *DocumentMemory) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.docs[id]; !ok {
		return sql.ErrNoRows
	}
	delete(r.docs, id)
	return nil
}

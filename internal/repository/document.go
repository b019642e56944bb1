package repository

import (
	"context"
	"time"

	"normas/internal/model"
)

// DocumentRepository defines data access for documents against the remote store.
// No business logic here, only persistence operations.
// Implementations report a missing row with sql.ErrNoRows.
type DocumentRepository interface {
	// Create inserts a new document record and returns the stored row.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns a document by its ID.
	FindByID(ctx context.Context, id string) (*model.Document, error)

	// List returns every document, most recently created first.
	List(ctx context.Context) ([]model.Document, error)

	// Update applies a partial update, stamps updated_at and returns the stored row.
	Update(ctx context.Context, id string, patch model.DocumentPatch, updatedAt time.Time) (*model.Document, error)

	// Delete removes a document by ID.
	Delete(ctx context.Context, id string) error
}

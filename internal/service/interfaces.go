package service

import (
	"context"
	"io"

	"normas/internal/model"
)

// DocumentCatalog is the in-process, cached view of the remote document store.
type DocumentCatalog interface {
	// List returns the cached documents. It never touches the network.
	List() []model.Document
	// Get returns a cached document by id.
	Get(id string) (model.Document, bool)
	// Loading reports whether a refresh is in flight.
	Loading() bool
	// Refresh re-fetches the full set; on failure the previous cache is kept.
	Refresh(ctx context.Context) error
	Create(ctx context.Context, doc model.Document) (*model.Document, error)
	Update(ctx context.Context, id string, patch model.DocumentPatch) (*model.Document, error)
	Delete(ctx context.Context, id string) error
}

// DocumentEditor runs the administrative create/update workflow.
type DocumentEditor interface {
	Submit(ctx context.Context, draft Draft, file *PendingFile) (*model.Document, error)
}

// DocumentViewer resolves and serves a document's PDF.
type DocumentViewer interface {
	Present(doc model.Document) Presentation
	Download(ctx context.Context, doc model.Document) (io.ReadCloser, Attachment, error)
}

// OrphanReconciler removes stored binaries no document references.
type OrphanReconciler interface {
	Run(ctx context.Context) (*ReconcileReport, error)
}

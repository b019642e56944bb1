package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"normas/internal/logger"
	"normas/internal/model"
	"normas/internal/repository"
	"normas/internal/storage"
)

// Catalog owns the in-memory document list and mediates every mutation against the remote store.
// After each successful mutation the cache reflects remote truth and subscribers receive a snapshot.
type Catalog struct {
	repo   repository.DocumentRepository
	store  storage.Storage
	log    *logger.Logger
	now    func() time.Time
	tracer trace.Tracer

	mu   sync.RWMutex
	docs []model.Document

	// refreshes counts in-flight refresh calls; Loading is true while it is positive.
	refreshes atomic.Int32
	started   atomic.Bool

	subMu   sync.Mutex
	subs    map[int]chan []model.Document
	nextSub int
	closed  bool
}

// CatalogOption customises a Catalog.
type CatalogOption func(*Catalog)

// WithClock overrides the time source used for created_at/updated_at.
func WithClock(now func() time.Time) CatalogOption {
	return func(c *Catalog) { c.now = now }
}

var _ DocumentCatalog = (*Catalog)(nil)

// NewCatalog constructs a Catalog. Call Start to perform the initial load.
func NewCatalog(repo repository.DocumentRepository, store storage.Storage, log *logger.Logger, opts ...CatalogOption) *Catalog {
	if log == nil {
		log = logger.Nop()
	}
	c := &Catalog{
		repo:   repo,
		store:  store,
		log:    log.With("catalog"),
		now:    time.Now,
		tracer: otel.Tracer("normas/internal/service"),
		docs:   make([]model.Document, 0),
		subs:   make(map[int]chan []model.Document),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start performs the one-time initial load. A failed load leaves the catalog empty but usable.
func (c *Catalog) Start(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return nil
	}
	return c.Refresh(ctx)
}

// Close releases every subscriber. The catalog must not be used afterwards.
func (c *Catalog) Close() {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	for id, ch := range c.subs {
		close(ch)
		delete(c.subs, id)
	}
}

// List returns a copy of the cached documents, most recently created first.
func (c *Catalog) List() []model.Document {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

// Get returns the cached document with the given id.
func (c *Catalog) Get(id string) (model.Document, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, d := range c.docs {
		if d.ID == id {
			return d, true
		}
	}
	return model.Document{}, false
}

// Loading reports whether a refresh is in progress, or the initial load has not happened yet.
func (c *Catalog) Loading() bool {
	return c.refreshes.Load() > 0 || !c.started.Load()
}

// Refresh replaces the cache with the remote set. On failure the cache is left untouched.
func (c *Catalog) Refresh(ctx context.Context) error {
	c.refreshes.Add(1)
	defer c.refreshes.Add(-1)

	ctx, span := c.tracer.Start(ctx, "catalog.Refresh")
	defer span.End()

	start := time.Now()
	docs, err := c.repo.List(ctx)
	if err != nil {
		c.fail(span, "catalog_refresh_failed", err, nil)
		return &RemoteError{Op: "list", Err: err}
	}

	c.mu.Lock()
	c.docs = docs
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.publish(snap)
	span.SetAttributes(attribute.Int("catalog.documents", len(snap)))
	c.log.Info("catalog_refreshed", map[string]any{
		"count":       len(snap),
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return nil
}

// Create validates, stamps and inserts doc, then refreshes the cache.
func (c *Catalog) Create(ctx context.Context, doc model.Document) (*model.Document, error) {
	if err := validateFields(doc.Title, doc.Category); err != nil {
		return nil, err
	}

	ctx, span := c.tracer.Start(ctx, "catalog.Create")
	defer span.End()

	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	now := c.now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	span.SetAttributes(attribute.String("document.id", doc.ID))

	stored, err := c.repo.Create(ctx, &doc)
	if err != nil {
		c.fail(span, "catalog_create_failed", err, map[string]any{"document_id": doc.ID})
		return nil, &RemoteError{Op: "create", Err: err}
	}

	if err := c.Refresh(ctx); err != nil {
		// The row exists remotely; keep the cache consistent with it until the next refresh.
		c.mu.Lock()
		c.docs = append([]model.Document{*stored}, c.docs...)
		snap := c.snapshotLocked()
		c.mu.Unlock()
		c.publish(snap)
	}

	c.log.Info("catalog_document_created", map[string]any{"document_id": stored.ID, "category": stored.Category})
	return stored, nil
}

// Update sends a partial update and merges the stored row into the cache.
func (c *Catalog) Update(ctx context.Context, id string, patch model.DocumentPatch) (*model.Document, error) {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return nil, &ValidationError{Field: "title", Message: "title is required"}
	}
	if patch.Category != nil && !patch.Category.Valid() {
		return nil, &ValidationError{Field: "category", Message: "unknown category " + string(*patch.Category)}
	}

	ctx, span := c.tracer.Start(ctx, "catalog.Update", trace.WithAttributes(attribute.String("document.id", id)))
	defer span.End()

	stored, err := c.repo.Update(ctx, id, patch, c.now().UTC())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &NotFoundError{ID: id}
		}
		c.fail(span, "catalog_update_failed", err, map[string]any{"document_id": id})
		return nil, &RemoteError{Op: "update", Err: err}
	}

	c.mu.Lock()
	replaced := false
	for i := range c.docs {
		if c.docs[i].ID == id {
			c.docs[i] = *stored
			replaced = true
			break
		}
	}
	if !replaced {
		c.docs = append([]model.Document{*stored}, c.docs...)
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.publish(snap)
	c.log.Info("catalog_document_updated", map[string]any{"document_id": id})
	return stored, nil
}

// Delete removes the document's uploaded binary (best-effort), then the record, then the cache entry.
// A failed binary delete is logged and does not block the record delete; the binary is left for the reconciler.
func (c *Catalog) Delete(ctx context.Context, id string) error {
	ctx, span := c.tracer.Start(ctx, "catalog.Delete", trace.WithAttributes(attribute.String("document.id", id)))
	defer span.End()

	doc, err := c.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &NotFoundError{ID: id}
		}
		c.fail(span, "catalog_delete_failed", err, map[string]any{"document_id": id})
		return &RemoteError{Op: "find", Err: err}
	}

	if doc.HasUpload() {
		if err := c.store.Delete(ctx, doc.PDFPath); err != nil {
			c.log.Error("catalog_blob_orphaned", err, map[string]any{
				"document_id": id,
				"pdf_path":    doc.PDFPath,
			})
		}
	}

	if err := c.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &NotFoundError{ID: id}
		}
		c.fail(span, "catalog_delete_failed", err, map[string]any{"document_id": id})
		return &RemoteError{Op: "delete", Err: err}
	}

	c.mu.Lock()
	kept := c.docs[:0:0]
	for _, d := range c.docs {
		if d.ID != id {
			kept = append(kept, d)
		}
	}
	c.docs = kept
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.publish(snap)
	c.log.Info("catalog_document_deleted", map[string]any{"document_id": id})
	return nil
}

// Subscribe returns a channel that receives the current list immediately and after every change.
// Slow readers only ever see the latest snapshot. Call cancel to unsubscribe.
func (c *Catalog) Subscribe() (<-chan []model.Document, func()) {
	ch := make(chan []model.Document, 1)

	c.subMu.Lock()
	defer c.subMu.Unlock()
	if c.closed {
		close(ch)
		return ch, func() {}
	}
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	ch <- c.List()

	return ch, func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		if sub, ok := c.subs[id]; ok {
			close(sub)
			delete(c.subs, id)
		}
	}
}

func (c *Catalog) publish(snap []model.Document) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	for _, ch := range c.subs {
		select {
		case ch <- snap:
			continue
		default:
		}
		// Replace the stale snapshot nobody has read yet.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

func (c *Catalog) snapshotLocked() []model.Document {
	out := make([]model.Document, len(c.docs))
	copy(out, c.docs)
	return out
}

func (c *Catalog) fail(span trace.Span, event string, err error, fields map[string]any) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	c.log.Error(event, err, fields)
}

func validateFields(title string, category model.Category) error {
	if strings.TrimSpace(title) == "" {
		return &ValidationError{Field: "title", Message: "title is required"}
	}
	if !category.Valid() {
		return &ValidationError{Field: "category", Message: "unknown category " + string(category)}
	}
	return nil
}

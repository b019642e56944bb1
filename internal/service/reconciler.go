package service

import (
	"context"
	"time"

	"normas/internal/logger"
	"normas/internal/repository"
	"normas/internal/storage"
)

// DefaultOrphanGrace protects uploads whose record write may still be in flight.
const DefaultOrphanGrace = 10 * time.Minute

// ReconcileReport summarises one reconciliation pass.
type ReconcileReport struct {
	Scanned    int      `json:"scanned"`
	Referenced int      `json:"referenced"`
	Deleted    []string `json:"deleted"`
	Failed     []string `json:"failed"`
}

// Reconciler deletes stored objects that no document record references.
type Reconciler struct {
	repo  repository.DocumentRepository
	store storage.Storage
	log   *logger.Logger
	now   func() time.Time
	grace time.Duration
}

var _ OrphanReconciler = (*Reconciler)(nil)

// NewReconciler constructs a Reconciler using DefaultOrphanGrace.
func NewReconciler(repo repository.DocumentRepository, store storage.Storage, log *logger.Logger) *Reconciler {
	if log == nil {
		log = logger.Nop()
	}
	return &Reconciler{repo: repo, store: store, log: log.With("reconciler"), now: time.Now, grace: DefaultOrphanGrace}
}

// Run performs one pass. Objects younger than the grace period are never removed.
func (r *Reconciler) Run(ctx context.Context) (*ReconcileReport, error) {
	docs, err := r.repo.List(ctx)
	if err != nil {
		r.log.Error("reconcile_failed", err, nil)
		return nil, &RemoteError{Op: "list", Err: err}
	}
	objects, err := r.store.List(ctx)
	if err != nil {
		r.log.Error("reconcile_failed", err, nil)
		return nil, &RemoteError{Op: "list objects", Err: err}
	}

	referenced := make(map[string]struct{}, len(docs))
	for _, d := range docs {
		if d.HasUpload() {
			referenced[d.PDFPath] = struct{}{}
		}
	}

	report := &ReconcileReport{Scanned: len(objects), Deleted: []string{}, Failed: []string{}}
	cutoff := r.now().Add(-r.grace)
	for _, obj := range objects {
		if _, ok := referenced[obj.Key]; ok {
			report.Referenced++
			continue
		}
		if obj.LastModified.After(cutoff) {
			continue
		}
		if err := r.store.Delete(ctx, obj.Key); err != nil {
			r.log.Error("reconcile_delete_failed", err, map[string]any{"key": obj.Key})
			report.Failed = append(report.Failed, obj.Key)
			continue
		}
		report.Deleted = append(report.Deleted, obj.Key)
	}

	r.log.Info("reconcile_completed", map[string]any{
		"scanned":    report.Scanned,
		"referenced": report.Referenced,
		"deleted":    len(report.Deleted),
		"failed":     len(report.Failed),
	})
	return report, nil
}

// Loop runs a pass every interval until ctx is done.
func (r *Reconciler) Loop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = r.Run(ctx)
		}
	}
}

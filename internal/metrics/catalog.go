package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"normas/internal/model"
	"normas/internal/search"
)

// CatalogSource publishes catalog snapshots. *service.Catalog satisfies it.
type CatalogSource interface {
	Subscribe() (<-chan []model.Document, func())
}

// CatalogCollector exports the number of cached documents per category.
type CatalogCollector struct {
	documents *prometheus.GaugeVec
	done      chan struct{}
	cancel    func()
	watching  bool
}

// NewCatalogCollector registers the catalog_documents gauge on reg.
func NewCatalogCollector(reg prometheus.Registerer) (*CatalogCollector, error) {
	c := &CatalogCollector{
		documents: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "catalog_documents",
				Help: "Number of documents in the catalog cache by category.",
			},
			[]string{"category"},
		),
		done:   make(chan struct{}),
		cancel: func() {},
	}
	if err := reg.Register(c.documents); err != nil {
		return nil, err
	}
	return c, nil
}

// Watch keeps the gauge in sync with src until Stop is called or src closes the subscription.
func (c *CatalogCollector) Watch(src CatalogSource) {
	updates, cancel := src.Subscribe()
	c.cancel = cancel
	c.watching = true
	go func() {
		defer close(c.done)
		for docs := range updates {
			c.Observe(docs)
		}
	}()
}

// Observe sets the gauge from a snapshot.
func (c *CatalogCollector) Observe(docs []model.Document) {
	for cat, n := range search.CountByCategory(docs) {
		c.documents.WithLabelValues(cat.String()).Set(float64(n))
	}
}

// Stop unsubscribes and waits for the watcher to exit.
func (c *CatalogCollector) Stop() {
	if !c.watching {
		return
	}
	c.cancel()
	<-c.done
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ProductsImported counts products bulk inserted from the catalog CSV.
	ProductsImported = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_products_imported_total",
		Help: "The total number of products imported from the catalog CSV",
	})

	// RowsSkipped counts CSV rows left out of an import.
	RowsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_rows_skipped_total",
		Help: "The total number of malformed CSV rows skipped during import",
	})

	// ProductsCreated is a Prometheus counter for tracking the total number of products created.
	ProductsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_products_created_total",
		Help: "The total number of products created",
	})

	// ProductsUpdated counts successful single-product updates.
	ProductsUpdated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_products_updated_total",
		Help: "The total number of products updated",
	})

	// ProductsDeleted is a Prometheus counter for tracking the total number of products deleted.
	ProductsDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_products_deleted_total",
		Help: "The total number of products deleted",
	})

	// RateFetchFailures counts exchange rate lookups that produced no rate, by failure kind.
	RateFetchFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_rate_fetch_failures_total",
		Help: "The total number of failed exchange rate lookups",
	}, []string{"kind"})
)

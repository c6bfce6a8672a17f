package repository

import (
	"context"
	"errors"

	"github.com/iyhunko/catalog-importer/internal/model"
)

// ErrNotFound is returned when no row carries the requested row identifier.
var ErrNotFound = errors.New("product not found")

// ProductRepository defines the record accessors of the catalog table.
type ProductRepository interface {
	List(ctx context.Context, query Query) ([]model.Product, error)
	FindByID(ctx context.Context, rowID int64) (*model.Product, error)
	Create(ctx context.Context, product *model.Product) (*model.Product, error)
	Update(ctx context.Context, rowID int64, product *model.Product) error
	DeleteByID(ctx context.Context, rowID int64) error
}

// TableManager owns the lifecycle of the catalog table.
type TableManager interface {
	Initialize(ctx context.Context) error
	BulkInsert(ctx context.Context, products []model.Product) (int, error)
}

// ReportRepository holds the whole-table operations.
type ReportRepository interface {
	ApplyEuroRate(ctx context.Context, rate float64) (int64, error)
	Snapshot(ctx context.Context) (*Snapshot, error)
}

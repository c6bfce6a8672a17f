package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/iyhunko/catalog-importer/internal/csvload"
	"github.com/iyhunko/catalog-importer/internal/exchange"
	"github.com/iyhunko/catalog-importer/internal/metrics"
	"github.com/iyhunko/catalog-importer/internal/model"
	"github.com/iyhunko/catalog-importer/internal/repository"
	"github.com/iyhunko/catalog-importer/internal/sqs"
)

// CatalogLoader reads the catalog CSV.
type CatalogLoader interface {
	Load(ctx context.Context, source string) (*csvload.Result, error)
}

// RateFetcher returns the sell price of a currency.
type RateFetcher interface {
	FetchRate(ctx context.Context, currency string) (float64, error)
}

// Notifier publishes catalog changes.
type Notifier interface {
	PublishProductMessage(ctx context.Context, msg sqs.ProductMessage) error
}

// Repositories groups the storage collaborators of ProductService.
type Repositories struct {
	Tables   repository.TableManager
	Products repository.ProductRepository
	Reports  repository.ReportRepository
}

// ImportSummary describes the outcome of ImportCatalog.
type ImportSummary struct {
	Loaded   int `json:"loaded"`
	Skipped  int `json:"skipped"`
	Inserted int `json:"inserted"`
}

// EuroPrices describes the outcome of ApplyEuroPrices.
type EuroPrices struct {
	Rate         float64 `json:"rate"`
	RowsAffected int64   `json:"rows_affected"`
}

type ProductService struct {
	repos    Repositories
	loader   CatalogLoader
	rates    RateFetcher
	notifier Notifier
	source   string
	currency string
}

// NewProductService wires the catalog operations. notifier may be nil.
func NewProductService(repos Repositories, loader CatalogLoader, rates RateFetcher, notifier Notifier, source, currency string) *ProductService {
	return &ProductService{
		repos:    repos,
		loader:   loader,
		rates:    rates,
		notifier: notifier,
		source:   source,
		currency: currency,
	}
}

// ResetTable drops and recreates the catalog table.
func (ps *ProductService) ResetTable(ctx context.Context) error {
	return ps.repos.Tables.Initialize(ctx)
}

// ImportCatalog loads the configured CSV and appends its rows to the table.
func (ps *ProductService) ImportCatalog(ctx context.Context) (*ImportSummary, error) {
	result, err := ps.loader.Load(ctx, ps.source)
	if err != nil {
		slog.Error("failed to load catalog", slog.Any("err", err), slog.String("source", ps.source))
		return &ImportSummary{}, fmt.Errorf("load catalog: %w", err)
	}

	for _, skipped := range result.Skipped {
		slog.Debug("skipped catalog row", slog.Int("line", skipped.Line), slog.String("reason", skipped.Reason))
	}
	metrics.RowsSkipped.Add(float64(len(result.Skipped)))

	summary := &ImportSummary{
		Loaded:  len(result.Products),
		Skipped: len(result.Skipped),
	}
	inserted, err := ps.repos.Tables.BulkInsert(ctx, result.Products)
	if err != nil {
		return summary, fmt.Errorf("insert catalog: %w", err)
	}
	summary.Inserted = inserted
	metrics.ProductsImported.Add(float64(inserted))

	slog.Info("catalog imported",
		slog.String("source", ps.source),
		slog.Int("count", inserted),
		slog.Int("skipped", summary.Skipped),
	)
	return summary, nil
}

func (ps *ProductService) ListProducts(ctx context.Context, query repository.Query) ([]model.Product, error) {
	return ps.repos.Products.List(ctx, query)
}

func (ps *ProductService) GetProduct(ctx context.Context, rowID int64) (*model.Product, error) {
	return ps.repos.Products.FindByID(ctx, rowID)
}

func (ps *ProductService) CreateProduct(ctx context.Context, product *model.Product) (*model.Product, error) {
	if err := product.Validate(); err != nil {
		return nil, err
	}

	created, err := ps.repos.Products.Create(ctx, product)
	if err != nil {
		return nil, err
	}

	metrics.ProductsCreated.Inc()
	ps.notify(ctx, sqs.ActionCreated, created)

	return created, nil
}

// UpdateProduct overwrites the ten base fields of the row.
func (ps *ProductService) UpdateProduct(ctx context.Context, rowID int64, product *model.Product) (*model.Product, error) {
	if err := product.Validate(); err != nil {
		return nil, err
	}

	if err := ps.repos.Products.Update(ctx, rowID, product); err != nil {
		return nil, err
	}

	updated := *product
	updated.RowID = rowID
	metrics.ProductsUpdated.Inc()
	ps.notify(ctx, sqs.ActionUpdated, &updated)

	return &updated, nil
}

func (ps *ProductService) DeleteProduct(ctx context.Context, rowID int64) error {
	// Find the product first to get its details for the message
	product, err := ps.repos.Products.FindByID(ctx, rowID)
	if err != nil {
		return err
	}

	if err := ps.repos.Products.DeleteByID(ctx, rowID); err != nil {
		return err
	}

	metrics.ProductsDeleted.Inc()
	ps.notify(ctx, sqs.ActionDeleted, product)

	return nil
}

// FetchRate returns the sell price of the configured currency.
func (ps *ProductService) FetchRate(ctx context.Context) (float64, error) {
	rate, err := ps.rates.FetchRate(ctx, ps.currency)
	if err != nil {
		kind := "unknown"
		var rateErr *exchange.Error
		if errors.As(err, &rateErr) {
			kind = string(rateErr.Kind)
		}
		metrics.RateFetchFailures.WithLabelValues(kind).Inc()
		slog.Warn("exchange rate unavailable", slog.Any("err", err), slog.String("currency", ps.currency))
		return 0, err
	}
	return rate, nil
}

// ApplyEuroPrices fetches the rate and stores the converted prices of every row.
func (ps *ProductService) ApplyEuroPrices(ctx context.Context) (*EuroPrices, error) {
	rate, err := ps.FetchRate(ctx)
	if err != nil {
		return nil, err
	}

	affected, err := ps.repos.Reports.ApplyEuroRate(ctx, rate)
	if err != nil {
		return nil, fmt.Errorf("apply rate: %w", err)
	}

	slog.Info("euro prices applied", slog.Float64("rate", rate), slog.Int64("count", affected))
	return &EuroPrices{Rate: rate, RowsAffected: affected}, nil
}

func (ps *ProductService) Snapshot(ctx context.Context) (*repository.Snapshot, error) {
	return ps.repos.Reports.Snapshot(ctx)
}

func (ps *ProductService) notify(ctx context.Context, action string, product *model.Product) {
	if ps.notifier == nil {
		return
	}
	if err := ps.notifier.PublishProductMessage(ctx, sqs.NewProductMessage(action, product)); err != nil {
		// Log error but don't fail the request
		slog.Error("failed to send SQS message", slog.Any("err", err), slog.String("action", action), slog.Int64("row_id", product.RowID))
	}
}

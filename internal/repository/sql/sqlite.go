package sql

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/iyhunko/catalog-importer/internal/model"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const driverName = "sqlite"

const (
	baseColumns   = `"index", product, category, sub_category, brand, sale_price, market_price, type, rating, description`
	selectColumns = `rowid, ` + baseColumns + `, sale_price_euro, market_price_euro`
)

// Opener acquires a database handle for the duration of a single operation.
// The caller owns the handle and must close it.
type Opener func(ctx context.Context) (*sqlx.DB, error)

// SQLiteOpener returns an Opener connecting to the SQLite file at path.
func SQLiteOpener(path string) Opener {
	return func(ctx context.Context) (*sqlx.DB, error) {
		db, err := sqlx.Open(driverName, path)
		if err != nil {
			return nil, fmt.Errorf("failed to open database connection: %w", err)
		}

		// Test the connection
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}

		return db, nil
	}
}

// withDB acquires a handle, runs fn and releases the handle.
func withDB(ctx context.Context, open Opener, fn func(db dbExecutor) error) error {
	db, err := open(ctx)
	if err != nil {
		return err
	}
	defer closeDB(db)

	return fn(db)
}

// withinTransaction acquires a handle and runs fn inside a transaction on it.
func withinTransaction(ctx context.Context, open Opener, fn func(tx dbExecutor) error) error {
	db, err := open(ctx)
	if err != nil {
		return err
	}
	defer closeDB(db)

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("failed to rollback transaction: %w (original error: %v)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func closeDB(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		slog.Warn("failed to close database connection", slog.Any("err", err))
	}
}

// quoteIdent quotes a table name that config validation already restricted to a plain identifier.
func quoteIdent(name string) string {
	return `"` + name + `"`
}

func baseArgs(p *model.Product) []interface{} {
	return []interface{}{
		p.Index, p.Name, p.Category, p.SubCategory, p.Brand,
		p.SalePrice, p.MarketPrice, p.Type, p.Rating, p.Description,
	}
}

package sql

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/iyhunko/catalog-importer/internal/model"
)

const createTableQuery = `CREATE TABLE %s (
	"index" INT,
	product VARCHAR(100),
	category VARCHAR(100),
	sub_category VARCHAR(100),
	brand VARCHAR(100),
	sale_price REAL,
	market_price REAL,
	type VARCHAR(100),
	rating REAL,
	description VARCHAR(1000),
	sale_price_euro REAL,
	market_price_euro REAL)`

// TableManager drops, creates and bulk loads the catalog table.
type TableManager struct {
	open  Opener
	table string
}

// NewTableManager creates a new TableManager for the given table.
func NewTableManager(open Opener, table string) *TableManager {
	return &TableManager{open: open, table: table}
}

// Initialize drops the table if it exists and recreates it empty.
func (m *TableManager) Initialize(ctx context.Context) error {
	table := quoteIdent(m.table)
	err := withinTransaction(ctx, m.open, func(tx dbExecutor) error {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, table)); err != nil {
			return fmt.Errorf("failed to drop table: %w", err)
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(createTableQuery, table)); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("table initialized", slog.String("table", m.table))
	return nil
}

// BulkInsert inserts all products in one transaction and sets their RowID.
func (m *TableManager) BulkInsert(ctx context.Context, products []model.Product) (int, error) {
	if len(products) == 0 {
		return 0, nil
	}

	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, quoteIdent(m.table), baseColumns)
	err := withinTransaction(ctx, m.open, func(tx dbExecutor) error {
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare insert statement: %w", err)
		}
		defer stmt.Close()

		for i := range products {
			result, err := stmt.ExecContext(ctx, baseArgs(&products[i])...)
			if err != nil {
				return fmt.Errorf("failed to insert product with index %d: %w", products[i].Index, err)
			}
			rowID, err := result.LastInsertId()
			if err != nil {
				return fmt.Errorf("failed to get last insert id: %w", err)
			}
			products[i].RowID = rowID
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return len(products), nil
}

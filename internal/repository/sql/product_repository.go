package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iyhunko/catalog-importer/internal/model"
	"github.com/iyhunko/catalog-importer/internal/repository"
)

// ProductRepository implements repository.ProductRepository on top of SQLite rowids.
type ProductRepository struct {
	open  Opener
	table string
}

// NewProductRepository creates a new ProductRepository instance.
func NewProductRepository(open Opener, table string) *ProductRepository {
	return &ProductRepository{open: open, table: table}
}

// List retrieves products in rowid order. A zero limit returns every row.
func (r *ProductRepository) List(ctx context.Context, query repository.Query) ([]model.Product, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(fmt.Sprintf("SELECT %s FROM %s WHERE 1=1", selectColumns, quoteIdent(r.table)))

	var args []interface{}
	if query.Paginator != nil {
		queryBuilder.WriteString(" AND rowid > ?")
		args = append(args, query.Paginator.LastRowID)
	}

	queryBuilder.WriteString(" ORDER BY rowid")

	if query.Limit > 0 {
		queryBuilder.WriteString(" LIMIT ?")
		args = append(args, query.Limit)
	}

	products := []model.Product{}
	err := withDB(ctx, r.open, func(db dbExecutor) error {
		return db.SelectContext(ctx, &products, queryBuilder.String(), args...)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}

	return products, nil
}

// FindByID retrieves a single product by row identifier.
func (r *ProductRepository) FindByID(ctx context.Context, rowID int64) (*model.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE rowid = ?`, selectColumns, quoteIdent(r.table))

	var result model.Product
	err := withDB(ctx, r.open, func(db dbExecutor) error {
		return db.GetContext(ctx, &result, query, rowID)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("row %d: %w", rowID, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	return &result, nil
}

// Create inserts a new product and sets its RowID.
func (r *ProductRepository) Create(ctx context.Context, product *model.Product) (*model.Product, error) {
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, quoteIdent(r.table), baseColumns)

	err := withDB(ctx, r.open, func(db dbExecutor) error {
		stmt, err := db.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare insert statement: %w", err)
		}
		defer stmt.Close()

		result, err := stmt.ExecContext(ctx, baseArgs(product)...)
		if err != nil {
			return fmt.Errorf("failed to insert product: %w", err)
		}

		product.RowID, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return product, nil
}

// Update overwrites the ten base fields of the product at rowID.
func (r *ProductRepository) Update(ctx context.Context, rowID int64, product *model.Product) error {
	query := fmt.Sprintf(`UPDATE %s SET "index" = ?, product = ?, category = ?, sub_category = ?, brand = ?, `+
		`sale_price = ?, market_price = ?, type = ?, rating = ?, description = ? WHERE rowid = ?`, quoteIdent(r.table))

	err := withDB(ctx, r.open, func(db dbExecutor) error {
		stmt, err := db.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare update statement: %w", err)
		}
		defer stmt.Close()

		result, err := stmt.ExecContext(ctx, append(baseArgs(product), rowID)...)
		if err != nil {
			return fmt.Errorf("failed to update product: %w", err)
		}

		return expectOneRow(result, rowID)
	})
	if err != nil {
		return err
	}

	product.RowID = rowID
	return nil
}

// DeleteByID deletes a product by row identifier.
func (r *ProductRepository) DeleteByID(ctx context.Context, rowID int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE rowid = ?`, quoteIdent(r.table))

	return withDB(ctx, r.open, func(db dbExecutor) error {
		stmt, err := db.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare delete statement: %w", err)
		}
		defer stmt.Close()

		result, err := stmt.ExecContext(ctx, rowID)
		if err != nil {
			return fmt.Errorf("failed to delete product: %w", err)
		}

		return expectOneRow(result, rowID)
	})
}

func expectOneRow(result sql.Result, rowID int64) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("row %d: %w", rowID, repository.ErrNotFound)
	}

	return nil
}

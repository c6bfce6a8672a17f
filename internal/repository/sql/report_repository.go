package sql

import (
	"context"
	"fmt"

	"github.com/iyhunko/catalog-importer/internal/repository"
)

// ReportRepository implements the whole-table operations.
type ReportRepository struct {
	open  Opener
	table string
}

// NewReportRepository creates a new ReportRepository instance.
func NewReportRepository(open Opener, table string) *ReportRepository {
	return &ReportRepository{open: open, table: table}
}

// ApplyEuroRate recomputes both euro columns of every row from the base prices.
func (r *ReportRepository) ApplyEuroRate(ctx context.Context, rate float64) (int64, error) {
	query := fmt.Sprintf(`UPDATE %s SET sale_price_euro = sale_price * ?, market_price_euro = market_price * ?`, quoteIdent(r.table))

	var affected int64
	err := withDB(ctx, r.open, func(db dbExecutor) error {
		result, err := db.ExecContext(ctx, query, rate, rate)
		if err != nil {
			return fmt.Errorf("failed to apply euro rate: %w", err)
		}
		affected, err = result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return affected, nil
}

// Snapshot reads the whole table, rowid first, into memory.
func (r *ReportRepository) Snapshot(ctx context.Context) (*repository.Snapshot, error) {
	query := fmt.Sprintf(`SELECT rowid, * FROM %s ORDER BY rowid`, quoteIdent(r.table))

	db, err := r.open(ctx)
	if err != nil {
		return nil, err
	}
	defer closeDB(db)

	rows, err := db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query table: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	snapshot := &repository.Snapshot{Columns: columns}
	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		snapshot.Rows = append(snapshot.Rows, values)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return snapshot, nil
}

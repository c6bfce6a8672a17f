package sql

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/iyhunko/catalog-importer/internal/model"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableManager_Initialize(t *testing.T) {
	ctx := context.Background()

	t.Run("drops and recreates the table", func(t *testing.T) {
		open, mock := newMockOpener(t)
		manager := NewTableManager(open, testTable)

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`DROP TABLE IF EXISTS "bigbasket"`)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE "bigbasket"`)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()
		mock.ExpectClose()

		err := manager.Initialize(ctx)
		require.NoError(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when create fails", func(t *testing.T) {
		open, mock := newMockOpener(t)
		manager := NewTableManager(open, testTable)

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`DROP TABLE IF EXISTS "bigbasket"`)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE "bigbasket"`)).
			WillReturnError(errors.New("disk full"))
		mock.ExpectRollback()
		mock.ExpectClose()

		err := manager.Initialize(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create table")

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reports open failure", func(t *testing.T) {
		manager := NewTableManager(func(context.Context) (*sqlx.DB, error) {
			return nil, errors.New("no such file")
		}, testTable)

		err := manager.Initialize(ctx)
		assert.EqualError(t, err, "no such file")
	})
}

func TestTableManager_BulkInsert(t *testing.T) {
	ctx := context.Background()

	t.Run("inserts every product in one transaction", func(t *testing.T) {
		open, mock := newMockOpener(t)
		manager := NewTableManager(open, testTable)

		first := *sampleProduct()
		second := *sampleProduct()
		second.Index = 2
		second.Name = "Denim Jacket"
		second.Rating = nil

		mock.ExpectBegin()
		prep := mock.ExpectPrepare(regexp.QuoteMeta(`INSERT INTO "bigbasket"`))
		prep.ExpectExec().
			WithArgs(int64(1), "Slim Fit Shirt", "Clothing", "Shirts", "Acme", 10.5, 12.0, "Casual", 4.2, "Cotton shirt").
			WillReturnResult(sqlmock.NewResult(1, 1))
		prep.ExpectExec().
			WithArgs(int64(2), "Denim Jacket", "Clothing", "Shirts", "Acme", 10.5, 12.0, "Casual", nil, "Cotton shirt").
			WillReturnResult(sqlmock.NewResult(2, 1))
		mock.ExpectCommit()
		mock.ExpectClose()

		products := []model.Product{first, second}
		inserted, err := manager.BulkInsert(ctx, products)
		require.NoError(t, err)

		assert.Equal(t, 2, inserted)
		assert.Equal(t, int64(1), products[0].RowID)
		assert.Equal(t, int64(2), products[1].RowID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on insert failure", func(t *testing.T) {
		open, mock := newMockOpener(t)
		manager := NewTableManager(open, testTable)

		mock.ExpectBegin()
		mock.ExpectPrepare(regexp.QuoteMeta(`INSERT INTO "bigbasket"`)).
			ExpectExec().
			WillReturnError(errors.New("no such table: bigbasket"))
		mock.ExpectRollback()
		mock.ExpectClose()

		inserted, err := manager.BulkInsert(ctx, []model.Product{*sampleProduct()})
		require.Error(t, err)
		assert.Zero(t, inserted)
		assert.Contains(t, err.Error(), "failed to insert product with index 1")

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty input does not touch the database", func(t *testing.T) {
		open, mock := newMockOpener(t)
		manager := NewTableManager(open, testTable)

		inserted, err := manager.BulkInsert(ctx, nil)
		require.NoError(t, err)
		assert.Zero(t, inserted)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

package sql

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/iyhunko/catalog-importer/internal/model"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

const testTable = "bigbasket"

var productColumns = []string{
	"rowid", "index", "product", "category", "sub_category", "brand", "sale_price", "market_price",
	"type", "rating", "description", "sale_price_euro", "market_price_euro",
}

// newMockOpener returns an Opener handing out a single sqlmock-backed handle.
// Every repository call closes its handle, so each test registers mock.ExpectClose().
func newMockOpener(t *testing.T) (Opener, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	return func(context.Context) (*sqlx.DB, error) {
		return sqlxDB, nil
	}, mock
}

func sampleProduct() *model.Product {
	return &model.Product{
		Index:       1,
		Name:        "Slim Fit Shirt",
		Category:    "Clothing",
		SubCategory: "Shirts",
		Brand:       "Acme",
		SalePrice:   model.Float(10.5),
		MarketPrice: model.Float(12),
		Type:        "Casual",
		Rating:      model.Float(4.2),
		Description: "Cotton shirt",
	}
}

package model

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidProduct is returned when a product fails validation.
var ErrInvalidProduct = errors.New("invalid product")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Product represents one row of the catalog table.
// RowID is the storage engine's implicit row identifier and is never taken from the CSV.
type Product struct {
	RowID           int64    `db:"rowid" json:"row_id"`
	Index           int64    `db:"index" json:"index"`
	Name            string   `db:"product" json:"product"`
	Category        string   `db:"category" json:"category"`
	SubCategory     string   `db:"sub_category" json:"sub_category"`
	Brand           string   `db:"brand" json:"brand"`
	SalePrice       *float64 `db:"sale_price" json:"sale_price" validate:"omitempty,gte=0"`
	MarketPrice     *float64 `db:"market_price" json:"market_price" validate:"omitempty,gte=0"`
	Type            string   `db:"type" json:"type"`
	Rating          *float64 `db:"rating" json:"rating" validate:"omitempty,gte=0"`
	Description     string   `db:"description" json:"description"`
	SalePriceEuro   *float64 `db:"sale_price_euro" json:"sale_price_euro"`
	MarketPriceEuro *float64 `db:"market_price_euro" json:"market_price_euro"`
}

// Validate checks the base fields of the product.
func (p *Product) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProduct, err)
	}
	return nil
}

// SameBaseFields reports whether both products carry the same ten base fields.
// RowID and the derived euro prices are ignored.
func (p *Product) SameBaseFields(o *Product) bool {
	return p.Index == o.Index &&
		p.Name == o.Name &&
		p.Category == o.Category &&
		p.SubCategory == o.SubCategory &&
		p.Brand == o.Brand &&
		equalFloat(p.SalePrice, o.SalePrice) &&
		equalFloat(p.MarketPrice, o.MarketPrice) &&
		p.Type == o.Type &&
		equalFloat(p.Rating, o.Rating) &&
		p.Description == o.Description
}

func equalFloat(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

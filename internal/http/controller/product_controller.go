package controller

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/iyhunko/catalog-importer/internal/csvload"
	"github.com/iyhunko/catalog-importer/internal/exchange"
	"github.com/iyhunko/catalog-importer/internal/model"
	"github.com/iyhunko/catalog-importer/internal/repository"
	"github.com/iyhunko/catalog-importer/internal/service"
)

// ProductService is the part of service.ProductService the HTTP API needs.
type ProductService interface {
	ResetTable(ctx context.Context) error
	ImportCatalog(ctx context.Context) (*service.ImportSummary, error)
	ListProducts(ctx context.Context, query repository.Query) ([]model.Product, error)
	GetProduct(ctx context.Context, rowID int64) (*model.Product, error)
	CreateProduct(ctx context.Context, product *model.Product) (*model.Product, error)
	UpdateProduct(ctx context.Context, rowID int64, product *model.Product) (*model.Product, error)
	DeleteProduct(ctx context.Context, rowID int64) error
	ApplyEuroPrices(ctx context.Context) (*service.EuroPrices, error)
}

// ProductController handles HTTP requests for product operations.
type ProductController struct {
	productService ProductService
}

// NewProductController creates a new ProductController with the given product service.
func NewProductController(productService ProductService) *ProductController {
	return &ProductController{
		productService: productService,
	}
}

// ProductRequest carries the ten base fields of a product.
type ProductRequest struct {
	Index       *int64   `json:"index" binding:"required"`
	Product     string   `json:"product"`
	Category    string   `json:"category"`
	SubCategory string   `json:"sub_category"`
	Brand       string   `json:"brand"`
	SalePrice   *float64 `json:"sale_price"`
	MarketPrice *float64 `json:"market_price"`
	Type        string   `json:"type"`
	Rating      *float64 `json:"rating"`
	Description string   `json:"description"`
}

func (r ProductRequest) toModel() *model.Product {
	return &model.Product{
		Index:       *r.Index,
		Name:        r.Product,
		Category:    r.Category,
		SubCategory: r.SubCategory,
		Brand:       r.Brand,
		SalePrice:   r.SalePrice,
		MarketPrice: r.MarketPrice,
		Type:        r.Type,
		Rating:      r.Rating,
		Description: r.Description,
	}
}

// ListProductsRequest represents the query parameters for listing products.
type ListProductsRequest struct {
	Limit int32  `form:"limit"`
	Token string `form:"token"`
}

// ListProductsResponse represents the response body for listing products.
type ListProductsResponse struct {
	Products      []model.Product `json:"products"`
	NextPageToken string          `json:"next_page_token,omitempty"`
}

// ListProducts handles the HTTP GET request for listing products with pagination.
func (pc *ProductController) ListProducts(c *gin.Context) {
	var req ListProductsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	query := repository.NewQuery()
	if err := query.ApplyPagination(req.Limit, req.Token); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	products, err := pc.productService.ListProducts(c.Request.Context(), *query)
	if err != nil {
		slog.Error("failed to list products", slog.Any("err", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list products"})
		return
	}

	response := ListProductsResponse{
		Products: products,
	}

	// A full page means there may be more rows after the last one
	if len(products) > 0 && len(products) == query.Limit {
		paginator := repository.Paginator{
			LastRowID: products[len(products)-1].RowID,
		}
		response.NextPageToken = paginator.Encode()
	}

	c.JSON(http.StatusOK, response)
}

// GetProduct handles the HTTP GET request for a single row.
func (pc *ProductController) GetProduct(c *gin.Context) {
	rowID, ok := rowIDParam(c)
	if !ok {
		return
	}

	product, err := pc.productService.GetProduct(c.Request.Context(), rowID)
	if err != nil {
		writeError(c, err, "failed to get product")
		return
	}

	c.JSON(http.StatusOK, product)
}

// CreateProduct handles the HTTP POST request for creating a new product.
func (pc *ProductController) CreateProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := pc.productService.CreateProduct(c.Request.Context(), req.toModel())
	if err != nil {
		writeError(c, err, "failed to create product")
		return
	}

	c.JSON(http.StatusCreated, created)
}

// UpdateProduct handles the HTTP PUT request replacing the base fields of a row.
func (pc *ProductController) UpdateProduct(c *gin.Context) {
	rowID, ok := rowIDParam(c)
	if !ok {
		return
	}

	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := pc.productService.UpdateProduct(c.Request.Context(), rowID, req.toModel())
	if err != nil {
		writeError(c, err, "failed to update product")
		return
	}

	c.JSON(http.StatusOK, updated)
}

// DeleteProduct handles the HTTP DELETE request for deleting a product by row id.
func (pc *ProductController) DeleteProduct(c *gin.Context) {
	rowID, ok := rowIDParam(c)
	if !ok {
		return
	}

	if err := pc.productService.DeleteProduct(c.Request.Context(), rowID); err != nil {
		writeError(c, err, "failed to delete product")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "product deleted successfully"})
}

// ImportCatalog recreates the table and imports the configured catalog.
func (pc *ProductController) ImportCatalog(c *gin.Context) {
	ctx := c.Request.Context()
	if err := pc.productService.ResetTable(ctx); err != nil {
		slog.Error("failed to reset table", slog.Any("err", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to reset table"})
		return
	}

	summary, err := pc.productService.ImportCatalog(ctx)
	if err != nil {
		var loadErr *csvload.Error
		if errors.As(err, &loadErr) {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "summary": summary})
			return
		}
		slog.Error("failed to import catalog", slog.Any("err", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to import catalog", "summary": summary})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// ApplyEuroPrices fetches the exchange rate and stores euro prices for every row.
func (pc *ProductController) ApplyEuroPrices(c *gin.Context) {
	result, err := pc.productService.ApplyEuroPrices(c.Request.Context())
	if err != nil {
		var rateErr *exchange.Error
		if errors.As(err, &rateErr) {
			c.JSON(http.StatusBadGateway, gin.H{"error": "exchange rate unavailable", "kind": rateErr.Kind})
			return
		}
		slog.Error("failed to apply euro prices", slog.Any("err", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to apply euro prices"})
		return
	}

	c.JSON(http.StatusOK, result)
}

func rowIDParam(c *gin.Context) (int64, bool) {
	rowID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product ID"})
		return 0, false
	}
	return rowID, true
}

func writeError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
	case errors.Is(err, model.ErrInvalidProduct):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		slog.Error(message, slog.Any("err", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": message})
	}
}

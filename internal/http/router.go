package http

import (
	"github.com/gin-gonic/gin"
	"github.com/iyhunko/catalog-importer/internal/http/controller"
	"github.com/iyhunko/catalog-importer/internal/http/middleware"
)

func InitRouter(server *gin.Engine, ctr *controller.Controller, productCtr *controller.ProductController) *gin.Engine {
	// Apply recovery middleware globally to prevent panics from crashing the server
	server.Use(middleware.Recovery(), middleware.CORS(), middleware.Logger())

	server.GET("/ping", ctr.Ping)

	// Product endpoints
	products := server.Group("/products")
	{
		products.GET("", productCtr.ListProducts)
		products.POST("", productCtr.CreateProduct)
		products.POST("/import", productCtr.ImportCatalog)
		products.POST("/euro-prices", productCtr.ApplyEuroPrices)
		products.GET("/:id", productCtr.GetProduct)
		products.PUT("/:id", productCtr.UpdateProduct)
		products.DELETE("/:id", productCtr.DeleteProduct)
	}

	return server
}

// internal/handlers/product.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/skunkglobal/suite-server/internal/services"
	"github.com/skunkglobal/suite-server/internal/utils"
)

type ProductHandler struct {
	productService *services.ProductService
}

func NewProductHandler(productService *services.ProductService) *ProductHandler {
	return &ProductHandler{
		productService: productService,
	}
}

// GET /products
func (h *ProductHandler) List(c *gin.Context) {
	utils.SuccessResponse(c, gin.H{
		"products": h.productService.All(),
	})
}

// GET /products/states
func (h *ProductHandler) States(c *gin.Context) {
	states := make(map[string]services.ProductState)
	for _, product := range h.productService.All() {
		states[product.Key] = h.productService.Detect(product.Key)
	}

	utils.SuccessResponse(c, gin.H{
		"states": states,
	})
}

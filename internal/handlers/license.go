// internal/handlers/license.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/skunkglobal/suite-server/internal/i18n"
	"github.com/skunkglobal/suite-server/internal/models"
	"github.com/skunkglobal/suite-server/internal/services"
	"github.com/skunkglobal/suite-server/internal/utils"
)

type LicenseHandler struct {
	licenseService *services.LicenseService
}

func NewLicenseHandler(licenseService *services.LicenseService) *LicenseHandler {
	return &LicenseHandler{
		licenseService: licenseService,
	}
}

type ActivateLicenseRequest struct {
	Product    string `json:"product" validate:"required,product_key"`
	LicenseKey string `json:"license_key" validate:"required,license_key"`
}

type DeactivateLicenseRequest struct {
	Product string `json:"product" validate:"required,product_key"`
}

type ValidateLicenseRequest struct {
	Product string `json:"product" validate:"required,product_key"`
	Force   bool   `json:"force"`
}

// POST /license/activate
func (h *LicenseHandler) Activate(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req ActivateLicenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	// Validate request
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	result := h.licenseService.Activate(req.Product, req.LicenseKey)
	if !result.Success {
		utils.BadRequestResponse(c, result.Message, nil)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": result.Message,
		"license": h.licenseService.GetLicenseInfo(req.Product),
	})
}

// POST /license/deactivate
func (h *LicenseHandler) Deactivate(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req DeactivateLicenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	// Validate request
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	result := h.licenseService.Deactivate(req.Product)
	if !result.Success {
		utils.InternalErrorResponse(c, result.Message)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": result.Message,
	})
}

// POST /license/validate
func (h *LicenseHandler) Validate(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req ValidateLicenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	// Validate request
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	result := h.licenseService.Validate(req.Product, req.Force)

	// Validation failure is state, not a transport error
	utils.SuccessResponse(c, gin.H{
		"valid":   result.Success,
		"message": result.Message,
		"license": h.licenseService.GetLicenseInfo(req.Product),
	})
}

// GET /license/details?product=crm
func (h *LicenseHandler) Details(c *gin.Context) {
	product := c.Query("product")

	if product != "" {
		if !models.IsValidProduct(product) {
			utils.BadRequestResponse(c, "Invalid product.", nil)
			return
		}
		utils.SuccessResponse(c, gin.H{
			"license": h.licenseService.GetLicenseInfo(product),
		})
		return
	}

	licenses := make(map[string]services.LicenseInfo, len(models.ProductKeys))
	for _, key := range models.ProductKeys {
		licenses[key] = h.licenseService.GetLicenseInfo(key)
	}

	utils.SuccessResponse(c, gin.H{
		"licenses": licenses,
	})
}

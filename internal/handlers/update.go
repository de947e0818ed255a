// internal/handlers/update.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skunkglobal/suite-server/internal/i18n"
	"github.com/skunkglobal/suite-server/internal/services"
	"github.com/skunkglobal/suite-server/internal/utils"
)

type UpdateHandler struct {
	updateService *services.UpdateService
}

func NewUpdateHandler(updateService *services.UpdateService) *UpdateHandler {
	return &UpdateHandler{
		updateService: updateService,
	}
}

type CheckUpdatesRequest struct {
	Transient *services.UpdateTransient `json:"transient"`
	Force     bool                      `json:"force"`
}

// POST /updates/check
func (h *UpdateHandler) Check(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req CheckUpdatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	transient := h.updateService.CheckUpdates(req.Transient, req.Force)

	utils.SuccessResponse(c, gin.H{
		"transient": transient,
		"plugins":   h.updateService.Registered(),
	})
}

// GET /updates/plugins/:slug
func (h *UpdateHandler) PluginInfo(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	slug := c.Param("slug")

	details, ok := h.updateService.PluginInfo(slug)
	if !ok {
		utils.ErrorResponse(c, http.StatusNotFound, "NOT_FOUND", i18n.T(lang, i18n.KeyUpdatePluginUnknown), nil)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"plugin": details,
	})
}

// POST /updates/filter
func (h *UpdateHandler) Filter(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var transient services.UpdateTransient
	if err := c.ShouldBindJSON(&transient); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"transient": h.updateService.FilterUpdateTransient(&transient),
	})
}

// POST /updates/completed
func (h *UpdateHandler) Completed(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var event services.UpgradeEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	h.updateService.AfterUpdate(event)

	utils.SuccessResponse(c, gin.H{
		"message": "ok",
	})
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/wso2/psd2-consent-management/internal/models"
	"github.com/wso2/psd2-consent-management/internal/service"
	"github.com/wso2/psd2-consent-management/internal/utils"
)

// ConsentHandler handles AIS/PIIS consent HTTP requests
type ConsentHandler struct {
	consentService *service.ConsentService
	logger         *logrus.Logger
}

// NewConsentHandler creates a new consent handler instance
func NewConsentHandler(consentService *service.ConsentService, logger *logrus.Logger) *ConsentHandler {
	return &ConsentHandler{
		consentService: consentService,
		logger:         logger,
	}
}

// CreateConsent handles POST /consents
func (h *ConsentHandler) CreateConsent(c *gin.Context) {
	var req models.CreateConsentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendBadRequestError(c, "Invalid request body", err.Error())
		return
	}

	resp, err := h.consentService.CreateConsent(c.Request.Context(), &req)
	if err != nil {
		utils.SendServiceError(c, h.logger, err, "Failed to create consent")
		return
	}
	utils.SendCreatedResponse(c, resp)
}

// GetConsent handles GET /consents/:consentId
func (h *ConsentHandler) GetConsent(c *gin.Context) {
	consent, err := h.consentService.GetConsent(c.Request.Context(), c.Param("consentId"))
	if err != nil {
		utils.SendServiceError(c, h.logger, err, "Failed to retrieve consent")
		return
	}
	if consent == nil {
		h.consentNotFound(c)
		return
	}
	utils.SendOKResponse(c, consent)
}

// GetConsentStatus handles GET /consents/:consentId/status
func (h *ConsentHandler) GetConsentStatus(c *gin.Context) {
	status, err := h.consentService.GetConsentStatus(c.Request.Context(), c.Param("consentId"))
	if err != nil {
		utils.SendServiceError(c, h.logger, err, "Failed to retrieve consent status")
		return
	}
	if status == nil {
		h.consentNotFound(c)
		return
	}
	utils.SendOKResponse(c, status)
}

// UpdateConsentStatus handles PUT /consents/:consentId/status
func (h *ConsentHandler) UpdateConsentStatus(c *gin.Context) {
	var req models.UpdateConsentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendBadRequestError(c, "Invalid request body", err.Error())
		return
	}

	ok, err := h.consentService.UpdateConsentStatus(c.Request.Context(), c.Param("consentId"), req.Status)
	if err != nil {
		utils.SendServiceError(c, h.logger, err, "Failed to update consent status")
		return
	}
	utils.SendBoolResponse(c, ok)
}

// CheckAndLogUsage handles POST /consents/:consentId/usage
func (h *ConsentHandler) CheckAndLogUsage(c *gin.Context) {
	var req models.ConsentUsageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendBadRequestError(c, "Invalid request body", err.Error())
		return
	}

	if err := h.consentService.CheckAndLogUsage(c.Request.Context(), c.Param("consentId"), &req); err != nil {
		utils.SendServiceError(c, h.logger, err, "Failed to record consent usage")
		return
	}
	c.Status(http.StatusNoContent)
}

// UpdateAccess handles PUT /consents/:consentId/access
func (h *ConsentHandler) UpdateAccess(c *gin.Context) {
	var access models.AccountAccess
	if err := c.ShouldBindJSON(&access); err != nil {
		utils.SendBadRequestError(c, "Invalid request body", err.Error())
		return
	}

	consentID, err := h.consentService.UpdateAccess(c.Request.Context(), c.Param("consentId"), access)
	if err != nil {
		utils.SendServiceError(c, h.logger, err, "Failed to update consent access")
		return
	}
	if consentID == "" {
		utils.SendNotFoundError(c, models.ErrCodeConsentNotFound, "Consent not found or not in an updatable status")
		return
	}
	utils.SendOKResponse(c, models.UpdateAccessResponse{ConsentID: consentID})
}

// UpdateMultilevelScaRequired handles PUT /consents/:consentId/multilevel-sca
func (h *ConsentHandler) UpdateMultilevelScaRequired(c *gin.Context) {
	var req models.MultilevelScaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendBadRequestError(c, "Invalid request body", err.Error())
		return
	}

	ok, err := h.consentService.UpdateMultilevelScaRequired(c.Request.Context(), c.Param("consentId"), req.MultilevelScaRequired)
	if err != nil {
		utils.SendServiceError(c, h.logger, err, "Failed to update multilevel SCA flag")
		return
	}
	utils.SendBoolResponse(c, ok)
}

// GetPsuData handles GET /consents/:consentId/psu-data
func (h *ConsentHandler) GetPsuData(c *gin.Context) {
	psus, err := h.consentService.GetPsuDataByConsentID(c.Request.Context(), c.Param("consentId"))
	if err != nil {
		utils.SendServiceError(c, h.logger, err, "Failed to retrieve PSU data")
		return
	}
	if psus == nil {
		h.consentNotFound(c)
		return
	}
	utils.SendOKResponse(c, psus)
}

// TerminateOldConsents handles POST /consents/:consentId/terminate-old
func (h *ConsentHandler) TerminateOldConsents(c *gin.Context) {
	ok, err := h.consentService.FindAndTerminateOldConsents(c.Request.Context(), c.Param("consentId"))
	if err != nil {
		utils.SendServiceError(c, h.logger, err, "Failed to terminate old consents")
		return
	}
	utils.SendBoolResponse(c, ok)
}

// ExportConsents handles GET /consents?tppId= or GET /consents?psuId=
func (h *ConsentHandler) ExportConsents(c *gin.Context) {
	tppID := c.Query("tppId")
	psuID := c.Query("psuId")

	var (
		consents []*models.Consent
		err      error
	)
	switch {
	case tppID != "":
		consents, err = h.consentService.ExportConsentsByTpp(c.Request.Context(), tppID)
	case psuID != "":
		consents, err = h.consentService.ExportConsentsByPsu(c.Request.Context(), psuID)
	default:
		utils.SendValidationError(c, "one of tppId or psuId query parameters is required")
		return
	}
	if err != nil {
		utils.SendServiceError(c, h.logger, err, "Failed to export consents")
		return
	}

	page := utils.PaginationFromQuery(c)
	start, end := page.Bounds(len(consents))
	utils.SendOKResponse(c, models.ConsentListResponse{
		Data:       consents[start:end],
		Pagination: utils.CalculatePaginationMetadata(len(consents), page.Limit, page.Offset),
	})
}

func (h *ConsentHandler) consentNotFound(c *gin.Context) {
	utils.SendNotFoundError(c, models.ErrCodeConsentNotFound, "Consent not found")
}

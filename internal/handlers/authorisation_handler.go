package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	handlerutils "github.com/wso2/psd2-consent-management/internal/handlers/utils"
	"github.com/wso2/psd2-consent-management/internal/models"
	"github.com/wso2/psd2-consent-management/internal/service"
	"github.com/wso2/psd2-consent-management/internal/utils"
)

// AuthorisationHandler handles SCA authorisation HTTP requests. Parent scoped
// routes are bound per authorisation type by the router.
type AuthorisationHandler struct {
	authService *service.AuthorisationService
	logger      *logrus.Logger
}

// NewAuthorisationHandler creates a new AuthorisationHandler
func NewAuthorisationHandler(authService *service.AuthorisationService, logger *logrus.Logger) *AuthorisationHandler {
	return &AuthorisationHandler{
		authService: authService,
		logger:      logger,
	}
}

// CreateAuthorisation handles POST on a parent's authorisation collection
func (h *AuthorisationHandler) CreateAuthorisation(authType models.AuthorisationType, parentParam string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.CreateAuthorisationRequest
		if err := handlerutils.BindOptionalJSON(c, &req); err != nil {
			utils.SendBadRequestError(c, "Invalid request body", err.Error())
			return
		}

		resp, err := h.authService.CreateAuthorisation(c.Request.Context(), authType, c.Param(parentParam), &req)
		if err != nil {
			utils.SendServiceError(c, h.logger, err, "Failed to create authorisation")
			return
		}
		if resp == nil {
			parentNotFound(c, authType)
			return
		}
		utils.SendCreatedResponse(c, resp)
	}
}

// ListAuthorisations handles GET on a parent's authorisation collection
func (h *AuthorisationHandler) ListAuthorisations(authType models.AuthorisationType, parentParam string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ids, err := h.authService.GetAuthorisationsByParentID(c.Request.Context(), authType, c.Param(parentParam))
		if err != nil {
			utils.SendServiceError(c, h.logger, err, "Failed to list authorisations")
			return
		}
		if ids == nil {
			parentNotFound(c, authType)
			return
		}
		utils.SendOKResponse(c, models.IDListResponse{IDs: ids})
	}
}

// GetScaStatus handles GET on a parent's authorisation sca-status
func (h *AuthorisationHandler) GetScaStatus(authType models.AuthorisationType, parentParam string) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, err := h.authService.GetAuthorisationScaStatus(c.Request.Context(), authType, c.Param(parentParam), c.Param("authorisationId"))
		if err != nil {
			utils.SendServiceError(c, h.logger, err, "Failed to retrieve SCA status")
			return
		}
		if status == nil {
			authorisationNotFound(c)
			return
		}
		utils.SendOKResponse(c, status)
	}
}

// GetAuthorisation handles GET /authorisations/:authorisationId
func (h *AuthorisationHandler) GetAuthorisation(c *gin.Context) {
	auth, err := h.authService.GetAuthorisationByID(c.Request.Context(), c.Param("authorisationId"))
	if err != nil {
		utils.SendServiceError(c, h.logger, err, "Failed to retrieve authorisation")
		return
	}
	if auth == nil {
		authorisationNotFound(c)
		return
	}
	utils.SendOKResponse(c, auth)
}

// UpdateAuthorisation handles PUT /authorisations/:authorisationId
func (h *AuthorisationHandler) UpdateAuthorisation(c *gin.Context) {
	var req models.UpdateAuthorisationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendBadRequestError(c, "Invalid request body", err.Error())
		return
	}

	auth, err := h.authService.UpdateAuthorisation(c.Request.Context(), c.Param("authorisationId"), &req)
	if err != nil {
		utils.SendServiceError(c, h.logger, err, "Failed to update authorisation")
		return
	}
	if auth == nil {
		authorisationNotFound(c)
		return
	}
	utils.SendOKResponse(c, auth)
}

// UpdateAuthorisationStatus handles PUT /authorisations/:authorisationId/status/:scaStatus
func (h *AuthorisationHandler) UpdateAuthorisationStatus(c *gin.Context) {
	status := models.ScaStatus(c.Param("scaStatus"))
	ok, err := h.authService.UpdateAuthorisationStatus(c.Request.Context(), c.Param("authorisationId"), status)
	if err != nil {
		utils.SendServiceError(c, h.logger, err, "Failed to update SCA status")
		return
	}
	utils.SendBoolResponse(c, ok)
}

// VerifyConfirmationCode handles POST /authorisations/:authorisationId/confirmation
func (h *AuthorisationHandler) VerifyConfirmationCode(c *gin.Context) {
	var req models.ConfirmationCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendBadRequestError(c, "Invalid request body", err.Error())
		return
	}

	ok, err := h.authService.VerifyConfirmationCode(c.Request.Context(), c.Param("authorisationId"), req.ConfirmationCode)
	if err != nil {
		utils.SendServiceError(c, h.logger, err, "Failed to verify confirmation code")
		return
	}
	utils.SendBoolResponse(c, ok)
}

// CheckRedirect handles GET /authorisations/:authorisationId/redirect.
// An expired redirect answers 408 with the TPP nok redirect URI.
func (h *AuthorisationHandler) CheckRedirect(c *gin.Context) {
	auth, valid, err := h.authService.CheckRedirectAndGetAuthorisation(c.Request.Context(), c.Param("authorisationId"))
	if err != nil {
		utils.SendServiceError(c, h.logger, err, "Failed to check authorisation redirect")
		return
	}
	if auth == nil {
		authorisationNotFound(c)
		return
	}
	if !valid {
		c.JSON(http.StatusRequestTimeout, models.NewRedirectExpiredResponse(auth))
		return
	}
	utils.SendOKResponse(c, auth)
}

// IsMethodDecoupled handles GET /authorisations/:authorisationId/methods/:methodId/decoupled
func (h *AuthorisationHandler) IsMethodDecoupled(c *gin.Context) {
	ok, err := h.authService.IsAuthenticationMethodDecoupled(c.Request.Context(), c.Param("authorisationId"), c.Param("methodId"))
	if err != nil {
		utils.SendServiceError(c, h.logger, err, "Failed to check SCA method")
		return
	}
	utils.SendBoolResponse(c, ok)
}

// SaveAuthenticationMethods handles PUT /authorisations/:authorisationId/methods
func (h *AuthorisationHandler) SaveAuthenticationMethods(c *gin.Context) {
	var req models.SaveScaMethodsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendBadRequestError(c, "Invalid request body", err.Error())
		return
	}

	ok, err := h.authService.SaveAuthenticationMethods(c.Request.Context(), c.Param("authorisationId"), req.Methods)
	if err != nil {
		utils.SendServiceError(c, h.logger, err, "Failed to save SCA methods")
		return
	}
	utils.SendBoolResponse(c, ok)
}

// UpdateScaApproach handles PUT /authorisations/:authorisationId/sca-approach/:approach
func (h *AuthorisationHandler) UpdateScaApproach(c *gin.Context) {
	approach := models.ScaApproach(c.Param("approach"))
	ok, err := h.authService.UpdateScaApproach(c.Request.Context(), c.Param("authorisationId"), approach)
	if err != nil {
		utils.SendServiceError(c, h.logger, err, "Failed to update SCA approach")
		return
	}
	utils.SendBoolResponse(c, ok)
}

// GetScaApproach handles GET /authorisations/:authorisationId/sca-approach
func (h *AuthorisationHandler) GetScaApproach(c *gin.Context) {
	approach, err := h.authService.GetAuthorisationScaApproach(c.Request.Context(), c.Param("authorisationId"))
	if err != nil {
		utils.SendServiceError(c, h.logger, err, "Failed to retrieve SCA approach")
		return
	}
	if approach == nil {
		authorisationNotFound(c)
		return
	}
	utils.SendOKResponse(c, approach)
}

func parentNotFound(c *gin.Context, authType models.AuthorisationType) {
	if authType == models.AuthorisationTypeConsent {
		utils.SendNotFoundError(c, models.ErrCodeConsentNotFound, "Consent not found or finalised")
		return
	}
	utils.SendNotFoundError(c, models.ErrCodePaymentNotFound, "Payment not found or finalised")
}

func authorisationNotFound(c *gin.Context) {
	utils.SendNotFoundError(c, models.ErrCodeAuthorisationNotFound, "Authorisation not found")
}

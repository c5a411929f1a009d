package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/wso2/psd2-consent-management/internal/models"
	"github.com/wso2/psd2-consent-management/internal/service"
	"github.com/wso2/psd2-consent-management/internal/utils"
)

// PaymentHandler handles payment initiation HTTP requests
type PaymentHandler struct {
	paymentService *service.PaymentService
	logger         *logrus.Logger
}

// NewPaymentHandler creates a new payment handler instance
func NewPaymentHandler(paymentService *service.PaymentService, logger *logrus.Logger) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		logger:         logger,
	}
}

// CreatePayment handles POST /payments
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	var req models.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendBadRequestError(c, "Invalid request body", err.Error())
		return
	}

	resp, err := h.paymentService.CreatePayment(c.Request.Context(), &req)
	if err != nil {
		utils.SendServiceError(c, h.logger, err, "Failed to create payment")
		return
	}
	utils.SendCreatedResponse(c, resp)
}

// GetPayment handles GET /payments/:paymentId
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	payment, err := h.paymentService.GetPayment(c.Request.Context(), c.Param("paymentId"))
	if err != nil {
		utils.SendServiceError(c, h.logger, err, "Failed to retrieve payment")
		return
	}
	if payment == nil {
		h.paymentNotFound(c)
		return
	}
	utils.SendOKResponse(c, payment)
}

// GetTransactionStatus handles GET /payments/:paymentId/status
func (h *PaymentHandler) GetTransactionStatus(c *gin.Context) {
	status, err := h.paymentService.GetTransactionStatus(c.Request.Context(), c.Param("paymentId"))
	if err != nil {
		utils.SendServiceError(c, h.logger, err, "Failed to retrieve transaction status")
		return
	}
	if status == nil {
		h.paymentNotFound(c)
		return
	}
	utils.SendOKResponse(c, status)
}

// UpdateTransactionStatus handles PUT /payments/:paymentId/status
func (h *PaymentHandler) UpdateTransactionStatus(c *gin.Context) {
	var req models.UpdateTransactionStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendBadRequestError(c, "Invalid request body", err.Error())
		return
	}

	ok, err := h.paymentService.UpdateTransactionStatus(c.Request.Context(), c.Param("paymentId"), req.TransactionStatus)
	if err != nil {
		utils.SendServiceError(c, h.logger, err, "Failed to update transaction status")
		return
	}
	utils.SendBoolResponse(c, ok)
}

// UpdateMultilevelScaRequired handles PUT /payments/:paymentId/multilevel-sca
func (h *PaymentHandler) UpdateMultilevelScaRequired(c *gin.Context) {
	var req models.MultilevelScaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendBadRequestError(c, "Invalid request body", err.Error())
		return
	}

	ok, err := h.paymentService.UpdateMultilevelScaRequired(c.Request.Context(), c.Param("paymentId"), req.MultilevelScaRequired)
	if err != nil {
		utils.SendServiceError(c, h.logger, err, "Failed to update multilevel SCA flag")
		return
	}
	utils.SendBoolResponse(c, ok)
}

// GetPsuData handles GET /payments/:paymentId/psu-data
func (h *PaymentHandler) GetPsuData(c *gin.Context) {
	psus, err := h.paymentService.GetPsuDataByPaymentID(c.Request.Context(), c.Param("paymentId"))
	if err != nil {
		utils.SendServiceError(c, h.logger, err, "Failed to retrieve PSU data")
		return
	}
	if psus == nil {
		h.paymentNotFound(c)
		return
	}
	utils.SendOKResponse(c, psus)
}

func (h *PaymentHandler) paymentNotFound(c *gin.Context) {
	utils.SendNotFoundError(c, models.ErrCodePaymentNotFound, "Payment not found")
}

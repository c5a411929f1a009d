package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/wso2/psd2-consent-management/internal/models"
	pkgutils "github.com/wso2/psd2-consent-management/pkg/utils"
)

// CorrelationIDKey is the gin context key holding the request correlation id
const CorrelationIDKey = "correlationID"

// SendErrorResponse sends an error JSON response with the status mapped from errCode
func SendErrorResponse(c *gin.Context, errCode, message, details string) {
	c.JSON(models.HTTPStatusForErrorCode(errCode), models.NewErrorResponse(errCode, message, details))
}

// SendCreatedResponse sends a 201 Created response
func SendCreatedResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// SendOKResponse sends a 200 OK response
func SendOKResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// SendBoolResponse wraps the outcome of a guarded mutation
func SendBoolResponse(c *gin.Context, result bool) {
	c.JSON(http.StatusOK, models.BoolResponse{Result: result})
}

// SendBadRequestError sends a 400 Bad Request error
func SendBadRequestError(c *gin.Context, message, details string) {
	SendErrorResponse(c, models.ErrCodeBadRequest, message, details)
}

// SendNotFoundError sends a 404 with a resource specific code
func SendNotFoundError(c *gin.Context, errCode, message string) {
	SendErrorResponse(c, errCode, message, "")
}

// SendInternalServerError sends a 500 Internal Server Error
func SendInternalServerError(c *gin.Context, message, details string) {
	SendErrorResponse(c, models.ErrCodeInternalError, message, details)
}

// SendValidationError sends a validation error response
func SendValidationError(c *gin.Context, details string) {
	SendErrorResponse(c, models.ErrCodeValidationError, "Validation failed", details)
}

// SendServiceError maps a service error to 400 for validation failures and
// 500 for everything else. Internal details are logged, not returned.
func SendServiceError(c *gin.Context, logger *logrus.Logger, err error, message string) {
	var validationErr *pkgutils.ValidationError
	if errors.As(err, &validationErr) {
		SendValidationError(c, validationErr.Error())
		return
	}

	logger.WithFields(logrus.Fields{
		"correlationId": GetCorrelationIDFromContext(c),
		"path":          c.FullPath(),
	}).WithError(err).Error(message)
	SendInternalServerError(c, message, "")
}

// GetCorrelationIDFromContext extracts the correlation id set by the middleware
func GetCorrelationIDFromContext(c *gin.Context) string {
	correlationID, exists := c.Get(CorrelationIDKey)
	if !exists {
		return ""
	}
	id, _ := correlationID.(string)
	return id
}

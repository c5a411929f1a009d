package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/wso2/psd2-consent-management/internal/models"
	"github.com/wso2/psd2-consent-management/internal/utils"
	pkgutils "github.com/wso2/psd2-consent-management/pkg/utils"
)

// CorrelationIDHeader carries the correlation id on requests and responses
const CorrelationIDHeader = "X-Correlation-ID"

var correlationHeaders = []string{CorrelationIDHeader, "X-Request-ID", "X-Trace-ID"}

// CorrelationID propagates the inbound correlation id, or a fresh one, to the
// gin context, the request context and the response headers
func CorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationID := extractCorrelationID(c)
		if correlationID == "" {
			correlationID = pkgutils.GenerateID()
		}
		c.Set(utils.CorrelationIDKey, correlationID)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), models.CorrelationIDKey, correlationID))
		c.Header(CorrelationIDHeader, correlationID)
		c.Next()
	}
}

func extractCorrelationID(c *gin.Context) string {
	for _, header := range correlationHeaders {
		if id := c.GetHeader(header); id != "" {
			return id
		}
	}
	return ""
}

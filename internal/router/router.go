package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/wso2/psd2-consent-management/internal/config"
	"github.com/wso2/psd2-consent-management/internal/handlers"
	"github.com/wso2/psd2-consent-management/internal/metrics"
	"github.com/wso2/psd2-consent-management/internal/middleware"
	"github.com/wso2/psd2-consent-management/internal/models"
	"github.com/wso2/psd2-consent-management/internal/service"
)

// HealthChecker reports whether a backing store is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Options carries the cross-cutting dependencies of the router
type Options struct {
	Config  *config.Config
	Health  HealthChecker
	Metrics *metrics.Metrics
	Logger  *logrus.Logger
}

// SetupRouter configures all API routes
func SetupRouter(
	consentService *service.ConsentService,
	paymentService *service.PaymentService,
	authService *service.AuthorisationService,
	opts Options,
) *gin.Engine {
	router := gin.Default()
	router.Use(middleware.CorrelationID())
	if opts.Config != nil && opts.Config.CORS.Enabled {
		router.Use(middleware.CORS(&opts.Config.CORS))
	}

	router.GET("/health", healthHandler(opts.Health))
	if opts.Metrics != nil && opts.Config != nil && opts.Config.Metrics.Enabled {
		router.GET(opts.Config.Metrics.Path, gin.WrapH(opts.Metrics.Handler()))
	}

	consentHandler := handlers.NewConsentHandler(consentService, opts.Logger)
	paymentHandler := handlers.NewPaymentHandler(paymentService, opts.Logger)
	authHandler := handlers.NewAuthorisationHandler(authService, opts.Logger)

	v1 := router.Group("/api/v1")
	if opts.Config != nil && opts.Config.Security.IsBasicAuthEnabled() {
		v1.Use(gin.BasicAuth(opts.Config.Security.Accounts()))
	}

	consents := v1.Group("/consents")
	{
		consents.POST("", consentHandler.CreateConsent)
		consents.GET("", consentHandler.ExportConsents)
		consents.GET("/:consentId", consentHandler.GetConsent)
		consents.GET("/:consentId/status", consentHandler.GetConsentStatus)
		consents.PUT("/:consentId/status", consentHandler.UpdateConsentStatus)
		consents.POST("/:consentId/usage", consentHandler.CheckAndLogUsage)
		consents.PUT("/:consentId/access", consentHandler.UpdateAccess)
		consents.PUT("/:consentId/multilevel-sca", consentHandler.UpdateMultilevelScaRequired)
		consents.GET("/:consentId/psu-data", consentHandler.GetPsuData)
		consents.POST("/:consentId/terminate-old", consentHandler.TerminateOldConsents)

		bindParentAuthorisations(consents.Group("/:consentId/authorisations"), authHandler, models.AuthorisationTypeConsent, "consentId")
	}

	payments := v1.Group("/payments")
	{
		payments.POST("", paymentHandler.CreatePayment)
		payments.GET("/:paymentId", paymentHandler.GetPayment)
		payments.GET("/:paymentId/status", paymentHandler.GetTransactionStatus)
		payments.PUT("/:paymentId/status", paymentHandler.UpdateTransactionStatus)
		payments.PUT("/:paymentId/multilevel-sca", paymentHandler.UpdateMultilevelScaRequired)
		payments.GET("/:paymentId/psu-data", paymentHandler.GetPsuData)

		bindParentAuthorisations(payments.Group("/:paymentId/authorisations"), authHandler, models.AuthorisationTypePisCreation, "paymentId")
		bindParentAuthorisations(payments.Group("/:paymentId/cancellation-authorisations"), authHandler, models.AuthorisationTypePisCancellation, "paymentId")
	}

	authorisations := v1.Group("/authorisations/:authorisationId")
	{
		authorisations.GET("", authHandler.GetAuthorisation)
		authorisations.PUT("", authHandler.UpdateAuthorisation)
		authorisations.PUT("/status/:scaStatus", authHandler.UpdateAuthorisationStatus)
		authorisations.POST("/confirmation", authHandler.VerifyConfirmationCode)
		authorisations.GET("/redirect", authHandler.CheckRedirect)
		authorisations.GET("/methods/:methodId/decoupled", authHandler.IsMethodDecoupled)
		authorisations.PUT("/methods", authHandler.SaveAuthenticationMethods)
		authorisations.PUT("/sca-approach/:approach", authHandler.UpdateScaApproach)
		authorisations.GET("/sca-approach", authHandler.GetScaApproach)
	}

	return router
}

func bindParentAuthorisations(group *gin.RouterGroup, h *handlers.AuthorisationHandler, authType models.AuthorisationType, parentParam string) {
	group.POST("", h.CreateAuthorisation(authType, parentParam))
	group.GET("", h.ListAuthorisations(authType, parentParam))
	group.GET("/:authorisationId/sca-status", h.GetScaStatus(authType, parentParam))
}

func healthHandler(checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if checker != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := checker.HealthCheck(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	}
}

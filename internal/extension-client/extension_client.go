package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/wso2/psd2-consent-management/internal/config"
	"github.com/wso2/psd2-consent-management/internal/models"
)

// ExtensionClient posts consent action records to the bank's webhook
type ExtensionClient struct {
	httpClient *http.Client
	config     *config.AuditConfig
	logger     *logrus.Logger
}

// NewExtensionClient creates a new extension client instance
func NewExtensionClient(cfg *config.AuditConfig, logger *logrus.Logger) *ExtensionClient {
	timeout := 30 * time.Second
	if cfg.Timeout > 0 {
		timeout = cfg.Timeout
	}

	return &ExtensionClient{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		config: cfg,
		logger: logger,
	}
}

// IsExtensionEnabled checks if the webhook is configured
func (c *ExtensionClient) IsExtensionEnabled() bool {
	return c.config.Enabled && c.config.BaseURL != ""
}

// PublishConsentAction delivers one consent action record to the webhook
func (c *ExtensionClient) PublishConsentAction(ctx context.Context, action *models.ConsentAction) error {
	if !c.IsExtensionEnabled() {
		c.logger.Debug("Consent action webhook not configured, skipping call")
		return nil
	}

	notification := &models.ConsentActionNotification{
		RequestID: uuid.New().String(),
		Data:      *action,
	}

	resp, err := c.post(ctx, c.config.GetWebhookURL(), notification)
	if err != nil {
		return err
	}

	if resp.Status != models.ExtensionStatusSuccess {
		return fmt.Errorf("consent action webhook rejected %s: %s %s",
			action.ActionID, resp.ErrorCode, resp.ErrorMessage)
	}

	return nil
}

func (c *ExtensionClient) post(ctx context.Context, url string, payload interface{}) (*models.ExtensionResponse, error) {
	// Marshal request body
	jsonData, err := json.Marshal(payload)
	if err != nil {
		c.logger.WithError(err).Error("Failed to marshal extension request")
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	// Create HTTP request with context
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		c.logger.WithError(err).Error("Failed to create extension request")
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Set headers
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	// Add correlation ID if available in context
	if correlationID, ok := ctx.Value(models.CorrelationIDKey).(string); ok {
		req.Header.Set("X-Correlation-ID", correlationID)
	}

	c.logger.WithField("url", url).Debug("Calling extension service")

	// Execute request
	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(startTime)

	if err != nil {
		c.logger.WithError(err).WithField("duration", duration).Error("Extension service call failed")
		return nil, fmt.Errorf("extension service call failed: %w", err)
	}
	defer resp.Body.Close()

	// Read response body
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.WithError(err).Error("Failed to read extension response")
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"statusCode": resp.StatusCode,
		"duration":   duration,
		"url":        url,
	}).Debug("Extension service response received")

	// Handle non-2xx status codes
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.WithFields(logrus.Fields{
			"statusCode": resp.StatusCode,
			"response":   string(body),
		}).Warn("Extension service returned non-success status")
		return nil, fmt.Errorf("extension service returned status %d: %s", resp.StatusCode, string(body))
	}

	// An empty 2xx body counts as an acknowledgement
	if len(bytes.TrimSpace(body)) == 0 {
		return &models.ExtensionResponse{Status: models.ExtensionStatusSuccess}, nil
	}

	var extResponse models.ExtensionResponse
	if err := json.Unmarshal(body, &extResponse); err != nil {
		c.logger.WithError(err).Error("Failed to unmarshal extension response")
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return &extResponse, nil
}

// Close closes the HTTP client connections
func (c *ExtensionClient) Close() {
	if c.httpClient != nil {
		c.httpClient.CloseIdleConnections()
	}
}

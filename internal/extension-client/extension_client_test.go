package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wso2/psd2-consent-management/internal/config"
	"github.com/wso2/psd2-consent-management/internal/models"
)

func newTestClient(baseURL string) *ExtensionClient {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewExtensionClient(&config.AuditConfig{
		Enabled:  true,
		BaseURL:  baseURL,
		Endpoint: "/consent-actions",
	}, logger)
}

func TestPublishConsentAction_Success(t *testing.T) {
	var received models.ConsentActionNotification
	var correlationID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/consent-actions", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		correlationID = r.Header.Get("X-Correlation-ID")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		_ = json.NewEncoder(w).Encode(models.ExtensionResponse{Status: models.ExtensionStatusSuccess})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	defer client.Close()

	ctx := context.WithValue(context.Background(), models.CorrelationIDKey, "corr-1")
	err := client.PublishConsentAction(ctx, &models.ConsentAction{
		ActionID:           "ACTION-1",
		RequestedConsentID: "CONSENT-1",
		ActionStatus:       models.ActionStatusSuccess,
	})

	require.NoError(t, err)
	assert.Equal(t, "corr-1", correlationID)
	assert.Equal(t, "CONSENT-1", received.Data.RequestedConsentID)
	assert.NotEmpty(t, received.RequestID)
}

func TestPublishConsentAction_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "non 2xx status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
		},
		{
			name: "error status in body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(models.ExtensionResponse{
					Status:       models.ExtensionStatusError,
					ErrorCode:    "REJECTED",
					ErrorMessage: "unknown consent",
				})
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("{not json"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			err := newTestClient(server.URL).PublishConsentAction(context.Background(), &models.ConsentAction{ActionID: "ACTION-1"})
			assert.Error(t, err)
		})
	}
}

func TestPublishConsentAction_EmptyBodyIsAcknowledged(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	assert.NoError(t, newTestClient(server.URL).PublishConsentAction(context.Background(), &models.ConsentAction{}))
}

func TestPublishConsentAction_Disabled(t *testing.T) {
	client := NewExtensionClient(&config.AuditConfig{}, logrus.New())
	assert.False(t, client.IsExtensionEnabled())
	assert.NoError(t, client.PublishConsentAction(context.Background(), &models.ConsentAction{}))
}

package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-cleanhttp"
	"go.uber.org/zap"

	"ovpnsync/internal/config"
	"ovpnsync/internal/retry"
	"ovpnsync/internal/types"
	"ovpnsync/internal/version"
)

const (
	EventAddressChange = "address.change"

	HeaderEvent     = "X-Ovpnsync-Event"
	HeaderDelivery  = "X-Ovpnsync-Delivery"
	HeaderSignature = "X-Ovpnsync-Signature"
)

// WebhookNotifier posts JSON events to a configured URL
type WebhookNotifier struct {
	config *config.WebhookConfig
	logger *zap.Logger
	client *http.Client
	retry  *retry.Config

	mu      sync.Mutex
	lastErr error
}

// WebhookPayload represents the standard webhook payload structure
type WebhookPayload struct {
	EventType string         `json:"event_type"`
	EventID   string         `json:"event_id"`
	Timestamp time.Time      `json:"timestamp"`
	Hostname  string         `json:"hostname,omitempty"`
	Data      map[string]any `json:"data"`
}

// NewWebhookNotifier creates new webhook notifier
func NewWebhookNotifier(cfg *config.WebhookConfig, logger *zap.Logger) (*WebhookNotifier, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("webhook url is required")
	}

	client := cleanhttp.DefaultPooledClient()
	client.Timeout = cfg.Timeout

	attempts := cfg.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	return &WebhookNotifier{
		config: cfg,
		logger: logger,
		client: client,
		retry: &retry.Config{
			Enable:      true,
			MaxAttempts: attempts,
			Interval:    time.Second,
			MaxInterval: 30 * time.Second,
		},
	}, nil
}

// NotifyAddressChange sends an address change notification
func (n *WebhookNotifier) NotifyAddressChange(ctx context.Context, change *types.AddressChange) error {
	hostname, _ := os.Hostname()
	payload := WebhookPayload{
		EventType: EventAddressChange,
		EventID:   uuid.NewString(),
		Timestamp: time.Now(),
		Hostname:  hostname,
		Data: map[string]any{
			"previous":    change.Previous,
			"current":     change.Current,
			"source":      change.Source,
			"destination": change.Destination,
			"published":   change.Published,
			"changed_at":  change.Timestamp,
		},
	}

	err := n.sendWebhook(ctx, payload)

	n.mu.Lock()
	n.lastErr = err
	n.mu.Unlock()

	return err
}

// sendWebhook sends a webhook
func (n *WebhookNotifier) sendWebhook(ctx context.Context, payload WebhookPayload) error {
	for k, v := range n.config.CommonData {
		payload.Data[k] = v
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	signature := ""
	if n.config.Secret != "" {
		signature = calculateSignature(data, []byte(n.config.Secret))
	}

	method := n.config.Method
	if method == "" {
		method = http.MethodPost
	}

	return retry.Execute(ctx, n.retry, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, method, n.config.URL, bytes.NewReader(data))
		if err != nil {
			return retry.Stop(fmt.Errorf("failed to create request: %w", err))
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", version.UserAgent("ovpnsync-webhook"))
		req.Header.Set(HeaderEvent, payload.EventType)
		req.Header.Set(HeaderDelivery, payload.EventID)
		if signature != "" {
			req.Header.Set(HeaderSignature, signature)
		}
		for k, v := range n.config.Headers {
			req.Header.Set(k, v)
		}

		resp, err := n.client.Do(req)
		if err != nil {
			return fmt.Errorf("failed to send webhook: %w", err)
		}
		defer func(Body io.ReadCloser) {
			_, _ = io.Copy(io.Discard, Body)
			if err := Body.Close(); err != nil {
				n.logger.Error("Failed to close response body", zap.Error(err))
			}
		}(resp.Body)

		switch {
		case resp.StatusCode >= 500:
			return fmt.Errorf("webhook request failed with status %d", resp.StatusCode)
		case resp.StatusCode >= 400:
			return retry.Stop(fmt.Errorf("webhook request rejected with status %d", resp.StatusCode))
		}
		return nil
	})
}

// calculateSignature calculates the signature
func calculateSignature(payload []byte, secret []byte) string {
	h := hmac.New(sha256.New, secret)
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

// Health reports the failure of the most recent delivery, if any
func (n *WebhookNotifier) Health(_ context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.lastErr != nil {
		return fmt.Errorf("last delivery failed: %w", n.lastErr)
	}
	return nil
}

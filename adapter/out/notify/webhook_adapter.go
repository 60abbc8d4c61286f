// Package notify delivers outbound notifications over HTTP webhooks.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker"

	"mailagent/core/domain"
	"mailagent/pkg/apperr"
	"mailagent/pkg/httputil"
	"mailagent/pkg/logger"
	"mailagent/pkg/resilience"
)

// WebhookAdapter implements out.Notifier by POSTing JSON events to a
// configured endpoint. A circuit breaker keeps a dead receiver from
// stalling classification or digest generation.
type WebhookAdapter struct {
	url        string
	client     *http.Client
	cb         *gobreaker.CircuitBreaker
	maxRetries int
	retryDelay time.Duration
	log        *logger.Logger
}

func NewWebhookAdapter(url string, maxRetries int, retryDelay time.Duration) *WebhookAdapter {
	log := logger.Default().WithField("component", "webhook")

	return &WebhookAdapter{
		url:        url,
		client:     httputil.WebhookClient(),
		cb:         resilience.NewBreaker("notify-webhook", resilience.DefaultBreakerConfig(), log),
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		log:        log,
	}
}

type webhookEvent struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Text      string    `json:"text,omitempty"`
	Payload   any       `json:"payload,omitempty"`
}

// NotifyUrgent posts a single urgent-email event.
func (a *WebhookAdapter) NotifyUrgent(ctx context.Context, email *domain.Email) error {
	return a.post(ctx, webhookEvent{
		Type:      "email.urgent",
		Timestamp: time.Now().UTC(),
		Text:      fmt.Sprintf("Urgent email from %s: %s", email.SenderEmail, email.Subject),
		Payload:   email,
	})
}

// NotifyDigest posts the daily summary with its rendered text line.
func (a *WebhookAdapter) NotifyDigest(ctx context.Context, summary *domain.DailySummary, text string) error {
	return a.post(ctx, webhookEvent{
		Type:      "digest.daily",
		Timestamp: time.Now().UTC(),
		Text:      text,
		Payload:   summary,
	})
}

// NotifyReminders posts the emails still awaiting a reply for a given day.
func (a *WebhookAdapter) NotifyReminders(ctx context.Context, date string, emails []*domain.Email) error {
	return a.post(ctx, webhookEvent{
		Type:      "email.reminders",
		Timestamp: time.Now().UTC(),
		Text:      fmt.Sprintf("%d emails from %s still need a reply", len(emails), date),
		Payload:   emails,
	})
}

func (a *WebhookAdapter) post(ctx context.Context, event webhookEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal webhook event: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= a.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return apperr.ExternalError("webhook", ctx.Err())
			case <-time.After(a.retryDelay):
			}
			a.log.WithField("attempt", attempt).Warn("retrying webhook delivery")
		}

		if lastErr = a.deliver(ctx, body); lastErr == nil {
			return nil
		}
		// Breaker open means the receiver is down; retrying now only
		// burns the delay budget.
		if lastErr == gobreaker.ErrOpenState {
			break
		}
	}
	return apperr.ExternalError("webhook", lastErr)
}

func (a *WebhookAdapter) deliver(ctx context.Context, body []byte) error {
	_, err := a.cb.Execute(func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := a.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("webhook returned status %d", resp.StatusCode)
		}
		return nil, nil
	})
	return err
}

// NopNotifier discards all notifications. Used when no webhook URL is
// configured.
type NopNotifier struct{}

func (NopNotifier) NotifyUrgent(context.Context, *domain.Email) error { return nil }
func (NopNotifier) NotifyDigest(context.Context, *domain.DailySummary, string) error {
	return nil
}
func (NopNotifier) NotifyReminders(context.Context, string, []*domain.Email) error { return nil }

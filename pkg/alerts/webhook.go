package alerts

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Webhook event names.
const (
	EventBillingSummary = "billing.summary"
	EventSpendingLimit  = "billing.spending_limit"
)

// Webhook request headers.
const (
	HeaderEvent     = "X-Callbill-Event"
	HeaderDelivery  = "X-Callbill-Delivery"
	HeaderRunID     = "X-Callbill-Run-ID"
	HeaderSignature = "X-Callbill-Signature"
)

// ErrSignature is returned by VerifySignature when a delivery cannot be trusted.
var ErrSignature = errors.New("invalid webhook signature")

// WebhookNotifier posts billing events to a generic HTTP endpoint.
type WebhookNotifier struct {
	url      string
	secret   string
	client   *http.Client
	attempts int
	backoff  time.Duration
}

// WebhookOption customizes a WebhookNotifier.
type WebhookOption func(*WebhookNotifier)

// WithRetry sets the number of delivery attempts and the base delay between
// them. The delay grows linearly with each attempt.
func WithRetry(attempts int, backoff time.Duration) WebhookOption {
	return func(w *WebhookNotifier) {
		if attempts > 0 {
			w.attempts = attempts
		}
		if backoff >= 0 {
			w.backoff = backoff
		}
	}
}

// NewWebhookNotifier creates a generic webhook notifier.
// If secret is non-empty, every delivery carries a timestamped HMAC-SHA256
// signature in the X-Callbill-Signature header.
func NewWebhookNotifier(url, secret string, opts ...WebhookOption) *WebhookNotifier {
	w := &WebhookNotifier{
		url:    url,
		secret: secret,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		attempts: 3,
		backoff:  500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *WebhookNotifier) Name() string { return "webhook" }

// EventFor maps an alert level to its webhook event name.
func EventFor(level AlertLevel) string {
	if level == AlertSummary {
		return EventBillingSummary
	}
	return EventSpendingLimit
}

// Send delivers the alert, retrying transport failures, 429 and 5xx
// responses. All attempts share one delivery ID so receivers can drop
// duplicates.
func (w *WebhookNotifier) Send(ctx context.Context, alert Alert) error {
	sent := time.Now().UTC()
	payload := webhookPayload{
		ID:        uuid.NewString(),
		Event:     EventFor(alert.Level),
		CreatedAt: sent.Format(time.RFC3339),
		Data:      alert,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= w.attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("deliver webhook %s: %w", payload.ID, ctx.Err())
			case <-time.After(time.Duration(attempt-1) * w.backoff):
			}
		}

		retry, err := w.deliver(ctx, payload, body, sent)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retry {
			break
		}
	}
	return fmt.Errorf("deliver webhook %s: %w", payload.ID, lastErr)
}

func (w *WebhookNotifier) deliver(ctx context.Context, p webhookPayload, body []byte, sent time.Time) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "callbill/1.0")
	req.Header.Set(HeaderEvent, p.Event)
	req.Header.Set(HeaderDelivery, p.ID)
	if p.Data.RunID != "" {
		req.Header.Set(HeaderRunID, p.Data.RunID)
	}
	if w.secret != "" {
		req.Header.Set(HeaderSignature, Sign(w.secret, sent, body))
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return ctx.Err() == nil, fmt.Errorf("send webhook alert: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return false, nil
	case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode >= 500:
		return true, fmt.Errorf("webhook returned status %d", resp.StatusCode)
	default:
		return false, fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
}

type webhookPayload struct {
	ID        string `json:"id"`
	Event     string `json:"event"`
	CreatedAt string `json:"created_at"`
	Data      Alert  `json:"data"`
}

// Sign returns the signature header value for body sent at t:
// "t=<unix seconds>,v1=<hex HMAC-SHA256 of "<unix seconds>.<body>">".
func Sign(secret string, t time.Time, body []byte) string {
	ts := strconv.FormatInt(t.Unix(), 10)
	return "t=" + ts + ",v1=" + computeHMAC(secret, ts, body)
}

// VerifySignature checks a signature header produced by Sign. A positive
// tolerance also rejects deliveries signed further than tolerance from now.
func VerifySignature(secret, header string, body []byte, now time.Time, tolerance time.Duration) error {
	var ts, sig string
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			ts = v
		case "v1":
			sig = v
		}
	}
	if ts == "" || sig == "" {
		return fmt.Errorf("%w: malformed header %q", ErrSignature, header)
	}

	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: bad timestamp %q", ErrSignature, ts)
	}
	if tolerance > 0 {
		age := now.Sub(time.Unix(unix, 0))
		if age > tolerance || age < -tolerance {
			return fmt.Errorf("%w: signed %s ago", ErrSignature, age.Round(time.Second))
		}
	}

	if !hmac.Equal([]byte(sig), []byte(computeHMAC(secret, ts, body))) {
		return fmt.Errorf("%w: digest mismatch", ErrSignature)
	}
	return nil
}

func computeHMAC(secret, ts string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts))
	mac.Write([]byte{'.'})
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

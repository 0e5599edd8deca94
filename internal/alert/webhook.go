package alert

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

const (
	requestTimeout = 5 * time.Second
	maxRetries     = 3
)

// Sender posts events to webhooks with retry on 5xx and network errors.
type Sender struct {
	client  *http.Client
	backoff time.Duration
}

// NewSender creates a Sender with a 5s request timeout.
func NewSender() *Sender {
	return &Sender{
		client:  &http.Client{Timeout: requestTimeout},
		backoff: time.Second,
	}
}

// Send posts event to cfg.URL. 4xx responses are not retried.
func (s *Sender) Send(ctx context.Context, cfg Config, event Event) error {
	body, err := FormatPayload(cfg.Format, event)
	if err != nil {
		return errors.Wrap(err, "format payload")
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * s.backoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.URL, bytes.NewReader(body))
		if err != nil {
			return errors.Wrap(err, "create request")
		}
		req.Header.Set("Content-Type", "application/json")
		for k, v := range cfg.Headers {
			req.Header.Set(k, v)
		}

		resp, err := s.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return errors.Errorf("webhook rejected: HTTP %d", resp.StatusCode)
		}
		lastErr = errors.Errorf("webhook server error: HTTP %d", resp.StatusCode)
	}

	return errors.Wrapf(lastErr, "webhook failed after %d attempts", maxRetries)
}

package settlement

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"fair-casino/internal/ledger"

	"github.com/rs/zerolog/log"
)

// RemoteError is a non-2xx answer from the House endpoint.
type RemoteError struct {
	Status int
	Code   string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("settle failed with status %d: %s", e.Status, e.Code)
}

func (e *RemoteError) retryable() bool { return e.Status >= 500 || e.Status == http.StatusTooManyRequests }

// Client settles bets against a remote House. Retries reuse the same nonce,
// which the House recognises as already applied.
type Client struct {
	inner    *http.Client
	endpoint string
	apiKey   string
	attempts int
	backoff  time.Duration
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		inner:    &http.Client{Timeout: timeout},
		endpoint: strings.TrimRight(baseURL, "/") + "/api/settle",
		apiKey:   apiKey,
		attempts: 3,
		backoff:  200 * time.Millisecond,
	}
}

func (c *Client) Settle(ctx context.Context, req ledger.BetRequest) (ledger.Settlement, error) {
	raw, err := json.Marshal(req)
	if err != nil {
		return ledger.Settlement{}, err
	}
	var lastErr error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		s, err := c.post(ctx, raw)
		if err == nil {
			return s, nil
		}
		lastErr = err
		var re *RemoteError
		if errors.As(err, &re) && !re.retryable() {
			return ledger.Settlement{}, err
		}
		if attempt == c.attempts {
			break
		}
		log.Warn().Err(err).Int("attempt", attempt).Int64("nonce", req.Nonce).Msg("settle_retry")
		if err := sleep(ctx, c.backoff*time.Duration(attempt)); err != nil {
			return ledger.Settlement{}, err
		}
	}
	return ledger.Settlement{}, lastErr
}

func (c *Client) post(ctx context.Context, body []byte) (ledger.Settlement, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return ledger.Settlement{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.inner.Do(req)
	if err != nil {
		return ledger.Settlement{}, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return ledger.Settlement{}, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var payload struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(raw, &payload)
		return ledger.Settlement{}, &RemoteError{Status: resp.StatusCode, Code: payload.Error}
	}
	var s ledger.Settlement
	if err := json.Unmarshal(raw, &s); err != nil {
		return ledger.Settlement{}, err
	}
	return s, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

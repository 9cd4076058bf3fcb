package poller

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Poster sends an envelope to the dispatcher and returns the HTTP status.
// A failure to get any response is returned as a *ConnectionError.
type Poster interface {
	Post(ctx context.Context, envelope any) (int, error)
}

// HTTPPoster posts JSON envelopes to a fixed endpoint
type HTTPPoster struct {
	client      *http.Client
	endpoint    string
	headerName  string
	headerValue string
}

// NewHTTPPoster creates a poster for endpoint that sets the given custom
// header on every request
func NewHTTPPoster(endpoint, headerName, headerValue string, timeout time.Duration) *HTTPPoster {
	return &HTTPPoster{
		client:      &http.Client{Timeout: timeout},
		endpoint:    endpoint,
		headerName:  headerName,
		headerValue: headerValue,
	}
}

// Post implements Poster.Post
func (p *HTTPPoster) Post(ctx context.Context, envelope any) (int, error) {
	body, err := json.Marshal(envelope)
	if err != nil {
		return 0, fmt.Errorf("failed to encode envelope: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("failed to build request: %w", err)
	}
	if p.headerName != "" {
		req.Header.Set(p.headerName, p.headerValue)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return 0, ctxErr
		}
		return 0, NewConnectionError(p.endpoint, err)
	}
	defer resp.Body.Close()

	// drain so the connection can be reused
	io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, nil
}

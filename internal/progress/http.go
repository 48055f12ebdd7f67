package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// DefaultHTTPTimeout bounds a single progress request.
const DefaultHTTPTimeout = 2 * time.Second

// HTTPSource polls a progress endpoint exposed by the pipeline.
type HTTPSource struct {
	url    string
	client *http.Client

	mu   sync.Mutex
	snap Snapshot
}

// NewHTTPSource creates an HTTPSource for url. A zero timeout uses
// DefaultHTTPTimeout.
func NewHTTPSource(url string, timeout time.Duration) *HTTPSource {
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}
	return &HTTPSource{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Refresh fetches the current counters.
func (h *HTTPSource) Refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch progress: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("progress endpoint returned %d", resp.StatusCode)
	}

	var snap Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return fmt.Errorf("failed to decode progress: %w", err)
	}

	h.mu.Lock()
	h.snap = snap
	h.mu.Unlock()
	return nil
}

// Snapshot returns the last successfully fetched snapshot.
func (h *HTTPSource) Snapshot() Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.snap
}

// Package comfy implements ports.JobService against a ComfyUI-compatible
// HTTP backend, plus an optional websocket listener for progress events.
package comfy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/stencil/pkg/domain"
)

const (
	// DefaultPollTimeout bounds the local wait for one job. The remote job is
	// not retracted when the bound is hit.
	DefaultPollTimeout = 300 * time.Second
	// DefaultPollInterval paces the status queries.
	DefaultPollInterval = 2 * time.Second
)

// Client is the HTTP adapter for the backend's job API. Each Client carries
// its own session (client) id; the backend scopes push events to it.
type Client struct {
	baseURL  string
	clientID string
	httpc    *http.Client
	logger   *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client (timeouts, transports,
// test doubles).
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) { c.httpc = httpc }
}

// WithClientID pins the backend session id instead of generating one.
func WithClientID(id string) Option {
	return func(c *Client) { c.clientID = id }
}

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New creates a Client for the given base URL, e.g. "http://127.0.0.1:8188".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:  baseURL,
		clientID: uuid.NewString(),
		httpc:    &http.Client{Timeout: 30 * time.Second},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ClientID returns the session id submitted with every job.
func (c *Client) ClientID() string { return c.clientID }

// Ping probes the system-status endpoint.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/system_stats", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("backend unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("backend unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

type submitRequest struct {
	Prompt   domain.JobGraph `json:"prompt"`
	ClientID string          `json:"client_id"`
}

type submitResponse struct {
	PromptID string `json:"prompt_id"`
}

// Submit posts the job graph and returns the backend tracking id.
func (c *Client) Submit(ctx context.Context, job domain.JobGraph) (string, error) {
	body, err := json.Marshal(submitRequest{Prompt: job, ClientID: c.clientID})
	if err != nil {
		return "", fmt.Errorf("failed to encode job graph: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/prompt", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("submit failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("submit rejected: status %d: %s", resp.StatusCode, excerpt)
	}

	var out submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode submit response: %w", err)
	}
	if out.PromptID == "" {
		return "", fmt.Errorf("submit response missing prompt_id")
	}
	return out.PromptID, nil
}

type historyStatus struct {
	Completed bool            `json:"completed"`
	Error     json.RawMessage `json:"error,omitempty"`
}

type historyEntry struct {
	Status  historyStatus `json:"status"`
	Outputs map[string]struct {
		Images []domain.ArtifactDescriptor `json:"images"`
	} `json:"outputs"`
}

// Poll repeatedly queries job status until a terminal state or until timeout
// elapses. Transient query failures are swallowed and retried after the
// interval; only wall-clock time governs termination. The wait suspends
// cooperatively each interval and honors ctx cancellation.
func (c *Client) Poll(ctx context.Context, promptID string, timeout, interval time.Duration) (domain.JobOutcome, error) {
	if timeout <= 0 {
		timeout = DefaultPollTimeout
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	deadline := time.Now().Add(timeout)

	for {
		entry, err := c.history(ctx, promptID)
		switch {
		case err != nil:
			// Transient: the interval sleep below is the retry pacing.
			c.logger.Debug("status query failed, retrying", "prompt_id", promptID, "err", err)
		case entry != nil && hasError(entry.Status):
			return domain.JobErrored, nil
		case entry != nil && entry.Status.Completed:
			return domain.JobCompleted, nil
		}

		if time.Now().After(deadline) {
			return domain.JobTimedOut, nil
		}

		select {
		case <-ctx.Done():
			return domain.JobTimedOut, ctx.Err()
		case <-time.After(interval):
		}
	}
}

func hasError(s historyStatus) bool {
	return len(s.Error) > 0 && string(s.Error) != "null"
}

// history fetches the backend record for one tracking id. A nil entry with a
// nil error means the backend knows nothing about the id yet.
func (c *Client) history(ctx context.Context, promptID string) (*historyEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/history/"+url.PathEscape(promptID), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("history query: status %d", resp.StatusCode)
	}

	var all map[string]historyEntry
	if err := json.NewDecoder(resp.Body).Decode(&all); err != nil {
		return nil, fmt.Errorf("failed to decode history: %w", err)
	}
	entry, ok := all[promptID]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

// FetchArtifacts lists the artifact descriptors a finished job produced,
// keyed by producing node id.
func (c *Client) FetchArtifacts(ctx context.Context, promptID string) (map[string][]domain.ArtifactDescriptor, error) {
	entry, err := c.history(ctx, promptID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, domain.ErrJobNotFound
	}
	out := make(map[string][]domain.ArtifactDescriptor, len(entry.Outputs))
	for nodeID, node := range entry.Outputs {
		if len(node.Images) > 0 {
			out[nodeID] = node.Images
		}
	}
	return out, nil
}

// Download fetches the raw bytes of one artifact via the content endpoint.
func (c *Client) Download(ctx context.Context, desc domain.ArtifactDescriptor) ([]byte, error) {
	q := url.Values{}
	q.Set("filename", desc.Filename)
	if desc.Subfolder != "" {
		q.Set("subfolder", desc.Subfolder)
	}
	if desc.Type != "" {
		q.Set("type", desc.Type)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/view?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed: status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// Upload pre-populates a reference image on the backend under the given
// filename, so a job graph can reference it before submission.
func (c *Client) Upload(ctx context.Context, filename string, data []byte) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("image", filename)
	if err != nil {
		return err
	}
	if _, err := part.Write(data); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload/image", &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("upload of %s rejected: status %d", filename, resp.StatusCode)
	}
	return nil
}

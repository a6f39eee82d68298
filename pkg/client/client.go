// Package client is a Go consumer for the report generation API. It
// reconstructs frames from the SSE stream and tracks each generation
// through an explicit state machine.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"github.com/astwrks/assetwork-ai-web-sub001/pkg/models"
	"github.com/astwrks/assetwork-ai-web-sub001/pkg/stream"
)

// Client talks to a playground server.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a client for baseURL. token may be empty for servers
// without auth configured.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		// No overall timeout: generations are long-lived streams.
		// Cancellation happens through the request context.
		httpClient: &http.Client{},
		logger:     slog.Default(),
	}
}

// SetLogger replaces the logger used for skipped-frame warnings.
func (c *Client) SetLogger(l *slog.Logger) {
	if l != nil {
		c.logger = l
	}
}

// Generate starts a generation and consumes its stream in the
// background. The returned Generation settles to a terminal state
// exactly once; wait on Done().
//
// Cancelling is done through the returned cancel function, which aborts
// the network request so the server observes the disconnect.
func (c *Client) Generate(ctx context.Context, req *models.GenerateRequest) (*Generation, context.CancelFunc, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to encode request")
	}

	reqCtx, cancel := context.WithCancel(ctx)

	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.baseURL+"/api/v1/generate", bytes.NewReader(body))
	if err != nil {
		cancel()
		return nil, nil, errors.Wrap(err, "failed to build request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		cancel()
		return nil, nil, errors.Wrap(err, "request failed")
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		cancel()
		return nil, nil, apiError(resp)
	}

	gen := newGeneration()
	gen.state = StateGenerating

	userCancel := func() {
		gen.markCancelled()
		cancel()
	}

	go c.consume(gen, resp.Body, cancel)

	return gen, userCancel, nil
}

// consume reads frames until the stream ends and drives the state
// machine. A terminal frame settles the generation; EOF without one
// settles it abnormally, keeping whatever content arrived.
func (c *Client) consume(gen *Generation, body io.ReadCloser, cancel context.CancelFunc) {
	defer body.Close()
	defer cancel()

	r := stream.NewReader(body, c.logger)
	for {
		frame, err := r.Next()
		if err == io.EOF {
			gen.finishAbnormal("stream ended before a terminal frame")
			return
		}
		if err != nil {
			gen.finishAbnormal(err.Error())
			return
		}

		gen.apply(frame)
		if frame.Terminal() {
			return
		}
	}
}

// CancelGeneration asks the server to abort the active generation on a
// thread. This is the out-of-band variant for when the streaming
// request lives elsewhere (another tab, a reconnect).
func (c *Client) CancelGeneration(ctx context.Context, threadID string) error {
	body, _ := json.Marshal(models.CancelRequest{ThreadID: threadID})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/generate/cancel", bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "failed to build request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "request failed")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}
	return nil
}

// GenerationStatus fetches the server-side generation state for a
// thread, used when reconnecting.
func (c *Client) GenerationStatus(ctx context.Context, threadID string) (*models.GenerationState, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/generate/status/"+threadID, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build request")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "request failed")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}

	var state models.GenerationState
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		return nil, errors.Wrap(err, "failed to decode status")
	}
	return &state, nil
}

// Wait blocks until the generation settles or ctx ends.
func Wait(ctx context.Context, gen *Generation) error {
	select {
	case <-gen.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func apiError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &payload) == nil && payload.Error != "" {
		return errors.Errorf("server returned %d: %s", resp.StatusCode, payload.Error)
	}
	return fmt.Errorf("server returned %d", resp.StatusCode)
}

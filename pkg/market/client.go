package market

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"replybot/pkg/logx"
)

// Header carrying the marketplace session token.
const authHeader = "X-Golden-Key"

// Client is the HTTP implementation of Session plus the update feed used by
// the runner. A single shared handle; mutating calls are serialized by the
// sequential event loop.
type Client struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
	logger     *logx.Logger
}

// NewClient creates a marketplace client for baseURL authenticated with the
// golden-key token.
func NewClient(baseURL, authToken string, timeout time.Duration) *Client {
	return &Client{
		baseURL:   baseURL,
		authToken: authToken,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logx.NewLogger("market"),
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set(authHeader, c.authToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusNotFound {
		return ErrOrderNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d from %s: %s", resp.StatusCode, req.URL.Path, string(snippet))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// GetOrder implements Session.
func (c *Client) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/orders/"+url.PathEscape(orderID), nil)
	if err != nil {
		return nil, err
	}

	var order Order
	if err := c.do(req, &order); err != nil {
		return nil, err
	}
	c.logger.Debug("Fetched order %s (review present: %v)", orderID, order.Review != nil)
	return &order, nil
}

// SendReview implements Session. The marketplace treats this as an upsert
// keyed by order id.
func (c *Client) SendReview(ctx context.Context, orderID, text string, rating int) error {
	body := map[string]any{
		"text":   text,
		"rating": rating,
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/api/orders/"+url.PathEscape(orderID)+"/reply", body)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// DeleteReview implements Session.
func (c *Client) DeleteReview(ctx context.Context, orderID string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, "/api/orders/"+url.PathEscape(orderID)+"/reply", nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// updatesResponse is the wire shape of the update feed.
type updatesResponse struct {
	Messages []Message `json:"messages"`
	Tag      string    `json:"tag"` // Opaque cursor for the next poll
}

// GetUpdates fetches messages newer than the given cursor tag. An empty tag
// starts from the current head of the feed.
func (c *Client) GetUpdates(ctx context.Context, tag string) ([]Message, string, error) {
	path := "/api/updates"
	if tag != "" {
		path += "?tag=" + url.QueryEscape(tag)
	}
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, "", err
	}

	var updates updatesResponse
	if err := c.do(req, &updates); err != nil {
		return nil, "", err
	}
	return updates.Messages, updates.Tag, nil
}

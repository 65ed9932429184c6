package indexer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client talks to the external blockchain indexer. Every endpoint is a POST
// with a JSON body and a {result, data, error} envelope.
type Client struct {
	host       string
	httpClient *http.Client
	maxRetries int
}

type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("indexer API error (%d): %s", e.Status, e.Body)
}

func NewClient(httpClient *http.Client, host string, maxRetries int) *Client {
	host = strings.TrimRight(host, "/")
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &Client{
		host:       host,
		httpClient: httpClient,
		maxRetries: maxRetries,
	}
}

type envelope struct {
	Result bool            `json:"result"`
	Data   json.RawMessage `json:"data"`
	Error  string          `json:"error"`
}

func (c *Client) doRequest(ctx context.Context, path string, payload any) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}
		data, err := c.doRequestOnce(ctx, path, body)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, lastErr
		}
	}
	return nil, lastErr
}

func (c *Client) doRequestOnce(ctx context.Context, path string, body []byte) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Status: resp.StatusCode, Body: string(respBody)}
	}
	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if !env.Result {
		msg := env.Error
		if msg == "" {
			msg = "response error"
		}
		return nil, fmt.Errorf("indexer rejected request: %s", msg)
	}
	return env.Data, nil
}

// FetchBroadcasts returns one page of broadcast messages for the given
// composed feed ids, newest first.
func (c *Client) FetchBroadcasts(ctx context.Context, feedIDs []string, offset, limit int) ([]Message, error) {
	if len(feedIDs) == 0 {
		return nil, fmt.Errorf("feed ids are required")
	}
	data, err := c.doRequest(ctx, "/broadcasts", broadcastsRequest{
		FeedID: feedIDs,
		Offset: offset,
		Limit:  limit,
	})
	if err != nil {
		return nil, err
	}
	var items []Message
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to decode broadcasts: %w", err)
	}
	return items, nil
}

// FetchContent returns the payload for a message, nil when the indexer has
// no content for it.
func (c *Client) FetchContent(ctx context.Context, msgID string) (*Content, error) {
	if msgID == "" {
		return nil, fmt.Errorf("msg id is required")
	}
	data, err := c.doRequest(ctx, "/content", contentRequest{MsgID: msgID})
	if err != nil {
		return nil, err
	}
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	var item Content
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, fmt.Errorf("failed to decode content: %w", err)
	}
	return &item, nil
}

type broadcastsRequest struct {
	FeedID []string `json:"feedId"`
	Offset int      `json:"offset"`
	Limit  int      `json:"limit"`
}

type contentRequest struct {
	MsgID string `json:"msgId"`
}

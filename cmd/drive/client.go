package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/wricardo/gridpath/pathfind/search"
	"github.com/wricardo/gridpath/pathfind/service"
)

// APIError is a non-2xx response from the server
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// Client talks to a gridpath server over its REST API
type Client struct {
	baseURL   string
	sessionID string
	client    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SessionID returns the session the client is driving
func (c *Client) SessionID() string { return c.sessionID }

// UseSession points the client at an existing session
func (c *Client) UseSession(id string) { c.sessionID = id }

func (c *Client) CreateSession(ctx context.Context, configID string) (*service.SessionInfo, error) {
	var body interface{}
	if configID != "" {
		body = map[string]string{"config_id": configID}
	}

	var info service.SessionInfo
	if err := c.do(ctx, http.MethodPost, "/api/sessions", body, &info); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	c.sessionID = info.ID
	return &info, nil
}

func (c *Client) GetSession(ctx context.Context) (*service.SessionInfo, error) {
	var info service.SessionInfo
	if err := c.do(ctx, http.MethodGet, c.sessionPath(""), nil, &info); err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &info, nil
}

func (c *Client) ToggleWall(ctx context.Context, row, col int) (*search.Snapshot, error) {
	var snap search.Snapshot
	body := map[string]int{"row": row, "col": col}
	if err := c.do(ctx, http.MethodPost, c.sessionPath("/walls"), body, &snap); err != nil {
		return nil, fmt.Errorf("toggle wall (%d,%d): %w", row, col, err)
	}
	return &snap, nil
}

func (c *Client) Step(ctx context.Context) (*service.StepResult, error) {
	var result service.StepResult
	body := map[string]bool{"auto_start": true}
	if err := c.do(ctx, http.MethodPost, c.sessionPath("/step"), body, &result); err != nil {
		return nil, fmt.Errorf("step: %w", err)
	}
	return &result, nil
}

func (c *Client) Reset(ctx context.Context) (*search.Snapshot, error) {
	var resp struct {
		Message  string           `json:"message"`
		Snapshot *search.Snapshot `json:"snapshot"`
	}
	if err := c.do(ctx, http.MethodPost, c.sessionPath("/reset"), nil, &resp); err != nil {
		return nil, fmt.Errorf("reset: %w", err)
	}
	return resp.Snapshot, nil
}

func (c *Client) Path(ctx context.Context) (*service.PathResult, error) {
	var result service.PathResult
	if err := c.do(ctx, http.MethodGet, c.sessionPath("/path"), nil, &result); err != nil {
		return nil, fmt.Errorf("get path: %w", err)
	}
	return &result, nil
}

func (c *Client) sessionPath(suffix string) string {
	return "/api/sessions/" + c.sessionID + suffix
}

func (c *Client) do(ctx context.Context, method, path string, body, result interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			msg = apiErr.Error
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if result == nil {
		return nil
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

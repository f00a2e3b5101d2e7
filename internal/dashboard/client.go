package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"livechat-backend/internal/model"
)

// Client drives the agent-facing API the way the browser dashboard does:
// plain JSON over HTTP with a bearer token captured at login.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Token returns the bearer token captured by Login. The socket dial needs
// it as a query parameter.
func (c *Client) Token() string {
	return c.token
}

func (c *Client) Login(ctx context.Context, email, password string) (*model.Agent, error) {
	var resp struct {
		Token string       `json:"token"`
		Agent *model.Agent `json:"agent"`
	}
	req := model.LoginRequest{Email: email, Password: password}
	if err := c.do(ctx, "POST", "/api/auth/login", req, &resp); err != nil {
		return nil, err
	}
	c.token = resp.Token
	return resp.Agent, nil
}

func (c *Client) Me(ctx context.Context) (*model.Agent, error) {
	var resp struct {
		Agent *model.Agent `json:"agent"`
	}
	if err := c.do(ctx, "GET", "/api/auth/me", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Agent, nil
}

func (c *Client) Sessions(ctx context.Context, status string) ([]*model.ChatSession, error) {
	path := "/api/chats/sessions"
	if status != "" {
		path += "?status=" + url.QueryEscape(status)
	}
	var resp struct {
		Sessions []*model.ChatSession `json:"sessions"`
	}
	if err := c.do(ctx, "GET", path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Sessions, nil
}

func (c *Client) Session(ctx context.Context, sessionID string) (*model.ChatSession, []model.Message, error) {
	var resp struct {
		Session  *model.ChatSession `json:"session"`
		Messages []model.Message    `json:"messages"`
	}
	if err := c.do(ctx, "GET", "/api/chats/sessions/"+url.PathEscape(sessionID), nil, &resp); err != nil {
		return nil, nil, err
	}
	return resp.Session, resp.Messages, nil
}

func (c *Client) Messages(ctx context.Context, sessionID string) ([]model.Message, error) {
	var resp struct {
		Messages []model.Message `json:"messages"`
	}
	if err := c.do(ctx, "GET", "/api/chats/"+url.PathEscape(sessionID)+"/messages", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

// Assign uses the bare assignment endpoint, matching the dashboard's
// auto-assign on open.
func (c *Client) Assign(ctx context.Context, sessionID string, agentID int) error {
	body := map[string]any{"session_id": sessionID, "agent_id": agentID}
	return c.do(ctx, "POST", "/api/chats/assign", body, nil)
}

func (c *Client) CloseSession(ctx context.Context, sessionID string) error {
	return c.do(ctx, "POST", "/api/chats/sessions/"+url.PathEscape(sessionID)+"/close", nil, nil)
}

func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	body := map[string]any{"session_id": sessionID}
	return c.do(ctx, "DELETE", "/api/chats/delete", body, nil)
}

func (c *Client) PostMessage(ctx context.Context, sessionID, content string) (*model.Message, error) {
	body := model.AgentMessageRequest{Content: content, MessageType: "text"}
	var resp struct {
		Message *model.Message `json:"message"`
	}
	if err := c.do(ctx, "POST", "/api/chats/sessions/"+url.PathEscape(sessionID)+"/messages", body, &resp); err != nil {
		return nil, err
	}
	return resp.Message, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %s", method, path, apiErr.Error)
		}
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

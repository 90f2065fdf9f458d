// Package apiclient is a thin HTTP client for the capture API, used by the
// replay tool and by anything else driving a session from Go
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	authdom "keycap/internal/services/auth/domain"
	ingestdom "keycap/internal/services/ingest/domain"
	sessiondom "keycap/internal/services/session/domain"
)

// Client talks to one capture API instance
type Client struct {
	base  string
	http  *http.Client
	token string
}

// New builds a client for the API at base, e.g. "http://localhost:4000"
func New(base string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		base: strings.TrimRight(base, "/") + "/api/v1",
		http: &http.Client{Timeout: timeout},
	}
}

// Token returns the bearer token held after Login or Register
func (c *Client) Token() string { return c.token }

// Register creates an account and keeps the returned token
func (c *Client) Register(ctx context.Context, email, password string) error {
	var tok authdom.Token
	err := c.call(ctx, http.MethodPost, "/auth/register",
		authdom.RegisterInput{Email: email, Password: password}, &tok)
	if err != nil {
		return err
	}
	c.token = tok.AccessToken
	return nil
}

// Login exchanges credentials for a token and keeps it
func (c *Client) Login(ctx context.Context, email, password string) error {
	var tok authdom.Token
	err := c.call(ctx, http.MethodPost, "/auth/login",
		authdom.LoginInput{Email: email, Password: password}, &tok)
	if err != nil {
		return err
	}
	c.token = tok.AccessToken
	return nil
}

// CreateSession starts a session and its first section
func (c *Client) CreateSession(ctx context.Context, in sessiondom.CreateInput) (sessiondom.NewSession, error) {
	var out sessiondom.NewSession
	err := c.call(ctx, http.MethodPost, "/session", in, &out)
	return out, err
}

// CreateSection opens the next prompt
func (c *Client) CreateSection(ctx context.Context, in sessiondom.SectionInput) (sessiondom.NewSection, error) {
	var out sessiondom.NewSection
	err := c.call(ctx, http.MethodPost, "/session/section", in, &out)
	return out, err
}

// PostBatch ships one keystroke batch
func (c *Client) PostBatch(ctx context.Context, in ingestdom.BatchInput) (ingestdom.BatchAck, error) {
	var out ingestdom.BatchAck
	err := c.call(ctx, http.MethodPost, "/capture/keystrokes", in, &out)
	return out, err
}

// CompleteSection closes a section
func (c *Client) CompleteSection(ctx context.Context, in ingestdom.SectionCompleteInput) (ingestdom.SectionAck, error) {
	var out ingestdom.SectionAck
	err := c.call(ctx, http.MethodPost, "/capture/sentence-complete", in, &out)
	return out, err
}

// EndTest finalizes the session
func (c *Client) EndTest(ctx context.Context, in ingestdom.EndInput) (ingestdom.SessionAck, error) {
	var out ingestdom.SessionAck
	err := c.call(ctx, http.MethodPost, "/capture/end-test", in, &out)
	return out, err
}

// envelope mirrors the server's response wrapper
type envelope struct {
	StatusCode int             `json:"status_code"`
	Error      string          `json:"error,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
}

func (c *Client) call(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("apiclient: %s %s: status %d with unreadable body: %w", method, path, resp.StatusCode, err)
	}
	if resp.StatusCode >= 300 || env.Error != "" {
		return fmt.Errorf("apiclient: %s %s: status %d: %s", method, path, resp.StatusCode, env.Error)
	}
	if out != nil && len(env.Data) > 0 {
		return json.Unmarshal(env.Data, out)
	}
	return nil
}

// Package backend provides the HTTP client for the remote JWT service.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ethpandaops/jwtprobe/internal/config"
	"github.com/sirupsen/logrus"
)

var errEmptyID = errors.New("test id is required")

// RawResponse is a completed HTTP exchange, whatever its status.
type RawResponse struct {
	StatusCode int
	Body       []byte
}

// APIError is returned by the typed operations for non-2xx answers.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned HTTP %d", e.StatusCode)
	}

	return fmt.Sprintf("backend returned HTTP %d: %s", e.StatusCode, e.Message)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout sets the timeout used by the typed operations.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// Client talks to the JWT backend under {base}/api/jwt.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	log     logrus.FieldLogger
}

// NewClient creates a backend client for the given base address.
func NewClient(log logrus.FieldLogger, baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		timeout: config.DefaultHTTPTimeout,
		log:     log.WithField("component", "backend_client"),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// BaseURL returns the backend base address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Post sends body as JSON to {base}/api/jwt/{path} and returns the raw answer.
// Only transport failures produce an error; 4xx and 5xx are valid responses.
func (c *Client) Post(ctx context.Context, path string, body any) (*RawResponse, error) {
	return c.do(ctx, http.MethodPost, path, body)
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*RawResponse, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	endpoint := c.baseURL + config.APIPrefix + "/" + strings.TrimLeft(path, "/")

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	c.log.WithFields(logrus.Fields{
		"method":   method,
		"path":     path,
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	}).Debug("backend request completed")

	return &RawResponse{StatusCode: resp.StatusCode, Body: data}, nil
}

// call performs a typed operation bounded by the client timeout and decodes
// a successful answer into out (when non-nil).
func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(resp.Body)}
	}

	if out == nil || len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil
	}

	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("%s %s: parse response: %w", method, path, err)
	}

	return nil
}

// errorMessage extracts the backend's "error" member, falling back to the raw text.
func errorMessage(body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}

	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}

	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:197] + "..."
	}

	return msg
}

// Encode asks the backend to sign a header/payload pair.
func (c *Client) Encode(ctx context.Context, req EncodeRequest) (*EncodeResponse, error) {
	var out EncodeResponse
	if err := c.call(ctx, http.MethodPost, "encode", req, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// Decode asks the backend to split and decode a token.
func (c *Client) Decode(ctx context.Context, token string) (*DecodeResponse, error) {
	var out DecodeResponse
	if err := c.call(ctx, http.MethodPost, "decode", TokenRequest{Token: token}, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// Verify asks the backend to check a token signature.
func (c *Client) Verify(ctx context.Context, token, secret string) (*VerifyResponse, error) {
	var out VerifyResponse
	if err := c.call(ctx, http.MethodPost, "verify", VerifyRequest{Token: token, Secret: secret}, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// Analyze runs the backend's lexical, syntactic and semantic analysis.
func (c *Client) Analyze(ctx context.Context, token string) (*AnalyzeResponse, error) {
	var out AnalyzeResponse
	if err := c.call(ctx, http.MethodPost, "analyze", TokenRequest{Token: token}, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// SaveTest persists a named test case in the backend.
func (c *Client) SaveTest(ctx context.Context, req SaveTestRequest) error {
	return c.call(ctx, http.MethodPost, "save-test", req, nil)
}

// ListTests returns every saved test case.
func (c *Client) ListTests(ctx context.Context) ([]SavedTest, error) {
	var out []SavedTest
	if err := c.call(ctx, http.MethodGet, "tests", nil, &out); err != nil {
		return nil, err
	}

	return out, nil
}

// DeleteTest removes a saved test case.
func (c *Client) DeleteTest(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return errEmptyID
	}

	return c.call(ctx, http.MethodDelete, "tests/"+url.PathEscape(id), nil, nil)
}

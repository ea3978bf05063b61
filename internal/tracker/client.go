// Package tracker is a small GitHub Issues client used to open meetup
// issues and read them back.
package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"
)

const (
	// ClientTimeout is the total request timeout.
	ClientTimeout = 15 * time.Second
	// DialTimeout is the connection timeout.
	DialTimeout = 5 * time.Second
	// TLSHandshakeTimeout is the TLS negotiation timeout.
	TLSHandshakeTimeout = 5 * time.Second
	// ResponseHeaderTimeout is time to wait for response headers.
	ResponseHeaderTimeout = 10 * time.Second

	apiVersion = "2022-11-28"
	userAgent  = "meetupbot/1.0"

	// maxErrorBody bounds how much of a failed response is kept for errors.
	maxErrorBody = 4 << 10
)

// Sentinel errors for tracker operations.
var (
	ErrIssueNotFound = errors.New("issue not found")
	ErrUnauthorized  = errors.New("tracker rejected credentials")
	ErrRejected      = errors.New("tracker rejected issue")
)

// APIError carries a non-2xx tracker response.
type APIError struct {
	StatusCode int
	Message    string
	err        error
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("tracker: status %d", e.StatusCode)
	}
	return fmt.Sprintf("tracker: status %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.err
}

// Label is an issue label as returned by the API.
type Label struct {
	Name string `json:"name"`
}

// Issue is the subset of a GitHub issue the service reads.
type Issue struct {
	Number  int       `json:"number"`
	HTMLURL string    `json:"html_url"`
	Title   string    `json:"title"`
	Body    string    `json:"body"`
	State   string    `json:"state"`
	Labels  []Label   `json:"labels"`
	Created time.Time `json:"created_at"`
}

// LabelNames returns the issue's label names.
func (i *Issue) LabelNames() []string {
	names := make([]string, 0, len(i.Labels))
	for _, l := range i.Labels {
		names = append(names, l.Name)
	}
	return names
}

// NewIssue is the payload for opening an issue.
type NewIssue struct {
	Title  string   `json:"title"`
	Body   string   `json:"body"`
	Labels []string `json:"labels,omitempty"`
}

// Config configures a Client.
type Config struct {
	BaseURL    string
	Token      string
	Owner      string
	Repo       string
	Timeout    time.Duration
	Logger     *slog.Logger
	HTTPClient *http.Client
}

// Client talks to the GitHub REST API for a single repository.
type Client struct {
	baseURL     string
	token       string
	owner       string
	repo        string
	logger      *slog.Logger
	http        *http.Client
	maxAttempts int
	wait        func(ctx context.Context, d time.Duration) error
}

// NewClient creates a tracker client.
func NewClient(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = NewHTTPClient(cfg.Timeout)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		token:       cfg.Token,
		owner:       cfg.Owner,
		repo:        cfg.Repo,
		logger:      logger,
		http:        httpClient,
		maxAttempts: DefaultMaxAttempts,
		wait:        sleepContext,
	}
}

// NewHTTPClient creates an HTTP client for API calls. It does not follow
// redirects.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = ClientTimeout
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   DialTimeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   TLSHandshakeTimeout,
			ResponseHeaderTimeout: ResponseHeaderTimeout,
			MaxIdleConns:          20,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// Repository returns "owner/name".
func (c *Client) Repository() string {
	return c.owner + "/" + c.repo
}

// CreateIssue opens a new issue.
func (c *Client) CreateIssue(ctx context.Context, in NewIssue) (*Issue, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("marshal issue: %w", err)
	}

	var issue Issue
	path := fmt.Sprintf("/repos/%s/%s/issues", c.owner, c.repo)
	if err := c.do(ctx, http.MethodPost, path, payload, &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

// GetIssue fetches an issue by number.
func (c *Client) GetIssue(ctx context.Context, number int) (*Issue, error) {
	var issue Issue
	path := fmt.Sprintf("/repos/%s/%s/issues/%d", c.owner, c.repo, number)
	if err := c.do(ctx, http.MethodGet, path, nil, &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

// do sends a request, retrying transient failures, and decodes a 2xx body
// into out.
func (c *Client) do(ctx context.Context, method, path string, payload []byte, out any) error {
	var lastErr error

	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			delay := NextRetryDelay(attempt - 1)
			c.logger.Warn("tracker_request_retry",
				slog.String("method", method),
				slog.String("path", path),
				slog.Int("attempt", attempt+1),
				slog.Duration("delay", delay),
				slog.String("error", lastErr.Error()),
			)
			if err := c.wait(ctx, delay); err != nil {
				return err
			}
		}

		retry, err := c.attempt(ctx, method, path, payload, out)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retry {
			return err
		}
	}

	return lastErr
}

func (c *Client) attempt(ctx context.Context, method, path string, payload []byte, out any) (bool, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	req.Header.Set("User-Agent", userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return isRetryableTransport(method, err), fmt.Errorf("tracker request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return false, fmt.Errorf("decode tracker response: %w", err)
		}
		return false, nil
	}

	apiErr := readAPIError(resp)
	return IsRetryableStatus(method, resp.StatusCode), apiErr
}

func readAPIError(resp *http.Response) *APIError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var decoded struct {
		Message string `json:"message"`
	}
	_ = json.Unmarshal(raw, &decoded)

	apiErr := &APIError{StatusCode: resp.StatusCode, Message: decoded.Message}
	switch resp.StatusCode {
	case http.StatusNotFound, http.StatusGone:
		apiErr.err = ErrIssueNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		apiErr.err = ErrUnauthorized
	case http.StatusUnprocessableEntity:
		apiErr.err = ErrRejected
	}
	return apiErr
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

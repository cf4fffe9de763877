package jira

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// searchFields is the default set of fields requested in search/get queries.
const searchFields = "summary,description,status,priority,issuetype,project,reporter,assignee,resolution,parent,subtasks,labels,comment,attachment,created,updated,resolutiondate"

// maxErrorBody caps how much of an error response body is kept for messages.
const maxErrorBody = 2048

// Client provides HTTP access to a Jira Cloud instance. Every request
// carries HTTP basic auth built from Username and APIToken.
type Client struct {
	URL        string
	Username   string
	APIToken   string
	HTTPClient *http.Client

	// RetryMaxElapsed bounds retries of rate-limited requests (429/503).
	// Zero means the default of 30 seconds.
	RetryMaxElapsed time.Duration
}

// NewClient creates a new Jira client for baseURL (e.g.
// "https://company.atlassian.net").
func NewClient(baseURL, username, apiToken string) *Client {
	return &Client{
		URL:      strings.TrimSuffix(baseURL, "/"),
		Username: username,
		APIToken: apiToken,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// BrowseURL returns the human-facing URL for an issue key.
func (c *Client) BrowseURL(key string) string {
	return fmt.Sprintf("%s/browse/%s", c.URL, url.PathEscape(key))
}

// GetIssue fetches a single Jira issue by key (e.g., "PROJ-123").
// fields is a comma-separated field list; empty means the default set.
func (c *Client) GetIssue(ctx context.Context, key, fields string) (*Issue, error) {
	if fields == "" {
		fields = searchFields
	}
	apiURL := fmt.Sprintf("%s/rest/api/3/issue/%s?fields=%s", c.URL, url.PathEscape(key), url.QueryEscape(fields))

	body, err := c.doRequest(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, &NotFoundError{Key: key}
		}
		return nil, fmt.Errorf("get issue %s: %w", key, err)
	}

	var issue Issue
	if err := json.Unmarshal(body, &issue); err != nil {
		return nil, fmt.Errorf("parse issue response: %w", err)
	}

	return &issue, nil
}

// UpdateLabels replaces the label list on an issue. Jira treats the update
// as idempotent: sending a label set equal to the current one is accepted.
func (c *Client) UpdateLabels(ctx context.Context, key string, labels []string) error {
	if labels == nil {
		labels = []string{}
	}
	payload := map[string]interface{}{
		"fields": map[string]interface{}{"labels": labels},
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal update request: %w", err)
	}

	apiURL := fmt.Sprintf("%s/rest/api/3/issue/%s", c.URL, url.PathEscape(key))

	if _, err := c.doRequest(ctx, http.MethodPut, apiURL, data); err != nil {
		return fmt.Errorf("update issue %s: %w", key, err)
	}

	return nil
}

// DownloadAttachment streams the attachment at contentURL into w and returns
// the number of bytes written.
func (c *Client) DownloadAttachment(ctx context.Context, contentURL string, w io.Writer) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, contentURL, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	c.setAuth(req)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("download attachment: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := statusError(resp.StatusCode, contentURL, resp.Body); err != nil {
		return 0, err
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("download attachment: %w", err)
	}
	return n, nil
}

// doRequest executes an authenticated HTTP request and returns the response
// body. Rate-limited responses (429/503) are retried with exponential
// backoff, honoring a Retry-After header when the server sends one; all
// other failures surface immediately.
func (c *Client) doRequest(ctx context.Context, method, apiURL string, body []byte) ([]byte, error) {
	if c.URL == "" {
		return nil, fmt.Errorf("jira URL not configured")
	}
	if c.APIToken == "" {
		return nil, fmt.Errorf("jira API token not configured")
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 250 * time.Millisecond
	bo.MaxElapsedTime = c.RetryMaxElapsed
	if bo.MaxElapsedTime == 0 {
		bo.MaxElapsedTime = 30 * time.Second
	}
	bo.Reset()

	for {
		respBody, retryAfter, err := c.doRequestOnce(ctx, method, apiURL, body)
		if err == nil {
			return respBody, nil
		}
		if !isRetryable(err) {
			return nil, err
		}

		wait := bo.NextBackOff()
		if wait == backoff.Stop {
			return nil, err
		}
		if retryAfter > wait {
			wait = retryAfter
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}

// doRequestOnce executes a single HTTP attempt. retryAfter is the delay the
// server requested via Retry-After, if any.
func (c *Client) doRequestOnce(ctx context.Context, method, apiURL string, body []byte) (respBody []byte, retryAfter time.Duration, err error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, bodyReader)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}

	c.setAuth(req)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "jiratools/1.0")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	if secs, parseErr := strconv.Atoi(resp.Header.Get("Retry-After")); parseErr == nil {
		retryAfter = time.Duration(secs) * time.Second
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, retryAfter, fmt.Errorf("read response: %w", err)
	}

	// PUT returns 204 No Content on success
	if resp.StatusCode == http.StatusNoContent {
		return nil, 0, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, retryAfter, newStatusError(resp.StatusCode, apiURL, data)
	}

	return data, 0, nil
}

// setAuth sets HTTP basic auth from the configured user and API token.
func (c *Client) setAuth(req *http.Request) {
	auth := base64.StdEncoding.EncodeToString([]byte(c.Username + ":" + c.APIToken))
	req.Header.Set("Authorization", "Basic "+auth)
}

func newStatusError(status int, apiURL string, body []byte) error {
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return &AuthError{StatusCode: status, URL: apiURL}
	}
	msg := string(body)
	if len(msg) > maxErrorBody {
		msg = msg[:maxErrorBody]
	}
	return &APIError{StatusCode: status, Body: msg, URL: apiURL}
}

// statusError checks an in-flight response (body not yet consumed) and
// returns a typed error for non-2xx statuses.
func statusError(status int, apiURL string, body io.Reader) error {
	if status >= 200 && status < 300 {
		return nil
	}
	data, _ := io.ReadAll(io.LimitReader(body, maxErrorBody))
	return newStatusError(status, apiURL, data)
}

func isRetryable(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode == http.StatusServiceUnavailable
}

// Package comments talks to the remote reviewer-note service. Notes are
// keyed by a prototype identifier so several reviewers can annotate the
// same reconciliation view.
package comments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ledgerline/lockbox-lens/internal/common"
	"github.com/ledgerline/lockbox-lens/internal/model"
	"github.com/ledgerline/lockbox-lens/internal/service"
)

// Client implements service.CommentStore over the comment service's
// JSON HTTP API. All failures surface as common.ErrCommentStore so
// callers can treat them as retryable without touching local state.
type Client struct {
	baseURL    string
	httpClient *http.Client
	retryOpts  service.RetryOptions
}

// Wire types for the comment service API.
type commentPayload struct {
	ID        string    `json:"id,omitempty"`
	Key       string    `json:"key"`
	Text      string    `json:"text"`
	Author    string    `json:"author,omitempty"`
	Tab       string    `json:"tab,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

type commentList struct {
	Comments []commentPayload `json:"comments"`
}

// NewClient creates a comment service client for the given base URL.
func NewClient(baseURL string) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		return nil, fmt.Errorf("%w: comment service URL must be http(s): %s", common.ErrInvalidConfig, baseURL)
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		retryOpts: service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: 250 * time.Millisecond,
			MaxDelay:     5 * time.Second,
			Multiplier:   2.0,
		},
	}, nil
}

// List returns every comment stored under the prototype key, oldest
// first as the server returns them.
func (c *Client) List(ctx context.Context, key string) ([]model.Comment, error) {
	u, err := url.Parse(c.baseURL + "/comments")
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	q := u.Query()
	q.Set("key", key)
	u.RawQuery = q.Encode()

	var listed commentList
	err = common.WithRetry(ctx, func() error {
		return c.doJSON(ctx, http.MethodGet, u.String(), nil, &listed)
	}, c.retryOpts)
	if err != nil {
		return nil, err
	}

	comments := make([]model.Comment, 0, len(listed.Comments))
	for _, p := range listed.Comments {
		comments = append(comments, p.toModel())
	}
	return comments, nil
}

// Add stores a new comment under the prototype key. The id is assigned
// client-side so a retried request stays idempotent on the server.
func (c *Client) Add(ctx context.Context, key string, comment model.Comment) (*model.Comment, error) {
	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	comment.Key = key

	payload := fromModel(comment)
	var saved commentPayload
	err := common.WithRetry(ctx, func() error {
		return c.doJSON(ctx, http.MethodPost, c.baseURL+"/comments", payload, &saved)
	}, c.retryOpts)
	if err != nil {
		return nil, err
	}

	result := saved.toModel()
	slog.Debug("Added comment", "key", key, "comment_id", result.ID)
	return &result, nil
}

// Update replaces a comment's text. The server applies last-write-wins:
// whichever update arrives last owns the text, no version check.
func (c *Client) Update(ctx context.Context, id, text string) (*model.Comment, error) {
	payload := commentPayload{Text: text}
	var saved commentPayload
	err := common.WithRetry(ctx, func() error {
		return c.doJSON(ctx, http.MethodPut, c.baseURL+"/comments/"+url.PathEscape(id), payload, &saved)
	}, c.retryOpts)
	if err != nil {
		return nil, err
	}

	result := saved.toModel()
	return &result, nil
}

// Delete removes a comment. Deleting an unknown id is not an error:
// a retried delete whose first attempt landed must not fail.
func (c *Client) Delete(ctx context.Context, id string) error {
	err := common.WithRetry(ctx, func() error {
		return c.doJSON(ctx, http.MethodDelete, c.baseURL+"/comments/"+url.PathEscape(id), nil, nil)
	}, c.retryOpts)
	if errors.Is(err, common.ErrNotFound) {
		return nil
	}
	return err
}

// doJSON performs one HTTP round trip with JSON encoding on both sides.
func (c *Client) doJSON(ctx context.Context, method, rawURL string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return &common.RetryableError{Err: err, Retryable: false}
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return &common.RetryableError{Err: err, Retryable: false}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrCommentStore, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return &common.RetryableError{Err: common.ErrNotFound, Retryable: false}
	case resp.StatusCode == http.StatusTooManyRequests:
		return common.ErrRateLimit
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		respBody, _ := io.ReadAll(resp.Body)
		return &common.RetryableError{
			Err:       fmt.Errorf("%w: %d - %s", common.ErrCommentStore, resp.StatusCode, string(respBody)),
			Retryable: false,
		}
	case resp.StatusCode >= 500:
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: %d - %s", common.ErrCommentStore, resp.StatusCode, string(respBody))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", common.ErrCommentStore, err)
	}
	return nil
}

func (p commentPayload) toModel() model.Comment {
	return model.Comment{
		ID:        p.ID,
		Key:       p.Key,
		Text:      p.Text,
		Author:    p.Author,
		Tab:       p.Tab,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func fromModel(c model.Comment) commentPayload {
	return commentPayload{
		ID:        c.ID,
		Key:       c.Key,
		Text:      c.Text,
		Author:    c.Author,
		Tab:       c.Tab,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// Package client is a Go client for the notes API, plus a small state
// store that editors can build on.
package client

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
)

// ErrMissingNote is returned when a successful response carries no note.
var ErrMissingNote = errors.New("response missing note")

// Note mirrors the API's note representation.
type Note struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Summary   *string   `json:"summary"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FieldError is one entry of a validation failure.
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// APIError is returned for every non-2xx response.
type APIError struct {
	Status  int
	Message string
	Details []FieldError
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// TokenSource returns the bearer token for the next request.
type TokenSource func(ctx context.Context) (string, error)

// StaticToken always returns token.
func StaticToken(token string) TokenSource {
	return func(context.Context) (string, error) { return token, nil }
}

// Client talks to the notes API.
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokens:     tokens,
		httpClient: &http.Client{Timeout: 90 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateNoteInput is the body of a create request.
type CreateNoteInput struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// UpdateNoteInput sends only the fields that are set. ClearSummary sends an
// explicit null summary.
type UpdateNoteInput struct {
	Title        *string
	Content      *string
	Summary      *string
	ClearSummary bool
}

func (in UpdateNoteInput) MarshalJSON() ([]byte, error) {
	body := map[string]any{}
	if in.Title != nil {
		body["title"] = *in.Title
	}
	if in.Content != nil {
		body["content"] = *in.Content
	}
	switch {
	case in.ClearSummary:
		body["summary"] = nil
	case in.Summary != nil:
		body["summary"] = *in.Summary
	}
	return json.Marshal(body)
}

// AIInput names the text source of an AI request. A note's content wins
// over Text when both are set.
type AIInput struct {
	NoteID string `json:"noteId,omitempty"`
	Text   string `json:"text,omitempty"`
}

// Identity is the response of Me.
type Identity struct {
	Message   string    `json:"message"`
	UserID    string    `json:"userId"`
	SessionID string    `json:"sessionId"`
	Timestamp time.Time `json:"timestamp"`
}

// ListNotes returns the caller's notes, most recently updated first.
func (c *Client) ListNotes(ctx context.Context) ([]Note, error) {
	var out struct {
		Notes []Note `json:"notes"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/notes", nil, &out); err != nil {
		return nil, err
	}
	return out.Notes, nil
}

func (c *Client) GetNote(ctx context.Context, id string) (*Note, error) {
	return c.noteRequest(ctx, http.MethodGet, notePath(id), nil)
}

func (c *Client) CreateNote(ctx context.Context, in CreateNoteInput) (*Note, error) {
	return c.noteRequest(ctx, http.MethodPost, "/api/notes", in)
}

func (c *Client) UpdateNote(ctx context.Context, id string, in UpdateNoteInput) (*Note, error) {
	return c.noteRequest(ctx, http.MethodPatch, notePath(id), in)
}

func (c *Client) DeleteNote(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, notePath(id), nil, nil)
}

func notePath(id string) string {
	return "/api/notes/" + url.PathEscape(id)
}

// Summarize returns a summary. The note is not modified.
func (c *Client) Summarize(ctx context.Context, in AIInput) (string, error) {
	return c.aiRequest(ctx, "summarize", in)
}

// Rewrite restyles text; mode is one of shorter, clearer, formal, casual.
func (c *Client) Rewrite(ctx context.Context, in AIInput, mode string) (string, error) {
	return c.aiRequest(ctx, "rewrite", struct {
		AIInput
		Mode string `json:"mode"`
	}{in, mode})
}

// Translate swaps text between English and Arabic. target is en, ar, or
// empty to let the server detect the direction.
func (c *Client) Translate(ctx context.Context, in AIInput, target string) (string, error) {
	return c.aiRequest(ctx, "translate", struct {
		AIInput
		Target string `json:"target,omitempty"`
	}{in, target})
}

func (c *Client) Me(ctx context.Context) (*Identity, error) {
	var out Identity
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) noteRequest(ctx context.Context, method, path string, body any) (*Note, error) {
	var out struct {
		Note *Note `json:"note"`
	}
	if err := c.do(ctx, method, path, body, &out); err != nil {
		return nil, err
	}
	if out.Note == nil {
		return nil, ErrMissingNote
	}
	return out.Note, nil
}

func (c *Client) aiRequest(ctx context.Context, op string, body any) (string, error) {
	var out struct {
		Result string `json:"result"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/ai/"+op, body, &out); err != nil {
		return "", err
	}
	return out.Result, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		token, err := c.tokens(ctx)
		if err != nil {
			return fmt.Errorf("get token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if resp.StatusCode == http.StatusNoContent || out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	var body struct {
		Error   string       `json:"error"`
		Message string       `json:"message"`
		Details []FieldError `json:"details"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
		apiErr.Message = body.Error
		apiErr.Details = body.Details
	} else {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

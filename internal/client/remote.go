// Package client implements the persistence façade consumed by
// presentation-layer code: a typed HTTP client for the remote API, a
// localStorage-compatible fallback store, and the façade that routes each
// call between them.
//
// This file is the remote half: a thin, typed wrapper over the REST API.
// Every method decodes the uniform `{success, data, error}` envelope and
// converts non-2xx statuses and transport failures into ordinary errors for
// the façade to intercept.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jmartel/go-convo-backend/internal/domain"
	"github.com/jmartel/go-convo-backend/internal/repo"
	"github.com/jmartel/go-convo-backend/internal/services"
)

// Remote is a typed client for the conversation API. The zero value is not
// usable; construct with NewRemote.
type Remote struct {
	base string
	hc   *http.Client
}

// NewRemote constructs a Remote rooted at base (e.g.
// "http://localhost:8080/api"). timeout bounds each request; zero means no
// client-side timeout beyond the transport's.
func NewRemote(base string, timeout time.Duration) *Remote {
	return &Remote{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: timeout},
	}
}

// envelope mirrors the server's uniform response shape.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
}

// APIError is a decoded non-success envelope from the server. It means the
// server is up and answered: a 404 for an unknown id or a 400 for invalid
// input is a definitive result, not an outage, and the façade must not fall
// back to the local store for it.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return http.StatusText(e.Status)
}

// ClientError reports whether the server rejected the request (4xx) as
// opposed to failing to serve it.
func (e *APIError) ClientError() bool {
	return e.Status >= 400 && e.Status < 500
}

// do issues a request and decodes the envelope into out (when non-nil).
// A decoded non-success response yields an *APIError; transport failures
// and undecodable responses yield ordinary errors.
func (r *Remote) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.base+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("%s %s: status %d: %w", method, path, resp.StatusCode, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !env.Success {
		return &APIError{Status: resp.StatusCode, Code: env.Code, Message: env.Error}
	}
	if out != nil && len(env.Data) > 0 {
		return json.Unmarshal(env.Data, out)
	}
	return nil
}

// Health probes the liveness endpoint. A healthy server (including its
// database) returns nil.
func (r *Remote) Health(ctx context.Context) error {
	return r.do(ctx, http.MethodGet, "/health", nil, nil)
}

// CreateConversation creates a conversation with an optional title.
func (r *Remote) CreateConversation(ctx context.Context, title string) (*domain.Conversation, error) {
	var out domain.Conversation
	body := map[string]string{"title": title}
	if err := r.do(ctx, http.MethodPost, "/conversations", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetConversation fetches one conversation with derived counts.
func (r *Remote) GetConversation(ctx context.Context, id int64) (*domain.Conversation, error) {
	var out domain.Conversation
	if err := r.do(ctx, http.MethodGet, fmt.Sprintf("/conversations/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListConversations returns a page ordered by last activity.
func (r *Remote) ListConversations(ctx context.Context, limit, offset int) ([]domain.Conversation, error) {
	var out []domain.Conversation
	path := fmt.Sprintf("/conversations?limit=%d&offset=%d", limit, offset)
	if err := r.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateTitle renames a conversation.
func (r *Remote) UpdateTitle(ctx context.Context, id int64, title string) error {
	body := map[string]string{"title": title}
	return r.do(ctx, http.MethodPut, fmt.Sprintf("/conversations/%d", id), body, nil)
}

// DeleteConversation deletes a conversation and its messages.
func (r *Remote) DeleteConversation(ctx context.Context, id int64) error {
	return r.do(ctx, http.MethodDelete, fmt.Sprintf("/conversations/%d", id), nil, nil)
}

// SearchConversations substring-searches titles and message content.
func (r *Remote) SearchConversations(ctx context.Context, query string, limit int) ([]domain.Conversation, error) {
	var out []domain.Conversation
	path := fmt.Sprintf("/conversations/search/%s?limit=%d", url.PathEscape(query), limit)
	if err := r.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AppendMessage appends a message to an existing conversation.
func (r *Remote) AppendMessage(ctx context.Context, conversationID int64, content, msgType string) (*domain.Message, error) {
	var out domain.Message
	body := map[string]string{"content": content, "type": msgType}
	path := fmt.Sprintf("/conversations/%d/messages", conversationID)
	if err := r.do(ctx, http.MethodPost, path, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListMessages returns a conversation's messages ascending by timestamp.
func (r *Remote) ListMessages(ctx context.Context, conversationID int64, limit, offset int) ([]domain.Message, error) {
	var out []domain.Message
	path := fmt.Sprintf("/conversations/%d/messages?limit=%d&offset=%d", conversationID, limit, offset)
	if err := r.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RecentMessages returns the last n messages, ascending.
func (r *Remote) RecentMessages(ctx context.Context, conversationID int64, n int) ([]domain.Message, error) {
	var out []domain.Message
	path := fmt.Sprintf("/conversations/%d/messages/recent?count=%d", conversationID, n)
	if err := r.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GlobalStats fetches the system-wide aggregate.
func (r *Remote) GlobalStats(ctx context.Context) (*services.GlobalStats, error) {
	var out services.GlobalStats
	if err := r.do(ctx, http.MethodGet, "/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ConversationStats fetches the aggregate for one conversation.
func (r *Remote) ConversationStats(ctx context.Context, conversationID int64) (*repo.MessageStats, error) {
	var out repo.MessageStats
	path := fmt.Sprintf("/conversations/%d/stats", conversationID)
	if err := r.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

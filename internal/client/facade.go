// Persistence façade.
//
// Facade is the single entry point presentation code talks to. It probes the
// server's health endpoint once at construction; if the probe succeeds,
// calls go to the remote API, and any later transport failure or 5xx demotes
// the façade to the local store for the rest of the session. A 4xx answer
// from a healthy server is a definitive result: it resolves to ok=false
// without touching the local store and without demoting. Reconnect re-probes
// on demand. Every method resolves to a value plus an ok flag and never
// returns an error: outages fall back, local failures are logged and
// reported as ok=false.
package client

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jmartel/go-convo-backend/internal/config"
	"github.com/jmartel/go-convo-backend/internal/domain"
	"github.com/jmartel/go-convo-backend/internal/repo"
	"github.com/jmartel/go-convo-backend/internal/services"
)

// Facade routes persistence calls between the remote API and the local
// fallback store. Safe for concurrent use.
type Facade struct {
	remote *Remote
	local  *LocalStore
	log    zerolog.Logger

	mu        sync.Mutex
	connected bool
	currentID int64
}

// NewFacade builds a façade from client configuration. The only hard failure
// is an unusable data directory; an unreachable server just starts the
// session in local mode.
func NewFacade(ctx context.Context, cfg config.ClientConfig, log zerolog.Logger) (*Facade, error) {
	local, err := NewLocalStore(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	f := &Facade{
		remote: NewRemote(cfg.ServerURL, cfg.ProbeTimeout),
		local:  local,
		log:    log,
	}

	probeCtx, cancel := context.WithTimeout(ctx, cfg.ProbeTimeout)
	defer cancel()
	if err := f.remote.Health(probeCtx); err != nil {
		log.Warn().Err(err).Str("server", cfg.ServerURL).
			Msg("server unreachable, starting in local mode")
	} else {
		f.connected = true
	}
	return f, nil
}

// Connected reports whether calls currently target the remote API.
func (f *Facade) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

// Reconnect re-probes the server and, on success, promotes the façade back
// to remote mode. Returns the resulting connected state.
func (f *Facade) Reconnect(ctx context.Context) bool {
	err := f.remote.Health(ctx)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = err == nil
	if err != nil {
		f.log.Warn().Err(err).Msg("reconnect probe failed")
	}
	return f.connected
}

// SetCurrent records the conversation the caller is working in. Purely
// advisory; no persistence call depends on it.
func (f *Facade) SetCurrent(id int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.currentID = id
}

// Current returns the advisory current conversation id, zero when unset.
func (f *Facade) Current() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.currentID
}

// shouldDemote reports whether a remote error indicates the server cannot
// serve requests (transport failure, garbled response, 5xx) rather than a
// definitive application answer (4xx). Only the former justifies switching
// the session to the local store.
func shouldDemote(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return !apiErr.ClientError()
	}
	return true
}

// demote switches the session to local mode after a remote failure.
func (f *Facade) demote(op string, err error) {
	f.mu.Lock()
	was := f.connected
	f.connected = false
	f.mu.Unlock()
	if was {
		f.log.Warn().Err(err).Str("op", op).
			Msg("remote call failed, falling back to local store")
	}
}

// CreateConversation creates a conversation in whichever store is active.
func (f *Facade) CreateConversation(ctx context.Context, title string) (*domain.Conversation, bool) {
	if f.Connected() {
		c, err := f.remote.CreateConversation(ctx, title)
		if err == nil {
			return c, true
		}
		if !shouldDemote(err) {
			return nil, false
		}
		f.demote("create conversation", err)
	}
	c, err := f.local.CreateConversation(title)
	if err != nil {
		f.log.Error().Err(err).Msg("local create conversation failed")
		return nil, false
	}
	return c, true
}

// GetConversation fetches one conversation with derived fields.
func (f *Facade) GetConversation(ctx context.Context, id int64) (*domain.Conversation, bool) {
	if f.Connected() {
		c, err := f.remote.GetConversation(ctx, id)
		if err == nil {
			return c, true
		}
		if !shouldDemote(err) {
			return nil, false
		}
		f.demote("get conversation", err)
	}
	c, err := f.local.GetConversation(id)
	if err != nil {
		return nil, false
	}
	return c, true
}

// ListConversations returns a page ordered by last activity.
func (f *Facade) ListConversations(ctx context.Context, limit, offset int) ([]domain.Conversation, bool) {
	if f.Connected() {
		items, err := f.remote.ListConversations(ctx, limit, offset)
		if err == nil {
			return items, true
		}
		if !shouldDemote(err) {
			return nil, false
		}
		f.demote("list conversations", err)
	}
	items, err := f.local.ListConversations(limit, offset)
	if err != nil {
		f.log.Error().Err(err).Msg("local list conversations failed")
		return nil, false
	}
	return items, true
}

// UpdateTitle renames a conversation.
func (f *Facade) UpdateTitle(ctx context.Context, id int64, title string) bool {
	if f.Connected() {
		err := f.remote.UpdateTitle(ctx, id, title)
		if err == nil {
			return true
		}
		if !shouldDemote(err) {
			return false
		}
		f.demote("update title", err)
	}
	if err := f.local.UpdateTitle(id, title); err != nil {
		return false
	}
	return true
}

// DeleteConversation deletes a conversation and its messages.
func (f *Facade) DeleteConversation(ctx context.Context, id int64) bool {
	if f.Connected() {
		err := f.remote.DeleteConversation(ctx, id)
		if err == nil {
			f.clearCurrentIf(id)
			return true
		}
		if !shouldDemote(err) {
			return false
		}
		f.demote("delete conversation", err)
	}
	if err := f.local.DeleteConversation(id); err != nil {
		return false
	}
	f.clearCurrentIf(id)
	return true
}

func (f *Facade) clearCurrentIf(id int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.currentID == id {
		f.currentID = 0
	}
}

// SearchConversations substring-searches titles and message content.
func (f *Facade) SearchConversations(ctx context.Context, query string, limit int) ([]domain.Conversation, bool) {
	if f.Connected() {
		items, err := f.remote.SearchConversations(ctx, query, limit)
		if err == nil {
			return items, true
		}
		if !shouldDemote(err) {
			return nil, false
		}
		f.demote("search conversations", err)
	}
	items, err := f.local.SearchConversations(query, limit)
	if err != nil {
		return nil, false
	}
	return items, true
}

// AppendMessage appends a message to a conversation. Validation failures
// resolve to ok=false in either mode.
func (f *Facade) AppendMessage(ctx context.Context, conversationID int64, content, msgType string) (*domain.Message, bool) {
	// Reject invalid input before touching either store so remote rejections
	// never demote the session.
	if err := services.ValidateMessage(content, msgType); err != nil {
		return nil, false
	}
	if f.Connected() {
		m, err := f.remote.AppendMessage(ctx, conversationID, content, msgType)
		if err == nil {
			return m, true
		}
		if !shouldDemote(err) {
			return nil, false
		}
		f.demote("append message", err)
	}
	m, err := f.local.AppendMessage(conversationID, content, msgType)
	if err != nil {
		return nil, false
	}
	return m, true
}

// ListMessages returns a page of a conversation's messages ascending.
func (f *Facade) ListMessages(ctx context.Context, conversationID int64, limit, offset int) ([]domain.Message, bool) {
	if f.Connected() {
		items, err := f.remote.ListMessages(ctx, conversationID, limit, offset)
		if err == nil {
			return items, true
		}
		if !shouldDemote(err) {
			return nil, false
		}
		f.demote("list messages", err)
	}
	items, err := f.local.ListMessages(conversationID, limit, offset)
	if err != nil {
		return nil, false
	}
	return items, true
}

// RecentMessages returns the last n messages, ascending.
func (f *Facade) RecentMessages(ctx context.Context, conversationID int64, n int) ([]domain.Message, bool) {
	if f.Connected() {
		items, err := f.remote.RecentMessages(ctx, conversationID, n)
		if err == nil {
			return items, true
		}
		if !shouldDemote(err) {
			return nil, false
		}
		f.demote("recent messages", err)
	}
	items, err := f.local.RecentMessages(conversationID, n)
	if err != nil {
		return nil, false
	}
	return items, true
}

// GlobalStats returns the system-wide aggregate for the active store.
func (f *Facade) GlobalStats(ctx context.Context) (*services.GlobalStats, bool) {
	if f.Connected() {
		st, err := f.remote.GlobalStats(ctx)
		if err == nil {
			return st, true
		}
		if !shouldDemote(err) {
			return nil, false
		}
		f.demote("global stats", err)
	}
	msgStats, err := f.local.Stats(nil)
	if err != nil {
		f.log.Error().Err(err).Msg("local stats failed")
		return nil, false
	}
	total, err := f.local.CountConversations()
	if err != nil {
		return nil, false
	}
	return &services.GlobalStats{
		TotalConversations: total,
		MessageStats:       *msgStats,
	}, true
}

// ConversationStats returns the aggregate for one conversation.
func (f *Facade) ConversationStats(ctx context.Context, conversationID int64) (*repo.MessageStats, bool) {
	if f.Connected() {
		st, err := f.remote.ConversationStats(ctx, conversationID)
		if err == nil {
			return st, true
		}
		if !shouldDemote(err) {
			return nil, false
		}
		f.demote("conversation stats", err)
	}
	st, err := f.local.Stats(&conversationID)
	if err != nil {
		return nil, false
	}
	return st, true
}

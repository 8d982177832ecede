package agent

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Session is the conversational continuity state for one identity on the
// agent channel. It is owned and mutated exclusively by the Orchestrator;
// other components look sessions up by identity and never hold references.
type Session struct {
	Identity   string
	Token      string // opaque resume token, empty until first extraction
	Persona    string
	LastActive time.Time

	mu sync.Mutex
}

// SessionRecord is the persisted shape of a Session.
type SessionRecord struct {
	Identity   string
	Token      string
	Persona    string
	LastActive time.Time
}

// TokenStore persists session resume tokens across restarts. Implementations
// must tolerate concurrent calls.
type TokenStore interface {
	LoadAll(ctx context.Context) ([]SessionRecord, error)
	Save(ctx context.Context, rec SessionRecord) error
}

// Table holds one Session per identity for the process lifetime. Sessions are
// created lazily and never evicted. Per-identity mutual exclusion lives on
// the Session itself: two concurrent requests from the same identity
// serialize, while distinct identities proceed fully in parallel.
type Table struct {
	mu       sync.Mutex
	sessions map[string]*Session
	store    TokenStore // nil = in-memory only
}

// NewTable creates a session table. When store is non-nil, previously
// persisted sessions are loaded so resume tokens survive a restart.
func NewTable(store TokenStore) *Table {
	t := &Table{
		sessions: make(map[string]*Session),
		store:    store,
	}
	if store != nil {
		loaded, err := store.LoadAll(context.Background())
		if err != nil {
			slog.Warn("session store load failed, starting empty", "error", err)
			return t
		}
		for _, rec := range loaded {
			t.sessions[rec.Identity] = &Session{
				Identity:   rec.Identity,
				Token:      rec.Token,
				Persona:    rec.Persona,
				LastActive: rec.LastActive,
			}
		}
		if len(loaded) > 0 {
			slog.Info("sessions restored", "count", len(loaded))
		}
	}
	return t
}

// Acquire returns the identity's session with its per-identity lock held.
// The caller must call release when the conversation turn is complete.
func (t *Table) Acquire(identity string) (s *Session, release func()) {
	t.mu.Lock()
	s, ok := t.sessions[identity]
	if !ok {
		s = &Session{Identity: identity}
		t.sessions[identity] = s
	}
	t.mu.Unlock()

	s.mu.Lock()
	return s, s.mu.Unlock
}

// Commit records session mutations after a conversation turn and persists
// them best-effort. Persistence failures are logged, never propagated: the
// in-memory session is authoritative for the process lifetime.
func (t *Table) Commit(ctx context.Context, s *Session) {
	s.LastActive = time.Now()
	if t.store == nil {
		return
	}
	rec := SessionRecord{
		Identity:   s.Identity,
		Token:      s.Token,
		Persona:    s.Persona,
		LastActive: s.LastActive,
	}
	if err := t.store.Save(ctx, rec); err != nil {
		slog.Warn("session persist failed", "identity", s.Identity, "error", err)
	}
}

// Len returns the number of tracked identities.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}

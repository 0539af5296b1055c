package app

import (
	"sync"

	"github.com/draftroom/pulse/internal/core"
	"github.com/rs/zerolog/log"
)

// Registry tracks every live connection and the identities behind them.
// One identity may hold several connections at once (one per tab); the
// identity is considered online while its connection set is non-empty.
type Registry struct {
	mu         sync.RWMutex
	sessions   map[core.ConnID]*core.Session
	byIdentity map[string]map[core.ConnID]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		sessions:   make(map[core.ConnID]*core.Session),
		byIdentity: make(map[string]map[core.ConnID]struct{}),
	}
}

func (r *Registry) Add(sess *core.Session) {
	cid := sess.ID()
	uid := sess.Identity().ID
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[cid] = sess
	set, ok := r.byIdentity[uid]
	if !ok {
		set = make(map[core.ConnID]struct{})
		r.byIdentity[uid] = set
	}
	set[cid] = struct{}{}
	log.Info().Str("module", "app.registry").Str("cid", string(cid)).Str("user", uid).Int("tabs", len(set)).Msg("connection added")
}

// Remove drops the connection and, when it was the identity's last one,
// the identity entry itself. Removing an unknown id is a no-op.
func (r *Registry) Remove(cid core.ConnID) (*core.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[cid]
	if !ok {
		return nil, false
	}
	delete(r.sessions, cid)
	uid := sess.Identity().ID
	if set, ok := r.byIdentity[uid]; ok {
		delete(set, cid)
		if len(set) == 0 {
			delete(r.byIdentity, uid)
		}
	}
	log.Info().Str("module", "app.registry").Str("cid", string(cid)).Str("user", uid).Msg("connection removed")
	return sess, true
}

func (r *Registry) Session(cid core.ConnID) (*core.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.sessions[cid]
	return sess, ok
}

// ConnectionsFor returns a snapshot of the identity's live sessions.
func (r *Registry) ConnectionsFor(identityID string) []*core.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := r.byIdentity[identityID]
	out := make([]*core.Session, 0, len(set))
	for cid := range set {
		if sess, ok := r.sessions[cid]; ok {
			out = append(out, sess)
		}
	}
	return out
}

func (r *Registry) IsOnline(identityID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byIdentity[identityID]) > 0
}

// ConnectionCount reports how many connections the identity holds.
func (r *Registry) ConnectionCount(identityID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byIdentity[identityID])
}

// Connections reports the total number of live connections.
func (r *Registry) Connections() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// OnlineCount reports the number of distinct online identities.
func (r *Registry) OnlineCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byIdentity)
}

func (r *Registry) OnlineIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.byIdentity))
	for uid := range r.byIdentity {
		out = append(out, uid)
	}
	return out
}

// Sessions returns a snapshot of every live session.
func (r *Registry) Sessions() []*core.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*core.Session, 0, len(r.sessions))
	for _, sess := range r.sessions {
		out = append(out, sess)
	}
	return out
}

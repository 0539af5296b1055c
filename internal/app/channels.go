package app

import (
	"errors"
	"sync"

	"github.com/draftroom/pulse/internal/core"
	"github.com/draftroom/pulse/internal/domain"
	"github.com/rs/zerolog/log"
)

// ErrNotAuthorized is returned when an identity's roles do not allow the
// requested action. The caller reports it to the client; no state changes.
var ErrNotAuthorized = errors.New("not authorized")

// ChannelManager owns every broadcast group and the per-connection
// membership index. Groups are created on first join and dropped when the
// last member leaves, so an existing group always has members.
type ChannelManager struct {
	mu     sync.RWMutex
	groups map[domain.Channel]*core.Group
	byConn map[core.ConnID]map[domain.Channel]struct{}
}

func NewChannelManager() *ChannelManager {
	return &ChannelManager{
		groups: make(map[domain.Channel]*core.Group),
		byConn: make(map[core.ConnID]map[domain.Channel]struct{}),
	}
}

// Join subscribes the session to the channel, enforcing role restrictions.
// Joining a channel twice is a no-op.
func (m *ChannelManager) Join(sess *core.Session, ch domain.Channel) error {
	if !ch.Joinable(sess.Identity().Roles) {
		log.Warn().Str("module", "app.channels").Str("cid", string(sess.ID())).Str("channel", ch.String()).Msg("join denied")
		return ErrNotAuthorized
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.groups[ch]
	if !ok {
		g = core.NewGroup(ch)
		m.groups[ch] = g
	}
	g.Add(sess)
	set, ok := m.byConn[sess.ID()]
	if !ok {
		set = make(map[domain.Channel]struct{})
		m.byConn[sess.ID()] = set
	}
	set[ch] = struct{}{}
	return nil
}

// Leave unsubscribes the connection. Leaving a channel it never joined is
// a no-op.
func (m *ChannelManager) Leave(cid core.ConnID, ch domain.Channel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leaveLocked(cid, ch)
}

func (m *ChannelManager) leaveLocked(cid core.ConnID, ch domain.Channel) {
	if g, ok := m.groups[ch]; ok {
		g.Remove(cid)
		if g.Count() == 0 {
			delete(m.groups, ch)
		}
	}
	if set, ok := m.byConn[cid]; ok {
		delete(set, ch)
		if len(set) == 0 {
			delete(m.byConn, cid)
		}
	}
}

// RemoveConn drops every membership the connection holds and returns the
// channels it was subscribed to, for the disconnect cascade.
func (m *ChannelManager) RemoveConn(cid core.ConnID) []domain.Channel {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.byConn[cid]
	if !ok {
		return nil
	}
	out := make([]domain.Channel, 0, len(set))
	for ch := range set {
		out = append(out, ch)
	}
	for _, ch := range out {
		m.leaveLocked(cid, ch)
	}
	return out
}

// Group returns the live group for the channel, if any member remains.
func (m *ChannelManager) Group(ch domain.Channel) (*core.Group, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.groups[ch]
	return g, ok
}

func (m *ChannelManager) IsMember(cid core.ConnID, ch domain.Channel) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	set, ok := m.byConn[cid]
	if !ok {
		return false
	}
	_, ok = set[ch]
	return ok
}

// MembershipsOf returns a snapshot of the connection's channel set.
func (m *ChannelManager) MembershipsOf(cid core.ConnID) []domain.Channel {
	m.mu.RLock()
	defer m.mu.RUnlock()
	set := m.byConn[cid]
	out := make([]domain.Channel, 0, len(set))
	for ch := range set {
		out = append(out, ch)
	}
	return out
}

// Count reports the number of live groups.
func (m *ChannelManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.groups)
}

func (m *ChannelManager) List() []core.GroupInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]core.GroupInfo, 0, len(m.groups))
	for ch, g := range m.groups {
		out = append(out, core.GroupInfo{Channel: ch.String(), Members: g.Count()})
	}
	return out
}

package core

import (
	"sync"

	"github.com/draftroom/pulse/internal/domain"
	"github.com/rs/zerolog/log"
)

// PublishResult reports delivery stats/backpressure to the hub.
type PublishResult struct {
	SentTo  int
	Dropped []*Session
}

// GroupInfo is a read-only view for APIs (no transport fields).
type GroupInfo struct {
	Channel string `json:"channel"`
	Members int    `json:"members"`
}

// Group is a threadsafe in-memory broadcast group.
// It owns the membership set but never closes adapter-owned resources.
type Group struct {
	channel domain.Channel
	mu      sync.RWMutex
	members map[ConnID]*Session
}

func NewGroup(channel domain.Channel) *Group {
	return &Group{
		channel: channel,
		members: make(map[ConnID]*Session),
	}
}

func (g *Group) Channel() domain.Channel { return g.channel }

func (g *Group) Count() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.members)
}

func (g *Group) Has(id ConnID) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.members[id]
	return ok
}

func (g *Group) Add(s *Session) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.members[s.ID()] = s
	log.Debug().Str("module", "core.group").Str("channel", g.channel.String()).Str("cid", string(s.ID())).Msg("member added")
}

func (g *Group) Remove(id ConnID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.members, id)
	log.Debug().Str("module", "core.group").Str("channel", g.channel.String()).Str("cid", string(id)).Msg("member removed")
}

// Broadcast fans data out to every member except from. Pass an empty
// ConnID to reach all members. Slow consumers are reported, not retried.
func (g *Group) Broadcast(from ConnID, data Frame) PublishResult {
	g.mu.RLock()
	defer g.mu.RUnlock()
	res := PublishResult{}
	for id, m := range g.members {
		if id == from {
			continue
		}
		if err := m.Conn().TrySend(data); err != nil {
			res.Dropped = append(res.Dropped, m)
			continue
		}
		res.SentTo++
	}
	log.Debug().Str("module", "core.group").Str("channel", g.channel.String()).Str("from", string(from)).Int("sent_to", res.SentTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}

func (g *Group) Snapshot() []*Session {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*Session, 0, len(g.members))
	for _, m := range g.members {
		out = append(out, m)
	}
	return out
}

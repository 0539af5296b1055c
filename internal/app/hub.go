package app

import (
	"time"

	"github.com/draftroom/pulse/internal/core"
	"github.com/draftroom/pulse/internal/domain"
	"github.com/draftroom/pulse/internal/protocol"
	"github.com/rs/zerolog/log"
)

// Hub coordinates the registry, the channel groups and the edit-session
// rosters. Adapters decode wire events and call into it; collaborating
// services inside the process publish through it.
type Hub struct {
	Registry *Registry
	Channels *ChannelManager
	Editors  *EditSessions
	Policy   Policy

	// Now is overridable for tests; nil means time.Now.
	Now func() time.Time
}

func (h *Hub) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// Connect admits an authenticated session: it enters the registry and is
// auto-subscribed to its identity's direct channel.
func (h *Hub) Connect(sess *core.Session) {
	h.Registry.Add(sess)
	_ = h.Channels.Join(sess, domain.UserChannel(sess.Identity().ID))
	log.Info().Str("module", "app.hub").Str("cid", string(sess.ID())).Str("user", sess.Identity().ID).Msg("session connected")
}

// Disconnect runs the teardown cascade for a connection: every channel
// membership is dropped, each edit session it sat in is left (with the
// usual departure broadcast), and the registry entry goes last. Safe to
// call for ids that were already cleaned up.
func (h *Hub) Disconnect(cid core.ConnID) {
	memberships := h.Channels.RemoveConn(cid)
	for _, ch := range memberships {
		if ch.Kind != domain.KindEdit {
			continue
		}
		h.dropEditor(ch.Target, cid)
	}
	if _, ok := h.Registry.Remove(cid); ok {
		log.Info().Str("module", "app.hub").Str("cid", string(cid)).Int("channels", len(memberships)).Msg("session disconnected")
	}
}

// publish marshals the event and fans it out to the channel's group,
// excluding from. An absent group means nobody is listening.
func (h *Hub) publish(ch domain.Channel, from core.ConnID, v any) {
	g, ok := h.Channels.Group(ch)
	if !ok {
		return
	}
	frame, err := protocol.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.hub").Str("channel", ch.String()).Msg("marshal event")
		return
	}
	res := g.Broadcast(from, frame)
	h.handleDropped(ch, res.Dropped)
}

func (h *Hub) handleDropped(ch domain.Channel, dropped []*core.Session) {
	if h.Policy == nil {
		return
	}
	for _, slow := range dropped {
		switch h.Policy.OnBackpressure(ch, slow) {
		case KickMember:
			log.Warn().Str("module", "app.hub").Str("cid", string(slow.ID())).Str("channel", ch.String()).Msg("kicking slow consumer")
			// Closing the transport makes its read pump exit, which
			// runs the full Disconnect cascade.
			slow.Conn().Close()
		case DropFrame, NoAction:
		}
	}
}

type Stats struct {
	Connections      int              `json:"connections"`
	OnlineIdentities int              `json:"online_identities"`
	EditSessions     int              `json:"edit_sessions"`
	Channels         []core.GroupInfo `json:"channels"`
}

func (h *Hub) Stats() Stats {
	return Stats{
		Connections:      h.Registry.Connections(),
		OnlineIdentities: h.Registry.OnlineCount(),
		EditSessions:     h.Editors.Active(),
		Channels:         h.Channels.List(),
	}
}

// Shutdown closes every live connection; the pumps then drain the usual
// disconnect path.
func (h *Hub) Shutdown() {
	sessions := h.Registry.Sessions()
	for _, sess := range sessions {
		sess.Conn().Close()
	}
	log.Info().Str("module", "app.hub").Int("connections", len(sessions)).Msg("hub shut down")
}

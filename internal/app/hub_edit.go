package app

import (
	"encoding/json"

	"github.com/draftroom/pulse/internal/core"
	"github.com/draftroom/pulse/internal/domain"
	"github.com/draftroom/pulse/internal/protocol"
	"github.com/rs/zerolog/log"
)

// JoinEdit puts the session into the post's edit surface: it subscribes
// the connection to edit:<id>, adds a roster entry, and announces the
// arrival to everyone already editing. The returned roster excludes the
// joiner. Re-joining is idempotent and announces nothing.
func (h *Hub) JoinEdit(sess *core.Session, postID string) []domain.Presence {
	ch := domain.EditChannel(postID)
	_ = h.Channels.Join(sess, ch)
	fresh, roster := h.Editors.Join(postID, sess.ID(), sess.Presence())
	if fresh {
		h.publish(ch, sess.ID(), protocol.PresenceJoin{
			Type:   protocol.EventPresenceJoin,
			PostID: postID,
			User:   sess.Presence(),
		})
		log.Info().Str("module", "app.hub").Str("cid", string(sess.ID())).Str("post", postID).Int("editors", len(roster)+1).Msg("joined edit session")
	}
	return roster
}

// LeaveEdit removes the connection from the post's edit surface and tells
// the remaining editors. Leaving a session it never joined is a no-op.
func (h *Hub) LeaveEdit(cid core.ConnID, postID string) {
	h.Channels.Leave(cid, domain.EditChannel(postID))
	h.dropEditor(postID, cid)
}

// dropEditor clears the roster entry and broadcasts the departure. The
// channel membership must already be gone so the leaver cannot hear its
// own departure.
func (h *Hub) dropEditor(postID string, cid core.ConnID) {
	p, ok := h.Editors.Leave(postID, cid)
	if !ok {
		return
	}
	h.publish(domain.EditChannel(postID), cid, protocol.PresenceLeave{
		Type:   protocol.EventPresenceLeave,
		PostID: postID,
		UserID: p.UserID,
	})
	log.Info().Str("module", "app.hub").Str("cid", string(cid)).Str("post", postID).Msg("left edit session")
}

// Typing relays a typing indicator to the other editors of the post.
// Nothing is stored; a vanished client simply stops relaying.
func (h *Hub) Typing(sess *core.Session, postID string, isTyping bool) {
	h.publish(domain.EditChannel(postID), sess.ID(), protocol.TypingUser{
		Type:     protocol.EventTypingUser,
		PostID:   postID,
		User:     sess.Presence(),
		IsTyping: isTyping,
	})
}

// UpdateContent relays a live draft snapshot to the other editors of the
// post. The layer does not persist drafts; saving stays with the REST API.
func (h *Hub) UpdateContent(sess *core.Session, postID, content string, selection json.RawMessage) {
	h.publish(domain.EditChannel(postID), sess.ID(), protocol.ContentChanged{
		Type:      protocol.EventContentChanged,
		PostID:    postID,
		UserID:    sess.Identity().ID,
		Content:   content,
		Selection: selection,
		Timestamp: h.now().UnixMilli(),
	})
}

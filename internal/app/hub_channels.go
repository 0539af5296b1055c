package app

import (
	"github.com/draftroom/pulse/internal/core"
	"github.com/draftroom/pulse/internal/domain"
	"github.com/draftroom/pulse/internal/protocol"
	"github.com/rs/zerolog/log"
)

// JoinChannel subscribes the session to a broadcast channel. Restricted
// channels return ErrNotAuthorized and leave no trace.
func (h *Hub) JoinChannel(sess *core.Session, ch domain.Channel) error {
	if err := h.Channels.Join(sess, ch); err != nil {
		return err
	}
	log.Info().Str("module", "app.hub").Str("cid", string(sess.ID())).Str("channel", ch.String()).Msg("joined channel")
	return nil
}

func (h *Hub) LeaveChannel(cid core.ConnID, ch domain.Channel) {
	h.Channels.Leave(cid, ch)
	log.Info().Str("module", "app.hub").Str("cid", string(cid)).Str("channel", ch.String()).Msg("left channel")
}

// ClaimPost announces that the session's identity took a post for review.
// Only the role gates the claim; the race between two claimants is settled
// by the review workflow, not here.
func (h *Hub) ClaimPost(sess *core.Session, postID string) error {
	if !sess.Identity().Roles.CanModerate() {
		log.Warn().Str("module", "app.hub").Str("cid", string(sess.ID())).Str("post", postID).Msg("claim denied")
		return ErrNotAuthorized
	}
	h.publish(domain.ModeratorsChannel(), sess.ID(), protocol.ModerationClaimed{
		Type:      protocol.EventModerationClaimed,
		PostID:    postID,
		ClaimedBy: sess.Presence(),
		ClaimedAt: h.now().UnixMilli(),
	})
	log.Info().Str("module", "app.hub").Str("user", sess.Identity().ID).Str("post", postID).Msg("post claimed")
	return nil
}

// Publish fans an already-typed event out to every member of the channel.
// This is the entry point for collaborating services in the same process,
// e.g. notifying user:<id> about a reply.
func (h *Hub) Publish(ch domain.Channel, v any) {
	h.publish(ch, "", v)
}

// PublishToIdentity delivers the event to every connection the identity
// holds, regardless of channel membership.
func (h *Hub) PublishToIdentity(identityID string, v any) {
	sessions := h.Registry.ConnectionsFor(identityID)
	if len(sessions) == 0 {
		return
	}
	frame, err := protocol.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.hub").Str("user", identityID).Msg("marshal event")
		return
	}
	var dropped []*core.Session
	for _, sess := range sessions {
		if err := sess.Conn().TrySend(frame); err != nil {
			dropped = append(dropped, sess)
		}
	}
	h.handleDropped(domain.UserChannel(identityID), dropped)
}

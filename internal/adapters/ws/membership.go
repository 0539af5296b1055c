package ws

import (
	"encoding/json"

	"github.com/draftroom/pulse/internal/core"
	"github.com/draftroom/pulse/internal/domain"
	"github.com/draftroom/pulse/internal/protocol"
	"github.com/rs/zerolog/log"
)

// postRef extracts the post id from a frame; ok is false when it is
// missing, ill-typed or oversized. Such frames are dropped silently.
func postRef(data []byte) (string, bool) {
	var p protocol.PostRef
	if err := json.Unmarshal(data, &p); err != nil {
		return "", false
	}
	if p.PostID == "" || len(p.PostID) > domain.MaxChannelTargetLen {
		return "", false
	}
	return p.PostID, true
}

func categoryRef(data []byte) (string, bool) {
	var p protocol.CategoryRef
	if err := json.Unmarshal(data, &p); err != nil {
		return "", false
	}
	if p.Category == "" || len(p.Category) > domain.MaxChannelTargetLen {
		return "", false
	}
	return p.Category, true
}

func (ctl *Controller) handleJoinPost(sess *core.Session, data []byte) {
	postID, ok := postRef(data)
	if !ok {
		log.Debug().Str("module", "ws").Str("cid", string(sess.ID())).Msg("join:post dropped")
		return
	}
	_ = ctl.hub.JoinChannel(sess, domain.PostChannel(postID))
}

func (ctl *Controller) handleLeavePost(sess *core.Session, data []byte) {
	postID, ok := postRef(data)
	if !ok {
		log.Debug().Str("module", "ws").Str("cid", string(sess.ID())).Msg("leave:post dropped")
		return
	}
	ctl.hub.LeaveChannel(sess.ID(), domain.PostChannel(postID))
}

func (ctl *Controller) handleJoinCategory(sess *core.Session, data []byte) {
	category, ok := categoryRef(data)
	if !ok {
		log.Debug().Str("module", "ws").Str("cid", string(sess.ID())).Msg("join:category dropped")
		return
	}
	_ = ctl.hub.JoinChannel(sess, domain.CategoryChannel(category))
}

func (ctl *Controller) handleLeaveCategory(sess *core.Session, data []byte) {
	category, ok := categoryRef(data)
	if !ok {
		log.Debug().Str("module", "ws").Str("cid", string(sess.ID())).Msg("leave:category dropped")
		return
	}
	ctl.hub.LeaveChannel(sess.ID(), domain.CategoryChannel(category))
}

func (ctl *Controller) handleJoinModeration(sess *core.Session) {
	if err := ctl.hub.JoinChannel(sess, domain.ModeratorsChannel()); err != nil {
		ctl.sendError(sess, "Not authorized to join moderators")
	}
}

func (ctl *Controller) handleLeaveModeration(sess *core.Session) {
	ctl.hub.LeaveChannel(sess.ID(), domain.ModeratorsChannel())
}

func (ctl *Controller) handleJoinAdmin(sess *core.Session) {
	if err := ctl.hub.JoinChannel(sess, domain.AdminsChannel()); err != nil {
		ctl.sendError(sess, "Not authorized to join admins")
	}
}

func (ctl *Controller) handleLeaveAdmin(sess *core.Session) {
	ctl.hub.LeaveChannel(sess.ID(), domain.AdminsChannel())
}

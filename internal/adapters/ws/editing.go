package ws

import (
	"encoding/json"

	"github.com/draftroom/pulse/internal/core"
	"github.com/draftroom/pulse/internal/domain"
	"github.com/draftroom/pulse/internal/protocol"
	"github.com/rs/zerolog/log"
)

// handleJoinEdit enters the edit surface and replies with the roster of
// everyone already there. The reply never includes the joiner itself.
func (ctl *Controller) handleJoinEdit(sess *core.Session, data []byte) {
	postID, ok := postRef(data)
	if !ok {
		log.Debug().Str("module", "ws").Str("cid", string(sess.ID())).Msg("join:edit dropped")
		return
	}
	roster := ctl.hub.JoinEdit(sess, postID)
	ctl.sendJSON(sess.Conn(), protocol.PresenceList{
		Type:   protocol.EventPresenceList,
		PostID: postID,
		Users:  roster,
	})
}

func (ctl *Controller) handleLeaveEdit(sess *core.Session, data []byte) {
	postID, ok := postRef(data)
	if !ok {
		log.Debug().Str("module", "ws").Str("cid", string(sess.ID())).Msg("leave:edit dropped")
		return
	}
	ctl.hub.LeaveEdit(sess.ID(), postID)
}

func (ctl *Controller) handleTyping(sess *core.Session, data []byte, isTyping bool) {
	postID, ok := postRef(data)
	if !ok {
		log.Debug().Str("module", "ws").Str("cid", string(sess.ID())).Msg("typing event dropped")
		return
	}
	ctl.hub.Typing(sess, postID, isTyping)
}

func (ctl *Controller) handleContentUpdate(sess *core.Session, data []byte) {
	var p protocol.ContentUpdate
	if err := json.Unmarshal(data, &p); err != nil {
		log.Debug().Err(err).Str("module", "ws").Str("cid", string(sess.ID())).Msg("content:update dropped")
		return
	}
	if p.PostID == "" || len(p.PostID) > domain.MaxChannelTargetLen {
		log.Debug().Str("module", "ws").Str("cid", string(sess.ID())).Msg("content:update without postId")
		return
	}
	ctl.hub.UpdateContent(sess, p.PostID, p.Content, p.Selection)
}

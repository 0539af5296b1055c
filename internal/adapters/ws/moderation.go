package ws

import (
	"github.com/draftroom/pulse/internal/core"
	"github.com/rs/zerolog/log"
)

func (ctl *Controller) handleClaimPost(sess *core.Session, data []byte) {
	postID, ok := postRef(data)
	if !ok {
		log.Debug().Str("module", "ws").Str("cid", string(sess.ID())).Msg("claim:post dropped")
		return
	}
	if err := ctl.hub.ClaimPost(sess, postID); err != nil {
		ctl.sendError(sess, "Not authorized to claim posts")
	}
}

package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/draftroom/pulse/internal/core"
	"github.com/draftroom/pulse/internal/protocol"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

func (ctl *Controller) writePump(ctx context.Context, c *wsConn) {
	ticker := time.NewTicker(ctl.pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "ws").Msg("writePump ctx done")
			return
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(ctl.writeTimeout)); err != nil {
				log.Warn().Err(err).Str("module", "ws").Msg("writePump ping error")
				return
			}
		case data, ok := <-c.send:
			if !ok {
				log.Warn().Str("module", "ws").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.writeTimeout)); err != nil {
				log.Error().Err(err).Str("module", "ws").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "ws").Msg("writePump write error")
				return
			}
		}
	}
}

// readPump owns teardown: whatever ends the loop, the hub cascade and the
// transport close run exactly once, here.
func (ctl *Controller) readPump(ctx context.Context, cancel context.CancelFunc, sess *core.Session, c *wsConn) {
	defer func() {
		log.Info().Str("module", "ws").Str("cid", string(sess.ID())).Msg("readPump closing")
		cancel()
		ctl.hub.Disconnect(sess.ID())
		ctl.limiter.Forget(sess.ID())
		c.Close()
	}()

	c.conn.SetReadLimit(ctl.readLimit)
	readWait := ctl.pingPeriod * 10 / 9
	_ = c.conn.SetReadDeadline(time.Now().Add(readWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(readWait))
	})

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "ws").Str("cid", string(sess.ID())).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Warn().Err(err).Str("module", "ws").Str("cid", string(sess.ID())).Msg("readPump read error")
				}
				return
			}
			ctl.dispatch(sess, data)
		}
	}
}

// dispatch routes one inbound frame. Malformed or incomplete frames are
// dropped without a reply, and a handler panic is contained to the frame
// that caused it.
func (ctl *Controller) dispatch(sess *core.Session, data []byte) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("module", "ws").Str("cid", string(sess.ID())).Interface("panic", r).Msg("event handler panic")
		}
	}()

	var env protocol.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Err(err).Str("module", "ws").Str("cid", string(sess.ID())).Msg("bad json")
		return
	}

	if !ctl.limiter.Allow(sess.ID()) {
		log.Warn().Str("module", "ws").Str("cid", string(sess.ID())).Str("type", env.Type).Msg("rate limited")
		return
	}

	switch env.Type {
	case protocol.EventJoinPost:
		ctl.handleJoinPost(sess, data)
	case protocol.EventLeavePost:
		ctl.handleLeavePost(sess, data)
	case protocol.EventJoinEdit:
		ctl.handleJoinEdit(sess, data)
	case protocol.EventLeaveEdit:
		ctl.handleLeaveEdit(sess, data)
	case protocol.EventJoinCategory:
		ctl.handleJoinCategory(sess, data)
	case protocol.EventLeaveCategory:
		ctl.handleLeaveCategory(sess, data)
	case protocol.EventJoinModeration:
		ctl.handleJoinModeration(sess)
	case protocol.EventLeaveModeration:
		ctl.handleLeaveModeration(sess)
	case protocol.EventJoinAdmin:
		ctl.handleJoinAdmin(sess)
	case protocol.EventLeaveAdmin:
		ctl.handleLeaveAdmin(sess)
	case protocol.EventClaimPost:
		ctl.handleClaimPost(sess, data)
	case protocol.EventTypingStart:
		ctl.handleTyping(sess, data, true)
	case protocol.EventTypingStop:
		ctl.handleTyping(sess, data, false)
	case protocol.EventContentUpdate:
		ctl.handleContentUpdate(sess, data)
	default:
		log.Warn().Str("module", "ws").Str("type", env.Type).Msg("unknown event")
	}
}

func (ctl *Controller) sendJSON(conn core.Conn, v any) {
	frame, err := protocol.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("sendJSON marshal")
		return
	}
	_ = conn.TrySend(frame)
}

func (ctl *Controller) sendError(sess *core.Session, msg string) {
	ctl.sendJSON(sess.Conn(), protocol.ErrorEvent{Type: protocol.EventError, Message: msg})
}

package ws

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/draftroom/pulse/internal/app"
	"github.com/draftroom/pulse/internal/config"
	"github.com/draftroom/pulse/internal/core"
	"github.com/draftroom/pulse/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var ErrBackpressure = errors.New("backpressure")

// wsConn is the send side of one websocket, owned by this adapter.
type wsConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *wsConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

// Controller upgrades authenticated requests and runs the event loop of
// each connection.
type Controller struct {
	hub      *app.Hub
	limiter  *EventRateLimiter
	upgrader websocket.Upgrader

	readLimit    int64
	sendBuffer   int
	pingPeriod   time.Duration
	writeTimeout time.Duration
}

func NewController(cfg *config.Config, hub *app.Hub) *Controller {
	ctl := &Controller{
		hub:          hub,
		limiter:      NewEventRateLimiter(cfg.EventRateLimit, cfg.EventRateWindow),
		readLimit:    cfg.ReadLimit,
		sendBuffer:   cfg.SendBuffer,
		pingPeriod:   cfg.PingPeriod,
		writeTimeout: cfg.WriteTimeout,
	}
	ctl.upgrader = websocket.Upgrader{CheckOrigin: originChecker(cfg.AllowedOrigins)}
	return ctl
}

// originChecker accepts non-browser clients (no Origin header) and the
// configured web origins. An empty allowlist falls back to same-host
// only; "*" opens the endpoint to any origin.
func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if len(allowed) == 0 {
			u, err := url.Parse(origin)
			if err != nil {
				return false
			}
			return strings.EqualFold(u.Host, r.Host)
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(a, origin) {
				return true
			}
		}
		return false
	}
}

// HandleWS upgrades the request and starts the connection's pumps. The
// auth middleware has already placed the resolved identity in the gin
// context; an unauthenticated request never reaches this point.
func (ctl *Controller) HandleWS(ctx context.Context, c *gin.Context) {
	val, ok := c.Get("identity")
	if !ok {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	ident, ok := val.(domain.Identity)
	if !ok {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	sock, err := ctl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("ws upgrade")
		return
	}

	cid := core.ConnID(uuid.NewString())
	conn := &wsConn{
		conn: sock,
		send: make(chan core.Frame, ctl.sendBuffer),
	}
	sess := core.NewSession(cid, ident, conn)
	log.Info().Str("module", "ws").Str("cid", string(cid)).Str("user", ident.ID).Msg("new WS connection")

	ctl.hub.Connect(sess)

	connCtx, cancel := context.WithCancel(ctx)
	go ctl.writePump(connCtx, conn)
	go ctl.readPump(connCtx, cancel, sess, conn)
}

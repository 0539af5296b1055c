package core

import "github.com/draftroom/pulse/internal/domain"

// Session binds an authenticated identity to one live connection.
// This is what groups store and fan out to. The presence snapshot is
// frozen at construction; later profile edits do not reach open rosters.
type Session struct {
	id       ConnID
	identity domain.Identity
	presence domain.Presence
	conn     Conn
}

func NewSession(id ConnID, identity domain.Identity, conn Conn) *Session {
	return &Session{
		id:       id,
		identity: identity,
		presence: identity.Presence(),
		conn:     conn,
	}
}

func (s *Session) ID() ConnID                { return s.id }
func (s *Session) Identity() domain.Identity { return s.identity }
func (s *Session) Presence() domain.Presence { return s.presence }
func (s *Session) Conn() Conn                { return s.conn }

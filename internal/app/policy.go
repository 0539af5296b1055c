package app

import (
	"github.com/draftroom/pulse/internal/core"
	"github.com/draftroom/pulse/internal/domain"
)

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	KickMember
	DropFrame
)

// Policy decides what happens to a member whose send buffer overflowed
// during a fanout.
type Policy interface {
	OnBackpressure(ch domain.Channel, member *core.Session) BackpressureAction
}

// SimplePolicy disconnects slow consumers; the client is expected to
// reconnect and rejoin.
type SimplePolicy struct{}

func (SimplePolicy) OnBackpressure(ch domain.Channel, member *core.Session) BackpressureAction {
	return KickMember
}

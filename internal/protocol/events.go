// Package protocol defines the wire shape of realtime events. Every frame
// is a JSON object with a "type" discriminator and the payload fields
// flattened beside it.
package protocol

import (
	"encoding/json"

	"github.com/draftroom/pulse/internal/core"
	"github.com/draftroom/pulse/internal/domain"
)

// Client-to-server event types.
const (
	EventJoinPost        = "join:post"
	EventLeavePost       = "leave:post"
	EventJoinEdit        = "join:edit"
	EventLeaveEdit       = "leave:edit"
	EventJoinCategory    = "join:category"
	EventLeaveCategory   = "leave:category"
	EventJoinModeration  = "join:moderation"
	EventLeaveModeration = "leave:moderation"
	EventJoinAdmin       = "join:admin"
	EventLeaveAdmin      = "leave:admin"
	EventClaimPost       = "claim:post"
	EventTypingStart     = "typing:start"
	EventTypingStop      = "typing:stop"
	EventContentUpdate   = "content:update"
)

// Server-to-client event types.
const (
	EventPresenceJoin      = "presence:join"
	EventPresenceLeave     = "presence:leave"
	EventPresenceList      = "presence:list"
	EventTypingUser        = "typing:user"
	EventModerationClaimed = "moderation:claimed"
	EventContentChanged    = "content:changed"
	EventError             = "error"
)

// Envelope carries only the discriminator; handlers re-decode the full
// frame into their own payload type.
type Envelope struct {
	Type string `json:"type"`
}

// PostRef is the payload of every event addressing a single post.
type PostRef struct {
	PostID string `json:"postId"`
}

type CategoryRef struct {
	Category string `json:"category"`
}

// ContentUpdate is the inbound live-draft event. Selection is relayed as
// an opaque blob; the server never interprets cursor shapes.
type ContentUpdate struct {
	PostID    string          `json:"postId"`
	Content   string          `json:"content"`
	Selection json.RawMessage `json:"selection,omitempty"`
}

type PresenceJoin struct {
	Type   string          `json:"type"`
	PostID string          `json:"postId"`
	User   domain.Presence `json:"user"`
}

type PresenceLeave struct {
	Type   string `json:"type"`
	PostID string `json:"postId"`
	UserID string `json:"userId"`
}

type PresenceList struct {
	Type   string            `json:"type"`
	PostID string            `json:"postId"`
	Users  []domain.Presence `json:"users"`
}

type TypingUser struct {
	Type     string          `json:"type"`
	PostID   string          `json:"postId"`
	User     domain.Presence `json:"user"`
	IsTyping bool            `json:"isTyping"`
}

type ModerationClaimed struct {
	Type      string          `json:"type"`
	PostID    string          `json:"postId"`
	ClaimedBy domain.Presence `json:"claimedBy"`
	ClaimedAt int64           `json:"claimedAt"`
}

type ContentChanged struct {
	Type      string          `json:"type"`
	PostID    string          `json:"postId"`
	UserID    string          `json:"userId"`
	Content   string          `json:"content"`
	Selection json.RawMessage `json:"selection,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Marshal encodes an outbound event into a transport frame.
func Marshal(v any) (core.Frame, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return core.Frame(b), nil
}

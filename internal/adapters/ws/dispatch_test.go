package ws

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/draftroom/pulse/internal/app"
	"github.com/draftroom/pulse/internal/core"
	"github.com/draftroom/pulse/internal/domain"
	"github.com/draftroom/pulse/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
}

func (c *fakeConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, f)
	return nil
}

func (c *fakeConn) Close() {}

func (c *fakeConn) events(t *testing.T, eventType string) []map[string]any {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []map[string]any
	for _, f := range c.frames {
		var m map[string]any
		require.NoError(t, json.Unmarshal(f, &m))
		if m["type"] == eventType {
			out = append(out, m)
		}
	}
	return out
}

func (c *fakeConn) frameCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

func newTestController() *Controller {
	hub := &app.Hub{
		Registry: app.NewRegistry(),
		Channels: app.NewChannelManager(),
		Editors:  app.NewEditSessions(),
	}
	return &Controller{
		hub:     hub,
		limiter: NewEventRateLimiter(0, time.Second),
	}
}

func attach(ctl *Controller, cid string, id domain.Identity) (*core.Session, *fakeConn) {
	conn := &fakeConn{}
	sess := core.NewSession(core.ConnID(cid), id, conn)
	ctl.hub.Connect(sess)
	return sess, conn
}

func user(id, name string, roles ...domain.Role) domain.Identity {
	return domain.Identity{ID: id, Name: name, Roles: roles}
}

func TestDispatchJoinEditRepliesWithRoster(t *testing.T) {
	ctl := newTestController()
	first, firstConn := attach(ctl, "c3", user("u2", "Bea"))
	second, secondConn := attach(ctl, "c4", user("u3", "Cal"))

	ctl.dispatch(first, []byte(`{"type":"join:edit","postId":"post42"}`))

	lists := firstConn.events(t, protocol.EventPresenceList)
	require.Len(t, lists, 1)
	assert.Equal(t, "post42", lists[0]["postId"])
	assert.Empty(t, lists[0]["users"])

	ctl.dispatch(second, []byte(`{"type":"join:edit","postId":"post42"}`))

	// The first editor hears about the arrival; the newcomer's roster
	// carries the first editor only, never itself.
	joins := firstConn.events(t, protocol.EventPresenceJoin)
	require.Len(t, joins, 1)
	assert.Equal(t, "u3", joins[0]["user"].(map[string]any)["userId"])

	lists = secondConn.events(t, protocol.EventPresenceList)
	require.Len(t, lists, 1)
	users := lists[0]["users"].([]any)
	require.Len(t, users, 1)
	assert.Equal(t, "u2", users[0].(map[string]any)["userId"])
}

func TestDispatchLeaveEdit(t *testing.T) {
	ctl := newTestController()
	leaver, _ := attach(ctl, "c1", user("u1", "Alice"))
	stayer, stayerConn := attach(ctl, "c2", user("u2", "Bob"))
	ctl.dispatch(leaver, []byte(`{"type":"join:edit","postId":"d1"}`))
	ctl.dispatch(stayer, []byte(`{"type":"join:edit","postId":"d1"}`))

	ctl.dispatch(leaver, []byte(`{"type":"leave:edit","postId":"d1"}`))

	leaves := stayerConn.events(t, protocol.EventPresenceLeave)
	require.Len(t, leaves, 1)
	assert.Equal(t, "u1", leaves[0]["userId"])
}

func TestDispatchModerationJoinDenied(t *testing.T) {
	ctl := newTestController()
	reader, readerConn := attach(ctl, "c1", user("u4", "Rita", domain.RoleReader))

	ctl.dispatch(reader, []byte(`{"type":"join:moderation"}`))

	errs := readerConn.events(t, protocol.EventError)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0]["message"], "Not authorized")
	assert.False(t, ctl.hub.Channels.IsMember(reader.ID(), domain.ModeratorsChannel()))
}

func TestDispatchAdminJoinRequiresAdmin(t *testing.T) {
	ctl := newTestController()
	mod, modConn := attach(ctl, "c1", user("u1", "Mora", domain.RoleModerator))
	adm, admConn := attach(ctl, "c2", user("u2", "Ada", domain.RoleAdmin))

	ctl.dispatch(mod, []byte(`{"type":"join:admin"}`))
	ctl.dispatch(adm, []byte(`{"type":"join:admin"}`))

	assert.Len(t, modConn.events(t, protocol.EventError), 1)
	assert.False(t, ctl.hub.Channels.IsMember(mod.ID(), domain.AdminsChannel()))
	assert.Empty(t, admConn.events(t, protocol.EventError))
	assert.True(t, ctl.hub.Channels.IsMember(adm.ID(), domain.AdminsChannel()))
}

func TestDispatchTypingRelaysToOthersOnly(t *testing.T) {
	ctl := newTestController()
	typist, typistConn := attach(ctl, "c3", user("u2", "Bea"))
	other, otherConn := attach(ctl, "c4", user("u3", "Cal"))
	ctl.dispatch(typist, []byte(`{"type":"join:edit","postId":"post42"}`))
	ctl.dispatch(other, []byte(`{"type":"join:edit","postId":"post42"}`))

	ctl.dispatch(typist, []byte(`{"type":"typing:start","postId":"post42"}`))

	events := otherConn.events(t, protocol.EventTypingUser)
	require.Len(t, events, 1)
	assert.Equal(t, true, events[0]["isTyping"])
	assert.Equal(t, "u2", events[0]["user"].(map[string]any)["userId"])
	assert.Empty(t, typistConn.events(t, protocol.EventTypingUser))

	ctl.dispatch(typist, []byte(`{"type":"typing:stop","postId":"post42"}`))
	events = otherConn.events(t, protocol.EventTypingUser)
	require.Len(t, events, 2)
	assert.Equal(t, false, events[1]["isTyping"])
}

func TestDispatchClaimPost(t *testing.T) {
	ctl := newTestController()
	mod, _ := attach(ctl, "c1", user("u1", "Mora", domain.RoleModerator))
	peer, peerConn := attach(ctl, "c2", user("u2", "Omar", domain.RoleAdmin))
	reader, readerConn := attach(ctl, "c3", user("u3", "Rita"))
	ctl.dispatch(mod, []byte(`{"type":"join:moderation"}`))
	ctl.dispatch(peer, []byte(`{"type":"join:moderation"}`))

	ctl.dispatch(reader, []byte(`{"type":"claim:post","postId":"p1"}`))
	require.Len(t, readerConn.events(t, protocol.EventError), 1)
	assert.Empty(t, peerConn.events(t, protocol.EventModerationClaimed))

	ctl.dispatch(mod, []byte(`{"type":"claim:post","postId":"p1"}`))
	claims := peerConn.events(t, protocol.EventModerationClaimed)
	require.Len(t, claims, 1)
	assert.Equal(t, "p1", claims[0]["postId"])
}

func TestDispatchContentUpdate(t *testing.T) {
	ctl := newTestController()
	author, _ := attach(ctl, "c1", user("u1", "Alice"))
	peer, peerConn := attach(ctl, "c2", user("u2", "Bob"))
	ctl.dispatch(author, []byte(`{"type":"join:edit","postId":"d1"}`))
	ctl.dispatch(peer, []byte(`{"type":"join:edit","postId":"d1"}`))

	ctl.dispatch(author, []byte(`{"type":"content:update","postId":"d1","content":"draft","selection":{"start":0,"end":5}}`))

	events := peerConn.events(t, protocol.EventContentChanged)
	require.Len(t, events, 1)
	assert.Equal(t, "draft", events[0]["content"])
	assert.Equal(t, "u1", events[0]["userId"])
}

func TestDispatchDropsMalformedFrames(t *testing.T) {
	ctl := newTestController()
	sess, conn := attach(ctl, "c1", user("u1", "Alice"))

	// None of these produce a reply or an error event.
	ctl.dispatch(sess, []byte(`not json`))
	ctl.dispatch(sess, []byte(`{"type":"join:edit"}`))
	ctl.dispatch(sess, []byte(`{"type":"join:edit","postId":""}`))
	ctl.dispatch(sess, []byte(`{"type":"join:edit","postId":42}`))
	ctl.dispatch(sess, []byte(`{"type":"join:category"}`))
	ctl.dispatch(sess, []byte(`{"type":"content:update","content":"x"}`))
	ctl.dispatch(sess, []byte(`{"type":"no:such:event"}`))

	assert.Equal(t, 0, conn.frameCount())
	assert.Equal(t, 0, ctl.hub.Editors.Active())
}

func TestDispatchRateLimitDropsExcessEvents(t *testing.T) {
	ctl := newTestController()
	ctl.limiter = NewEventRateLimiter(2, time.Minute)
	other, otherConn := attach(ctl, "c2", user("u2", "Bob"))
	sess, _ := attach(ctl, "c1", user("u1", "Alice"))
	ctl.dispatch(other, []byte(`{"type":"join:edit","postId":"d1"}`))
	ctl.dispatch(sess, []byte(`{"type":"join:edit","postId":"d1"}`))

	ctl.dispatch(sess, []byte(`{"type":"typing:start","postId":"d1"}`))
	ctl.dispatch(sess, []byte(`{"type":"typing:start","postId":"d1"}`))

	// The first two events went through, the third was shed.
	assert.Len(t, otherConn.events(t, protocol.EventTypingUser), 1)
}

func TestDisconnectCascadeThroughController(t *testing.T) {
	ctl := newTestController()
	gone, _ := attach(ctl, "c1", user("u1", "Alice"))
	watcher, watcherConn := attach(ctl, "c2", user("u2", "Bob"))
	ctl.dispatch(gone, []byte(`{"type":"join:edit","postId":"docA"}`))
	ctl.dispatch(gone, []byte(`{"type":"join:edit","postId":"docB"}`))
	ctl.dispatch(watcher, []byte(`{"type":"join:edit","postId":"docA"}`))
	ctl.dispatch(watcher, []byte(`{"type":"join:edit","postId":"docB"}`))

	ctl.hub.Disconnect(gone.ID())
	ctl.limiter.Forget(gone.ID())

	leaves := watcherConn.events(t, protocol.EventPresenceLeave)
	assert.Len(t, leaves, 2)
	assert.False(t, ctl.hub.Registry.IsOnline("u1"))
}

package app

import (
	"testing"

	"github.com/draftroom/pulse/internal/core"
	"github.com/draftroom/pulse/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelManagerJoinLeave(t *testing.T) {
	m := NewChannelManager()
	sess := newRegSession("c1", "u1")
	ch := domain.PostChannel("p1")

	require.NoError(t, m.Join(sess, ch))
	assert.True(t, m.IsMember("c1", ch))
	assert.Equal(t, 1, m.Count())

	g, ok := m.Group(ch)
	require.True(t, ok)
	assert.Equal(t, 1, g.Count())

	// Groups vanish with their last member.
	m.Leave("c1", ch)
	assert.False(t, m.IsMember("c1", ch))
	_, ok = m.Group(ch)
	assert.False(t, ok)
	assert.Equal(t, 0, m.Count())
}

func TestChannelManagerRestrictedJoin(t *testing.T) {
	m := NewChannelManager()
	reader := core.NewSession("c1", ident("u1", "Rita", domain.RoleReader), &fakeConn{})

	err := m.Join(reader, domain.ModeratorsChannel())
	require.ErrorIs(t, err, ErrNotAuthorized)
	assert.False(t, m.IsMember("c1", domain.ModeratorsChannel()))
	assert.Equal(t, 0, m.Count())

	mod := core.NewSession("c2", ident("u2", "Mora", domain.RoleModerator), &fakeConn{})
	require.NoError(t, m.Join(mod, domain.ModeratorsChannel()))
}

func TestChannelManagerRemoveConn(t *testing.T) {
	m := NewChannelManager()
	sess := newRegSession("c1", "u1")
	require.NoError(t, m.Join(sess, domain.PostChannel("p1")))
	require.NoError(t, m.Join(sess, domain.EditChannel("p1")))
	require.NoError(t, m.Join(sess, domain.CategoryChannel("news")))

	channels := m.RemoveConn("c1")
	assert.Len(t, channels, 3)
	assert.Empty(t, m.MembershipsOf("c1"))
	assert.Equal(t, 0, m.Count())

	// Second removal has nothing left to do.
	assert.Nil(t, m.RemoveConn("c1"))
}

func TestChannelManagerDoubleJoin(t *testing.T) {
	m := NewChannelManager()
	sess := newRegSession("c1", "u1")
	ch := domain.CategoryChannel("news")

	require.NoError(t, m.Join(sess, ch))
	require.NoError(t, m.Join(sess, ch))

	g, ok := m.Group(ch)
	require.True(t, ok)
	assert.Equal(t, 1, g.Count())
	assert.Len(t, m.MembershipsOf("c1"), 1)
}

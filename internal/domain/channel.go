package domain

type ChannelKind string

const (
	KindPost       ChannelKind = "post"
	KindEdit       ChannelKind = "edit"
	KindCategory   ChannelKind = "category"
	KindUser       ChannelKind = "user"
	KindModerators ChannelKind = "moderators"
	KindAdmins     ChannelKind = "admins"
)

const MaxChannelTargetLen = 128

// Channel names a broadcast group. It is a comparable value and is used
// as a map key throughout the membership layer.
type Channel struct {
	Kind   ChannelKind
	Target string
}

func PostChannel(postID string) Channel {
	return Channel{Kind: KindPost, Target: postID}
}

func EditChannel(postID string) Channel {
	return Channel{Kind: KindEdit, Target: postID}
}

func CategoryChannel(name string) Channel {
	return Channel{Kind: KindCategory, Target: name}
}

func UserChannel(identityID string) Channel {
	return Channel{Kind: KindUser, Target: identityID}
}

func ModeratorsChannel() Channel {
	return Channel{Kind: KindModerators}
}

func AdminsChannel() Channel {
	return Channel{Kind: KindAdmins}
}

// String renders the wire name, e.g. "edit:42" or "moderators".
func (c Channel) String() string {
	switch c.Kind {
	case KindModerators, KindAdmins:
		return string(c.Kind)
	default:
		return string(c.Kind) + ":" + c.Target
	}
}

// Valid reports whether the channel is well-formed. Targeted kinds need a
// non-empty target of bounded length; the global kinds carry none.
func (c Channel) Valid() bool {
	switch c.Kind {
	case KindModerators, KindAdmins:
		return c.Target == ""
	case KindPost, KindEdit, KindCategory, KindUser:
		return c.Target != "" && len(c.Target) <= MaxChannelTargetLen
	default:
		return false
	}
}

// Joinable reports whether an identity with the given roles may become a
// member. Only the moderators and admins channels are restricted.
func (c Channel) Joinable(roles RoleSet) bool {
	switch c.Kind {
	case KindModerators:
		return roles.CanModerate()
	case KindAdmins:
		return roles.Has(RoleAdmin)
	default:
		return true
	}
}

// Package domain contains entity without logic, just meta-data
package domain

type Role string

const (
	RoleReader    Role = "reader"
	RoleAuthor    Role = "author"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// RoleSet is the set of roles granted to an identity by the platform.
type RoleSet []Role

func (rs RoleSet) Has(r Role) bool {
	for _, have := range rs {
		if have == r {
			return true
		}
	}
	return false
}

// CanModerate reports whether the set grants moderation rights.
func (rs RoleSet) CanModerate() bool {
	return rs.Has(RoleModerator) || rs.Has(RoleAdmin)
}

// Identity is an authenticated platform account as resolved at connect time.
type Identity struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Avatar string  `json:"avatar,omitempty"`
	Roles  RoleSet `json:"roles,omitempty"`
}

// Presence is the roster entry other editors see. It is a snapshot of the
// identity's display attributes, frozen when the connection was admitted.
type Presence struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

func (i Identity) Presence() Presence {
	return Presence{UserID: i.ID, Name: i.Name, Avatar: i.Avatar}
}

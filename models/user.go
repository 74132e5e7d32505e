package models

// Role はユーザーの役割 (DJ または招待客)
type Role string

const (
	RoleHost  Role = "DJ"
	RoleGuest Role = "Player"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleHost || r == RoleGuest
}

// User is the local identity of a client. No authentication is attached to it.
type User struct {
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// IsHost reports whether the user plays the DJ role.
func (u *User) IsHost() bool {
	return u != nil && u.Role == RoleHost
}

package model

import "time"

type Role string

const (
	RoleOwner  Role = "OWNER"
	RolePM     Role = "PM"
	RoleDev    Role = "DEV"
	RoleViewer Role = "VIEWER"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RolePM, RoleDev, RoleViewer:
		return true
	}
	return false
}

type User struct {
	ID        int        `json:"id"`
	Email     string     `json:"email"`
	Name      string     `json:"name"`
	Role      Role       `json:"role"`
	IsActive  bool       `json:"is_active"`
	IsStaff   bool       `json:"is_staff"`
	IsDeleted bool       `json:"is_deleted"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	PasswordHash string `json:"-"`
}

// Actor is the authenticated identity performing a request, resolved
// upstream by the auth middleware and threaded through every core call.
type Actor struct {
	ID   int  `json:"id"`
	Role Role `json:"role"`
}

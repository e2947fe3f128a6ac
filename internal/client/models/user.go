// Package models holds the client-side records exchanged with the backend.
package models

type Role string

const (
	RoleAdmin            Role = "admin"
	RoleDoctor           Role = "doctor"
	RolePatient          Role = "patient"
	RoleHomeCareProvider Role = "home_care_provider"
)

// User is the identity record of a session.
type User struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Clone returns a copy of u, nil for nil.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

// UserPatch carries a partial profile update; nil fields are left as they are.
type UserPatch struct {
	Name      *string `json:"name,omitempty"`
	Email     *string `json:"email,omitempty"`
	Role      *Role   `json:"role,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

// Apply returns u with the patch merged in. ID is never patched.
func (p UserPatch) Apply(u User) User {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	if p.AvatarURL != nil {
		u.AvatarURL = *p.AvatarURL
	}
	return u
}

// HomeRoute is the landing page of a role; unknown roles go to sign-in.
func HomeRoute(r Role) string {
	switch r {
	case RoleAdmin:
		return "/admin/dashboard"
	case RoleDoctor:
		return "/doctors"
	case RolePatient:
		return "/patients"
	case RoleHomeCareProvider:
		return "/providers"
	default:
		return "/login"
	}
}

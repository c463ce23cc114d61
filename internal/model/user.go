// Package model defines the data structures used throughout the application.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Role decides which rules apply to an account.
type Role string

const (
	RoleMigrant   Role = "migrant"
	RoleVolunteer Role = "volunteer"
	RoleAdmin     Role = "admin"
)

// ParseRole normalises s and checks it is a known role.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	switch r {
	case RoleMigrant, RoleVolunteer, RoleAdmin:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// User represents a registered account.
//
// HelpCategories is only meaningful for volunteers and NeedCategories only
// for migrants. The service layer clears the field that does not belong to
// the role, and the matching engine never reads HelpCategories directly: it
// goes through HelpSet, which refuses to answer for non-volunteers.
type User struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	PasswordHash     string     `json:"-"` // never expose the hash
	Name             string     `json:"name"`
	Role             Role       `json:"role"`
	Languages        []string   `json:"languages"`
	HelpCategories   []Category `json:"help_categories"`
	NeedCategories   []Category `json:"need_categories"`
	ProfessionalArea string     `json:"professional_area,omitempty"`
	Availability     string     `json:"availability,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// IsVolunteer reports whether the user holds the volunteer role.
func (u *User) IsVolunteer() bool { return u != nil && u.Role == RoleVolunteer }

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool { return u != nil && u.Role == RoleAdmin }

// HelpSet returns the volunteer's declared help categories.
//
// ok is false when u is not a volunteer. A volunteer who declared nothing
// gets (empty set, true): "no competence" and "no volunteer" stay distinct.
func (u *User) HelpSet() (set CategorySet, ok bool) {
	if !u.IsVolunteer() {
		return nil, false
	}
	return NewCategorySet(u.HelpCategories...), true
}

// PublicProfile is what other users may see about an account.
type PublicProfile struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Role             Role       `json:"role"`
	Languages        []string   `json:"languages"`
	HelpCategories   []Category `json:"help_categories,omitempty"`
	NeedCategories   []Category `json:"need_categories,omitempty"`
	ProfessionalArea string     `json:"professional_area,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// Public strips private fields (email, hash, availability) from u.
func (u *User) Public() PublicProfile {
	return PublicProfile{
		ID:               u.ID,
		Name:             u.Name,
		Role:             u.Role,
		Languages:        u.Languages,
		HelpCategories:   u.HelpCategories,
		NeedCategories:   u.NeedCategories,
		ProfessionalArea: u.ProfessionalArea,
		CreatedAt:        u.CreatedAt,
	}
}

package models

import (
	"encoding/json"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	RoleDefault = "ROLE_USER"
	RoleAdmin   = "ROLE_ADMIN"
)

type User struct {
	gorm.Model

	Username     string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	FirstName    string
	LastName     string
	PhoneNum     string
	Address      string
	DOB          *time.Time
	Roles        datatypes.JSON // normalized ROLE_<NAME> strings

	// Relationships
	Enrollments []Enrollment `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Submissions []Submission `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}

// NormalizeRole uppercases a raw role and ensures the ROLE_ prefix.
// Blank input normalizes to the empty string.
func NormalizeRole(raw string) string {
	role := strings.ToUpper(strings.TrimSpace(raw))

	if role == "" || strings.HasPrefix(role, "ROLE_") {
		return role
	}

	return "ROLE_" + role
}

// RoleList returns the user's normalized roles. An empty set means the
// default ROLE_USER.
func (u *User) RoleList() []string {
	var roles []string

	if len(u.Roles) > 0 {
		if err := json.Unmarshal(u.Roles, &roles); err != nil {
			roles = nil
		}
	}

	normalized := make([]string, 0, len(roles))

	for _, role := range roles {
		if role = NormalizeRole(role); role != "" {
			normalized = append(normalized, role)
		}
	}

	if len(normalized) == 0 {
		return []string{RoleDefault}
	}

	return normalized
}

// SetRoles normalizes and deduplicates raw role names before storing them.
func (u *User) SetRoles(raw []string) error {
	seen := make(map[string]bool)
	roles := []string{}

	for _, r := range raw {
		role := NormalizeRole(r)

		if role == "" || seen[role] {
			continue
		}

		seen[role] = true
		roles = append(roles, role)
	}

	data, err := json.Marshal(roles)

	if err != nil {
		return err
	}

	u.Roles = datatypes.JSON(data)

	return nil
}

func (u *User) HasRole(role string) bool {
	role = NormalizeRole(role)

	for _, r := range u.RoleList() {
		if r == role {
			return true
		}
	}

	return false
}

func (u *User) IsAdmin() bool {
	return u.HasRole(RoleAdmin)
}

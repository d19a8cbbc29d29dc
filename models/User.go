package models

import (
	"strings"

	"gorm.io/gorm"
)

// Roles assignable to an account. Members manage their own catalog and
// recipes; admins may additionally run bulk imports and tenant-wide exports.
const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

// User represents an application account that can authenticate with the platform.
type User struct {
	gorm.Model
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	Name         string
	Role         string `gorm:"type:varchar(16);default:member"`
}

// NormalizeRole maps free-form role input onto a known role, defaulting to member.
func NormalizeRole(role string) string {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case RoleAdmin:
		return RoleAdmin
	default:
		return RoleMember
	}
}

package models

import "strings"

// Role is the closed set of account roles
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

// Roles lists every valid role
var Roles = []Role{RoleStudent, RoleTeacher, RoleAdmin}

// ParseRole converts a raw value into a Role, reporting whether it is known
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	return r, r.Valid()
}

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return true
	default:
		return false
	}
}

// IsStaff reports whether the role manages exams (teacher or admin)
func (r Role) IsStaff() bool {
	switch r {
	case RoleTeacher, RoleAdmin:
		return true
	case RoleStudent:
		return false
	default:
		return false
	}
}

// UserStatus is the account status of a user
type UserStatus string

const (
	UserStatusActive    UserStatus = "Active"
	UserStatusExamining UserStatus = "Examining"
	UserStatusBlocked   UserStatus = "Blocked"
)

// Valid reports whether s is a known account status
func (s UserStatus) Valid() bool {
	switch s {
	case UserStatusActive, UserStatusExamining, UserStatusBlocked:
		return true
	default:
		return false
	}
}

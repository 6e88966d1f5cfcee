package models

// Principal is the authenticated caller of a request
type Principal struct {
	ID    int64
	Email string
	Role  Role
}

// IsStaff reports whether the caller is a teacher or an admin
func (p Principal) IsStaff() bool {
	return p.Role.IsStaff()
}

// IsAdmin reports whether the caller is an admin
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

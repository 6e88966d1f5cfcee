package models

import (
	"time"
)

// User defines the user model based on the 'users' table
type User struct {
	ID         int64      `json:"id" db:"id" example:"1"`
	Name       string     `json:"name" db:"name" example:"Ada Lovelace"`
	Email      string     `json:"email" db:"email" example:"ada@example.edu"`
	Password   string     `json:"-" db:"password_hash"`
	Role       Role       `json:"role" db:"role" example:"student"`
	SpecialID  *string    `json:"specialId,omitempty" db:"special_id" example:"STU-2024-001"`
	Phone      *string    `json:"phone,omitempty" db:"phone"`
	Batch      *string    `json:"batch,omitempty" db:"batch" example:"2024"`
	Department *string    `json:"department,omitempty" db:"department" example:"Computer Science"`
	PhotoURL   *string    `json:"photoUrl,omitempty" db:"photo_url"`
	Status     UserStatus `json:"status" db:"status" example:"Active"`
	CreatedAt  time.Time  `json:"createdAt" db:"created_at"`
}

// UserFilter narrows a user listing
type UserFilter struct {
	Role       *Role
	Status     *UserStatus
	Batch      string
	Department string
	Search     string
	Offset     uint64
	Limit      int
}

// UserUpdate carries the profile fields a user may change; nil means unchanged
type UserUpdate struct {
	Name       *string
	Phone      *string
	Batch      *string
	Department *string
	PhotoURL   *string
}

// Empty reports whether the update changes nothing
func (u UserUpdate) Empty() bool {
	return u.Name == nil && u.Phone == nil && u.Batch == nil && u.Department == nil && u.PhotoURL == nil
}

// RoleCount is a per-role user total
type RoleCount struct {
	Role  Role  `json:"role"`
	Count int64 `json:"count"`
}

// MonthlyCount is the number of registrations in one calendar month
type MonthlyCount struct {
	Month string `json:"month" example:"2024-05"`
	Count int64  `json:"count"`
}

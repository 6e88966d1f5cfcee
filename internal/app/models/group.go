package models

import "time"

// Group is a named set of students that exams can be assigned to
type Group struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name" example:"CS Batch 2024"`
	BatchYear   *int      `json:"batchYear,omitempty" db:"batch_year" example:"2024"`
	Description *string   `json:"description,omitempty" db:"description"`
	CreatedBy   int64     `json:"createdBy" db:"created_by"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`

	CreatorName string `json:"creatorName,omitempty" db:"-"`
	MemberCount int    `json:"memberCount" db:"-"`
}

// GroupMember is a user in a group
type GroupMember struct {
	UserID     int64      `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Role       Role       `json:"role"`
	SpecialID  *string    `json:"specialId,omitempty"`
	Batch      *string    `json:"batch,omitempty"`
	Department *string    `json:"department,omitempty"`
	Status     UserStatus `json:"status"`
	PhotoURL   *string    `json:"photo,omitempty"`
	JoinedAt   time.Time  `json:"joinedAt"`
}

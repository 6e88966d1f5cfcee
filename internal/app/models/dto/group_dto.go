package dto

// CreateGroupRequest represents group creation data
type CreateGroupRequest struct {
	Name        string  `json:"name" binding:"required,max=255" example:"CS Batch 2024"`
	BatchYear   *int    `json:"batchYear" binding:"omitempty,min=1900,max=2200" example:"2024"`
	Description *string `json:"description" binding:"omitempty,max=1000"`
}

// AddMembersRequest adds users to a group
type AddMembersRequest struct {
	UserIDs []int64 `json:"userIds" binding:"required,min=1,dive,min=1"`
}

// AddMembersResponse reports how many memberships were created
type AddMembersResponse struct {
	Added int `json:"added"`
}

// AssignExamRequest links an exam to a group
type AssignExamRequest struct {
	ExamID int64 `json:"examId" binding:"required,min=1"`
}

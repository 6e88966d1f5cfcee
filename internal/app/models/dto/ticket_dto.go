package dto

// CreateTicketRequest opens a support ticket
type CreateTicketRequest struct {
	Subject  string `json:"subject" binding:"required,max=255" example:"Cannot start exam"`
	Message  string `json:"message" binding:"required" example:"The start button stays disabled."`
	Priority string `json:"priority" binding:"omitempty,oneof=Low Normal High" example:"Normal"`
}

// CreateReplyRequest adds a reply to a ticket
type CreateReplyRequest struct {
	Message string `json:"message" binding:"required"`
}

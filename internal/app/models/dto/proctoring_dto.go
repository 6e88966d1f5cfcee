package dto

import "encoding/json"

// LogEventRequest is a proctoring event reported by the student's browser
type LogEventRequest struct {
	EventType string          `json:"eventType" binding:"required,max=50" example:"tab_switch"`
	Details   json.RawMessage `json:"details" swaggertype:"object"`
}

// LogEventResponse acknowledges a logged event
type LogEventResponse struct {
	ID        int64  `json:"id"`
	EventType string `json:"eventType"`
	CreatedAt string `json:"createdAt"`
	// FlagCount totals the caller's flag-worthy events for the exam. Auto
	// submission is decided by the client's per-attempt escalation counter.
	FlagCount int `json:"flagCount"`
}

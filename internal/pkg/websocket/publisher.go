package websocket

import (
	"github.com/yigit/examhub/internal/app/models"
	"github.com/yigit/examhub/internal/domain"
)

// messageTypeProctoring tags proctoring event messages
const messageTypeProctoring = "proctoring_event"

// Publisher turns stored proctoring events into live hub messages
type Publisher struct {
	hub *Hub
}

// NewPublisher creates a Publisher for the hub
func NewPublisher(hub *Hub) *Publisher {
	return &Publisher{hub: hub}
}

// PublishProctoringEvent sends the event to the monitors of its exam
func (p *Publisher) PublishProctoringEvent(event models.ProctoringEvent) {
	p.hub.Broadcast(NewProctoringMessage(event))
}

// NewProctoringMessage builds the live message for an event
func NewProctoringMessage(event models.ProctoringEvent) *Message {
	return &Message{
		Type:        messageTypeProctoring,
		ExamID:      event.ExamID,
		StudentID:   event.StudentID,
		StudentName: event.StudentName,
		EventType:   event.EventType,
		Details:     event.Details,
		FlagWorthy:  domain.IsFlagWorthy(event.EventType),
		ID:          event.ID,
		Timestamp:   event.CreatedAt,
	}
}

package models

import "time"

// TicketStatus is the state of a support ticket
type TicketStatus string

const (
	TicketOpen     TicketStatus = "Open"
	TicketResolved TicketStatus = "Resolved"
)

// Ticket defines the 'support_tickets' row
type Ticket struct {
	ID        int64        `json:"id" db:"id"`
	UserID    int64        `json:"userId" db:"user_id"`
	Subject   string       `json:"subject" db:"subject"`
	Message   string       `json:"message" db:"message"`
	Priority  string       `json:"priority" db:"priority" example:"Normal"`
	Status    TicketStatus `json:"status" db:"status" example:"Open"`
	CreatedAt time.Time    `json:"createdAt" db:"created_at"`
	UserName  string       `json:"userName,omitempty" db:"-"`
	UserEmail string       `json:"userEmail,omitempty" db:"-"`
}

// TicketReply defines the 'ticket_replies' row
type TicketReply struct {
	ID        int64     `json:"id" db:"id"`
	TicketID  int64     `json:"ticketId" db:"ticket_id"`
	UserID    int64     `json:"userId" db:"user_id"`
	Message   string    `json:"message" db:"message"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UserName  string    `json:"userName,omitempty" db:"-"`
	UserRole  Role      `json:"userRole,omitempty" db:"-"`
}

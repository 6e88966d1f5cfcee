package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	appauth "github.com/yigit/examhub/internal/app/auth"
	"github.com/yigit/examhub/internal/app/models"
	"github.com/yigit/examhub/internal/app/models/dto"
)

const defaultTicketPriority = "Normal"

// TicketStore is the support ticket persistence needed by TicketService
type TicketStore interface {
	CreateTicket(ctx context.Context, ticket *models.Ticket) error
	ListTickets(ctx context.Context, userID *int64) ([]*models.Ticket, error)
	GetTicketByID(ctx context.Context, id int64) (*models.Ticket, error)
	ResolveTicket(ctx context.Context, id int64) error
	CreateReply(ctx context.Context, reply *models.TicketReply) error
	ListReplies(ctx context.Context, ticketID int64) ([]models.TicketReply, error)
}

// TicketService handles support tickets and their replies
type TicketService struct {
	ticketRepo TicketStore
	notifier   Notifier
	logger     zerolog.Logger
}

// NewTicketService creates a new TicketService
func NewTicketService(ticketRepo TicketStore, notifier Notifier, logger zerolog.Logger) *TicketService {
	return &TicketService{
		ticketRepo: ticketRepo,
		notifier:   notifier,
		logger:     logger,
	}
}

// CreateTicket opens a ticket for the caller
func (s *TicketService) CreateTicket(ctx context.Context, caller models.Principal, req *dto.CreateTicketRequest) (*models.Ticket, error) {
	ticket := &models.Ticket{
		UserID:   caller.ID,
		Subject:  strings.TrimSpace(req.Subject),
		Message:  strings.TrimSpace(req.Message),
		Priority: req.Priority,
		Status:   models.TicketOpen,
	}
	if ticket.Priority == "" {
		ticket.Priority = defaultTicketPriority
	}
	if err := s.ticketRepo.CreateTicket(ctx, ticket); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("ticketID", ticket.ID).Int64("userID", caller.ID).Msg("Support ticket opened")
	return ticket, nil
}

// ListTickets lists every ticket for admins and the caller's own otherwise
func (s *TicketService) ListTickets(ctx context.Context, caller models.Principal) ([]*models.Ticket, error) {
	if caller.IsAdmin() {
		return s.ticketRepo.ListTickets(ctx, nil)
	}
	id := caller.ID
	return s.ticketRepo.ListTickets(ctx, &id)
}

// ResolveTicket marks a ticket resolved and tells its owner
func (s *TicketService) ResolveTicket(ctx context.Context, id int64) (*models.Ticket, error) {
	ticket, err := s.ticketRepo.GetTicketByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ticketRepo.ResolveTicket(ctx, id); err != nil {
		return nil, err
	}
	ticket.Status = models.TicketResolved

	if s.notifier != nil {
		s.notifier.Notify(models.Notification{
			UserID:  ticket.UserID,
			Title:   "Ticket resolved",
			Message: fmt.Sprintf("Your ticket %q was marked as resolved", ticket.Subject),
			Type:    "ticket",
		})
	}
	return ticket, nil
}

// Reply adds a reply to a ticket. Only the owner and admins may reply; the
// owner is notified of replies written by someone else.
func (s *TicketService) Reply(ctx context.Context, caller models.Principal, ticketID int64, req *dto.CreateReplyRequest) (*models.TicketReply, error) {
	ticket, err := s.ticketRepo.GetTicketByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := appauth.RequireOwnerOrAdmin(caller, ticket.UserID, "ticket"); err != nil {
		return nil, err
	}

	reply := &models.TicketReply{
		TicketID: ticketID,
		UserID:   caller.ID,
		Message:  strings.TrimSpace(req.Message),
		UserRole: caller.Role,
	}
	if err := s.ticketRepo.CreateReply(ctx, reply); err != nil {
		return nil, err
	}

	if s.notifier != nil && caller.ID != ticket.UserID {
		s.notifier.Notify(models.Notification{
			UserID:  ticket.UserID,
			Title:   "New reply on your ticket",
			Message: fmt.Sprintf("Support replied to %q", ticket.Subject),
			Type:    "ticket",
		})
	}
	return reply, nil
}

// ListReplies lists the replies of a ticket, oldest first
func (s *TicketService) ListReplies(ctx context.Context, caller models.Principal, ticketID int64) ([]models.TicketReply, error) {
	ticket, err := s.ticketRepo.GetTicketByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := appauth.RequireOwnerOrAdmin(caller, ticket.UserID, "ticket"); err != nil {
		return nil, err
	}
	return s.ticketRepo.ListReplies(ctx, ticketID)
}

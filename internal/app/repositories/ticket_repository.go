package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/examhub/internal/app/models"
	"github.com/yigit/examhub/internal/pkg/apperrors"
	"github.com/yigit/examhub/internal/pkg/logger"
)

var ticketColumns = []string{
	"t.id", "t.user_id", "t.subject", "t.message", "t.priority", "t.status", "t.created_at", "u.name", "u.email",
}

// TicketRepository handles database operations for support tickets
type TicketRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewTicketRepository creates a new TicketRepository
func NewTicketRepository(db *pgxpool.Pool) *TicketRepository {
	return &TicketRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanTicket(row pgx.Row) (*models.Ticket, error) {
	var t models.Ticket
	var status string
	if err := row.Scan(&t.ID, &t.UserID, &t.Subject, &t.Message, &t.Priority, &status, &t.CreatedAt, &t.UserName, &t.UserEmail); err != nil {
		return nil, err
	}
	t.Status = models.TicketStatus(status)
	return &t, nil
}

// CreateTicket inserts an open ticket
func (r *TicketRepository) CreateTicket(ctx context.Context, ticket *models.Ticket) error {
	if ticket.Priority == "" {
		ticket.Priority = "Normal"
	}
	ticket.Status = models.TicketOpen

	sql, args, err := r.sb.Insert("support_tickets").
		Columns("user_id", "subject", "message", "priority", "status").
		Values(ticket.UserID, ticket.Subject, ticket.Message, ticket.Priority, string(ticket.Status)).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create ticket SQL")
		return fmt.Errorf("failed to build create ticket query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&ticket.ID, &ticket.CreatedAt); err != nil {
		logger.Error().Err(err).Int64("userID", ticket.UserID).Msg("Error executing create ticket query")
		return fmt.Errorf("error creating ticket: %w", err)
	}
	return nil
}

// ListTickets lists tickets newest first; a non-nil userID restricts to that user's tickets
func (r *TicketRepository) ListTickets(ctx context.Context, userID *int64) ([]*models.Ticket, error) {
	builder := r.sb.Select(ticketColumns...).
		From("support_tickets t").
		Join("users u ON u.id = t.user_id").
		OrderBy("t.created_at DESC", "t.id DESC")
	if userID != nil {
		builder = builder.Where(squirrel.Eq{"t.user_id": *userID})
	}

	sql, args, err := builder.ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building list tickets SQL")
		return nil, fmt.Errorf("failed to build list tickets query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list tickets query")
		return nil, fmt.Errorf("error listing tickets: %w", err)
	}
	defer rows.Close()

	tickets := make([]*models.Ticket, 0)
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning ticket: %w", err)
		}
		tickets = append(tickets, ticket)
	}
	return tickets, rows.Err()
}

// GetTicketByID retrieves a ticket
func (r *TicketRepository) GetTicketByID(ctx context.Context, id int64) (*models.Ticket, error) {
	sql, args, err := r.sb.Select(ticketColumns...).
		From("support_tickets t").
		Join("users u ON u.id = t.user_id").
		Where(squirrel.Eq{"t.id": id}).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building get ticket SQL")
		return nil, fmt.Errorf("failed to build get ticket query: %w", err)
	}

	ticket, err := scanTicket(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewResourceNotFoundError("Ticket not found")
		}
		logger.Error().Err(err).Int64("ticketID", id).Msg("Error scanning ticket")
		return nil, fmt.Errorf("error getting ticket: %w", err)
	}
	return ticket, nil
}

// ResolveTicket marks a ticket resolved
func (r *TicketRepository) ResolveTicket(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Update("support_tickets").
		Set("status", string(models.TicketResolved)).
		Set("updated_at", squirrel.Expr("CURRENT_TIMESTAMP")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building resolve ticket SQL")
		return fmt.Errorf("failed to build resolve ticket query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("ticketID", id).Msg("Error executing resolve ticket query")
		return fmt.Errorf("error resolving ticket: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewResourceNotFoundError("Ticket not found")
	}
	return nil
}

// CreateReply appends a reply and bumps the ticket's updated_at
func (r *TicketRepository) CreateReply(ctx context.Context, reply *models.TicketReply) error {
	sql, args, err := r.sb.Insert("ticket_replies").
		Columns("ticket_id", "user_id", "message").
		Values(reply.TicketID, reply.UserID, reply.Message).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create reply SQL")
		return fmt.Errorf("failed to build create reply query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&reply.ID, &reply.CreatedAt); err != nil {
		logger.Error().Err(err).Int64("ticketID", reply.TicketID).Msg("Error executing create reply query")
		return fmt.Errorf("error creating reply: %w", err)
	}

	if _, err := r.db.Exec(ctx, `UPDATE support_tickets SET updated_at = CURRENT_TIMESTAMP WHERE id = $1`, reply.TicketID); err != nil {
		logger.Warn().Err(err).Int64("ticketID", reply.TicketID).Msg("Failed to touch ticket after reply")
	}
	return nil
}

// ListReplies lists the replies of a ticket in posting order
func (r *TicketRepository) ListReplies(ctx context.Context, ticketID int64) ([]models.TicketReply, error) {
	sql, args, err := r.sb.Select("tr.id", "tr.ticket_id", "tr.user_id", "tr.message", "tr.created_at", "u.name", "u.role").
		From("ticket_replies tr").
		Join("users u ON u.id = tr.user_id").
		Where(squirrel.Eq{"tr.ticket_id": ticketID}).
		OrderBy("tr.created_at", "tr.id").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building list replies SQL")
		return nil, fmt.Errorf("failed to build list replies query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("ticketID", ticketID).Msg("Error executing list replies query")
		return nil, fmt.Errorf("error listing replies: %w", err)
	}
	defer rows.Close()

	replies := make([]models.TicketReply, 0)
	for rows.Next() {
		var reply models.TicketReply
		var role string
		if err := rows.Scan(&reply.ID, &reply.TicketID, &reply.UserID, &reply.Message, &reply.CreatedAt, &reply.UserName, &role); err != nil {
			return nil, fmt.Errorf("error scanning reply: %w", err)
		}
		reply.UserRole = models.Role(role)
		replies = append(replies, reply)
	}
	return replies, rows.Err()
}

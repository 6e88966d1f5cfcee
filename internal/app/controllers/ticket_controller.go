package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/examhub/internal/app/models/dto"
	"github.com/yigit/examhub/internal/app/services"
	"github.com/yigit/examhub/internal/middleware"
)

// TicketController handles support tickets
type TicketController struct {
	ticketService *services.TicketService
	logger        zerolog.Logger
}

// NewTicketController creates a new TicketController
func NewTicketController(ticketService *services.TicketService, logger zerolog.Logger) *TicketController {
	return &TicketController{
		ticketService: ticketService,
		logger:        logger,
	}
}

// CreateTicket godoc
// @Summary Open a support ticket
// @Tags tickets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateTicketRequest true "Ticket"
// @Success 201 {object} dto.APIResponse{data=models.Ticket} "Ticket created"
// @Failure 400 {object} dto.ErrorResponse "Validation error"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Router /tickets [post]
func (c *TicketController) CreateTicket(ctx *gin.Context) {
	principal, ok := middleware.MustPrincipal(ctx)
	if !ok {
		return
	}
	var req dto.CreateTicketRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	ticket, err := c.ticketService.CreateTicket(ctx.Request.Context(), principal, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(ticket, "Ticket created"))
}

// ListTickets godoc
// @Summary List tickets
// @Description Administrators see every ticket, everyone else their own
// @Tags tickets
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.Ticket} "Tickets retrieved"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Router /tickets [get]
func (c *TicketController) ListTickets(ctx *gin.Context) {
	principal, ok := middleware.MustPrincipal(ctx)
	if !ok {
		return
	}

	tickets, err := c.ticketService.ListTickets(ctx.Request.Context(), principal)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(tickets, ""))
}

// ResolveTicket godoc
// @Summary Resolve a ticket
// @Tags tickets
// @Produce json
// @Security BearerAuth
// @Param id path int true "Ticket ID"
// @Success 200 {object} dto.APIResponse{data=models.Ticket} "Ticket resolved"
// @Failure 400 {object} dto.ErrorResponse "Invalid ticket ID"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Ticket not found"
// @Router /tickets/{id} [patch]
func (c *TicketController) ResolveTicket(ctx *gin.Context) {
	id, ok := middleware.ParseIDParam(ctx, "id", "ticket")
	if !ok {
		return
	}

	ticket, err := c.ticketService.ResolveTicket(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(ticket, "Ticket resolved"))
}

// Reply godoc
// @Summary Reply to a ticket
// @Tags tickets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Ticket ID"
// @Param request body dto.CreateReplyRequest true "Reply"
// @Success 201 {object} dto.APIResponse{data=models.TicketReply} "Reply added"
// @Failure 400 {object} dto.ErrorResponse "Validation error"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Ticket not found"
// @Router /tickets/{id}/replies [post]
func (c *TicketController) Reply(ctx *gin.Context) {
	principal, ok := middleware.MustPrincipal(ctx)
	if !ok {
		return
	}
	id, ok := middleware.ParseIDParam(ctx, "id", "ticket")
	if !ok {
		return
	}
	var req dto.CreateReplyRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	reply, err := c.ticketService.Reply(ctx.Request.Context(), principal, id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(reply, "Reply added"))
}

// ListReplies godoc
// @Summary List ticket replies
// @Tags tickets
// @Produce json
// @Security BearerAuth
// @Param id path int true "Ticket ID"
// @Success 200 {object} dto.APIResponse{data=[]models.TicketReply} "Replies retrieved"
// @Failure 400 {object} dto.ErrorResponse "Invalid ticket ID"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Ticket not found"
// @Router /tickets/{id}/replies [get]
func (c *TicketController) ListReplies(ctx *gin.Context) {
	principal, ok := middleware.MustPrincipal(ctx)
	if !ok {
		return
	}
	id, ok := middleware.ParseIDParam(ctx, "id", "ticket")
	if !ok {
		return
	}

	replies, err := c.ticketService.ListReplies(ctx.Request.Context(), principal, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(replies, ""))
}

package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/examhub/internal/app/models/dto"
	"github.com/yigit/examhub/internal/app/services"
	"github.com/yigit/examhub/internal/middleware"
)

// GroupController handles student groups
type GroupController struct {
	groupService *services.GroupService
	logger       zerolog.Logger
}

// NewGroupController creates a new GroupController
func NewGroupController(groupService *services.GroupService, logger zerolog.Logger) *GroupController {
	return &GroupController{
		groupService: groupService,
		logger:       logger,
	}
}

// ListGroups godoc
// @Summary List groups
// @Tags groups
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.Group} "Groups retrieved"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Router /groups [get]
func (c *GroupController) ListGroups(ctx *gin.Context) {
	groups, err := c.groupService.ListGroups(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(groups, ""))
}

// CreateGroup godoc
// @Summary Create a group
// @Tags groups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateGroupRequest true "Group details"
// @Success 201 {object} dto.APIResponse{data=models.Group} "Group created"
// @Failure 400 {object} dto.ErrorResponse "Validation error"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Router /groups [post]
func (c *GroupController) CreateGroup(ctx *gin.Context) {
	principal, ok := middleware.MustPrincipal(ctx)
	if !ok {
		return
	}
	var req dto.CreateGroupRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	group, err := c.groupService.CreateGroup(ctx.Request.Context(), principal, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(group, "Group created"))
}

// ListMembers godoc
// @Summary List group members
// @Tags groups
// @Produce json
// @Security BearerAuth
// @Param id path int true "Group ID"
// @Success 200 {object} dto.APIResponse{data=[]models.GroupMember} "Members retrieved"
// @Failure 400 {object} dto.ErrorResponse "Invalid group ID"
// @Failure 404 {object} dto.ErrorResponse "Group not found"
// @Router /groups/{id}/members [get]
func (c *GroupController) ListMembers(ctx *gin.Context) {
	id, ok := middleware.ParseIDParam(ctx, "id", "group")
	if !ok {
		return
	}

	members, err := c.groupService.ListMembers(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(members, ""))
}

// AddMembers godoc
// @Summary Add users to a group
// @Description Users already in the group are skipped
// @Tags groups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Group ID"
// @Param request body dto.AddMembersRequest true "User IDs"
// @Success 200 {object} dto.APIResponse{data=dto.AddMembersResponse} "Members added"
// @Failure 400 {object} dto.ErrorResponse "Validation error"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Group not found"
// @Router /groups/{id}/members [post]
func (c *GroupController) AddMembers(ctx *gin.Context) {
	id, ok := middleware.ParseIDParam(ctx, "id", "group")
	if !ok {
		return
	}
	var req dto.AddMembersRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	added, err := c.groupService.AddMembers(ctx.Request.Context(), id, req.UserIDs)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.AddMembersResponse{Added: added}, "Members added"))
}

// AssignExam godoc
// @Summary Assign an exam to a group
// @Description Links the group to the exam and assigns every member as a candidate
// @Tags groups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Group ID"
// @Param request body dto.AssignExamRequest true "Exam to assign"
// @Success 200 {object} dto.APIResponse{data=dto.AssignCandidatesResponse} "Exam assigned"
// @Failure 400 {object} dto.ErrorResponse "Validation error"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Group or exam not found"
// @Router /groups/{id}/assign-exam [post]
func (c *GroupController) AssignExam(ctx *gin.Context) {
	id, ok := middleware.ParseIDParam(ctx, "id", "group")
	if !ok {
		return
	}
	var req dto.AssignExamRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	added, err := c.groupService.AssignExam(ctx.Request.Context(), id, req.ExamID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.AssignCandidatesResponse{CandidatesAdded: added}, "Exam assigned"))
}

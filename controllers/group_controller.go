package controllers

import (
	"net/http"

	"restaurant-service/models"
	"restaurant-service/services"

	"github.com/gin-gonic/gin"
)

// GroupController manages one staff group's roster.
type GroupController struct {
	groupService services.GroupService
	group        string
}

// NewGroupController binds the handlers to a single group name.
func NewGroupController(groupService services.GroupService, group string) *GroupController {
	return &GroupController{groupService: groupService, group: group}
}

// ListMembers handles GET /groups/<group>/users.
func (gc *GroupController) ListMembers(ctx *gin.Context) {
	users, svcErr := gc.groupService.ListMembers(ctx.Request.Context(), gc.group)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	ctx.JSON(http.StatusOK, users)
}

// AddMember handles POST /groups/<group>/users with {"username": ...}.
func (gc *GroupController) AddMember(ctx *gin.Context) {
	var req models.RosterRequest
	// An unreadable body is treated like a missing username.
	_ = ctx.ShouldBindJSON(&req)

	if svcErr := gc.groupService.AddMember(ctx.Request.Context(), gc.group, req.Username); svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"message": "ok"})
}

// RemoveMember handles DELETE /groups/<group>/users/:id.
func (gc *GroupController) RemoveMember(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	if svcErr := gc.groupService.RemoveMember(ctx.Request.Context(), gc.group, id); svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "success"})
}

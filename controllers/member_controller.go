package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AddMembersInput struct {
	UserIDs []string `json:"userIds" binding:"required,min=1" example:"665f1c2e8b3e4a0012345678"`
}

// AddMembers godoc
// @Summary Add members to a group
// @Description Users already in the group are kept once; unknown users are ignored
// @Tags members
// @Accept json
// @Produce json
// @Param groupId path string true "Group ID"
// @Param members body AddMembersInput true "Members"
// @Success 200 {object} map[string]models.Group "group"
// @Failure 400 {object} ErrorResponse "Invalid input"
// @Failure 404 {object} ErrorResponse "Group not found"
// @Router /groups/{groupId}/members [post]
func (g *GroupController) AddMembers(c *gin.Context) {
	var input AddMembersInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	group, err := g.store.AddMembers(c.Request.Context(), c.Param("groupId"), input.UserIDs)
	if err != nil {
		respondError(c, g.log, err, "Error updating group members")
		return
	}
	g.log.Info("members added", zap.String("group_id", group.ID), zap.Int("members", len(group.Members)))
	c.JSON(http.StatusOK, gin.H{"group": group})
}

// RemoveMember godoc
// @Summary Remove a member from a group
// @Tags members
// @Produce json
// @Param groupId path string true "Group ID"
// @Param userId path string true "User ID"
// @Success 200 {object} map[string]models.Group "group"
// @Failure 400 {object} ErrorResponse "Invalid user ID"
// @Failure 404 {object} ErrorResponse "Group not found"
// @Router /groups/{groupId}/members/{userId} [delete]
func (g *GroupController) RemoveMember(c *gin.Context) {
	group, err := g.store.RemoveMember(c.Request.Context(), c.Param("groupId"), c.Param("userId"))
	if err != nil {
		respondError(c, g.log, err, "Error updating group members")
		return
	}
	c.JSON(http.StatusOK, gin.H{"group": group})
}

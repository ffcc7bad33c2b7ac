package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetGroupMessages godoc
// @Summary Get a group's chat history
// @Description Returns every message of the group in the order it was appended, senders resolved
// @Tags messages
// @Produce json
// @Param groupId path string true "Group ID"
// @Success 200 {object} map[string][]models.Message "messages"
// @Failure 400 {object} ErrorResponse "Invalid group ID"
// @Failure 404 {object} ErrorResponse "Group not found"
// @Failure 500 {object} ErrorResponse "Server error"
// @Router /groups/{groupId}/messages [get]
func (g *GroupController) GetGroupMessages(c *gin.Context) {
	messages, err := g.store.Backlog(c.Request.Context(), c.Param("groupId"))
	if err != nil {
		respondError(c, g.log, err, "Error fetching group messages")
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

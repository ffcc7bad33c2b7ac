package controllers

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/CUknot/tasksphere_backend/chat"
	"github.com/CUknot/tasksphere_backend/database"
	"github.com/CUknot/tasksphere_backend/models"
	"github.com/CUknot/tasksphere_backend/storage"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DocumentUploader shares a staged document in a group.
type DocumentUploader interface {
	UploadGroupDocument(ctx context.Context, in chat.UploadInput) (chat.UploadResult, error)
}

type CreateGroupInput struct {
	Name        string   `json:"name" binding:"required" example:"Apollo Group"`
	Description string   `json:"description" example:"Group for project: Apollo"`
	MemberIDs   []string `json:"memberIds" example:"665f1c2e8b3e4a0012345678"`
}

type UploadResponse struct {
	Message   string            `json:"message" example:"File uploaded and shared in group chat"`
	File      models.FileRecord `json:"file"`
	MessageID string            `json:"messageId" example:"665f1c2e8b3e4a0012345679"`
}

// GroupController serves group chat history, shared files and group
// lifecycle hooks.
type GroupController struct {
	store          database.GroupStore
	docs           DocumentUploader
	temp           *storage.TempDir
	maxUploadBytes int64
	log            *zap.Logger
}

func NewGroupController(store database.GroupStore, docs DocumentUploader, temp *storage.TempDir, maxUploadBytes int64, log *zap.Logger) *GroupController {
	return &GroupController{
		store:          store,
		docs:           docs,
		temp:           temp,
		maxUploadBytes: maxUploadBytes,
		log:            log.Named("groups"),
	}
}

// UploadGroupDocument godoc
// @Summary Share a document in a group
// @Description Uploads the file to blob storage, records it in the group's files and announces it in the chat
// @Tags groups
// @Accept multipart/form-data
// @Produce json
// @Param groupId path string true "Group ID"
// @Param uploaderId formData string true "Uploader user ID"
// @Param document formData file true "Document to share"
// @Success 200 {object} UploadResponse
// @Failure 400 {object} ErrorResponse "Invalid ID or no file uploaded"
// @Failure 404 {object} ErrorResponse "Group or uploader not found"
// @Failure 413 {object} ErrorResponse "File too large"
// @Failure 500 {object} ErrorResponse "Upload failed"
// @Router /groups/{groupId}/upload [post]
func (g *GroupController) UploadGroupDocument(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, g.maxUploadBytes)

	in := chat.UploadInput{GroupID: c.Param("groupId")}

	fh, err := c.FormFile("document")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Message: "File too large"})
			return
		}
	}
	in.UploaderID = c.PostForm("uploaderId")

	if fh != nil {
		path := g.temp.Stage(fh.Filename)
		release := g.temp.Hold(path)
		defer release()
		if err := c.SaveUploadedFile(fh, path); err != nil {
			_ = os.Remove(path)
			g.log.Error("failed to stage upload", zap.String("path", path), zap.Error(err))
			c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Error uploading group document"})
			return
		}
		in.FileName = storage.SafeFilename(fh.Filename)
		in.LocalPath = path
		in.Size = fh.Size
		in.ContentType = fh.Header.Get("Content-Type")
	}

	res, err := g.docs.UploadGroupDocument(c.Request.Context(), in)
	if err != nil {
		respondError(c, g.log, err, "Error uploading group document")
		return
	}

	c.JSON(http.StatusOK, UploadResponse{
		Message:   "File uploaded and shared in group chat",
		File:      res.File,
		MessageID: res.Message.ID,
	})
}

// GetGroupFiles godoc
// @Summary List a group's shared files
// @Tags groups
// @Produce json
// @Param groupId path string true "Group ID"
// @Success 200 {object} map[string][]models.FileRecord "files"
// @Failure 400 {object} ErrorResponse "Invalid group ID"
// @Failure 404 {object} ErrorResponse "Group not found"
// @Failure 500 {object} ErrorResponse "Server error"
// @Router /groups/{groupId}/files [get]
func (g *GroupController) GetGroupFiles(c *gin.Context) {
	files, err := g.store.ListFiles(c.Request.Context(), c.Param("groupId"))
	if err != nil {
		respondError(c, g.log, err, "Error fetching group files")
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": files})
}

// GetUserGroups godoc
// @Summary List the groups a user belongs to
// @Tags groups
// @Produce json
// @Param userId path string true "User ID"
// @Success 200 {object} map[string][]models.Group "groups"
// @Failure 400 {object} ErrorResponse "Invalid user ID"
// @Failure 500 {object} ErrorResponse "Server error"
// @Router /user/{userId}/groups [get]
func (g *GroupController) GetUserGroups(c *gin.Context) {
	groups, err := g.store.ListGroupsForUser(c.Request.Context(), c.Param("userId"))
	if err != nil {
		respondError(c, g.log, err, "Error getting user groups")
		return
	}
	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

// GetAllGroups godoc
// @Summary List all groups
// @Tags groups
// @Produce json
// @Success 200 {object} map[string][]models.Group "groups"
// @Failure 500 {object} ErrorResponse "Server error"
// @Router /groups [get]
func (g *GroupController) GetAllGroups(c *gin.Context) {
	groups, err := g.store.ListAllGroups(c.Request.Context())
	if err != nil {
		respondError(c, g.log, err, "Error fetching groups")
		return
	}
	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

// CreateGroup godoc
// @Summary Create a group
// @Description Called when a project is created; unknown member ids are ignored
// @Tags groups
// @Accept json
// @Produce json
// @Param group body CreateGroupInput true "Group"
// @Success 201 {object} map[string]models.Group "group"
// @Failure 400 {object} ErrorResponse "Invalid input"
// @Failure 500 {object} ErrorResponse "Server error"
// @Router /groups [post]
func (g *GroupController) CreateGroup(c *gin.Context) {
	var input CreateGroupInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	group, err := g.store.CreateGroup(c.Request.Context(), models.Group{
		Name:        input.Name,
		Description: input.Description,
	}, input.MemberIDs)
	if err != nil {
		respondError(c, g.log, err, "Error creating group")
		return
	}
	g.log.Info("group created", zap.String("group_id", group.ID), zap.String("name", group.Name))
	c.JSON(http.StatusCreated, gin.H{"group": group})
}

// DeleteGroup godoc
// @Summary Delete a group
// @Description Removes the group with its chat history, shared files and memberships
// @Tags groups
// @Produce json
// @Param groupId path string true "Group ID"
// @Success 200 {object} map[string]string "Group deleted"
// @Failure 400 {object} ErrorResponse "Invalid group ID"
// @Failure 404 {object} ErrorResponse "Group not found"
// @Failure 500 {object} ErrorResponse "Server error"
// @Router /groups/{groupId} [delete]
func (g *GroupController) DeleteGroup(c *gin.Context) {
	groupID := c.Param("groupId")
	if err := g.store.DeleteGroup(c.Request.Context(), groupID); err != nil {
		respondError(c, g.log, err, "Error deleting group")
		return
	}
	g.log.Info("group deleted", zap.String("group_id", groupID))
	c.JSON(http.StatusOK, gin.H{"message": "Group deleted"})
}

// DeleteGroupByName godoc
// @Summary Delete a group by name
// @Description Used when a project is deleted and only its group name is known
// @Tags groups
// @Produce json
// @Param name query string true "Group name"
// @Success 200 {object} map[string]string "Group deleted"
// @Failure 400 {object} ErrorResponse "Missing name"
// @Failure 404 {object} ErrorResponse "Group not found"
// @Router /groups [delete]
func (g *GroupController) DeleteGroupByName(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Group name is required"})
		return
	}
	group, err := g.store.DeleteGroupByName(c.Request.Context(), name)
	if err != nil {
		respondError(c, g.log, err, "Error deleting group")
		return
	}
	g.log.Info("group deleted", zap.String("group_id", group.ID), zap.String("name", name))
	c.JSON(http.StatusOK, gin.H{"message": "Group deleted", "groupId": group.ID})
}

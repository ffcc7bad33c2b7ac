package controllers

import (
	"context"
	"net/http"

	"github.com/CUknot/tasksphere_backend/models"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserStore keeps the local copy of identities owned by the identity provider.
type UserStore interface {
	UpsertUser(ctx context.Context, user models.User) (models.User, bool, error)
}

type SyncUserInput struct {
	ExternalID string `json:"externalId" binding:"required" example:"user_2abc"`
	Email      string `json:"email" binding:"required,email" example:"alice@example.com"`
	Name       string `json:"name" example:"Alice"`
}

type UserController struct {
	store UserStore
	log   *zap.Logger
}

func NewUserController(store UserStore, log *zap.Logger) *UserController {
	return &UserController{store: store, log: log.Named("users")}
}

// SyncUser godoc
// @Summary Create or update a user
// @Description Mirrors an identity-provider user so that messages and files can reference it
// @Tags users
// @Accept json
// @Produce json
// @Param user body SyncUserInput true "User"
// @Success 200 {object} map[string]models.User "Updated"
// @Success 201 {object} map[string]models.User "Created"
// @Failure 400 {object} ErrorResponse "Invalid input"
// @Failure 500 {object} ErrorResponse "Server error"
// @Router /users [post]
func (u *UserController) SyncUser(c *gin.Context) {
	var input SyncUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	user, created, err := u.store.UpsertUser(c.Request.Context(), models.User{
		ExternalID: input.ExternalID,
		Email:      input.Email,
		Name:       input.Name,
	})
	if err != nil {
		respondError(c, u.log, err, "Error storing user")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
		u.log.Info("user created", zap.String("user_id", user.ID))
	}
	c.JSON(status, gin.H{"user": user})
}

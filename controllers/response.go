package controllers

import (
	"errors"
	"net/http"

	"github.com/CUknot/tasksphere_backend/apperr"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Message string `json:"message" example:"Group not found"`
	Error   string `json:"error,omitempty"`
}

// respondError writes err with the status of its kind. Storage causes stay
// in the log; a blob host failure is passed on as the error detail.
func respondError(c *gin.Context, log *zap.Logger, err error, fallback string) {
	body := ErrorResponse{Message: apperr.PublicMessage(err, fallback)}

	switch apperr.KindOf(err) {
	case apperr.KindValidation, apperr.KindNotFound:
	case apperr.KindUpstream:
		var appErr *apperr.Error
		if errors.As(err, &appErr) && appErr.Err != nil {
			body.Error = appErr.Err.Error()
		}
		log.Error(body.Message, zap.String("route", c.FullPath()), zap.Error(err))
	default:
		log.Error(body.Message, zap.String("route", c.FullPath()), zap.Error(err))
	}
	c.JSON(apperr.HTTPStatus(err), body)
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request body", Error: err.Error()})
}

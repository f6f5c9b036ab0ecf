// Package handler exposes the services over HTTP with gin. Handlers stay
// thin: bind, validate, call the service, map the error kind to a status.
package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/eaglebank/api/internal/ledger"
	"github.com/gin-gonic/gin"
)

// BadRequestResponse mirrors the per-field validation error body.
type BadRequestResponse struct {
	Message string              `json:"message"`
	Details []ledger.FieldError `json:"details"`
}

func respondMessage(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"message": message})
}

func respondValidation(c *gin.Context, fieldErrors []ledger.FieldError) {
	c.JSON(http.StatusBadRequest, BadRequestResponse{
		Message: "Validation failed",
		Details: fieldErrors,
	})
}

// respondError maps the error taxonomy onto HTTP statuses. Insufficient
// funds keeps its own 422 status; every other conflict is 409. Anything
// outside the taxonomy is logged and reduced to a generic 500.
func respondError(c *gin.Context, err error) {
	var lerr *ledger.Error
	if !errors.As(err, &lerr) {
		slog.Error("unexpected error", "path", c.Request.URL.Path, "error", err)
		respondMessage(c, http.StatusInternalServerError, "An unexpected error occurred")
		return
	}
	switch lerr.Kind {
	case ledger.KindNotFound:
		respondMessage(c, http.StatusNotFound, lerr.Msg)
	case ledger.KindForbidden:
		respondMessage(c, http.StatusForbidden, lerr.Msg)
	case ledger.KindValidation:
		respondValidation(c, lerr.Fields)
	case ledger.KindConflict:
		if errors.Is(err, ledger.ErrInsufficientFunds) {
			respondMessage(c, http.StatusUnprocessableEntity, lerr.Msg)
			return
		}
		respondMessage(c, http.StatusConflict, lerr.Msg)
	default:
		slog.Error("unexpected error", "path", c.Request.URL.Path, "error", lerr.Err)
		respondMessage(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}

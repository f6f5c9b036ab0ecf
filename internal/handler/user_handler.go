package handler

import (
	"context"
	"net/http"

	"github.com/eaglebank/api/internal/middleware"
	"github.com/eaglebank/api/internal/models"
	"github.com/eaglebank/api/internal/user"
	"github.com/gin-gonic/gin"
)

// UserOperations defines the service surface used by UserHandler.
type UserOperations interface {
	Register(ctx context.Context, in user.RegisterInput) (*models.User, error)
	Get(ctx context.Context, userID, callerID string) (*models.User, error)
	Update(ctx context.Context, userID, callerID string, in user.UpdateInput) (*models.User, error)
	Delete(ctx context.Context, userID, callerID string) error
}

type UserHandler struct {
	users UserOperations
}

func NewUserHandler(users UserOperations) *UserHandler {
	return &UserHandler{users: users}
}

type CreateUserRequest struct {
	Name        string         `json:"name" validate:"required"`
	Email       string         `json:"email" validate:"required,email"`
	Password    string         `json:"password" validate:"required,min=8"`
	PhoneNumber string         `json:"phoneNumber" validate:"required"`
	Address     models.Address `json:"address" validate:"required"`
}

type UpdateUserRequest struct {
	Name        *string         `json:"name,omitempty"`
	Email       *string         `json:"email,omitempty" validate:"omitempty,email"`
	PhoneNumber *string         `json:"phoneNumber,omitempty"`
	Address     *models.Address `json:"address,omitempty"`
}

func (h *UserHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if fieldErrors := middleware.ValidateRequest(req); fieldErrors != nil {
		respondValidation(c, fieldErrors)
		return
	}

	created, err := h.users.Register(c.Request.Context(), user.RegisterInput{
		Name:        req.Name,
		Email:       req.Email,
		Password:    req.Password,
		PhoneNumber: req.PhoneNumber,
		Address:     req.Address,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *UserHandler) GetUser(c *gin.Context) {
	userID := c.Param("userId")
	callerID, _ := middleware.GetUserID(c)

	u, err := h.users.Get(c.Request.Context(), userID, callerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *UserHandler) UpdateUser(c *gin.Context) {
	userID := c.Param("userId")
	callerID, _ := middleware.GetUserID(c)

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if fieldErrors := middleware.ValidateRequest(req); fieldErrors != nil {
		respondValidation(c, fieldErrors)
		return
	}

	u, err := h.users.Update(c.Request.Context(), userID, callerID, user.UpdateInput{
		Name:        req.Name,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Address:     req.Address,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *UserHandler) DeleteUser(c *gin.Context) {
	userID := c.Param("userId")
	callerID, _ := middleware.GetUserID(c)

	if err := h.users.Delete(c.Request.Context(), userID, callerID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

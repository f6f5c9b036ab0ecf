package handler

import (
	"context"
	"net/http"

	"github.com/eaglebank/api/internal/ledger"
	"github.com/eaglebank/api/internal/middleware"
	"github.com/eaglebank/api/internal/models"
	"github.com/gin-gonic/gin"
)

// AccountOperations defines the service surface used by AccountHandler.
type AccountOperations interface {
	CreateAccount(ctx context.Context, ownerID string, in ledger.CreateAccountInput) (*models.Account, error)
	GetAccount(ctx context.Context, accountNumber, callerID string) (*models.Account, error)
	ListAccounts(ctx context.Context, callerID string) ([]models.Account, error)
	UpdateAccount(ctx context.Context, accountNumber, callerID string, in ledger.UpdateAccountInput) (*models.Account, error)
	DeleteAccount(ctx context.Context, accountNumber, callerID string) error
}

type AccountHandler struct {
	accounts AccountOperations
}

func NewAccountHandler(accounts AccountOperations) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

type CreateAccountRequest struct {
	Name        string `json:"name" validate:"required"`
	AccountType string `json:"accountType" validate:"required,oneof=personal savings"`
}

type UpdateAccountRequest struct {
	Name        *string `json:"name,omitempty"`
	AccountType *string `json:"accountType,omitempty" validate:"omitempty,oneof=personal savings"`
}

type ListAccountsResponse struct {
	Accounts []models.Account `json:"accounts"`
}

func (h *AccountHandler) CreateAccount(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if fieldErrors := middleware.ValidateRequest(req); fieldErrors != nil {
		respondValidation(c, fieldErrors)
		return
	}

	account, err := h.accounts.CreateAccount(c.Request.Context(), userID, ledger.CreateAccountInput{
		Name:        req.Name,
		AccountType: req.AccountType,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, account)
}

func (h *AccountHandler) ListAccounts(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	accounts, err := h.accounts.ListAccounts(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	if accounts == nil {
		accounts = []models.Account{}
	}
	c.JSON(http.StatusOK, ListAccountsResponse{Accounts: accounts})
}

func (h *AccountHandler) GetAccount(c *gin.Context) {
	accountNumber := c.Param("accountNumber")
	userID, _ := middleware.GetUserID(c)

	account, err := h.accounts.GetAccount(c.Request.Context(), accountNumber, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

func (h *AccountHandler) UpdateAccount(c *gin.Context) {
	accountNumber := c.Param("accountNumber")
	userID, _ := middleware.GetUserID(c)

	var req UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if fieldErrors := middleware.ValidateRequest(req); fieldErrors != nil {
		respondValidation(c, fieldErrors)
		return
	}

	account, err := h.accounts.UpdateAccount(c.Request.Context(), accountNumber, userID, ledger.UpdateAccountInput{
		Name:        req.Name,
		AccountType: req.AccountType,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

func (h *AccountHandler) DeleteAccount(c *gin.Context) {
	accountNumber := c.Param("accountNumber")
	userID, _ := middleware.GetUserID(c)

	if err := h.accounts.DeleteAccount(c.Request.Context(), accountNumber, userID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

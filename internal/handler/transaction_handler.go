package handler

import (
	"context"
	"net/http"

	"github.com/eaglebank/api/internal/ledger"
	"github.com/eaglebank/api/internal/middleware"
	"github.com/eaglebank/api/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// TransactionOperations defines the service surface used by TransactionHandler.
type TransactionOperations interface {
	CreateTransaction(ctx context.Context, accountNumber, callerID string, in ledger.CreateTransactionInput) (*models.Transaction, error)
	ListTransactions(ctx context.Context, accountNumber, callerID string) ([]models.Transaction, error)
	GetTransaction(ctx context.Context, accountNumber, transactionID, callerID string) (*models.Transaction, error)
}

type TransactionHandler struct {
	transactions TransactionOperations
}

func NewTransactionHandler(transactions TransactionOperations) *TransactionHandler {
	return &TransactionHandler{transactions: transactions}
}

// CreateTransactionRequest carries only the structural constraints. The
// per-transaction amount limit and the accepted currency are deployment
// config, enforced by the transaction service.
type CreateTransactionRequest struct {
	Amount    float64 `json:"amount" validate:"required,gt=0"`
	Currency  string  `json:"currency" validate:"required"`
	Type      string  `json:"type" validate:"required,oneof=deposit withdrawal"`
	Reference string  `json:"reference"`
}

type ListTransactionsResponse struct {
	Transactions []models.Transaction `json:"transactions"`
}

func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	accountNumber := c.Param("accountNumber")
	userID, _ := middleware.GetUserID(c)

	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if fieldErrors := middleware.ValidateRequest(req); fieldErrors != nil {
		respondValidation(c, fieldErrors)
		return
	}

	transaction, err := h.transactions.CreateTransaction(c.Request.Context(), accountNumber, userID, ledger.CreateTransactionInput{
		Type:      req.Type,
		Amount:    decimal.NewFromFloat(req.Amount),
		Currency:  req.Currency,
		Reference: req.Reference,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, transaction)
}

func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	accountNumber := c.Param("accountNumber")
	userID, _ := middleware.GetUserID(c)

	transactions, err := h.transactions.ListTransactions(c.Request.Context(), accountNumber, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	if transactions == nil {
		transactions = []models.Transaction{}
	}
	c.JSON(http.StatusOK, ListTransactionsResponse{Transactions: transactions})
}

func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	accountNumber := c.Param("accountNumber")
	transactionID := c.Param("transactionId")
	userID, _ := middleware.GetUserID(c)

	transaction, err := h.transactions.GetTransaction(c.Request.Context(), accountNumber, transactionID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, transaction)
}

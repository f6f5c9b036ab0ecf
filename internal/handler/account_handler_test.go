package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/eaglebank/api/internal/handler"
	"github.com/eaglebank/api/internal/ledger"
	"github.com/eaglebank/api/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// asUser stands in for the auth middleware and pins the caller identity.
func asUser(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userId", userID)
		c.Next()
	}
}

type stubAccounts struct {
	account *models.Account
	list    []models.Account
	err     error

	gotOwnerID string
	gotNumber  string
	gotCreate  ledger.CreateAccountInput
	gotUpdate  ledger.UpdateAccountInput
}

func (s *stubAccounts) CreateAccount(_ context.Context, ownerID string, in ledger.CreateAccountInput) (*models.Account, error) {
	s.gotOwnerID = ownerID
	s.gotCreate = in
	return s.account, s.err
}

func (s *stubAccounts) GetAccount(_ context.Context, accountNumber, callerID string) (*models.Account, error) {
	s.gotNumber = accountNumber
	s.gotOwnerID = callerID
	return s.account, s.err
}

func (s *stubAccounts) ListAccounts(_ context.Context, callerID string) ([]models.Account, error) {
	s.gotOwnerID = callerID
	return s.list, s.err
}

func (s *stubAccounts) UpdateAccount(_ context.Context, accountNumber, callerID string, in ledger.UpdateAccountInput) (*models.Account, error) {
	s.gotNumber = accountNumber
	s.gotOwnerID = callerID
	s.gotUpdate = in
	return s.account, s.err
}

func (s *stubAccounts) DeleteAccount(_ context.Context, accountNumber, callerID string) error {
	s.gotNumber = accountNumber
	s.gotOwnerID = callerID
	return s.err
}

func accountRouter(userID string, accounts handler.AccountOperations) *gin.Engine {
	router := gin.New()
	h := handler.NewAccountHandler(accounts)
	group := router.Group("/v1/accounts", asUser(userID))
	group.POST("", h.CreateAccount)
	group.GET("", h.ListAccounts)
	group.GET("/:accountNumber", h.GetAccount)
	group.PATCH("/:accountNumber", h.UpdateAccount)
	group.DELETE("/:accountNumber", h.DeleteAccount)
	return router
}

func testAccount() *models.Account {
	return &models.Account{
		AccountNumber: "01000001",
		UserID:        "usr-abc123",
		SortCode:      "10-10-10",
		Name:          "Main Account",
		AccountType:   models.AccountTypePersonal,
		Balance:       decimal.Zero,
		Currency:      "GBP",
	}
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreateAccountHandler(t *testing.T) {
	stub := &stubAccounts{account: testAccount()}
	router := accountRouter("usr-abc123", stub)

	w := doJSON(t, router, http.MethodPost, "/v1/accounts", gin.H{
		"name": "Main Account", "accountType": "personal",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, "usr-abc123", stub.gotOwnerID)
	require.Equal(t, "Main Account", stub.gotCreate.Name)

	var got models.Account
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Equal(t, "01000001", got.AccountNumber)
}

func TestCreateAccountHandlerValidation(t *testing.T) {
	tests := []struct {
		name string
		body gin.H
	}{
		{"missing name", gin.H{"accountType": "personal"}},
		{"missing type", gin.H{"name": "Main"}},
		{"bad type", gin.H{"name": "Main", "accountType": "business"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubAccounts{account: testAccount()}
			router := accountRouter("usr-abc123", stub)

			w := doJSON(t, router, http.MethodPost, "/v1/accounts", tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code)

			var resp handler.BadRequestResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			require.NotEmpty(t, resp.Details)
		})
	}
}

func TestCreateAccountHandlerMalformedBody(t *testing.T) {
	router := accountRouter("usr-abc123", &stubAccounts{})
	req := httptest.NewRequest(http.MethodPost, "/v1/accounts", bytes.NewBufferString("{not json"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetAccountHandlerStatuses(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"ok", nil, http.StatusOK},
		{"not found", ledger.ErrAccountNotFound, http.StatusNotFound},
		{"forbidden", ledger.ErrForbidden, http.StatusForbidden},
		{"bad number", ledger.Validation("invalid account number"), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubAccounts{account: testAccount(), err: tt.err}
			router := accountRouter("usr-abc123", stub)

			w := doJSON(t, router, http.MethodGet, "/v1/accounts/01000001", nil)
			require.Equal(t, tt.want, w.Code)
			require.Equal(t, "01000001", stub.gotNumber)
		})
	}
}

func TestListAccountsHandlerEmptyIsArray(t *testing.T) {
	router := accountRouter("usr-abc123", &stubAccounts{list: nil})

	w := doJSON(t, router, http.MethodGet, "/v1/accounts", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"accounts":[]}`, w.Body.String())
}

func TestUpdateAccountHandler(t *testing.T) {
	stub := &stubAccounts{account: testAccount()}
	router := accountRouter("usr-abc123", stub)

	w := doJSON(t, router, http.MethodPatch, "/v1/accounts/01000001", gin.H{"name": "Renamed"})
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, stub.gotUpdate.Name)
	require.Equal(t, "Renamed", *stub.gotUpdate.Name)
	require.Nil(t, stub.gotUpdate.AccountType)
}

func TestDeleteAccountHandlerStatuses(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"deleted", nil, http.StatusNoContent},
		{"has transactions", ledger.ErrAccountHasTransactions, http.StatusConflict},
		{"not found", ledger.ErrAccountNotFound, http.StatusNotFound},
		{"forbidden", ledger.ErrForbidden, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := accountRouter("usr-abc123", &stubAccounts{err: tt.err})

			w := doJSON(t, router, http.MethodDelete, "/v1/accounts/01000001", nil)
			require.Equal(t, tt.want, w.Code)
		})
	}
}

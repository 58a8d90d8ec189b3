package handlers

import (
	"net/http"

	"github.com/ArowuTest/mcash-backend/internal/services"
	"github.com/gin-gonic/gin"
)

// UserHandler serves the caller's own account views
type UserHandler struct {
	accounts services.AccountService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(accounts services.AccountService) *UserHandler {
	return &UserHandler{accounts: accounts}
}

// Profile handles GET /user
func (h *UserHandler) Profile(c *gin.Context) {
	identity, ok := caller(c)
	if !ok {
		return
	}
	account, err := h.accounts.Profile(c.Request.Context(), identity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

// Balance handles GET /user/balance
func (h *UserHandler) Balance(c *gin.Context) {
	identity, ok := caller(c)
	if !ok {
		return
	}
	balance, err := h.accounts.Balance(c.Request.Context(), identity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, balance)
}

// History handles GET /user/transaction/history
func (h *UserHandler) History(c *gin.Context) {
	identity, ok := caller(c)
	if !ok {
		return
	}
	transactions, err := h.accounts.History(c.Request.Context(), identity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": transactions})
}

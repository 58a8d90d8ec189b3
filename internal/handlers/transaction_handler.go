package handlers

import (
	"net/http"

	"github.com/ArowuTest/mcash-backend/internal/models"
	"github.com/ArowuTest/mcash-backend/internal/services"
	"github.com/gin-gonic/gin"
)

// TransactionHandler exposes the money movement operations
type TransactionHandler struct {
	transfers services.TransferService
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(transfers services.TransferService) *TransactionHandler {
	return &TransactionHandler{transfers: transfers}
}

// SendMoney handles POST /transaction/send-money
func (h *TransactionHandler) SendMoney(c *gin.Context) {
	identity, ok := caller(c)
	if !ok {
		return
	}
	var req models.SendMoneyRequest
	if !bindJSON(c, &req) {
		return
	}

	txn, err := h.transfers.SendMoney(c.Request.Context(), identity, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Successful", "transaction": txn})
}

// CashOut handles POST /transaction/cash-out
func (h *TransactionHandler) CashOut(c *gin.Context) {
	identity, ok := caller(c)
	if !ok {
		return
	}
	var req models.CashOutRequest
	if !bindJSON(c, &req) {
		return
	}

	txn, err := h.transfers.CashOut(c.Request.Context(), identity, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cash-out successful", "transaction": txn})
}

// CashIn handles POST /agent/cash-in
func (h *TransactionHandler) CashIn(c *gin.Context) {
	identity, ok := caller(c)
	if !ok {
		return
	}
	var req models.CashInRequest
	if !bindJSON(c, &req) {
		return
	}

	txn, err := h.transfers.CashIn(c.Request.Context(), identity, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cash-in successful", "transaction": txn})
}

package handlers

import (
	"net/http"
	"strconv"

	"github.com/ArowuTest/mcash-backend/internal/apperrors"
	"github.com/ArowuTest/mcash-backend/internal/models"
	"github.com/ArowuTest/mcash-backend/internal/services"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AdminHandler serves the admin console endpoints
type AdminHandler struct {
	accounts  services.AccountService
	approvals services.AgentApprovalService
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(accounts services.AccountService, approvals services.AgentApprovalService) *AdminHandler {
	return &AdminHandler{accounts: accounts, approvals: approvals}
}

// Users handles GET /admin/users
func (h *AdminHandler) Users(c *gin.Context) {
	identity, ok := caller(c)
	if !ok {
		return
	}
	users, err := h.accounts.ListAccounts(c.Request.Context(), identity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// Transactions handles GET /admin/transactionhistory?page=&limit=
func (h *AdminHandler) Transactions(c *gin.Context) {
	identity, ok := caller(c)
	if !ok {
		return
	}
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		respondError(c, apperrors.Validation("page must be a number"))
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil {
		respondError(c, apperrors.Validation("limit must be a number"))
		return
	}

	transactions, err := h.accounts.AllTransactions(c.Request.Context(), identity, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": transactions, "page": page, "limit": limit})
}

// AgentApprovals handles GET /admin/agent-approvals
func (h *AdminHandler) AgentApprovals(c *gin.Context) {
	identity, ok := caller(c)
	if !ok {
		return
	}
	agents, err := h.approvals.ListPending(c.Request.Context(), identity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"agents": agents})
}

// DecideAgent handles PUT /admin/agent-approve/:email
func (h *AdminHandler) DecideAgent(c *gin.Context) {
	identity, ok := caller(c)
	if !ok {
		return
	}
	var req models.DecisionRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.approvals.Decide(c.Request.Context(), identity, c.Param("email"), *req.Approve); err != nil {
		respondError(c, err)
		return
	}
	message := "Agent rejected and removed"
	if *req.Approve {
		message = "Agent approved"
	}
	c.JSON(http.StatusOK, gin.H{"message": message})
}

// BlockAccount handles PUT /admin/users/:id/block
func (h *AdminHandler) BlockAccount(c *gin.Context) {
	identity, ok := caller(c)
	if !ok {
		return
	}
	accountID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		respondError(c, apperrors.Validation("invalid account id"))
		return
	}
	var req models.BlockRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.accounts.SetBlocked(c.Request.Context(), identity, accountID, *req.Blocked); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Account updated", "blocked": *req.Blocked})
}

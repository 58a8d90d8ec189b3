package handlers

import (
	"net/http"

	"github.com/ArowuTest/mcash-backend/internal/models"
	"github.com/ArowuTest/mcash-backend/internal/services"
	"github.com/gin-gonic/gin"
)

// RechargeHandler handles agent recharge requests and admin decisions
type RechargeHandler struct {
	recharges services.RechargeService
}

// NewRechargeHandler creates a new RechargeHandler
func NewRechargeHandler(recharges services.RechargeService) *RechargeHandler {
	return &RechargeHandler{recharges: recharges}
}

// RequestMoney handles POST /agent/request-money
func (h *RechargeHandler) RequestMoney(c *gin.Context) {
	identity, ok := caller(c)
	if !ok {
		return
	}
	var req models.RechargeCreateRequest
	if !bindJSON(c, &req) {
		return
	}

	request, err := h.recharges.Request(c.Request.Context(), identity, req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Request submitted", "rechargeRequest": request})
}

// MyRequests handles GET /agent/requests
func (h *RechargeHandler) MyRequests(c *gin.Context) {
	identity, ok := caller(c)
	if !ok {
		return
	}
	requests, err := h.recharges.ListMine(c.Request.Context(), identity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

// ListPending handles GET /recharge
func (h *RechargeHandler) ListPending(c *gin.Context) {
	identity, ok := caller(c)
	if !ok {
		return
	}
	requests, err := h.recharges.ListPending(c.Request.Context(), identity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

// Decide handles PUT /recharge/:requestId
func (h *RechargeHandler) Decide(c *gin.Context) {
	identity, ok := caller(c)
	if !ok {
		return
	}
	var req models.DecisionRequest
	if !bindJSON(c, &req) {
		return
	}

	request, err := h.recharges.Decide(c.Request.Context(), identity, c.Param("requestId"), *req.Approve)
	if err != nil {
		respondError(c, err)
		return
	}
	message := "Request rejected"
	if request.Status == models.RechargeApproved {
		message = "Request approved"
	}
	c.JSON(http.StatusOK, gin.H{"message": message, "rechargeRequest": request})
}

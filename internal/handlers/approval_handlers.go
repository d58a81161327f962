package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// --- Admin: Tradesman Approval ---

// PendingTradesmen lists tradesmen awaiting approval.
func (h *Handlers) PendingTradesmen(c *gin.Context) {
	page, err := h.Approvals.Pending(c.Request.Context(), pageParams(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	respondPage(c, "Pending tradesmen fetched", page)
}

type approvalInput struct {
	Note string `json:"note"`
}

// ApproveTradesman approves a tradesman. The body and its note are optional.
func (h *Handlers) ApproveTradesman(c *gin.Context) {
	h.decide(c, true)
}

// RejectTradesman rejects a tradesman. The body and its note are optional.
func (h *Handlers) RejectTradesman(c *gin.Context) {
	h.decide(c, false)
}

func (h *Handlers) decide(c *gin.Context, approve bool) {
	userID, err := paramID(c, "userId")
	if err != nil {
		h.fail(c, err)
		return
	}
	var input approvalInput
	if err := bindOptionalJSON(c, &input); err != nil {
		badInput(c, err)
		return
	}

	decide, message := h.Approvals.Reject, "Tradesman rejected"
	if approve {
		decide, message = h.Approvals.Approve, "Tradesman approved"
	}
	result, err := decide(c.Request.Context(), userID, input.Note)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, message, result)
}

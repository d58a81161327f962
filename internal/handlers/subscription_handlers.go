package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// --- Subscription Handlers ---

// GetSubscriptionPlans is public.
func (h *Handlers) GetSubscriptionPlans(c *gin.Context) {
	plans, err := h.Quota.Plans(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Plans fetched", plans)
}

// MySubscription returns the caller's active subscription and its plan.
func (h *Handlers) MySubscription(c *gin.Context) {
	actor, err := currentActor(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	sub, err := h.Quota.Current(c.Request.Context(), actor.ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Subscription fetched", sub)
}

type assignPlanInput struct {
	PlanID int64 `json:"planId" binding:"required"`
}

// AssignSubscription (admin) starts a subscription for a user.
func (h *Handlers) AssignSubscription(c *gin.Context) {
	// 1. --- Parse Target User ---
	userID, err := paramID(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}

	// 2. --- Bind Input ---
	var input assignPlanInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badInput(c, err)
		return
	}

	// 3. --- Assign ---
	sub, err := h.Quota.Assign(c.Request.Context(), userID, input.PlanID)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, "Subscription assigned", sub)
}

// CancelSubscription (admin) cancels a user's active subscription.
func (h *Handlers) CancelSubscription(c *gin.Context) {
	userID, err := paramID(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.Quota.Cancel(c.Request.Context(), userID); err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Subscription cancelled", nil)
}

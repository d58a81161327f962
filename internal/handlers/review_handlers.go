package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type reviewInput struct {
	HireID  int64   `json:"hireId" binding:"required"`
	Rating  int     `json:"rating"`
	Comment *string `json:"comment"`
}

// AddReview records the actor's review of a completed hire.
func (h *Handlers) AddReview(c *gin.Context) {
	actor, err := currentActor(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	var input reviewInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badInput(c, err)
		return
	}

	review, err := h.Reviews.AddReview(c.Request.Context(), actor, input.HireID, input.Rating, input.Comment)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, "Review submitted", review)
}

// PendingReviews lists completed hires the actor still has to review.
func (h *Handlers) PendingReviews(c *gin.Context) {
	actor, err := currentActor(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	hires, err := h.Reviews.Pending(c.Request.Context(), actor)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Pending reviews fetched", hires)
}

// TradesmanReviews is public: the reviews a tradesman received and the average.
func (h *Handlers) TradesmanReviews(c *gin.Context) {
	id, err := paramID(c, "tradesmanId")
	if err != nil {
		h.fail(c, err)
		return
	}
	received, err := h.Reviews.ReviewsFor(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Reviews fetched", received)
}

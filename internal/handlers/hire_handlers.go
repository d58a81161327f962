package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type hireRequestInput struct {
	TradesmanID    int64   `json:"tradesmanId"`
	JobDescription *string `json:"jobDescription"`
}

// RequestHire lets a client ask a tradesman for a job.
func (h *Handlers) RequestHire(c *gin.Context) {
	// 1. --- Resolve Actor ---
	actor, err := currentActor(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	// 2. --- Bind Input ---
	var input hireRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badInput(c, err)
		return
	}

	// 3. --- Create the pending hire ---
	hire, err := h.Hires.RequestHire(c.Request.Context(), actor, input.TradesmanID, input.JobDescription)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, "Hire request sent", hire)
}

type hireRespondInput struct {
	HireID int64  `json:"hireId" binding:"required"`
	Action string `json:"action" binding:"required,oneof=accept reject"`
}

// RespondHire lets the tradesman accept or reject a pending hire.
func (h *Handlers) RespondHire(c *gin.Context) {
	actor, err := currentActor(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	var input hireRespondInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badInput(c, err)
		return
	}

	hire, err := h.Hires.RespondHire(c.Request.Context(), actor, input.HireID, input.Action)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Hire "+string(hire.Status), hire)
}

type hireIDInput struct {
	HireID int64 `json:"hireId" binding:"required"`
}

// RequestCompletion is the tradesman's half of the completion handshake.
func (h *Handlers) RequestCompletion(c *gin.Context) {
	actor, err := currentActor(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	var input hireIDInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badInput(c, err)
		return
	}

	hire, err := h.Hires.RequestCompletion(c.Request.Context(), actor, input.HireID)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Completion requested", hire)
}

type confirmInput struct {
	HireID  int64 `json:"hireId" binding:"required"`
	Confirm *bool `json:"confirm"` // omitted means confirm
}

// ConfirmCompletion is the client's half: confirm, or send the job back.
func (h *Handlers) ConfirmCompletion(c *gin.Context) {
	actor, err := currentActor(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	var input confirmInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badInput(c, err)
		return
	}
	confirm := input.Confirm == nil || *input.Confirm

	hire, err := h.Hires.ConfirmCompletion(c.Request.Context(), actor, input.HireID, confirm)
	if err != nil {
		h.fail(c, err)
		return
	}
	message := "Hire marked as completed"
	if !confirm {
		message = "Completion declined"
	}
	respond(c, http.StatusOK, message, hire)
}

// CancelHire lets either party call off an accepted job.
func (h *Handlers) CancelHire(c *gin.Context) {
	actor, err := currentActor(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	var input hireIDInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badInput(c, err)
		return
	}

	hire, err := h.Hires.CancelHire(c.Request.Context(), actor, input.HireID)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Hire cancelled", hire)
}

// PendingCompletion lists the client's jobs waiting on their confirmation.
func (h *Handlers) PendingCompletion(c *gin.Context) {
	actor, err := currentActor(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	hires, err := h.Hires.PendingCompletion(c.Request.Context(), actor)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Pending completions fetched", hires)
}

// HireStatus returns the latest hire between the actor and another user, or
// null when they have never worked together.
func (h *Handlers) HireStatus(c *gin.Context) {
	actor, err := currentActor(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	otherID, err := paramID(c, "userId")
	if err != nil {
		h.fail(c, err)
		return
	}

	hire, err := h.Hires.StatusWith(c.Request.Context(), actor, otherID)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Hire status fetched", hire)
}

// MyJobs lists the actor's hires. ?filter= is all, active or completed.
func (h *Handlers) MyJobs(c *gin.Context) {
	actor, err := currentActor(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	page, err := h.Hires.MyJobs(c.Request.Context(), actor, c.DefaultQuery("filter", "all"), pageParams(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	respondPage(c, "Jobs fetched", page)
}

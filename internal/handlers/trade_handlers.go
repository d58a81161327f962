package handlers

import (
	"net/http"

	"github.com/01moynul/tradelink-golang/internal/trades"
	"github.com/gin-gonic/gin"
)

// ListTrades returns the active trade types. Supports ?search= and ?category=.
func (h *Handlers) ListTrades(c *gin.Context) {
	list, err := h.Trades.List(c.Request.Context(), c.Query("search"), c.Query("category"))
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Trades fetched", list)
}

type createTradeInput struct {
	Name     string `json:"name" binding:"required"`
	Category string `json:"category"`
}

// CreateTrade is admin only.
func (h *Handlers) CreateTrade(c *gin.Context) {
	actor, err := currentActor(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	var input createTradeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badInput(c, err)
		return
	}
	trade, err := h.Trades.Create(c.Request.Context(), actor, input.Name, input.Category)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, "Trade created", trade)
}

// UpdateTradesmanDetails sets the tradesman's trade, business name and bio.
func (h *Handlers) UpdateTradesmanDetails(c *gin.Context) {
	actor, err := currentActor(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	var input trades.DetailsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badInput(c, err)
		return
	}
	details, err := h.Trades.SetTradesmanTrade(c.Request.Context(), actor, input)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Tradesman details updated", details)
}

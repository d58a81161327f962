package handlers

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/01moynul/tradelink-golang/internal/apperr"
	"github.com/01moynul/tradelink-golang/internal/geo"
	"github.com/01moynul/tradelink-golang/internal/models"
	"github.com/01moynul/tradelink-golang/internal/pagination"
	"github.com/01moynul/tradelink-golang/internal/travel"
	"github.com/gin-gonic/gin"
)

const dateLayout = "2006-01-02"

// travelPlanInput is the JSON body for creating or updating a plan. Dates are
// either YYYY-MM-DD or RFC 3339.
type travelPlanInput struct {
	CurrentLocation *string                  `json:"currentLocation"`
	StartLocation   *string                  `json:"startLocation"`
	Destination     *string                  `json:"destination"`
	PriceRange      *string                  `json:"priceRange"`
	AllowStops      *bool                    `json:"allowStops"`
	Stops           *models.Stops            `json:"stops"`
	StartDate       *string                  `json:"startDate"`
	EndDate         *string                  `json:"endDate"`
	Status          *models.TravelPlanStatus `json:"status"`
}

func (in travelPlanInput) toPlanInput() (travel.PlanInput, error) {
	out := travel.PlanInput{
		CurrentLocation: in.CurrentLocation,
		StartLocation:   in.StartLocation,
		Destination:     in.Destination,
		PriceRange:      in.PriceRange,
		AllowStops:      in.AllowStops,
		Stops:           in.Stops,
		Status:          in.Status,
	}
	var err error
	if out.StartDate, err = parseDate("startDate", in.StartDate, false); err != nil {
		return out, err
	}
	if out.EndDate, err = parseDate("endDate", in.EndDate, true); err != nil {
		return out, err
	}
	return out, nil
}

// parseDate reads a plan date. A bare date means the start of that day (UTC),
// or its last second when endOfDay is set.
func parseDate(field string, raw *string, endOfDay bool) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(dateLayout, *raw); err == nil {
		if endOfDay {
			t = t.Add(24*time.Hour - time.Second)
		}
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, *raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be YYYY-MM-DD or RFC 3339", apperr.ErrBadRequest, field)
	}
	return &t, nil
}

// CreateTravelPlan publishes a new travel plan for the tradesman.
func (h *Handlers) CreateTravelPlan(c *gin.Context) {
	// 1. --- Resolve Actor ---
	actor, err := currentActor(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	// 2. --- Bind Input ---
	var body travelPlanInput
	if err := c.ShouldBindJSON(&body); err != nil {
		badInput(c, err)
		return
	}
	input, err := body.toPlanInput()
	if err != nil {
		h.fail(c, err)
		return
	}

	// 3. --- Create under quota and overlap rules ---
	plan, err := h.Travel.CreatePlan(c.Request.Context(), actor, input)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, "Travel plan created", plan)
}

// MyTravelPlans lists the tradesman's own plans.
func (h *Handlers) MyTravelPlans(c *gin.Context) {
	actor, err := currentActor(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	page, err := h.Travel.ListMine(c.Request.Context(), actor, pageParams(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	respondPage(c, "My travel plans fetched", page)
}

// UpdateTravelPlan applies a partial update to one of the tradesman's plans.
func (h *Handlers) UpdateTravelPlan(c *gin.Context) {
	actor, err := currentActor(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	id, err := paramID(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	var body travelPlanInput
	if err := c.ShouldBindJSON(&body); err != nil {
		badInput(c, err)
		return
	}
	input, err := body.toPlanInput()
	if err != nil {
		h.fail(c, err)
		return
	}

	plan, err := h.Travel.UpdatePlan(c.Request.Context(), actor, id, input)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Travel plan updated", plan)
}

// DeleteTravelPlan removes one of the tradesman's plans.
func (h *Handlers) DeleteTravelPlan(c *gin.Context) {
	actor, err := currentActor(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	id, err := paramID(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.Travel.DeletePlan(c.Request.Context(), actor, id); err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Travel plan deleted", nil)
}

// filterCriteria reads the tradesman search query:
// tradeType, lat, lng, radius, rating, verified=true, availability=today.
func filterCriteria(c *gin.Context) (travel.FilterCriteria, error) {
	fc := travel.FilterCriteria{
		TradeTypes:     travel.ParseTradeTypes(c.Query("tradeType")),
		VerifiedOnly:   c.Query("verified") == "true",
		AvailableToday: c.Query("availability") == "today",
	}

	lat, lng := c.Query("lat"), c.Query("lng")
	switch {
	case lat != "" && lng != "":
		p, err := geo.ParsePoint(lat + "," + lng)
		if err != nil {
			return fc, fmt.Errorf("%w: %v", apperr.ErrBadRequest, err)
		}
		fc.Point = &p
	case lat != "" || lng != "":
		return fc, fmt.Errorf("%w: lat and lng must be given together", apperr.ErrBadRequest)
	}

	if raw := c.Query("radius"); raw != "" {
		r, err := strconv.ParseFloat(raw, 64)
		if err != nil || !finiteFloat(r) || r <= 0 {
			return fc, fmt.Errorf("%w: radius must be a positive number", apperr.ErrBadRequest)
		}
		fc.RadiusKm = r
	}
	if raw := c.Query("rating"); raw != "" {
		r, err := strconv.ParseFloat(raw, 64)
		if err != nil || !finiteFloat(r) || r < 0 || r > 5 {
			return fc, fmt.Errorf("%w: rating must be a number between 0 and 5", apperr.ErrBadRequest)
		}
		fc.MinRating = &r
	}
	return fc, nil
}

// finiteFloat rejects the NaN and Inf spellings strconv.ParseFloat accepts.
func finiteFloat(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// FilterTradesmen is the public tradesman search.
func (h *Handlers) FilterTradesmen(c *gin.Context) {
	criteria, err := filterCriteria(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	matches, err := h.Travel.FilterTradesmen(c.Request.Context(), criteria)
	if err != nil {
		h.fail(c, err)
		return
	}
	respondPage(c, "Tradesmen fetched", pagination.Slice(matches, pageParams(c)))
}

// TradesmanProfile is the public profile: details, rating and the current or
// next travel plan.
func (h *Handlers) TradesmanProfile(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	profile, err := h.Travel.TradesmanProfile(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Tradesman profile fetched", profile)
}

package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/01moynul/tradelink-golang/internal/models"
)

const travelPlanColumns = `id, tradesman_id, current_location, start_location, destination, price_range,
	allow_stops, stops, start_date, end_date, status, created_at, updated_at`

func scanTravelPlan(row rowScanner) (*models.TravelPlan, error) {
	var (
		p     models.TravelPlan
		stops []byte
	)
	err := row.Scan(&p.ID, &p.TradesmanID, &p.CurrentLocation, &p.StartLocation, &p.Destination, &p.PriceRange,
		&p.AllowStops, &stops, &p.StartDate, &p.EndDate, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Stops = models.Stops{}
	if len(stops) > 0 {
		if err := json.Unmarshal(stops, &p.Stops); err != nil {
			return nil, fmt.Errorf("decode stops of travel plan %d: %w", p.ID, err)
		}
	}
	return &p, nil
}

func encodeStops(stops models.Stops) ([]byte, error) {
	if stops == nil {
		stops = models.Stops{}
	}
	return json.Marshal(stops)
}

func (g *Gateway) CreateTravelPlan(ctx context.Context, p *models.TravelPlan) error {
	stops, err := encodeStops(p.Stops)
	if err != nil {
		return err
	}
	res, err := g.q(ctx).ExecContext(ctx, `
		INSERT INTO travel_plans
		(tradesman_id, current_location, start_location, destination, price_range, allow_stops, stops,
		 start_date, end_date, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.TradesmanID, p.CurrentLocation, p.StartLocation, p.Destination, p.PriceRange, p.AllowStops, stops,
		p.StartDate, p.EndDate, p.Status, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return mapErr(err, "travel plan")
	}
	p.ID, err = res.LastInsertId()
	return err
}

func (g *Gateway) GetTravelPlan(ctx context.Context, id int64) (*models.TravelPlan, error) {
	row := g.q(ctx).QueryRowContext(ctx, "SELECT "+travelPlanColumns+" FROM travel_plans WHERE id = ?", id)
	p, err := scanTravelPlan(row)
	if err != nil {
		return nil, mapErr(err, "travel plan")
	}
	return p, nil
}

func (g *Gateway) UpdateTravelPlan(ctx context.Context, p *models.TravelPlan) error {
	stops, err := encodeStops(p.Stops)
	if err != nil {
		return err
	}
	res, err := g.q(ctx).ExecContext(ctx, `
		UPDATE travel_plans SET
			current_location = ?, start_location = ?, destination = ?, price_range = ?,
			allow_stops = ?, stops = ?, start_date = ?, end_date = ?, status = ?, updated_at = ?
		WHERE id = ?`,
		p.CurrentLocation, p.StartLocation, p.Destination, p.PriceRange,
		p.AllowStops, stops, p.StartDate, p.EndDate, p.Status, p.UpdatedAt, p.ID)
	if err != nil {
		return mapErr(err, "travel plan")
	}
	return g.requireRow(ctx, res, "SELECT COUNT(*) FROM travel_plans WHERE id = ?", p.ID, "travel plan")
}

func (g *Gateway) DeleteTravelPlan(ctx context.Context, id int64) error {
	res, err := g.q(ctx).ExecContext(ctx, "DELETE FROM travel_plans WHERE id = ?", id)
	if err != nil {
		return err
	}
	return g.requireRow(ctx, res, "SELECT COUNT(*) FROM travel_plans WHERE id = ?", id, "travel plan")
}

// ListTravelPlansByTradesman returns one page of a tradesman's plans, newest
// departure first, plus the total.
func (g *Gateway) ListTravelPlansByTradesman(ctx context.Context, tradesmanID int64, limit, offset int) ([]models.TravelPlan, int, error) {
	var total int
	err := g.q(ctx).QueryRowContext(ctx, "SELECT COUNT(*) FROM travel_plans WHERE tradesman_id = ?", tradesmanID).
		Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := g.q(ctx).QueryContext(ctx, `
		SELECT `+travelPlanColumns+` FROM travel_plans
		WHERE tradesman_id = ?
		ORDER BY start_date DESC, id DESC
		LIMIT ? OFFSET ?`, tradesmanID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	plans := []models.TravelPlan{}
	for rows.Next() {
		p, err := scanTravelPlan(rows)
		if err != nil {
			return nil, 0, err
		}
		plans = append(plans, *p)
	}
	return plans, total, rows.Err()
}

// CountOpenTravelPlans counts a tradesman's open plans, ignoring excludeID.
func (g *Gateway) CountOpenTravelPlans(ctx context.Context, tradesmanID, excludeID int64) (int, error) {
	var n int
	err := g.q(ctx).QueryRowContext(ctx,
		"SELECT COUNT(*) FROM travel_plans WHERE tradesman_id = ? AND status = 'open' AND id <> ?",
		tradesmanID, excludeID).Scan(&n)
	return n, err
}

// FindOverlappingOpenPlan returns an open plan whose range intersects
// [start, end], or nil.
func (g *Gateway) FindOverlappingOpenPlan(ctx context.Context, tradesmanID int64, start, end time.Time, excludeID int64) (*models.TravelPlan, error) {
	row := g.q(ctx).QueryRowContext(ctx, `
		SELECT `+travelPlanColumns+` FROM travel_plans
		WHERE tradesman_id = ? AND status = 'open' AND id <> ?
		AND start_date <= ? AND end_date >= ?
		ORDER BY start_date
		LIMIT 1`, tradesmanID, excludeID, end, start)
	p, err := scanTravelPlan(row)
	return mapFind(p, err, "travel plan")
}

// NextOpenTravelPlan returns the earliest open plan that has not ended by now, or nil.
func (g *Gateway) NextOpenTravelPlan(ctx context.Context, tradesmanID int64, now time.Time) (*models.TravelPlan, error) {
	row := g.q(ctx).QueryRowContext(ctx, `
		SELECT `+travelPlanColumns+` FROM travel_plans
		WHERE tradesman_id = ? AND status = 'open' AND end_date >= ?
		ORDER BY start_date, id
		LIMIT 1`, tradesmanID, now)
	p, err := scanTravelPlan(row)
	return mapFind(p, err, "travel plan")
}

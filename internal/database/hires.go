package database

import (
	"context"
	"strings"
	"time"

	"github.com/01moynul/tradelink-golang/internal/models"
)

const hireColumns = "id, client_id, tradesman_id, status, job_description, created_at, updated_at"

func scanHire(row rowScanner) (*models.Hire, error) {
	var h models.Hire
	if err := row.Scan(&h.ID, &h.ClientID, &h.TradesmanID, &h.Status, &h.JobDescription, &h.CreatedAt, &h.UpdatedAt); err != nil {
		return nil, err
	}
	return &h, nil
}

// CreateHire inserts a hire. A second pending hire for the same pair is
// rejected by uq_hires_pending_pair and surfaces as ErrConflict.
func (g *Gateway) CreateHire(ctx context.Context, h *models.Hire) error {
	res, err := g.q(ctx).ExecContext(ctx, `
		INSERT INTO hires (client_id, tradesman_id, status, job_description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		h.ClientID, h.TradesmanID, h.Status, h.JobDescription, h.CreatedAt, h.UpdatedAt)
	if err != nil {
		return mapErr(err, "pending hire request")
	}
	h.ID, err = res.LastInsertId()
	return err
}

func (g *Gateway) GetHire(ctx context.Context, id int64) (*models.Hire, error) {
	h, err := scanHire(g.q(ctx).QueryRowContext(ctx, "SELECT "+hireColumns+" FROM hires WHERE id = ?", id))
	if err != nil {
		return nil, mapErr(err, "hire")
	}
	return h, nil
}

// LockHire reads the hire with a row lock held until the transaction ends.
func (g *Gateway) LockHire(ctx context.Context, id int64) (*models.Hire, error) {
	h, err := scanHire(g.q(ctx).QueryRowContext(ctx, "SELECT "+hireColumns+" FROM hires WHERE id = ? FOR UPDATE", id))
	if err != nil {
		return nil, mapErr(err, "hire")
	}
	return h, nil
}

// FindPendingHire returns the pending hire between the pair, or nil.
func (g *Gateway) FindPendingHire(ctx context.Context, clientID, tradesmanID int64) (*models.Hire, error) {
	h, err := scanHire(g.q(ctx).QueryRowContext(ctx, `
		SELECT `+hireColumns+` FROM hires
		WHERE client_id = ? AND tradesman_id = ? AND status = 'pending'
		LIMIT 1`, clientID, tradesmanID))
	return mapFind(h, err, "hire")
}

func (g *Gateway) UpdateHireStatus(ctx context.Context, id int64, status models.HireStatus, at time.Time) error {
	res, err := g.q(ctx).ExecContext(ctx,
		"UPDATE hires SET status = ?, updated_at = ? WHERE id = ?", status, at, id)
	if err != nil {
		return mapErr(err, "pending hire request")
	}
	return g.requireRow(ctx, res, "SELECT COUNT(*) FROM hires WHERE id = ?", id, "hire")
}

// LatestHireBetween returns the most recent hire between two users in either
// direction, or nil.
func (g *Gateway) LatestHireBetween(ctx context.Context, a, b int64) (*models.Hire, error) {
	h, err := scanHire(g.q(ctx).QueryRowContext(ctx, `
		SELECT `+hireColumns+` FROM hires
		WHERE (client_id = ? AND tradesman_id = ?) OR (client_id = ? AND tradesman_id = ?)
		ORDER BY created_at DESC, id DESC
		LIMIT 1`, a, b, b, a))
	return mapFind(h, err, "hire")
}

// ListHires returns hires matching q, newest first, plus the total match count.
func (g *Gateway) ListHires(ctx context.Context, q models.HireQuery) ([]models.Hire, int, error) {
	var (
		where []string
		args  []any
	)
	if q.ClientID != 0 {
		where = append(where, "client_id = ?")
		args = append(args, q.ClientID)
	}
	if q.TradesmanID != 0 {
		where = append(where, "tradesman_id = ?")
		args = append(args, q.TradesmanID)
	}
	if len(q.Statuses) > 0 {
		where = append(where, "status IN ("+placeholders(len(q.Statuses))+")")
		for _, s := range q.Statuses {
			args = append(args, s)
		}
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := g.q(ctx).QueryRowContext(ctx, "SELECT COUNT(*) FROM hires"+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := "SELECT " + hireColumns + " FROM hires" + clause + " ORDER BY created_at DESC, id DESC"
	if q.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, q.Limit, q.Offset)
	}
	rows, err := g.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	hires := []models.Hire{}
	for rows.Next() {
		h, err := scanHire(rows)
		if err != nil {
			return nil, 0, err
		}
		hires = append(hires, *h)
	}
	return hires, total, rows.Err()
}

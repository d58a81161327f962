package database

import (
	"context"
	"strings"

	"github.com/01moynul/tradelink-golang/internal/models"
)

const tradeTypeColumns = "id, name, slug, category, is_active, created_at"

func scanTradeType(row rowScanner) (*models.TradeType, error) {
	var t models.TradeType
	if err := row.Scan(&t.ID, &t.Name, &t.Slug, &t.Category, &t.IsActive, &t.CreatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTradeTypes returns active trade types, optionally filtered by a name
// search and an exact category.
func (g *Gateway) ListTradeTypes(ctx context.Context, q models.TradeTypeQuery) ([]models.TradeType, error) {
	where := []string{"is_active = TRUE"}
	var args []any
	if q.Search != "" {
		where = append(where, "name LIKE ?")
		args = append(args, "%"+q.Search+"%")
	}
	if q.Category != "" {
		where = append(where, "category = ?")
		args = append(args, q.Category)
	}

	rows, err := g.q(ctx).QueryContext(ctx,
		"SELECT "+tradeTypeColumns+" FROM trade_types WHERE "+strings.Join(where, " AND ")+" ORDER BY name", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.TradeType{}
	for rows.Next() {
		t, err := scanTradeType(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (g *Gateway) CreateTradeType(ctx context.Context, t *models.TradeType) error {
	res, err := g.q(ctx).ExecContext(ctx,
		"INSERT INTO trade_types (name, slug, category, is_active, created_at) VALUES (?, ?, ?, ?, ?)",
		t.Name, t.Slug, t.Category, t.IsActive, t.CreatedAt)
	if err != nil {
		return mapErr(err, "trade type")
	}
	t.ID, err = res.LastInsertId()
	return err
}

func (g *Gateway) GetTradeTypeBySlug(ctx context.Context, slug string) (*models.TradeType, error) {
	t, err := scanTradeType(g.q(ctx).QueryRowContext(ctx,
		"SELECT "+tradeTypeColumns+" FROM trade_types WHERE slug = ?", slug))
	if err != nil {
		return nil, mapErr(err, "trade type")
	}
	return t, nil
}

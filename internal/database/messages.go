package database

import (
	"context"

	"github.com/01moynul/tradelink-golang/internal/models"
)

const messageColumns = "id, sender_id, receiver_id, message, is_read, created_at"

func (g *Gateway) queryMessages(ctx context.Context, query string, args ...any) ([]models.Message, error) {
	rows, err := g.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Message, &m.IsRead, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (g *Gateway) CreateMessage(ctx context.Context, m *models.Message) error {
	res, err := g.q(ctx).ExecContext(ctx,
		"INSERT INTO messages (sender_id, receiver_id, message, is_read, created_at) VALUES (?, ?, ?, ?, ?)",
		m.SenderID, m.ReceiverID, m.Message, m.IsRead, m.CreatedAt)
	if err != nil {
		return mapErr(err, "message")
	}
	m.ID, err = res.LastInsertId()
	return err
}

// ListConversation returns every message between a and b, oldest first.
func (g *Gateway) ListConversation(ctx context.Context, a, b int64) ([]models.Message, error) {
	return g.queryMessages(ctx, `
		SELECT `+messageColumns+` FROM messages
		WHERE (sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)
		ORDER BY created_at, id`, a, b, b, a)
}

// ListMessagesFor returns every message the user sent or received, oldest first.
func (g *Gateway) ListMessagesFor(ctx context.Context, userID int64) ([]models.Message, error) {
	return g.queryMessages(ctx, `
		SELECT `+messageColumns+` FROM messages
		WHERE sender_id = ? OR receiver_id = ?
		ORDER BY created_at, id`, userID, userID)
}

// MarkConversationRead marks unread messages from sender to receiver as read
// and returns how many changed.
func (g *Gateway) MarkConversationRead(ctx context.Context, senderID, receiverID int64) (int64, error) {
	res, err := g.q(ctx).ExecContext(ctx,
		"UPDATE messages SET is_read = TRUE WHERE sender_id = ? AND receiver_id = ? AND is_read = FALSE",
		senderID, receiverID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Package chat stores direct messages between users and builds conversation
// summaries.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/01moynul/tradelink-golang/internal/apperr"
	"github.com/01moynul/tradelink-golang/internal/models"
)

// MaxMessageLength bounds a single message in bytes.
const MaxMessageLength = 4000

// Store is the persistence for messages.
type Store interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
	ListUsersByIDs(ctx context.Context, ids []int64) ([]models.User, error)
	CreateMessage(ctx context.Context, m *models.Message) error
	ListConversation(ctx context.Context, a, b int64) ([]models.Message, error)
	ListMessagesFor(ctx context.Context, userID int64) ([]models.Message, error)
	MarkConversationRead(ctx context.Context, senderID, receiverID int64) (int64, error)
}

// Aggregator sends messages and builds conversation views.
type Aggregator struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// NewAggregator creates an Aggregator backed by store.
func NewAggregator(store Store, logger *slog.Logger) *Aggregator {
	return &Aggregator{store: store, logger: logger, now: time.Now}
}

// Send stores a message from the actor to receiverID.
func (a *Aggregator) Send(ctx context.Context, actor models.Actor, receiverID int64, text string) (*models.Message, error) {
	text = strings.TrimSpace(text)
	switch {
	case receiverID <= 0 || text == "":
		return nil, fmt.Errorf("%w: receiverId and message are required", apperr.ErrBadRequest)
	case receiverID == actor.ID:
		return nil, fmt.Errorf("%w: you cannot message yourself", apperr.ErrBadRequest)
	case len(text) > MaxMessageLength:
		return nil, fmt.Errorf("%w: message is longer than %d characters", apperr.ErrBadRequest, MaxMessageLength)
	}
	if _, err := a.store.GetUser(ctx, receiverID); err != nil {
		return nil, err
	}

	m := &models.Message{
		SenderID:   actor.ID,
		ReceiverID: receiverID,
		Message:    text,
		CreatedAt:  a.now(),
	}
	if err := a.store.CreateMessage(ctx, m); err != nil {
		return nil, err
	}
	a.logger.DebugContext(ctx, "message sent", "message_id", m.ID, "sender_id", actor.ID, "receiver_id", receiverID)
	return m, nil
}

// ConversationMessage is a message annotated for the viewing user.
type ConversationMessage struct {
	models.Message
	IsMine bool `json:"isMine"`
}

// Conversation returns every message between the actor and otherID, oldest first.
func (a *Aggregator) Conversation(ctx context.Context, actor models.Actor, otherID int64) ([]ConversationMessage, error) {
	if otherID <= 0 {
		return nil, fmt.Errorf("%w: invalid user id", apperr.ErrBadRequest)
	}
	msgs, err := a.store.ListConversation(ctx, actor.ID, otherID)
	if err != nil {
		return nil, err
	}
	out := make([]ConversationMessage, len(msgs))
	for i, m := range msgs {
		out[i] = ConversationMessage{Message: m, IsMine: m.SenderID == actor.ID}
	}
	return out, nil
}

// Summary is one entry of the actor's chat list.
type Summary struct {
	WithUser    models.PublicProfile `json:"withUser"`
	LastMessage models.Message       `json:"lastMessage"`
	UnreadCount int                  `json:"unreadCount"`
	Messages    []models.Message     `json:"messages"`
}

// ChatList groups the actor's messages by counterpart. Each group keeps its
// messages oldest first; groups are ordered by their last message, newest first.
func (a *Aggregator) ChatList(ctx context.Context, actor models.Actor) ([]Summary, error) {
	msgs, err := a.store.ListMessagesFor(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(msgs, func(i, j int) bool { return before(msgs[i], msgs[j]) })

	groups := map[int64]*Summary{}
	var order []int64
	for _, m := range msgs {
		other := m.Counterpart(actor.ID)
		g, ok := groups[other]
		if !ok {
			g = &Summary{WithUser: models.PublicProfile{ID: other}, Messages: []models.Message{}}
			groups[other] = g
			order = append(order, other)
		}
		g.Messages = append(g.Messages, m)
		g.LastMessage = m
		if m.ReceiverID == actor.ID && !m.IsRead {
			g.UnreadCount++
		}
	}

	users, err := a.store.ListUsersByIDs(ctx, order)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if g, ok := groups[u.ID]; ok {
			g.WithUser = u.Public()
		}
	}

	out := make([]Summary, 0, len(order))
	for _, id := range order {
		out = append(out, *groups[id])
	}
	sort.SliceStable(out, func(i, j int) bool { return before(out[j].LastMessage, out[i].LastMessage) })
	return out, nil
}

// before orders messages by creation time, then id.
func before(a, b models.Message) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

// MarkRead marks every unread message from otherID to the actor as read and
// returns how many changed.
func (a *Aggregator) MarkRead(ctx context.Context, actor models.Actor, otherID int64) (int64, error) {
	if otherID <= 0 {
		return 0, fmt.Errorf("%w: conversationWith is required", apperr.ErrBadRequest)
	}
	return a.store.MarkConversationRead(ctx, otherID, actor.ID)
}

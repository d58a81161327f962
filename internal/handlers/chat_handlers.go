package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type sendMessageInput struct {
	ReceiverID int64  `json:"receiverId"`
	Message    string `json:"message"`
}

func (h *Handlers) SendMessage(c *gin.Context) {
	actor, err := currentActor(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	var input sendMessageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badInput(c, err)
		return
	}
	msg, err := h.Chat.Send(c.Request.Context(), actor, input.ReceiverID, input.Message)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, "Message sent", msg)
}

func (h *Handlers) Conversation(c *gin.Context) {
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
	msgs, err := h.Chat.Conversation(c.Request.Context(), actor, otherID)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Conversation fetched", msgs)
}

func (h *Handlers) ChatList(c *gin.Context) {
	actor, err := currentActor(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	list, err := h.Chat.ChatList(c.Request.Context(), actor)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Chats fetched", list)
}

type markReadInput struct {
	ConversationWith int64 `json:"conversationWith"`
}

func (h *Handlers) MarkRead(c *gin.Context) {
	actor, err := currentActor(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	var input markReadInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badInput(c, err)
		return
	}
	n, err := h.Chat.MarkRead(c.Request.Context(), actor, input.ConversationWith)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Messages marked as read", gin.H{"updated": n})
}

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/easeaico/sketch-friends/internal/chat"
	"github.com/easeaico/sketch-friends/internal/store"
)

// OpenChat starts (or switches to) a session for the character. For a
// character with no history yet, the greeting is spoken but never
// persisted and does not count as a turn.
func (h *Handler) OpenChat(c *gin.Context) {
	session, err := h.sessions.Session(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "character not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open chat"})
		return
	}

	resp := gin.H{
		"character": session.Character(),
		"turnCount": session.TurnCount(),
		"ended":     session.Ended(),
	}
	if greeting, ok := session.Greeting(); ok {
		h.speech.Speak(context.Background(), greeting)
		resp["greeting"] = greeting
	}
	c.JSON(http.StatusOK, resp)
}

type chatRequest struct {
	Text string `json:"text" binding:"required"`
}

func (h *Handler) SendChatMessage(c *gin.Context) {
	session, err := h.sessions.Session(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "character not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open chat"})
		return
	}

	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reply, err := session.SendUserMessage(c.Request.Context(), req.Text)
	switch {
	case errors.Is(err, chat.ErrSessionEnded):
		c.JSON(http.StatusConflict, gin.H{"error": "session has ended"})
		return
	case errors.Is(err, chat.ErrEmptyMessage):
		c.JSON(http.StatusBadRequest, gin.H{"error": "message text is empty"})
		return
	case err != nil:
		// The turn completed in memory; only the write failed.
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to save conversation",
			"reply": reply,
		})
		return
	}

	h.speech.Speak(context.Background(), reply.Text)
	c.JSON(http.StatusOK, gin.H{
		"reply":     reply,
		"turnCount": session.TurnCount(),
		"ended":     session.Ended(),
	})
}

// CloseChat drops the active session and stops in-progress speech
// (navigation away). Persisted history survives; the next open starts a
// fresh session with turn count zero.
func (h *Handler) CloseChat(c *gin.Context) {
	h.sessions.Reset()
	h.speech.Stop()
	c.Status(http.StatusNoContent)
}

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/easeaico/sketch-friends/internal/imaging"
	"github.com/easeaico/sketch-friends/internal/setup"
)

type startSetupRequest struct {
	Image string `json:"image" binding:"required"`
}

type setupTurnResponse struct {
	SessionID string       `json:"sessionId"`
	Replies   []setupReply `json:"replies"`
	Stage     string       `json:"stage"`
	Completed bool         `json:"completed"`
	Character any          `json:"character,omitempty"`
	Recovered bool         `json:"recovered,omitempty"`
}

type setupReply struct {
	Text  string `json:"text"`
	Stage string `json:"stage"`
}

// StartSetup captures a drawing, creates a setup engine, and runs the
// opening turn so the character introduces itself.
func (h *Handler) StartSetup(c *gin.Context) {
	var req startSetupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	raw, err := imaging.DecodeDataURL(req.Image)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid image data"})
		return
	}
	bounded, err := imaging.Bound(raw, imaging.MaxWidth)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable image"})
		return
	}

	engine := setup.NewEngine(h.provider, h.store, raw, imaging.DataURL(bounded))

	result, err := engine.Begin(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start setup"})
		return
	}
	h.speech.Speak(context.Background(), result.Reply)

	sessionID := uuid.NewString()
	h.mu.Lock()
	h.setups[sessionID] = engine
	h.mu.Unlock()

	c.JSON(http.StatusOK, setupTurnResponse{
		SessionID: sessionID,
		Replies:   []setupReply{{Text: result.Reply, Stage: string(result.Stage)}},
		Stage:     string(result.Stage),
		Recovered: result.Recovered,
	})
}

type advanceSetupRequest struct {
	Input string `json:"input"`
}

// AdvanceSetup feeds the child's answer to the engine and drives the
// auto-continuation loop until the engine waits for input again or
// setup completes.
func (h *Handler) AdvanceSetup(c *gin.Context) {
	sessionID := c.Param("id")
	h.mu.Lock()
	engine, ok := h.setups[sessionID]
	h.mu.Unlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "setup session not found"})
		return
	}

	var req advanceSetupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp := setupTurnResponse{SessionID: sessionID}
	final, err := setup.Drive(c.Request.Context(), engine, req.Input, func(r setup.Result) {
		resp.Replies = append(resp.Replies, setupReply{Text: r.Reply, Stage: string(r.Stage)})
		resp.Recovered = resp.Recovered || r.Recovered
		h.speech.Speak(context.Background(), r.Reply)
	})
	if err != nil {
		if errors.Is(err, setup.ErrFinished) {
			c.JSON(http.StatusConflict, gin.H{"error": "setup already complete"})
			return
		}
		if errors.Is(err, context.Canceled) {
			c.Status(http.StatusNoContent)
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save character"})
		return
	}

	resp.Stage = string(final.Stage)
	resp.Completed = final.Completed
	if final.Completed {
		resp.Character = final.Character
		h.mu.Lock()
		delete(h.setups, sessionID)
		h.mu.Unlock()
	}
	c.JSON(http.StatusOK, resp)
}

// CloseSetup discards an in-progress setup session (navigation away).
// Any in-flight collaborator result is dropped with the engine.
func (h *Handler) CloseSetup(c *gin.Context) {
	h.mu.Lock()
	delete(h.setups, c.Param("id"))
	h.mu.Unlock()
	h.speech.Stop()
	c.Status(http.StatusNoContent)
}

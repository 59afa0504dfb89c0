package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/easeaico/sketch-friends/internal/imaging"
	"github.com/easeaico/sketch-friends/internal/store"
)

func (h *Handler) ListCharacters(c *gin.Context) {
	characters, err := h.store.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list characters"})
		return
	}
	c.JSON(http.StatusOK, characters)
}

func (h *Handler) GetCharacter(c *gin.Context) {
	character, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "character not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load character"})
		return
	}
	c.JSON(http.StatusOK, character)
}

func (h *Handler) DeleteCharacter(c *gin.Context) {
	if err := h.store.Delete(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete character"})
		return
	}
	c.Status(http.StatusNoContent)
}

type evolveRequest struct {
	Image string `json:"image" binding:"required"`
}

func (h *Handler) EvolveCharacter(c *gin.Context) {
	var req evolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	character, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "character not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load character"})
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

	reaction, err := h.lineage.Evolve(c.Request.Context(), character, raw, imaging.DataURL(bounded))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save evolution"})
		return
	}

	// The request context dies with the response; speech keeps playing.
	h.speech.Speak(context.Background(), reaction.Text)
	c.JSON(http.StatusOK, gin.H{
		"character": character,
		"reaction":  reaction,
	})
}

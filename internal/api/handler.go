// Package api exposes the navigation surface as a JSON API: character
// list/detail, guided setup, chat sessions, and evolution.
package api

import (
	"sync"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/easeaico/sketch-friends/internal/chat"
	"github.com/easeaico/sketch-friends/internal/lineage"
	"github.com/easeaico/sketch-friends/internal/llm"
	"github.com/easeaico/sketch-friends/internal/setup"
	"github.com/easeaico/sketch-friends/internal/speech"
	"github.com/easeaico/sketch-friends/internal/store"
)

// Handler carries the engines behind the HTTP routes.
type Handler struct {
	store    store.Store
	provider llm.Provider
	sessions *chat.Manager
	lineage  *lineage.Manager
	speech   *speech.Controller

	mu     sync.Mutex
	setups map[string]*setup.Engine
}

// NewHandler wires the engines together.
func NewHandler(st store.Store, provider llm.Provider, speechCtrl *speech.Controller) *Handler {
	return &Handler{
		store:    st,
		provider: provider,
		sessions: chat.NewManager(provider, st),
		lineage:  lineage.NewManager(provider, st),
		speech:   speechCtrl,
		setups:   make(map[string]*setup.Engine),
	}
}

// NewRouter builds the gin engine with all routes registered.
func NewRouter(h *Handler, frontendURL string) *gin.Engine {
	r := gin.Default()

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowOrigins = []string{frontendURL}
	corsCfg.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	r.Use(cors.New(corsCfg))

	api := r.Group("/api")
	{
		api.GET("/characters", h.ListCharacters)
		api.GET("/characters/:id", h.GetCharacter)
		api.DELETE("/characters/:id", h.DeleteCharacter)

		api.POST("/setup", h.StartSetup)
		api.POST("/setup/:id/advance", h.AdvanceSetup)
		api.POST("/setup/:id/close", h.CloseSetup)

		api.POST("/characters/:id/chat/open", h.OpenChat)
		api.POST("/characters/:id/chat", h.SendChatMessage)
		api.POST("/characters/:id/chat/close", h.CloseChat)

		api.POST("/characters/:id/evolve", h.EvolveCharacter)
	}
	return r
}

package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/easeaico/sketch-friends/internal/api"
	"github.com/easeaico/sketch-friends/internal/config"
	"github.com/easeaico/sketch-friends/internal/llm"
	"github.com/easeaico/sketch-friends/internal/models"
	"github.com/easeaico/sketch-friends/internal/speech"
	"github.com/easeaico/sketch-friends/internal/store"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	var st store.Store
	if cfg.DatabaseURL != "" {
		pg, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("failed to connect to database: %v", err)
		}
		defer pg.Close()
		st = pg
	} else {
		slog.Warn("DATABASE_URL not set, characters will not survive restarts")
		st = store.NewMemoryStore()
	}

	var provider llm.Provider
	var err error
	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		provider, err = models.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.LLMModel)
	default:
		provider, err = models.NewGeminiProvider(ctx, cfg.GoogleAPIKey, cfg.LLMModel)
	}
	if err != nil {
		log.Fatalf("failed to create language provider: %v", err)
	}

	var synth speech.Synthesizer
	if cfg.SpeechCommand != "" {
		synth = speech.NewCommandSynthesizer(cfg.SpeechCommand, cfg.SpeechArgs...)
	}
	speechCtrl := speech.NewController(synth, nil)

	handler := api.NewHandler(st, provider, speechCtrl)
	router := api.NewRouter(handler, cfg.FrontendURL)

	slog.Info("server starting", "port", cfg.ServerPort, "provider", cfg.LLMProvider, "model", cfg.LLMModel)
	if err := router.Run(":" + cfg.ServerPort); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}

package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"oned/internal/app"
	"oned/internal/config"
	"oned/internal/export"
	"oned/internal/outline"
	"oned/internal/ratelimit"
	"oned/internal/server"
	"oned/internal/source"
	"oned/internal/transcribe"
	"oned/internal/util"
	"oned/pkg/ai"
	"oned/pkg/store"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := util.InitLogger(cfg.LogLevel)

	st, err := store.NewGormStore(cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to init store", "err", err)
		os.Exit(1)
	}

	resolver, err := source.NewResolver(source.Config{
		UploadDir:      cfg.UploadDir,
		MaxUploadBytes: cfg.MaxUploadBytes,
		YtDlpPath:      cfg.YtDlpPath,
	})
	if err != nil {
		logger.Error("failed to init audio source resolver", "err", err)
		os.Exit(1)
	}

	transcriber, err := transcribe.New(transcribe.Config{
		Backend:     cfg.Transcriber.Backend,
		ServiceURL:  cfg.Transcriber.ServiceURL,
		Command:     cfg.Transcriber.Command,
		CommandArgs: cfg.Transcriber.CommandArgs,
		StreamURL:   cfg.Transcriber.StreamURL,
		AccessToken: cfg.Transcriber.StreamToken,
		Timeout:     time.Duration(cfg.Transcriber.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		logger.Error("failed to init transcriber", "err", err)
		os.Exit(1)
	}

	generator, err := buildGenerator(cfg.AI)
	if err != nil {
		logger.Error("failed to init text generator", "err", err)
		os.Exit(1)
	}

	var limiter *ratelimit.FixedWindowLimiter
	if cfg.RateLimit.RedisAddr != "" {
		limiter, err = ratelimit.NewRedisFixedWindowLimiter(
			cfg.RateLimit.RedisAddr,
			cfg.RateLimit.RedisPassword,
			"oned:ratelimit",
			cfg.RateLimit.Limit,
			time.Duration(cfg.RateLimit.WindowSeconds)*time.Second,
		)
		if err != nil {
			logger.Error("failed to init rate limiter", "err", err)
			os.Exit(1)
		}
	}

	appCore := app.New(st, resolver, transcriber, outline.NewGenerator(generator), export.NewDocxRenderer())

	httpServer := server.New(server.Config{
		App:            appCore,
		Limiter:        limiter,
		MaxUploadBytes: cfg.MaxUploadBytes,
		DevMode:        cfg.DevMode,
	})

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("oned server listening", "addr", addr, "transcriber", cfg.Transcriber.Backend, "aiProvider", cfg.AI.Provider)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "err", err)
	}
}

func buildGenerator(cfg config.AIConfig) (ai.TextGenerator, error) {
	switch cfg.Provider {
	case "gemini":
		client, err := ai.NewGeminiClient(cfg.GeminiAPIKey)
		if err != nil {
			return nil, err
		}
		return ai.NewGeminiGenerator(client, cfg.GenerationModel), nil
	case "ollama":
		return ai.NewOllamaGenerator(ai.NewOllamaClient(cfg.OllamaBaseURL), cfg.GenerationModel), nil
	case "openai":
		return ai.NewOpenAICompatGenerator(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.GenerationModel), nil
	default:
		return nil, fmt.Errorf("unknown ai provider %q", cfg.Provider)
	}
}

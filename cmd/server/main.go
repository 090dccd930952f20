package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"voicetriage/internal/config"
	"voicetriage/internal/core"
	"voicetriage/internal/db"
	"voicetriage/internal/knowledge"
	"voicetriage/internal/llm"
	"voicetriage/internal/speech"
	"voicetriage/internal/ws"

	_ "github.com/lib/pq"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "voicetriage",
		Short: "Voice-driven emergency triage backend",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the triage server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema and demo seed data",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			dbConn, err := openDatabase(cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer dbConn.Close()
			if err := db.Migrate(context.Background(), dbConn); err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}
			fmt.Println("migrations applied")
			return nil
		},
	}
}

func openDatabase(url string) (*sql.DB, error) {
	dbConn, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := dbConn.PingContext(ctx); err != nil {
		dbConn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return dbConn, nil
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" || os.Getenv("ENV") == "" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	// Database
	dbConn, err := openDatabase(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer dbConn.Close()
	if err := db.Migrate(context.Background(), dbConn); err != nil {
		logger.Fatal().Err(err).Msg("failed to run migrations")
	}
	repo := db.NewRepository(dbConn)
	logger.Info().Msg("connected to database")

	// Knowledge base, loaded once and shared read-only.
	kb, err := knowledge.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load knowledge base")
	}
	logger.Info().Int("entries", len(kb.Entries())).Msg("knowledge base loaded")

	// External collaborators
	deepgram := speech.NewDeepgramClient(cfg.DeepgramAPIKey, cfg.DeepgramSTTModel, cfg.DeepgramTTSModel, 0)
	advisor := llm.NewOpenAIClient(llm.Config{
		APIKey:  cfg.LLMAPIKey,
		BaseURL: cfg.LLMBaseURL,
		Model:   cfg.LLMModel,
	})
	store, err := speech.NewStore(cfg.AudioDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create audio store")
	}

	// Realtime hub and pipeline
	hub := ws.NewHub(logger)
	pipeline := core.NewPipeline(deepgram, deepgram, advisor, repo, kb, store, hub, logger, cfg.FallbackPatient, core.Timeouts{
		STT: cfg.STTTimeout,
		LLM: cfg.LLMTimeout,
		TTS: cfg.TTSTimeout,
	})
	wsHandler := ws.NewHandler(hub, pipeline, cfg.CORSOrigins, cfg.OperatorOrigins, logger)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: append(append([]string{}, cfg.CORSOrigins...), cfg.OperatorOrigins...),
		AllowMethods: []string{http.MethodGet, http.MethodPost},
	}))

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]bool{"ok": true})
	})
	e.Static("/audio", store.Dir())
	wsHandler.RegisterRoutes(e.Group(""))

	addr := ":" + cfg.Port
	go func() {
		logger.Info().Str("addr", addr).Msg("listening")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

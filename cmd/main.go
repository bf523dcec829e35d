package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"docchat/internal/account"
	"docchat/internal/auth"
	"docchat/internal/config"
	"docchat/internal/embedding"
	"docchat/internal/ingest"
	"docchat/internal/llmservice"
	"docchat/internal/rag"
	"docchat/internal/server"
	"docchat/internal/store"
	"docchat/internal/vectordb"
)

const defaultConfigPath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	configPath := flag.String("config", defaultConfigPath, "Path to the config file")
	rebuild := flag.Bool("rebuild", false, "Rebuild the vector index from the source document")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}
	cfg.RAG.Rebuild = *rebuild

	if err := run(context.Background(), cfg); err != nil {
		log.Fatal().Err(err).Msg("Server exited with error")
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Vector index: build once at startup, read-only afterwards ---
	embedder, err := embedding.NewEmbedder(&cfg.EmbedLLM)
	if err != nil {
		return fmt.Errorf("initializing embedder: %w", err)
	}

	index, err := vectordb.Open(cfg.RAG.IndexPath, cfg.RAG.Collection, embedding.AsEmbeddingFunc(embedder))
	if err != nil {
		return fmt.Errorf("opening vector index: %w", err)
	}

	if cfg.RAG.Rebuild || index.Count() == 0 {
		log.Info().Str("file", cfg.RAG.DocumentPath).Msg("Processing and embedding document")
		chunks, err := ingest.File(cfg.RAG.DocumentPath, cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)
		if err != nil {
			return fmt.Errorf("ingesting document: %w", err)
		}
		if err := index.Build(ctx, chunks); err != nil {
			return fmt.Errorf("building vector index: %w", err)
		}
		log.Info().Int("chunks", index.Count()).Msg("Embeddings stored")
	} else {
		log.Info().Int("chunks", index.Count()).Msg("Loaded saved embeddings")
	}

	// --- Answer synthesizer ---
	chatModel, err := llmservice.NewChatModel(&cfg.ChatLLM)
	if err != nil {
		return fmt.Errorf("initializing chat model: %w", err)
	}
	synth := rag.NewSynthesizer(chatModel, index, cfg.RAG.TopK, nil)

	// --- Accounts ---
	sqldb, err := store.ConnectDB(&cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	db := store.NewDB(sqldb, cfg.Database.Debug)
	defer db.Close()

	if err := store.InitDB(ctx, db); err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}

	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute)
	accounts := account.NewService(store.NewUsers(db), tokens)

	// --- HTTP server ---
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      server.New(synth, accounts, &cfg.Server),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Server starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case <-ctx.Done():
		log.Info().Msg("Shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}

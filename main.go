package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/fieldline/agentcore/internal/config"
	"github.com/fieldline/agentcore/internal/llm"
	"github.com/fieldline/agentcore/internal/service"
	"github.com/fieldline/agentcore/internal/store"
	"github.com/fieldline/agentcore/internal/tools"
	httptransport "github.com/fieldline/agentcore/internal/transport/http"
	"github.com/fieldline/agentcore/policy"
)

func main() {
	// .env is optional; environment variables win either way.
	if err := godotenv.Load(); err != nil {
		log.Printf("WARN: no .env file loaded: %v", err)
	}

	cfg := config.Load()

	st, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to initialize store: %v", err)
	}
	defer st.Close()

	engine, err := policy.NewEngine(context.Background(), policy.DefaultPolicy)
	if err != nil {
		log.Fatalf("failed to initialize policy engine: %v", err)
	}

	registry := tools.NewRegistry()
	tools.RegisterBuiltin(registry)

	var chat llm.ChatClient
	if cfg.OpenAIAPIKey != "" {
		chat = llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL)
	} else {
		log.Printf("WARN: OPENAI_API_KEY not set, runs will fail with missing_credential")
	}

	svc := service.New(st, chat, registry, engine, cfg)

	e := httptransport.NewServer(svc)

	log.Printf("starting agentcore on port %d (model %s, log level %s)", cfg.HTTPPort, cfg.DefaultModel, cfg.LogLevel)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := e.Start(addr); err != nil {
			log.Printf("HTTP server stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Printf("ERROR: server shutdown: %v", err)
	}
	svc.Wait()
}

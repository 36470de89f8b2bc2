package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/tomvane/innocents/api"
	"github.com/tomvane/innocents/config"
	"github.com/tomvane/innocents/internal/agent"
	"github.com/tomvane/innocents/internal/reason"
	"github.com/tomvane/innocents/internal/retriever"
	"github.com/tomvane/innocents/internal/service"
	"github.com/tomvane/innocents/internal/weather"
	"github.com/tomvane/innocents/policy"
	"github.com/tomvane/innocents/store"
)

func main() {
	// Load configuration
	cfg := config.Load()

	log.Printf("Starting travel advisor...")
	log.Printf("HTTP Port: %d", cfg.HTTPPort)
	log.Printf("Database: %s", cfg.DatabaseURL)
	log.Printf("Book index: %s", cfg.IndexPath)

	// Initialize store
	db, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer db.Close()

	// Load the book index and build the retriever
	index, err := retriever.LoadIndex(cfg.IndexPath)
	if err != nil {
		log.Fatalf("Failed to load book index: %v", err)
	}
	embedder := retriever.NewOpenAIEmbedder(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.EmbeddingModel)
	searcher := retriever.New(index, embedder, cfg.MinScore)
	log.Printf("Book index loaded: %d chunks (%s)", len(index.Chunks), index.EmbeddingModel)

	// Initialize weather client
	weatherClient := weather.NewClient(cfg.OpenWeatherAPIKey, cfg.ToolTimeout)

	// Initialize reasoning client
	reasoner := reason.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.ChatModel, cfg.Temperature, cfg.LLMTimeout)

	// Initialize policy engine
	ctx := context.Background()
	policyEngine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		log.Fatalf("Failed to initialize policy engine: %v", err)
	}

	// Initialize the routing agent
	travelAgent := agent.New(reasoner, searcher, weatherClient, policyEngine, agent.Options{
		MaxRounds:   cfg.MaxRounds,
		ToolTimeout: cfg.ToolTimeout,
		TopK:        cfg.TopK,
	})

	// Initialize service and handlers
	chat := service.NewChatService(db, travelAgent, cfg.HistoryWindow)
	h := api.NewHandler(chat)

	// Create Echo server
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	h.RegisterRoutes(e)

	// Start server
	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	log.Printf("Travel advisor started on port %d", cfg.HTTPPort)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down travel advisor...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("Failed to shutdown server gracefully: %v", err)
	}

	log.Println("Travel advisor stopped")
}

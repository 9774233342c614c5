package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/zhouzirui/mindease/backend/internal/config"
	"github.com/zhouzirui/mindease/backend/internal/handler"
	"github.com/zhouzirui/mindease/backend/internal/service/chat"
	"github.com/zhouzirui/mindease/backend/internal/service/classifier"
	"github.com/zhouzirui/mindease/backend/internal/service/conversation"
	"github.com/zhouzirui/mindease/backend/internal/service/moodlog"
	"github.com/zhouzirui/mindease/backend/internal/service/response"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// The classifier is built once and shared by every session
	clf := classifier.NewLazy(classifier.NewFactory(cfg.Classifier))
	if _, err := clf.Get(ctx); err != nil {
		log.Fatalf("emotion classifier unavailable (backend=%s): %v", cfg.Classifier.Backend, err)
	}
	log.Printf("emotion classifier ready: backend=%s model=%s", cfg.Classifier.Backend, cfg.Classifier.Model)

	if cfg.Classifier.Warmup {
		if err := classifier.Warmup(ctx, clf); err != nil {
			log.Fatalf("emotion classifier warmup failed: %v", err)
		}
		log.Println("emotion classifier warmup completed")
	}

	table, err := response.LoadFile(cfg.Conversation.ResponsesFile)
	if err != nil {
		log.Fatalf("failed to load response table: %v", err)
	}
	if cfg.Conversation.ResponsesFile != "" {
		log.Printf("response table loaded from %s", cfg.Conversation.ResponsesFile)
	}

	moods := moodlog.New(cfg.Conversation.MoodLogPath)
	chatService := chat.NewService()
	controller := conversation.NewController(clf, table, moods, chatService, conversation.Options{
		TranscriptEnabled: cfg.Conversation.TranscriptEnabled,
		MaxInputChars:     cfg.Conversation.MaxInputChars,
		ClassifyTimeout:   cfg.Classifier.Timeout,
	})

	log.Printf("disclaimer: %s", cfg.Page.Disclaimer)
	log.Printf("mood log: %s", moods.Path())

	router := handler.NewRouter(cfg.Page, chatService, controller)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("MindEase backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"tablejack/chat"
	"tablejack/game"
	"tablejack/transport"
	"tablejack/utils"
)

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	_ = godotenv.Load()

	log := utils.NewLogger(env("LOG_LEVEL", "info"), os.Getenv("LOG_FILE"))
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := utils.NewStore(ctx, os.Getenv("DATABASE_URL"), log)
	if err != nil {
		log.Fatal("database init failed", zap.Error(err))
	}
	defer store.Close()

	recorder, err := utils.NewRecorder(store, 4, log)
	if err != nil {
		log.Fatal("event recorder init failed", zap.Error(err))
	}
	defer recorder.Close()

	dealDelayMS, _ := strconv.Atoi(env("DEAL_DELAY_MS", "600"))
	sessions := game.NewSessionStore()
	auth := transport.NewAuthenticator(env("JWT_SECRET", "dev-secret"))
	server := transport.NewServer(sessions, auth, store, log)

	rounds := game.NewRoundController(sessions, server, recorder, store,
		time.Duration(dealDelayMS)*time.Millisecond, nil, log)
	engine := game.NewEngine(sessions, server, recorder, rounds, log)
	manager := game.NewManager(sessions, server, rounds, log)
	router := chat.NewRouter(sessions, server, log)
	server.Attach(manager, engine, router)

	cache := utils.NewLeaderboardCache(time.Minute)
	defer cache.Close()

	mux := http.NewServeMux()
	mux.Handle("/ws", server)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/leaderboard", func(w http.ResponseWriter, r *http.Request) {
		users, ok := cache.Get()
		if !ok {
			var err error
			users, err = store.Leaderboard(r.Context(), 10)
			if err != nil {
				log.Error("leaderboard query failed", zap.Error(err))
				http.Error(w, "leaderboard unavailable", http.StatusInternalServerError)
				return
			}
			cache.Set(users)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(users)
	})

	addr := env("LISTEN_ADDR", ":8080")
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		log.Info("listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("shutdown incomplete", zap.Error(err))
	}
}

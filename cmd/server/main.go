package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	jwtauth "github.com/parleyhq/parley/internal/adapter/driven/auth/jwt"
	natsbus "github.com/parleyhq/parley/internal/adapter/driven/bus/nats"
	"github.com/parleyhq/parley/internal/adapter/driven/gateway/ws"
	gormstore "github.com/parleyhq/parley/internal/adapter/driven/persistence/gorm"
	memstore "github.com/parleyhq/parley/internal/adapter/driven/persistence/memory"
	memstate "github.com/parleyhq/parley/internal/adapter/driven/state/memory"
	redisstate "github.com/parleyhq/parley/internal/adapter/driven/state/redis"
	handler "github.com/parleyhq/parley/internal/adapter/driving/http"
	"github.com/parleyhq/parley/internal/config"
	"github.com/parleyhq/parley/internal/core/port"
	"github.com/parleyhq/parley/internal/core/service"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	w := zerolog.ConsoleWriter{Out: os.Stdout}
	l := zerolog.New(w).With().Timestamp().Caller().Logger()

	cfg, err := config.Load()
	if err != nil {
		l.Fatal().Err(err).Msg("Failed to load config")
	}

	var (
		chats    port.ChatRepository
		messages port.MessageRepository
		polls    port.PollRepository
		users    port.UserRepository
	)
	if cfg.DBPath != "" {
		store, err := gormstore.Open(cfg.DBPath)
		if err != nil {
			l.Fatal().Err(err).Str("path", cfg.DBPath).Msg("Failed to open database")
		}
		chats, messages, polls, users = store, store, store, store
		l.Info().Str("path", cfg.DBPath).Msg("Using sqlite storage")
	} else {
		store := memstore.NewStore()
		chats, messages, polls, users = store, store, store, store
		l.Info().Msg("Using in-memory storage")
	}

	var state port.RoomState
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		state = redisstate.NewRoomState(client)
		l.Info().Str("addr", cfg.RedisAddr).Msg("Using redis room state")
	} else {
		state = memstate.NewRoomState()
	}

	hub := ws.NewHub()
	if cfg.NATSURL != "" {
		bridge, err := natsbus.Connect(cfg.NATSURL, hub)
		if err != nil {
			l.Fatal().Err(err).Msg("Failed to connect fanout backbone")
		}
		defer bridge.Close()
		l.Info().Str("url", cfg.NATSURL).Msg("Fanout backbone connected")
	}

	presence := service.NewPresenceService(hub, users, chats, state)
	calls := service.NewCallService(state, users, hub, presence)
	signals := service.NewSignalService(hub)
	pollService := service.NewPollService(polls, messages, users, state, hub)
	inboxes := service.NewInboxService(chats, hub, cfg.InboxPageSize)
	router := service.NewRouter(hub, presence, calls, signals, inboxes)

	verifier := jwtauth.NewVerifier(cfg.JWTSecret)
	h := handler.NewHandler(hub, router, presence, calls, pollService, inboxes, verifier, chats, messages, polls, users)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: h.NewRouter(),
	}

	go func() {
		l.Info().Str("addr", cfg.Addr).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	l.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		l.Error().Err(err).Msg("Server forced to shutdown")
	}

	hub.Stop()
	l.Info().Msg("Server exited")
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	router "github.com/reelmates/watchparty/internal/adapters/http"
	"github.com/reelmates/watchparty/internal/app"
	"github.com/reelmates/watchparty/internal/auth"
	"github.com/reelmates/watchparty/internal/config"
	"github.com/reelmates/watchparty/internal/core"
	"github.com/reelmates/watchparty/internal/store/messagestore"
	"github.com/reelmates/watchparty/internal/store/partystore"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	connectCtx, connectCancel := context.WithTimeout(ctx, 10*time.Second)
	defer connectCancel()
	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connect")
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		log.Fatal().Err(err).Msg("mongo ping")
	}
	db := client.Database(cfg.MongoDB)

	parties := partystore.New(db, cfg.BcryptCost)
	messages := messagestore.New(db)
	if err := parties.EnsureIndexes(connectCtx); err != nil {
		log.Fatal().Err(err).Msg("party indexes")
	}
	if err := messages.EnsureIndexes(connectCtx); err != nil {
		log.Fatal().Err(err).Msg("message indexes")
	}

	verifier := auth.NewTokenVerifier(cfg.Secret, cfg.Issuer)
	gateway := app.NewSessionGateway(verifier, parties, messages, core.NewRoomRegistry())

	r := router.SetupRouter(ctx, cfg, gateway)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("watchparty server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	if err := client.Disconnect(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("mongo disconnect")
	}
	log.Info().Msg("Server exited gracefully")
}

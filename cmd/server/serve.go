package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ehdro06/EuroLoo/euroloo-go/internal/handler"
	"github.com/ehdro06/EuroLoo/euroloo-go/internal/metrics"
	"github.com/ehdro06/EuroLoo/euroloo-go/internal/middleware"
	"github.com/ehdro06/EuroLoo/euroloo-go/internal/router"
	"github.com/ehdro06/EuroLoo/euroloo-go/internal/service"
)

var (
	servePort    int
	serveMigrate bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		be, err := openBackend(ctx, cfg.Database, serveMigrate)
		if err != nil {
			return err
		}
		defer be.close()

		metrics.Register(be.pool)

		qc, rdb := openCache(cfg.Redis)
		if rdb != nil {
			defer rdb.Close()
		}

		verifier, err := middleware.NewVerifier(cfg.Auth)
		if err != nil {
			return err
		}

		timeout := cfg.StoreTimeout
		toilets := service.NewToiletService(be.toilets, be.users, qc, service.ToiletOptions{
			StoreTimeout:      timeout,
			DefaultRadius:     cfg.Policy.DefaultSearchRadius,
			MaxRadius:         cfg.Policy.MaxSearchRadius,
			MaxSubmitDistance: cfg.Policy.MaxSubmitDistance,
			DuplicateRadius:   cfg.Policy.DuplicateRadius,
		})

		h := &router.Handlers{
			Toilet: handler.NewToiletHandler(toilets),
			Vote:   handler.NewVoteHandler(service.NewVoteService(be.votes, be.users, qc, cfg.Policy.Trust(), timeout)),
			Review: handler.NewReviewHandler(service.NewReviewService(be.reviews, be.toilets, be.users, timeout)),
			User:   handler.NewUserHandler(service.NewUserService(be.users, timeout)),
			Health: handler.NewHealthHandler(be.health, cfg.Database.Driver, rdb),
		}

		app := fiber.New(fiber.Config{
			AppName:      "EuroLoo API",
			ServerHeader: "EuroLoo",
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		})
		stopLimiters := router.Setup(app, h, verifier, cfg.Server.CORSOrigins)
		defer stopLimiters()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		go func() {
			<-ctx.Done()
			log.Info().Msg("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := app.ShutdownWithContext(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("shutdown failed")
			}
		}()

		log.Info().
			Int("port", port).
			Str("env", cfg.Server.Environment).
			Str("driver", cfg.Database.Driver).
			Str("cache", qc.Backend()).
			Msg("EuroLoo backend starting")
		if err := app.Listen(fmt.Sprintf(":%d", port), fiber.ListenConfig{DisableStartupMessage: true}); err != nil {
			return eris.Wrap(err, "server listen")
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", false, "create the PostGIS schema before serving")
	rootCmd.AddCommand(serveCmd)
}

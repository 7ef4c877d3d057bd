package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/iliyamo/healthcare-backend/internal/config"
	"github.com/iliyamo/healthcare-backend/internal/database"
	"github.com/iliyamo/healthcare-backend/internal/queue"
	"github.com/iliyamo/healthcare-backend/internal/router"
	"github.com/iliyamo/healthcare-backend/internal/service"
	"github.com/iliyamo/healthcare-backend/internal/telemetry"
)

const serviceName = "healthcare-backend"

func main() {
	rootCmd := &cobra.Command{
		Use:   "healthcare",
		Short: "Healthcare records backend",
		Long:  "Patient, doctor and patient-doctor mapping records behind token authentication.",
	}
	rootCmd.AddCommand(serveCmd(), migrateCmd(), consumeCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	var autoMigrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(autoMigrate)
		},
	}
	cmd.Flags().BoolVar(&autoMigrate, "migrate", false, "apply pending migrations before serving")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			db, err := database.Open(cfg)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			n, err := database.Migrate(cmd.Context(), db, cfg.DBDriver)
			if err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			logger.Info().Int("applied", n).Str("driver", cfg.DBDriver).Msg("migrations complete")
			return nil
		},
	}
}

func consumeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "consume",
		Short: "Consume audit events and append them to the audit log",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			c := &queue.Consumer{
				URL:     cfg.RabbitMQURL,
				Queue:   queue.DefaultQueueName,
				LogPath: cfg.AuditLogPath,
				Log:     logger,
			}
			logger.Info().Str("log", cfg.AuditLogPath).Msg("starting audit consumer")
			if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			logger.Info().Msg("audit consumer stopped")
			return nil
		},
	}
}

// bootstrap loads configuration and builds the process logger.
func bootstrap() (config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, zerolog.Nop(), fmt.Errorf("load config: %w", err)
	}
	return cfg, newLogger(cfg), nil
}

func newLogger(cfg config.Config) zerolog.Logger {
	var logger zerolog.Logger
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	} else {
		logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	return logger.Level(level).With().Str("service", serviceName).Logger()
}

func runServer(autoMigrate bool) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	rlCfg, err := config.LoadRateLimitConfig()
	if err != nil {
		return fmt.Errorf("load rate limit config: %w", err)
	}
	redisCfg, err := config.LoadRedisConfig()
	if err != nil {
		return fmt.Errorf("load redis config: %w", err)
	}

	ctx := context.Background()
	shutdownTracing, err := telemetry.Setup(ctx, serviceName, cfg.OTelEndpoint)
	if err != nil {
		logger.Warn().Err(err).Msg("tracing disabled")
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	db, err := database.Open(cfg)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	logger.Info().Str("driver", cfg.DBDriver).Msg("connected to database")

	if autoMigrate {
		n, err := database.Migrate(ctx, db, cfg.DBDriver)
		if err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		logger.Info().Int("applied", n).Msg("migrations complete")
	}

	rdb := config.NewRedisClient(redisCfg)
	if rdb == nil && rlCfg.Enabled {
		logger.Info().Msg("redis unavailable, rate limiting in process")
	}
	if rdb != nil {
		defer rdb.Close()
	}

	var events service.Emitter = service.NopEmitter{}
	if cfg.AuditEnabled {
		emitter := service.NewAsyncEmitter(service.NewAMQPPublisher(cfg.RabbitMQURL, queue.DefaultQueueName), logger, 0)
		defer emitter.Close()
		events = emitter
	}

	e := router.New(router.Deps{
		Cfg:       cfg,
		RateLimit: rlCfg,
		DB:        db,
		Redis:     rdb,
		Log:       logger,
		Events:    events,
	})

	addr := ":" + cfg.Port
	go func() {
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}

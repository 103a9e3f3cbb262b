package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"zoo-quiz-service/internal/app"
	"zoo-quiz-service/internal/auth"
	"zoo-quiz-service/internal/config"
	transport "zoo-quiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func loadConfig(configPath string) (config.Config, error) {
	if err := config.LoadDotEnv(envFile); err != nil {
		return config.Config{}, err
	}
	return config.Load(configPath)
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	tokens, err := auth.NewIssuer(
		cfg.Auth.Secret,
		config.TTLDuration(cfg.Auth.StudentTTL, 30*24*time.Hour),
		config.TTLDuration(cfg.Auth.AdminTTL, 2*time.Hour),
	)
	if err != nil {
		return err
	}

	be, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := be.Close(); err != nil {
			log.Warn("closing backend", "err", err)
		}
	}()

	rules := rulesFrom(cfg)
	boards := app.NewLeaderboardService(be.store, app.NewHub(), log)
	if be.relay != nil {
		boards.UseRelay(be.relay)
		relayCtx, stopRelay := context.WithCancel(ctx)
		defer stopRelay()
		go func() {
			if err := be.relay.Listen(relayCtx, nil, boards.Notify); err != nil {
				log.Error("leaderboard relay stopped", "err", err)
			}
		}()
	}
	awards := app.NewAwarder(be.events, boards, log)
	challenges := app.NewChallengeService(be.store, awards, rules, log)
	srv := transport.NewServer(transport.Services{
		Classrooms:  app.NewClassroomService(be.store, challenges, rules, log),
		Quiz:        app.NewQuizService(be.store, be.bank, be.runs, awards, rules, log),
		Challenges:  challenges,
		Leaderboard: boards,
		Admin:       app.NewAdminService(be.store, be.bank, cfg.Auth.AdminPassphrase, log),
		Tokens:      tokens,
		Ping:        be.ping,
	}, log)

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     srv.Routes(),
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: leaderboard websockets stay open.
		IdleTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting quiz service", "port", finalPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case <-stop:
		log.Info("shutting down server...")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server...")
	case err := <-errCh:
		log.Error("failed to start server", "err", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

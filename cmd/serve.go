package main

import (
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/leadgrid/leadgen/internal/api"
	"github.com/leadgrid/leadgen/internal/auth"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the lead generation API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx, cfg)
		if err != nil {
			return eris.Wrap(err, "open store")
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		sessions := auth.NewManager(cfg.Auth.Secret, time.Duration(cfg.Auth.SessionHours)*time.Hour)

		server := api.NewServer(
			buildSearchService(cfg),
			buildEnrichService(cfg),
			buildAgent(cfg),
			st,
			sessions,
			buildConnectors(cfg),
			api.Config{
				AllowedOrigins:  cfg.Server.AllowedOrigins,
				FreeMaxResults:  cfg.Search.FreeMaxResults,
				PaidMaxResults:  cfg.Search.PaidMaxResults,
				RatePerMinute:   cfg.RateLimit.PerMinute,
				RateBurst:       cfg.RateLimit.Burst,
				RateWhitelist:   cfg.RateLimit.Whitelist,
				RateBypassToken: cfg.RateLimit.BypassToken,
			},
		)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: server.Router(),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

package cli

import (
	"fmt"

	"prepmate/internal/server"
	"prepmate/internal/store"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server for interview practice",
	Long: `Start an HTTP server exposing the interview practice API.

Available endpoints:
- POST /api/interview/questions: Generate a question set
- POST /api/interview/evaluate: Evaluate one answer
- POST /api/interview/chat: Practice chat
- POST /api/interview/sessions: Start an interview session
- POST /api/interview/sessions/{id}/answers: Submit an answer
- GET  /api/interview/history: Completed session history
- GET  /health: Health check endpoint
- GET  /stats: Server statistics and rate limiting info`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().String("host", "", "Host to bind to (default from config)")
	serveCmd.Flags().String("store-path", "", "Path to the sqlite database file (overrides config)")

	// Bind flags to viper config keys
	bindFlag := func(key, flagName string) {
		if err := viper.BindPFlag(key, serveCmd.Flags().Lookup(flagName)); err != nil {
			panic(err)
		}
	}

	bindFlag("server.port", "port")
	bindFlag("server.host", "host")
	bindFlag("store.path", "store-path")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	st, err := store.Open(cfg.Store.Path, cfg.Store.HistoryLimit)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}

	services, err := server.NewServices(cfg, logger)
	if err != nil {
		_ = st.Close()
		return fmt.Errorf("failed to create AI services: %w", err)
	}

	serverCfg := server.ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		Version:        Version,
		TLSCertFile:    cfg.Server.TLSCertFile,
		TLSKeyFile:     cfg.Server.TLSKeyFile,
		APIKeys:        cfg.Server.APIKeys,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxRequestSize: cfg.App.MaxRequestSize,
		RateLimit:      &cfg.Server.RateLimit,
	}
	return server.NewServer(cfg, serverCfg, st, services, logger).Start()
}

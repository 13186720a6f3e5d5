package commands

import (
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/cersei/am"
	"github.com/teranos/cersei/errors"
	"github.com/teranos/cersei/logger"
	"github.com/teranos/cersei/server"
	"github.com/teranos/cersei/sym"
)

// ServeCmd starts the read-only query API.
var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: sym.Serve + " Start the read-only entity API",
	Long: sym.Serve + ` serve — Start the read-only entity API

Endpoints:
  GET /health
  GET /api/entities?ids=C1|C2
  GET /api/entries/{id}/revisions
  GET /api/revisions/{id}
  GET /metrics

Examples:
  cersei serve
  cersei serve --port 9000`,
	RunE: runServe,
}

var servePort int

func init() {
	ServeCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (default: server.port)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}
	port := cfg.Server.Port
	if servePort != 0 {
		port = servePort
	}

	store, closeDB, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeDB()

	if logger.ShouldOutput(verbosity(cmd), logger.OutputConfig) {
		pterm.Info.Printf("Allowed origins: %s\n", strings.Join(cfg.Server.AllowedOrigins, ", "))
	}
	srv := server.New(store, cfg.Server, logger.ComponentLogger("server"))
	logger.Infow("Starting query API",
		logger.FieldSymbol, sym.Serve,
		logger.FieldPort, port)
	return srv.ListenAndServe(cmd.Context(), port)
}

package commands

import (
	"github.com/spf13/cobra"

	"github.com/eventlight-labs/eventql/internal/server"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the HTTP API server.

Exposes POST /api/0/query for running query scripts and the bucket
endpoints for managing event data. The server runs until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			srv := server.NewServer(server.Config{
				Engine:    cmdCtx.Engine,
				Datastore: cmdCtx.DS,
				Port:      cmdCtx.Cfg.Port,
				Logger:    cmdCtx.Logger,
			})
			return srv.Serve(cmd.Context())
		},
	}
}

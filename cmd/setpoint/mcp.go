package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/aretw0/setpoint/pkg/adapters/file"
	mcpAdapter "github.com/aretw0/setpoint/pkg/adapters/mcp"
	"github.com/aretw0/setpoint/pkg/runner"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts the station as an MCP Server, so AI agents can list axes, preview
recipes and start or stop runs as tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")
		journalDir, _ := cmd.Flags().GetString("journal")

		// Logs go to Stderr so they never corrupt JSON-RPC on Stdout.
		logger, err := newLogger(cmd)
		if err != nil {
			return err
		}
		store, err := openStation(cmd, logger)
		if err != nil {
			return err
		}
		w := axisWiring{logger: logger}
		if journalDir != "" {
			w.journal = file.NewRunStore(journalDir)
		}
		reg, err := newRegistry(store, w)
		if err != nil {
			return err
		}
		srv := mcpAdapter.NewServer(reg, logger)

		ctx, stop := runner.InterruptContext(cmd.Context())
		defer stop()
		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error { return reg.Run(ctx) })

		switch transport {
		case "stdio":
			logger.Info("starting setpoint MCP server (stdio)")
			g.Go(func() error {
				defer stop()
				return srv.ServeStdio()
			})
		case "sse":
			g.Go(func() error {
				defer stop()
				if err := srv.ServeSSE(ctx, port); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
		default:
			stop()
			_ = g.Wait()
			return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
		}

		err = g.Wait()
		logger.Info("MCP server stopped")
		return err
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE)")
	mcpCmd.Flags().String("journal", "", "Directory to journal runs into")
}

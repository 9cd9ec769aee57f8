package cmd

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"github.com/theapemachine/atlas-demos/pkg/config"
	mongostore "github.com/theapemachine/atlas-demos/pkg/stores/mongo"
	"github.com/theapemachine/atlas-demos/pkg/tools"
)

var (
	addrFlag string

	mcpCmd = &cobra.Command{
		Use:   "mcp",
		Short: "Run MCP services",
		Long:  longMCP,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	mcpServeCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the MongoDB tools over streamable HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := config.Load(config.GroupMongo | config.GroupServer)

			if err != nil {
				return err
			}

			if addrFlag != "" {
				cfg.Server.Addr = addrFlag
			}

			client, disconnect, err := connectMongo(ctx, cfg)

			if err != nil {
				return err
			}

			defer disconnect()

			httpServer := server.NewStreamableHTTPServer(
				tools.NewServer(mongostore.NewEngine(client), version),
			)

			errs := make(chan error, 1)

			go func() {
				log.Info("mcp server listening", "addr", cfg.Server.Addr, "path", "/mcp")
				errs <- httpServer.Start(cfg.Server.Addr)
			}()

			select {
			case err = <-errs:
				return err
			case <-ctx.Done():
				log.Info("shutting down mcp server")
				return httpServer.Shutdown(context.WithoutCancel(ctx))
			}
		},
	}
)

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.AddCommand(mcpServeCmd)

	mcpServeCmd.Flags().StringVar(&addrFlag, "addr", "", "listen address (MCP_SERVER_ADDR, default :3000)")
}

var longMCP = `
Serve the aggregate, find, insert-many and delete-many tools the agent
uses, backed by MONGODB_URI, at http://<addr>/mcp.

Examples:
  # Serve on the default address
  atlas-demos mcp serve

  # Serve on another port
  atlas-demos mcp serve --addr :3100
`

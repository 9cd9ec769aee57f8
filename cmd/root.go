/*
Package cmd implements the atlas-demos command-line interface: the memory
agent, the MCP tool server, and the maintenance and search demos that run
against a MongoDB Atlas cluster.
*/
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/theapemachine/atlas-demos/pkg/config"
	"github.com/theapemachine/atlas-demos/pkg/logging"
)

var (
	projectName = "atlas-demos"
	version     = "0.1.0"

	rootCmd = &cobra.Command{
		Use:               projectName,
		Short:             "MongoDB Atlas vector search, MCP memory agent and maintenance demos",
		Long:              longRoot,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: initConfig,
	}
)

/*
flagEnv maps the global flags onto the environment keys they override.
*/
var flagEnv = map[string]string{
	"show-tools":  "SHOW_TOOLS",
	"show-memory": "SHOW_MEMORY",
}

/*
Execute runs the root command with a context that is cancelled on SIGINT
or SIGTERM.
*/
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer logging.Close()

	return rootCmd.ExecuteContext(ctx)
}

func init() {
	flags := rootCmd.PersistentFlags()

	flags.String("env-file", ".env", "file to seed the environment from")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-file", "", "append logs to this file instead of stderr")
	flags.Bool("show-tools", false, "trace every MCP tool call (SHOW_TOOLS)")
	flags.Bool("show-memory", false, "print the retrieved memory before each answer (SHOW_MEMORY)")

	for _, name := range []string{"env-file", "log-level", "log-file", "show-tools", "show-memory"} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}
}

/*
initConfig seeds the environment from the env file, lets explicitly set
flags override it, and configures logging.
*/
func initConfig(cmd *cobra.Command, _ []string) error {
	if err := config.LoadEnvFile(viper.GetString("env-file")); err != nil {
		return err
	}

	for name, key := range flagEnv {
		if flag := cmd.Flags().Lookup(name); flag != nil && flag.Changed {
			_ = os.Setenv(key, viper.GetString(name))
		}
	}

	return logging.Init(viper.GetString("log-level"), viper.GetString("log-file"))
}

/*
longRoot contains the detailed help text for the root command.
*/
var longRoot = `
atlas-demos bundles the MongoDB Atlas demos into one binary:

  agent     interactive memory agent (remember <text> | clear | exit)
  mcp       MCP tool server exposing the database to the agent
  memory    prepare the agent memory collection
  backfill  compute embeddings for records that lack them
  index     create vector and full-text search indexes
  cleanup   remove the demo indexes, embeddings and memory
  search    full-text, semantic and hybrid search demos
  scale     scale the Atlas cluster up or down

Configuration is read from the environment, seeded from .env.
`

package cmd

import (
	"github.com/spf13/cobra"
	"github.com/theapemachine/atlas-demos/pkg/config"
	mongostore "github.com/theapemachine/atlas-demos/pkg/stores/mongo"
)

var (
	memoryCmd = &cobra.Command{
		Use:   "memory",
		Short: "Manage the agent memory collection",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	memoryInitCmd = &cobra.Command{
		Use:   "init",
		Short: "Create the memory collection indexes and a seed record",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := config.Load(config.GroupMongo | config.GroupCollections)

			if err != nil {
				return err
			}

			client, disconnect, err := connectMongo(ctx, cfg)

			if err != nil {
				return err
			}

			defer disconnect()

			collection := mongostore.NewCollection(client, cfg.Collections.MemoryDB, cfg.Collections.MemoryCollection)
			seeded, err := collection.EnsureMemory(ctx)

			if err != nil {
				return err
			}

			if seeded {
				ok("%s ready, seed record inserted", collection.Name())
			} else {
				ok("%s ready, already has records", collection.Name())
			}

			return nil
		},
	}
)

func init() {
	rootCmd.AddCommand(memoryCmd)
	memoryCmd.AddCommand(memoryInitCmd)
}

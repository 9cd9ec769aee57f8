package cmd

import (
	"github.com/spf13/cobra"
	"github.com/theapemachine/atlas-demos/pkg/atlas"
	"github.com/theapemachine/atlas-demos/pkg/config"
)

var scaleCmd = &cobra.Command{
	Use:       "scale <up|down>",
	Short:     "Change the cluster tier through the Atlas Admin API",
	Long:      longScale,
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"up", "down"},
	RunE:      runScale,
}

func init() {
	rootCmd.AddCommand(scaleCmd)
}

func runScale(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(config.GroupAtlas)

	if err != nil {
		return err
	}

	tier, err := cfg.Atlas.ScaleTier(args[0])

	if err != nil {
		return err
	}

	client, err := atlas.NewClient(cfg.Atlas.BaseURL, cfg.Atlas.PublicKey, cfg.Atlas.PrivateKey)

	if err != nil {
		return err
	}

	info("scaling %s %s to %s", cfg.Atlas.ClusterName, args[0], tier)

	if err := client.Scale(cmd.Context(), cfg.Atlas.ProjectID, cfg.Atlas.ClusterName, tier); err != nil {
		return err
	}

	ok("Requested scale of %s to %s. Scaling proceeds asynchronously.", cfg.Atlas.ClusterName, tier)

	return nil
}

var longScale = `
Request a tier change for ATLAS_CLUSTER_NAME in ATLAS_PROJECT_ID. "up"
moves to SCALE_UP_TIER and "down" to SCALE_DOWN_TIER. The request returns
once Atlas accepts it; the resize itself runs in the background.

Examples:
  SCALE_UP_TIER=M30 atlas-demos scale up
`

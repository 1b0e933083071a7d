package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"dh-release/internal/app"
	"dh-release/internal/types"
)

type setupOptions struct {
	InstDir string
	Flavor  string
	Section string
	Site    string
}

func newSetupCommand() *cobra.Command {
	opts := setupOptions{}
	cmd := &cobra.Command{
		Use:   "setup <manifest>",
		Short: "Rewrite setup.sh of an install directory without fetching",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSetup(cmd.Context(), cmd, opts, manifestArg(args))
		},
	}
	cmd.Flags().StringVar(&opts.InstDir, "inst-dir", "", "Install directory")
	cmd.Flags().StringVar(&opts.Flavor, "flavor", string(types.SetupFlavorJobHarness), "Setup flavor (jh or ccs)")
	cmd.Flags().StringVar(&opts.Section, "section", "", "Manifest section for the ccs flavor")
	cmd.Flags().StringVar(&opts.Site, "site", "", "Site name exported as SITENAME")
	_ = viper.BindPFlag("setup_flavor", cmd.Flags().Lookup("flavor"))
	return cmd
}

func runSetup(ctx context.Context, cmd *cobra.Command, opts setupOptions, manifest string) error {
	service, err := newAppService(cmd)
	if err != nil {
		return err
	}
	result, err := service.Setup(ctx, app.SetupRequest{
		ManifestPath: manifest,
		InstDir:      resolveString(cmd, opts.InstDir, "inst_dir", "inst-dir"),
		Flavor:       types.SetupFlavor(resolveString(cmd, opts.Flavor, "setup_flavor", "flavor")),
		Section:      resolveString(cmd, opts.Section, "section", "section"),
		Site:         resolveString(cmd, opts.Site, "site", "site"),
	})
	if err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d statements)\n", result.Path, len(result.Environment.Statements))
	return nil
}

package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"dh-release/internal/app"
)

type pruneOptions struct {
	InstDir  string
	Manifest string
	Section  string
	KeepLast int
	DryRun   bool
}

func newPruneCommand() *cobra.Command {
	opts := pruneOptions{}
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove versioned directories no link points at",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPrune(cmd.Context(), cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.InstDir, "inst-dir", "", "Install directory")
	cmd.Flags().StringVar(&opts.Manifest, "manifest", "", "Manifest whose current versions are always kept")
	cmd.Flags().StringVar(&opts.Section, "section", "", "Manifest section (default ccs)")
	cmd.Flags().IntVar(&opts.KeepLast, "keep-last", 0, "Keep the newest N versions per package")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", true, "Only report prune actions without deleting")

	_ = viper.BindPFlag("keep_last", cmd.Flags().Lookup("keep-last"))
	_ = viper.BindPFlag("dry_run", cmd.Flags().Lookup("dry-run"))
	return cmd
}

func runPrune(ctx context.Context, cmd *cobra.Command, opts pruneOptions) error {
	service, err := newAppService(cmd)
	if err != nil {
		return err
	}
	result, err := service.Prune(ctx, app.PruneRequest{
		InstDir:      resolveString(cmd, opts.InstDir, "inst_dir", "inst-dir"),
		ManifestPath: resolveString(cmd, opts.Manifest, "manifest", "manifest"),
		Section:      resolveString(cmd, opts.Section, "section", "section"),
		KeepLast:     resolveInt(cmd, opts.KeepLast, "keep_last", "keep-last"),
		DryRun:       resolveBool(cmd, opts.DryRun, "dry_run", "dry-run"),
	})
	if err != nil {
		return err
	}
	if result.DryRun {
		for _, name := range result.Planned {
			fmt.Printf("would remove %s\n", name)
		}
		fmt.Printf("dry-run: keep=%d delete=%d\n", result.KeepCount, result.DeleteCount)
		return nil
	}
	fmt.Printf("pruned versions: %d\n", result.DeleteCount)
	return nil
}

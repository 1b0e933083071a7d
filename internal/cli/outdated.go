package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"dh-release/internal/app"
	"dh-release/internal/types"
)

type outdatedOptions struct {
	Sections []string
}

func newOutdatedCommand() *cobra.Command {
	opts := outdatedOptions{}
	cmd := &cobra.Command{
		Use:   "outdated <manifest>",
		Short: "Compare manifest versions with the latest releases",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOutdated(cmd.Context(), cmd, opts, manifestArg(args))
		},
	}
	cmd.Flags().StringSliceVar(&opts.Sections, "sections", nil, "Manifest sections to check (default ccs)")
	_ = viper.BindPFlag("outdated_sections", cmd.Flags().Lookup("sections"))
	return cmd
}

func runOutdated(ctx context.Context, cmd *cobra.Command, opts outdatedOptions, manifest string) error {
	service, err := newAppService(cmd)
	if err != nil {
		return err
	}
	result, err := service.Outdated(ctx, app.OutdatedRequest{
		ManifestPath: manifest,
		Sections:     resolveStrings(cmd, opts.Sections, "outdated_sections", "sections"),
	})
	if err != nil {
		return err
	}
	for _, report := range result.Reports {
		fmt.Println(headerStyle.Render("[" + report.Section + "]"))
		for _, entry := range report.Entries {
			fmt.Println(formatOutdatedEntry(entry))
		}
	}
	return nil
}

func formatOutdatedEntry(entry types.OutdatedEntry) string {
	name := entry.Package.Name
	switch {
	case entry.Err != nil:
		return fmt.Sprintf("  %-40s %-20s %s", name, entry.Installed, danglingStyle.Render(types.ErrorMessage(entry.Err)))
	case entry.Outdated:
		return fmt.Sprintf("  %-40s %-20s %s", name, entry.Installed, danglingStyle.Render("-> "+entry.Latest))
	default:
		return fmt.Sprintf("  %-40s %-20s %s", name, entry.Installed, okStyle.Render("up to date"))
	}
}

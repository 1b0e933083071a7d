package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"dh-release/internal/app"
)

func newValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <manifest>",
		Short: "Check a version manifest without touching the filesystem",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.Context(), cmd, manifestArg(args))
		},
	}
	return cmd
}

func runValidate(ctx context.Context, cmd *cobra.Command, manifest string) error {
	service, err := newAppService(cmd)
	if err != nil {
		return err
	}
	result, err := service.Validate(ctx, app.ValidateRequest{ManifestPath: manifest})
	for _, problem := range result.Problems {
		fmt.Println(danglingStyle.Render(problem))
	}
	if err != nil {
		return err
	}
	fmt.Printf("validated: %d sections, %d entries, %d downloads\n", len(result.Sections), result.Entries, len(result.Downloads))
	return nil
}

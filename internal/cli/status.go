package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"dh-release/internal/app"
	"dh-release/internal/types"
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true)
	okStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	danglingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	dimStyle      = lipgloss.NewStyle().Faint(true)
)

type statusOptions struct {
	InstDir string
}

func newStatusCommand() *cobra.Command {
	opts := statusOptions{}
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show links, commands and versioned directories of an install",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd.Context(), cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.InstDir, "inst-dir", "", "Install directory")
	return cmd
}

func runStatus(ctx context.Context, cmd *cobra.Command, opts statusOptions) error {
	service, err := newAppService(cmd)
	if err != nil {
		return err
	}
	instDir := resolveString(cmd, opts.InstDir, "inst_dir", "inst-dir")
	if instDir == "" {
		instDir = resolveString(cmd, "", "ccs_inst_dir", "ccs-inst-dir")
	}
	result, err := service.Status(ctx, app.StatusRequest{InstDir: instDir})
	if err != nil {
		return err
	}
	renderStatus(os.Stdout, result.Status)
	return nil
}

func renderStatus(w io.Writer, status types.InstallStatus) {
	fmt.Fprintln(w, headerStyle.Render(status.InstDir))
	renderLinks(w, "links", status.Links)
	renderLinks(w, "commands", status.Executables)

	fmt.Fprintln(w, headerStyle.Render("versions"))
	for _, dir := range status.VersionedDirs {
		if dir.Package == "" {
			fmt.Fprintf(w, "  %s\n", dimStyle.Render(dir.Name))
			continue
		}
		marker := dimStyle.Render("unused")
		if dir.Linked {
			marker = okStyle.Render("linked")
		}
		fmt.Fprintf(w, "  %-40s %-20s %s\n", dir.Package, dir.Version, marker)
	}
	if !status.HasSetup {
		fmt.Fprintln(w, danglingStyle.Render("setup.sh missing"))
	}
}

func renderLinks(w io.Writer, title string, links []types.LinkStatus) {
	if len(links) == 0 {
		return
	}
	fmt.Fprintln(w, headerStyle.Render(title))
	for _, link := range links {
		state := okStyle.Render(string(link.State))
		if link.State == types.LinkStateDangling {
			state = danglingStyle.Render(strings.ToUpper(string(link.State)))
		}
		fmt.Fprintf(w, "  %-30s -> %-50s %s\n", link.Name, link.Target, state)
	}
}

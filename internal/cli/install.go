package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"dh-release/internal/app"
	"dh-release/internal/types"
)

type installOptions struct {
	InstDir    string
	CCSInstDir string
	Section    string
	Site       string
	HJFolders  []string
	Python     string
	Dev        bool
	SkipBuild  bool
	SelfTest   bool
	NoSetup    bool
}

func newInstallCommand() *cobra.Command {
	opts := installOptions{}
	cmd := &cobra.Command{
		Use:   "install <manifest>",
		Short: "Fetch the packages of a version manifest and link them into place",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstall(cmd.Context(), cmd, opts, manifestArg(args))
		},
	}
	cmd.Flags().StringVar(&opts.InstDir, "inst-dir", "", "Job harness install directory")
	cmd.Flags().StringVar(&opts.CCSInstDir, "ccs-inst-dir", "", "CCS install directory")
	cmd.Flags().StringVar(&opts.Section, "section", "", "Manifest section of the CCS install (default ccs)")
	cmd.Flags().StringVar(&opts.Site, "site", "", "Site name exported as SITENAME")
	cmd.Flags().StringSliceVar(&opts.HJFolders, "hj-folders", nil, "Harnessed job folders linked into share/")
	cmd.Flags().StringVar(&opts.Python, "python", "", "Python interpreter for setup.py installs")
	cmd.Flags().BoolVar(&opts.Dev, "dev", false, "Record arguments and link the manifest for later updates")
	cmd.Flags().BoolVar(&opts.SkipBuild, "skip-build", false, "Record build commands without running them")
	cmd.Flags().BoolVar(&opts.SelfTest, "self-test", false, "Run the harnessed jobs self test after installing")
	cmd.Flags().BoolVar(&opts.NoSetup, "no-setup", false, "Do not write setup.sh for CCS installs")

	_ = viper.BindPFlag("inst_dir", cmd.Flags().Lookup("inst-dir"))
	_ = viper.BindPFlag("ccs_inst_dir", cmd.Flags().Lookup("ccs-inst-dir"))
	_ = viper.BindPFlag("section", cmd.Flags().Lookup("section"))
	_ = viper.BindPFlag("site", cmd.Flags().Lookup("site"))
	_ = viper.BindPFlag("hj_folders", cmd.Flags().Lookup("hj-folders"))
	_ = viper.BindPFlag("python", cmd.Flags().Lookup("python"))
	_ = viper.BindPFlag("dev", cmd.Flags().Lookup("dev"))
	_ = viper.BindPFlag("skip_build", cmd.Flags().Lookup("skip-build"))
	_ = viper.BindPFlag("self_test", cmd.Flags().Lookup("self-test"))
	_ = viper.BindPFlag("no_setup", cmd.Flags().Lookup("no-setup"))
	return cmd
}

func runInstall(ctx context.Context, cmd *cobra.Command, opts installOptions, manifest string) error {
	service, err := newAppService(cmd)
	if err != nil {
		return err
	}
	executable, err := os.Executable()
	if err != nil {
		log.Warn().Err(err).Msg("cannot determine executable path")
	}
	result, err := service.Install(ctx, app.InstallRequest{
		ManifestPath: manifest,
		InstDir:      resolveString(cmd, opts.InstDir, "inst_dir", "inst-dir"),
		CCSInstDir:   resolveString(cmd, opts.CCSInstDir, "ccs_inst_dir", "ccs-inst-dir"),
		Section:      resolveString(cmd, opts.Section, "section", "section"),
		Site:         resolveString(cmd, opts.Site, "site", "site"),
		HJFolders:    resolveStrings(cmd, opts.HJFolders, "hj_folders", "hj-folders"),
		Python:       resolveString(cmd, opts.Python, "python", "python"),
		Dev:          resolveBool(cmd, opts.Dev, "dev", "dev"),
		SkipBuild:    resolveBool(cmd, opts.SkipBuild, "skip_build", "skip-build"),
		SelfTest:     resolveBool(cmd, opts.SelfTest, "self_test", "self-test"),
		NoSetup:      resolveBool(cmd, opts.NoSetup, "no_setup", "no-setup"),
		Executable:   executable,
	})
	for _, report := range result.Reports {
		printInstallReport(report)
	}
	return err
}

func printInstallReport(report types.InstallReport) {
	fmt.Printf("%s install: %s\n", report.Flavor, report.InstDir)
	for _, section := range report.Sections {
		if section.Skipped {
			fmt.Printf("  [%s] not in manifest\n", section.Section)
			continue
		}
		fmt.Printf("  [%s] fetched=%d failed=%d links changed=%d\n",
			section.Section, len(section.Fetches)-len(section.Failed()), len(section.Failed()), section.Mutations())
		for _, record := range section.Failed() {
			fmt.Printf("    failed: %s\n", record.Package.RawName)
		}
	}
	skipped := 0
	for _, followUp := range report.FollowUps {
		if !followUp.Ran {
			skipped++
		}
	}
	if skipped > 0 {
		fmt.Printf("  build steps not run: %d\n", skipped)
	}
	if report.SetupPath != "" {
		fmt.Printf("  setup: %s\n", report.SetupPath)
	}
}

package cli

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/adrg/xdg"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"dh-release/internal/adapters"
	"dh-release/internal/app"
	"dh-release/internal/types"
)

// version is set at build time via ldflags.
var version = "dev"

const envPrefix = "DH_INSTALL"

type RootConfig struct {
	ConfigFile   string
	LogLevel     string
	PolicyFile   string
	StagingDir   string
	HTTPTimeout  int
	HTTPRetries  int
	GitHubToken  string
	DiscoverOrgs bool
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	root := newRootCommand()
	if args, ok := replayArgs(os.Args); ok {
		root.SetArgs(args)
	}
	if err := root.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(exitCodeForError(err))
	}
}

func newRootCommand() *cobra.Command {
	cfg := RootConfig{}
	cmd := &cobra.Command{
		Use:           "dh-install",
		Short:         "Install job harness and CCS software from a version manifest",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := initConfig(cfg.ConfigFile); err != nil {
				return err
			}
			setupLogging(viper.GetString("log_level"))
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&cfg.ConfigFile, "config", "", "Config file path")
	cmd.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", "info", "Log level")
	cmd.PersistentFlags().StringVar(&cfg.PolicyFile, "policy", "", "Installer policy file (YAML)")
	cmd.PersistentFlags().StringVar(&cfg.StagingDir, "staging-dir", "", "Download staging directory (defaults to the XDG cache)")
	cmd.PersistentFlags().IntVar(&cfg.HTTPTimeout, "http-timeout", 0, "HTTP timeout in seconds (0 = none)")
	cmd.PersistentFlags().IntVar(&cfg.HTTPRetries, "http-retries", 1, "HTTP attempts for transient failures (1 = no retry)")
	cmd.PersistentFlags().StringVar(&cfg.GitHubToken, "github-token", "", "GitHub API token")
	cmd.PersistentFlags().BoolVar(&cfg.DiscoverOrgs, "discover-orgs", true, "List organisation repositories to locate packages (false = first organisation)")
	_ = viper.BindPFlag("log_level", cmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("policy", cmd.PersistentFlags().Lookup("policy"))
	_ = viper.BindPFlag("staging_dir", cmd.PersistentFlags().Lookup("staging-dir"))
	_ = viper.BindPFlag("http_timeout", cmd.PersistentFlags().Lookup("http-timeout"))
	_ = viper.BindPFlag("http_retries", cmd.PersistentFlags().Lookup("http-retries"))
	_ = viper.BindPFlag("github_token", cmd.PersistentFlags().Lookup("github-token"))
	_ = viper.BindPFlag("discover_orgs", cmd.PersistentFlags().Lookup("discover-orgs"))

	cmd.AddCommand(newInstallCommand())
	cmd.AddCommand(newSetupCommand())
	cmd.AddCommand(newStatusCommand())
	cmd.AddCommand(newOutdatedCommand())
	cmd.AddCommand(newPruneCommand())
	cmd.AddCommand(newValidateCommand())
	return cmd
}

func initConfig(configFile string) error {
	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv()

	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("failed to read config file").
				WithCause(err)
		}
		return nil
	}

	viper.SetConfigName("dh-install")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath(filepath.Join(xdg.ConfigHome, "dh-install"))
	if err := viper.ReadInConfig(); err != nil {
		return nil
	}
	return nil
}

func setupLogging(level string) {
	noColor := !isatty.IsTerminal(os.Stderr.Fd()) && !isatty.IsCygwinTerminal(os.Stderr.Fd())
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: noColor}).
		With().
		Str("run", uuid.NewString()).
		Logger()
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

func newAppService(cmd *cobra.Command) (app.Service, error) {
	return app.NewService(serviceOptions(cmd))
}

func serviceOptions(cmd *cobra.Command) app.ServiceOptions {
	opts := app.ServiceOptions{
		PolicyPath: resolveString(cmd, "", "policy", "policy"),
		StagingDir: resolveString(cmd, "", "staging_dir", "staging-dir"),
		HTTP: adapters.HTTPOptions{
			Timeout:   time.Duration(viper.GetInt("http_timeout")) * time.Second,
			Retries:   viper.GetInt("http_retries"),
			Token:     viper.GetString("github_token"),
			UserAgent: "dh-install/" + version,
		},
	}
	// Only an explicit flag, env or config value overrides the policy file.
	if flagChanged(cmd, "discover-orgs") || viper.IsSet("discover_orgs") {
		discover := viper.GetBool("discover_orgs")
		opts.DiscoverOrgs = &discover
	}
	return opts
}

// replayArgs returns the recorded arguments of a dev install when the
// program is invoked without arguments through a path that has an
// .installArgs file next to it.
func replayArgs(argv []string) ([]string, bool) {
	if len(argv) != 1 {
		return nil, false
	}
	path := filepath.Join(filepath.Dir(argv[0]), adapters.InstallArgsFile)
	args, err := adapters.NewInstallRecordAdapter(nil).ReadInstallArgs(path)
	if err != nil || len(args) == 0 {
		return nil, false
	}
	return args, true
}

func exitCodeForError(err error) int {
	code := errbuilder.CodeOf(err)
	message := errorMessage(err)
	switch code {
	case errbuilder.CodeInvalidArgument, errbuilder.CodeAlreadyExists:
		return 2
	case errbuilder.CodePermissionDenied:
		return 3
	case errbuilder.CodeNotFound:
		return 5
	case errbuilder.CodeInternal:
		if strings.HasPrefix(message, types.MsgSymlinkMutation) {
			return 3
		}
		return 6
	default:
		return 1
	}
}

func errorMessage(err error) string {
	return types.ErrorMessage(err)
}

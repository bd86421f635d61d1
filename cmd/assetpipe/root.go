package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skillsenselab/assetpipe/config"
	"github.com/skillsenselab/assetpipe/logger"
	"github.com/skillsenselab/assetpipe/notify"
	"github.com/skillsenselab/assetpipe/patternlab"
	"github.com/skillsenselab/assetpipe/sass"
	"github.com/skillsenselab/assetpipe/task"
	"github.com/skillsenselab/assetpipe/version"
)

// app holds the wired task providers for one CLI invocation.
type app struct {
	cfg      *config.Project
	sass     *sass.Sass
	plab     *patternlab.PatternLab
	registry *task.Registry
	log      *logger.Logger
}

type rootFlags struct {
	configFile  string
	envFile     string
	logLevel    string
	environment string
	noNotify    bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	a := &app{}

	cmd := &cobra.Command{
		Use:           "assetpipe",
		Version:       version.Short(),
		Short:         "Configuration-driven front-end asset pipeline",
		Long:          "assetpipe compiles, lints, documents and watches front-end assets,\ndriven by a YAML configuration file.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(flags)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&flags.configFile, "config", "c", "", "config file path (default: assetpipe.yml search)")
	pf.StringVar(&flags.envFile, "env-file", "", ".env file path")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	pf.StringVarP(&flags.environment, "environment", "e", "", "environment override (development, staging, production)")
	pf.BoolVar(&flags.noNotify, "no-notify", false, "disable desktop notifications")

	cmd.AddCommand(
		newCompileCmd(a),
		newCleanCmd(a),
		newLintCmd(a),
		newDocsCmd(a),
		newWatchCmd(a),
		newTasksCmd(a),
	)
	return cmd
}

// init loads the configuration and wires the task providers. Configuration
// problems surface here, before any subcommand runs.
func (a *app) init(flags *rootFlags) error {
	var opts []config.LoaderOption
	if flags.configFile != "" {
		opts = append(opts, config.WithConfigFile(flags.configFile))
	}
	if flags.envFile != "" {
		opts = append(opts, config.WithEnvFile(flags.envFile))
	}

	cfg, err := config.Load(opts...)
	if err != nil {
		return err
	}
	if flags.environment != "" {
		cfg.Environment = flags.environment
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	if flags.logLevel != "" {
		cfg.Logging.Level = flags.logLevel
	}
	logger.Init(cfg.Logging)

	a.cfg = cfg
	a.log = logger.Get("cli")

	notifier := notify.NewDesktop(cfg.Name, !flags.noNotify)
	a.sass, err = sass.New(cfg.Sass,
		sass.WithEnvironment(cfg.Environment),
		sass.WithUserNotifier(notifier),
	)
	if err != nil {
		return err
	}

	a.registry = task.NewRegistry()
	if err := a.registry.RegisterAll(a.sass); err != nil {
		return err
	}

	if cfg.PatternLab.Enabled {
		a.plab, err = patternlab.New(cfg.PatternLab)
		if err != nil {
			return err
		}
		if err := a.registry.RegisterAll(a.plab); err != nil {
			return err
		}
	}
	return nil
}

func newTasksCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tasks",
		Short: "List available tasks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, t := range a.registry.All() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-20s %s\n", t.Name, t.Description)
			}
			return nil
		},
	}
}

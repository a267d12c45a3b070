package commands

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conduit-lang/schemagen/internal/cli/config"
	"github.com/conduit-lang/schemagen/internal/cli/ui"
	"github.com/conduit-lang/schemagen/internal/declare"
	"github.com/conduit-lang/schemagen/internal/logging"
	"github.com/conduit-lang/schemagen/internal/schema"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// rootOptions carries the persistent flags and what PersistentPreRunE
// derives from them
type rootOptions struct {
	configFile   string
	declarations string
	logLevel     string
	noColor      bool

	cfg    *config.Config
	logger *zap.Logger
}

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "schemagen",
		Short: "Generate collection and search index schemas from class declarations",
		Long: `schemagen turns YAML class declarations into the schema documents a
document store and a search engine consume.

Collections get field types, primary keys and storage options. Search indexes
get the search-only fields and options such as facets and sorting. Embedded
classes are expanded inline wherever they are used.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.init(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.logger != nil {
				opts.logger.Sync()
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "config file (default: ./schemagen.yml)")
	flags.StringVarP(&opts.declarations, "declarations", "d", "", "declaration file, directory or glob (overrides config)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
	flags.BoolVar(&opts.noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(newValidateCommand(opts))
	rootCmd.AddCommand(newBuildCommand(opts))
	rootCmd.AddCommand(newShowCommand(opts))
	rootCmd.AddCommand(newListCommand(opts))
	rootCmd.AddCommand(newServeCommand(opts))
	rootCmd.AddCommand(newNewCommand(opts))
	rootCmd.AddCommand(newTokenCommand(opts))

	return rootCmd
}

func (o *rootOptions) init(cmd *cobra.Command) error {
	if o.noColor {
		color.NoColor = true
	}

	cfg, err := config.Load(o.configFile)
	if err != nil {
		return err
	}
	if o.declarations != "" {
		cfg.Declarations = o.declarations
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	o.cfg = cfg

	logger, err := logging.New(cfg.LoggingConfig())
	if err != nil {
		return err
	}
	o.logger = logger.With(zap.String("command", cmd.Name()))
	return nil
}

// loadClasses reads every declaration file
func (o *rootOptions) loadClasses() ([]*schema.Class, error) {
	classes, err := declare.LoadPath(o.cfg.Declarations)
	if err != nil {
		return nil, err
	}
	o.logger.Debug("declarations loaded",
		zap.String("path", o.cfg.Declarations),
		zap.Int("classes", len(classes)),
	)
	return classes, nil
}

// loadRegistry reads, registers and validates the declarations and seals
// the registry
func (o *rootOptions) loadRegistry() (*schema.Registry, error) {
	classes, err := o.loadClasses()
	if err != nil {
		return nil, err
	}

	registry := schema.NewRegistry()
	if err := declare.RegisterAll(registry, classes); err != nil {
		return nil, err
	}
	if err := registry.ValidateAll(); err != nil {
		return nil, err
	}
	registry.Seal()
	return registry, nil
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		// version works outside a project, so skip config loading
		PersistentPreRun: func(cmd *cobra.Command, args []string) {},
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			title := color.New(color.FgCyan, color.Bold)
			if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
				title.DisableColor()
			}

			title.Fprint(out, "schemagen version: ")
			fmt.Fprintln(out, Version)
			title.Fprint(out, "Git commit: ")
			fmt.Fprintln(out, GitCommit)
			title.Fprint(out, "Build date: ")
			fmt.Fprintln(out, BuildDate)
			title.Fprint(out, "Go version: ")
			fmt.Fprintln(out, runtime.Version())
		},
	}
}

// Execute runs the root command
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		var reported *reportedError
		if !errors.As(err, &reported) {
			fmt.Fprint(rootCmd.ErrOrStderr(), ui.Format(ui.Message{Problem: err.Error()}))
		}
		return err
	}
	return nil
}

// reportedError marks an error whose diagnostic was already printed
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }

func (e *reportedError) Unwrap() error { return e.err }

func reported(err error) error {
	return &reportedError{err: err}
}

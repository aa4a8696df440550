package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"

	"github.com/dhamidi/mapport/config"
	"github.com/dhamidi/mapport/jarindex"
)

const version = "0.1.0"

var log = commonlog.GetLogger("mapport")

// app carries the settings shared by all subcommands.
type app struct {
	configPath string
	verbose    int
	logFile    string
	noColor    bool

	cfg *config.Config
}

func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Logging.Verbosity = a.verbose
	}
	if a.logFile != "" {
		cfg.Logging.File = a.logFile
	}
	if a.noColor {
		cfg.Output.Color = false
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	var path *string
	if cfg.Logging.File != "" {
		path = &cfg.Logging.File
	}
	commonlog.Configure(cfg.Logging.Verbosity, path)
	color.NoColor = color.NoColor || !cfg.Output.Color
	return nil
}

func (a *app) indexOptions() jarindex.Options {
	return jarindex.Options{SkipSynthetic: a.cfg.Matching.SkipSynthetic}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "mapport",
		Short:         "Carry deobfuscation mappings from one obfuscated build to the next",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "config file (default .mapport.yaml)")
	flags.CountVarP(&a.verbose, "verbose", "v", "log more (repeatable)")
	flags.StringVar(&a.logFile, "log-file", "", "write logs to this file instead of stderr")
	flags.BoolVar(&a.noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(newClassesCmd(a))
	rootCmd.AddCommand(newResolveCmd(a))
	rootCmd.AddCommand(newFieldsCmd(a))
	rootCmd.AddCommand(newMethodsCmd(a))
	rootCmd.AddCommand(newConvertCmd(a))
	rootCmd.AddCommand(newRenameCmd(a))
	rootCmd.AddCommand(newReportCmd(a))
	rootCmd.AddCommand(newLSPCmd())

	return rootCmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fail(err)
		stop()
		os.Exit(1)
	}
}

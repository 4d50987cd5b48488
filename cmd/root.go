// Package cmd implements the cligen command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var appVersion = "dev"

// SetVersion sets the version reported by --version and the version command.
func SetVersion(v string) {
	appVersion = v
}

// envPrefix prefixes environment variables that set flags, e.g.
// CLIGEN_OUTPUT for --output.
const envPrefix = "CLIGEN"

// app is the state shared by the commands of one invocation.
type app struct {
	cfg        *viper.Viper
	log        *logrus.Logger
	configFile string
	stdout     io.Writer
	stderr     io.Writer
}

func newApp(stdout, stderr io.Writer) *app {
	cfg := viper.New()
	cfg.SetEnvPrefix(envPrefix)
	cfg.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	cfg.AutomaticEnv()

	log := logrus.New()
	log.SetOutput(stderr)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	log.SetLevel(logrus.InfoLevel)

	return &app{cfg: cfg, log: log, stdout: stdout, stderr: stderr}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "cligen",
		Short: "Generate a standalone Go command-line tool from Go functions",
		Long: `cligen turns Go functions into a standalone command-line tool.

Each function becomes a command: required parameters are positional
arguments, parameters with defaults are --options and booleans are flags.
Functions come from a Go package (defaults and help from //cligen:
directives) or from a YAML/JSON manifest.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "config file (default .cligen.yaml in the working directory)")
	pf.Bool("verbose", false, "show detailed progress")
	pf.Bool("quiet", false, "suppress all output except errors")
	a.bind(pf, "verbose", "quiet")

	root.AddCommand(newGenerateCmd(a), newMCPCmd(a), newVersionCmd(a))
	root.Version = appVersion
	root.SetVersionTemplate(fmt.Sprintf("cligen v%s\n", appVersion))
	return root
}

// bind makes viper answer for the named flags, so values can also come from
// the config file or CLIGEN_ environment variables.
func (a *app) bind(fs *pflag.FlagSet, names ...string) {
	for _, name := range names {
		_ = a.cfg.BindPFlag(name, fs.Lookup(name))
	}
}

// bindOnRun binds the named flags of cmd when cmd runs. Commands share flag
// names, and only the running command's flags may answer for a key.
func (a *app) bindOnRun(cmd *cobra.Command, names ...string) {
	cmd.PreRun = func(cmd *cobra.Command, _ []string) {
		a.bind(cmd.Flags(), names...)
	}
}

// setup reads the config file and configures logging.
func (a *app) setup(_ *cobra.Command, _ []string) error {
	if err := a.readConfig(); err != nil {
		return err
	}

	verbose, quiet := a.cfg.GetBool("verbose"), a.cfg.GetBool("quiet")
	if verbose && quiet {
		return fmt.Errorf("--verbose and --quiet cannot be used together")
	}
	switch {
	case verbose:
		a.log.SetLevel(logrus.DebugLevel)
	case quiet:
		a.log.SetLevel(logrus.ErrorLevel)
	}
	if used := a.cfg.ConfigFileUsed(); used != "" {
		a.log.WithField("file", used).Debug("using config file")
	}
	return nil
}

func (a *app) readConfig() error {
	if a.configFile != "" {
		a.cfg.SetConfigFile(a.configFile)
		if err := a.cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
		return nil
	}

	a.cfg.SetConfigName(".cligen")
	a.cfg.SetConfigType("yaml")
	a.cfg.AddConfigPath(".")
	if err := a.cfg.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return nil
}

// Execute runs the command line with the process arguments.
func Execute(ctx context.Context) error {
	return newRootCmd(newApp(os.Stdout, os.Stderr)).ExecuteContext(ctx)
}

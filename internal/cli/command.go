package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/calumari/bsonwalk/internal/logging"
)

// CommonOptions are the flags every command accepts.
type CommonOptions struct {
	LogLevel  string
	LogFormat string
	LogFile   string
}

// NewCommonOptions returns a new CommonOptions.
func NewCommonOptions() *CommonOptions {
	return &CommonOptions{}
}

// InstallFlags adds flags for the common options on the FlagSet.
func (o *CommonOptions) InstallFlags(flags *pflag.FlagSet) {
	def := logging.DefaultConfig()
	flags.StringVarP(&o.LogLevel, "log-level", "l", def.Level, fmt.Sprintf("Set the logging level (%s)", strings.Join(logging.Levels, "|")))
	flags.StringVar(&o.LogFormat, "log-format", def.Format, `Set the log format ("console"|"json")`)
	flags.StringVar(&o.LogFile, "log-file", "", "Also write JSON logs to this file")
}

// Logger builds the logger described by the options.
func (o *CommonOptions) Logger() (logging.Logger, error) {
	cfg := logging.DefaultConfig()
	cfg.Level = o.LogLevel
	cfg.Format = o.LogFormat
	cfg.File = o.LogFile
	l, err := logging.New(cfg)
	if err != nil {
		return nil, &ArgumentError{Err: err}
	}
	return l, nil
}

// SetupRootCommand applies the settings shared by every command.
func SetupRootCommand(cmd *cobra.Command) {
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	cmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &ArgumentError{Err: fmt.Errorf("%w\nSee '%s --help'", err, cmd.CommandPath())}
	})
}

// RequireFlags returns an ArgumentError naming the first flag in names
// that was left empty.
func RequireFlags(cmd *cobra.Command, names ...string) error {
	for _, name := range names {
		f := cmd.Flags().Lookup(name)
		if f == nil || f.Value.String() == "" {
			return ArgumentErrorf("required flag --%s not set\nSee '%s --help'", name, cmd.CommandPath())
		}
	}
	return nil
}

// MaximumNArgs is cobra.MaximumNArgs reporting an ArgumentError.
func MaximumNArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.MaximumNArgs(n)(cmd, args); err != nil {
			return &ArgumentError{Err: err}
		}
		return nil
	}
}

// Run executes cmd and returns the exit code, printing any error to
// stderr.
func Run(cmd *cobra.Command, stderr io.Writer) int {
	err := cmd.Execute()
	if err == nil {
		return ExitOK
	}
	if status, ok := err.(StatusError); ok && status.Status != "" {
		fmt.Fprintln(stderr, status.Status)
	} else {
		fmt.Fprintf(stderr, "%s: %v\n", cmd.Name(), err)
	}
	return ExitCode(err)
}

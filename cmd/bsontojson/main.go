// Command bsontojson converts a BSON file into an editable JSON file.
package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/calumari/bsonwalk"
	"github.com/calumari/bsonwalk/internal/cli"
	"github.com/calumari/bsonwalk/internal/fileio"
	"github.com/calumari/bsonwalk/internal/logging"
	"github.com/calumari/bsonwalk/internal/transcode"
)

type options struct {
	common   *cli.CommonOptions
	file     string
	output   string
	yes      bool
	validate bool
}

func newCommand() *cobra.Command {
	opts := options{common: cli.NewCommonOptions()}

	cmd := &cobra.Command{
		Use:   "bsontojson -f FILE [-o OUTPUT]",
		Short: "Convert a BSON file to pretty-printed JSON",
		Long: `Convert every document in a BSON file into a JSON array.

BSON-only values are written as extended JSON objects such as
{"$oid": "..."} or {"$binary": "..."} so jsontobson can restore them.
64-bit integers small enough to pass for 32-bit ones are written as
{"$numberLong": "..."}; edit the string, not the wrapper, to keep the
width. Plain numbers read back as 32-bit integers when they fit.`,
		Args: cli.MaximumNArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cli.RequireFlags(cmd, "file"); err != nil {
				return err
			}
			logger, err := opts.common.Logger()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			return run(cmd, opts, logger)
		},
	}
	cli.SetupRootCommand(cmd)

	flags := cmd.Flags()
	flags.StringVarP(&opts.file, "file", "f", "", "Path to the BSON file")
	flags.StringVarP(&opts.output, "output", "o", "", "Output JSON file (default: the input path with a .json extension)")
	flags.BoolVarP(&opts.yes, "yes", "y", false, "Overwrite the output file without prompting")
	flags.BoolVarP(&opts.validate, "validate", "v", false, "Validate the BSON file before conversion")
	opts.common.InstallFlags(flags)

	return cmd
}

func run(cmd *cobra.Command, opts options, logger logging.Logger) error {
	output := opts.output
	if output == "" {
		output = defaultOutputName(opts.file)
	}
	logger = logger.With(logging.String("input", opts.file), logging.String("output", output))
	logger.Info("starting bson to json conversion")

	if fileio.Exists(output) && !opts.yes {
		ok, err := confirmOverwrite(cmd, output)
		if err != nil {
			return err
		}
		if !ok {
			logger.Info("operation cancelled by user")
			return nil
		}
	}

	data, err := cli.ReadInput(opts.file)
	if err != nil {
		return err
	}
	if opts.validate {
		if err := bsonwalk.Validate(data); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		logger.Info("bson validation successful")
	}

	t, err := transcode.New(transcode.Options{}, logger)
	if err != nil {
		return err
	}
	out, err := t.BSONToJSON(data)
	if err != nil {
		return fmt.Errorf("convert %s: %w", opts.file, err)
	}
	if err := cli.WriteOutput(output, out); err != nil {
		return err
	}

	logger.Info("converted bson to json", logging.Int("bytes", len(out)))
	return nil
}

func defaultOutputName(input string) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + ".json"
}

func confirmOverwrite(cmd *cobra.Command, path string) (bool, error) {
	fmt.Fprintf(cmd.ErrOrStderr(), "File '%s' exists. Overwrite? (y/n): ", path)
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return false, cli.StatusError{
			Status:     fmt.Sprintf("output file %s exists; use --yes to overwrite", path),
			StatusCode: cli.ExitArgument,
		}
	}
	return strings.ToLower(strings.TrimSpace(line)) == "y", nil
}

func main() {
	os.Exit(cli.Run(newCommand(), os.Stderr))
}

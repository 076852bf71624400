// Command jsontobson converts a JSON file produced by bsontojson, possibly
// hand edited, back into BSON.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/calumari/bsonwalk/internal/cli"
	"github.com/calumari/bsonwalk/internal/logging"
	"github.com/calumari/bsonwalk/internal/transcode"
)

type options struct {
	common       *cli.CommonOptions
	file         string
	output       string
	legacyBinary bool
}

func newCommand() *cobra.Command {
	opts := options{common: cli.NewCommonOptions()}

	cmd := &cobra.Command{
		Use:   "jsontobson -f FILE (-o OUTPUT | OUTPUT)",
		Short: "Convert a JSON file to BSON",
		Long: `Convert a JSON document, or an array of documents, to BSON.

An array is written as the documents concatenated in order. Extended JSON
objects such as {"$oid": "..."} are restored to their BSON types.`,
		Args: cli.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cli.RequireFlags(cmd, "file"); err != nil {
				return err
			}
			output, err := outputPath(opts.output, args)
			if err != nil {
				return err
			}
			logger, err := opts.common.Logger()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			return run(opts, output, logger)
		},
	}
	cli.SetupRootCommand(cmd)

	flags := cmd.Flags()
	flags.StringVarP(&opts.file, "file", "f", "", "Path to the JSON file")
	flags.StringVarP(&opts.output, "output", "o", "", "Output BSON file")
	flags.BoolVar(&opts.legacyBinary, "legacy-binary-strings", false, `Decode "$binary:<base64>" strings as binary values`)
	opts.common.InstallFlags(flags)

	return cmd
}

func outputPath(flag string, args []string) (string, error) {
	switch {
	case flag != "" && len(args) == 1 && args[0] != flag:
		return "", cli.ArgumentErrorf("output given twice (%s and %s)", flag, args[0])
	case flag != "":
		return flag, nil
	case len(args) == 1 && args[0] != "":
		return args[0], nil
	default:
		return "", cli.ArgumentErrorf("an output file is required (-o OUTPUT or a positional argument)")
	}
}

func run(opts options, output string, logger logging.Logger) error {
	logger = logger.With(logging.String("input", opts.file), logging.String("output", output))
	logger.Info("starting json to bson conversion")

	data, err := cli.ReadInput(opts.file)
	if err != nil {
		return err
	}
	t, err := transcode.New(transcode.Options{LegacyBinaryStrings: opts.legacyBinary}, logger)
	if err != nil {
		return err
	}
	out, err := t.JSONToBSON(data)
	if err != nil {
		return fmt.Errorf("convert %s: %w", opts.file, err)
	}
	if err := cli.WriteOutput(output, out); err != nil {
		return err
	}

	logger.Info("converted json to bson", logging.Int("bytes", len(out)))
	return nil
}

func main() {
	os.Exit(cli.Run(newCommand(), os.Stderr))
}

// Command ugcclean prunes a BSON UGC record in one pass and prints the
// result as base64, ready to paste back into a request body.
package main

import (
	"encoding/base64"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/calumari/bsonwalk/internal/cli"
	"github.com/calumari/bsonwalk/internal/logging"
	"github.com/calumari/bsonwalk/internal/transcode"
)

type options struct {
	common *cli.CommonOptions
	prune  *cli.PruneOptions
	file   string
	output string
}

func newCommand() *cobra.Command {
	opts := options{
		common: cli.NewCommonOptions(),
		prune:  cli.NewPruneOptions(),
	}

	cmd := &cobra.Command{
		Use:   "ugcclean -f FILE [-o OUTPUT] [SEARCH_KEY]",
		Short: "Prune a BSON record and print it as base64",
		Long: `Convert a BSON record to documents, prune them the way prunejson
does, encode them back to BSON and print the base64 of the result.

No intermediate files are written.`,
		Args: cli.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cli.RequireFlags(cmd, "file"); err != nil {
				return err
			}
			var searchKey string
			if len(args) == 1 {
				searchKey = args[0]
			}
			topts, err := opts.prune.Options(searchKey)
			if err != nil {
				return err
			}
			logger, err := opts.common.Logger()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			return run(cmd.OutOrStdout(), opts, topts, logger)
		},
	}
	cli.SetupRootCommand(cmd)

	flags := cmd.Flags()
	flags.StringVarP(&opts.file, "file", "f", "", "Path to the BSON file")
	flags.StringVarP(&opts.output, "output", "o", "", "File to save the base64 content to (default: stdout)")
	opts.prune.InstallFlags(flags)
	opts.common.InstallFlags(flags)

	return cmd
}

func run(stdout io.Writer, opts options, topts transcode.Options, logger logging.Logger) error {
	logger = logger.With(logging.String("input", opts.file))

	data, err := cli.ReadInput(opts.file)
	if err != nil {
		return err
	}
	t, err := transcode.New(topts, logger)
	if err != nil {
		return err
	}
	cleaned, err := t.Clean(data)
	if err != nil {
		return fmt.Errorf("clean %s: %w", opts.file, err)
	}
	encoded := base64.StdEncoding.EncodeToString(cleaned)

	if opts.output == "" {
		if _, err := fmt.Fprintln(stdout, encoded); err != nil {
			return &cli.IOError{Op: "write", Path: "stdout", Err: err}
		}
		return nil
	}
	if err := cli.WriteOutput(opts.output, []byte(encoded)); err != nil {
		return err
	}
	logger.Info("base64 content saved", logging.String("output", opts.output))
	return nil
}

func main() {
	os.Exit(cli.Run(newCommand(), os.Stderr))
}

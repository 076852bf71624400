// Command prunejson removes configured fields from a JSON file in place.
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
	common *cli.CommonOptions
	prune  *cli.PruneOptions
	file   string
}

func newCommand() *cobra.Command {
	opts := options{
		common: cli.NewCommonOptions(),
		prune:  cli.NewPruneOptions(),
	}

	cmd := &cobra.Command{
		Use:   "prunejson -f FILE [SEARCH_KEY]",
		Short: "Remove configured fields from a JSON file",
		Long: `Remove configured fields from every object in a JSON file and
rewrite the file in place.

Elements embedded in binary content fields whose asset name contains
SEARCH_KEY (default "pet"), or that reference an inventory item, are
dropped first.`,
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
			return run(opts.file, topts, logger)
		},
	}
	cli.SetupRootCommand(cmd)

	flags := cmd.Flags()
	flags.StringVarP(&opts.file, "file", "f", "", "Path to the JSON file")
	opts.prune.InstallFlags(flags)
	opts.common.InstallFlags(flags)

	return cmd
}

func run(file string, topts transcode.Options, logger logging.Logger) error {
	logger = logger.With(logging.String("file", file))

	data, err := cli.ReadInput(file)
	if err != nil {
		return err
	}
	t, err := transcode.New(topts, logger)
	if err != nil {
		return err
	}
	out, err := t.PruneJSON(data)
	if err != nil {
		return fmt.Errorf("prune %s: %w", file, err)
	}
	if err := cli.WriteOutput(file, out); err != nil {
		return err
	}

	logger.Info("pruned json saved")
	return nil
}

func main() {
	os.Exit(cli.Run(newCommand(), os.Stderr))
}

package cli

import (
	"github.com/spf13/pflag"

	"github.com/calumari/bsonwalk/internal/config"
	"github.com/calumari/bsonwalk/internal/transcode"
)

// PruneOptions are the flags of the commands that prune documents.
type PruneOptions struct {
	ConfigPath      string
	NoContentFilter bool
}

// NewPruneOptions returns a new PruneOptions.
func NewPruneOptions() *PruneOptions {
	return &PruneOptions{}
}

// InstallFlags adds the prune flags on the FlagSet.
func (o *PruneOptions) InstallFlags(flags *pflag.FlagSet) {
	flags.StringVarP(&o.ConfigPath, "config", "c", "", "YAML file with the fields to remove and preserve")
	flags.BoolVar(&o.NoContentFilter, "no-content-filter", false, "Do not filter elements embedded in binary content fields")
}

// Options loads the rules file, if any, and builds the transcode options.
// A non-empty searchKey replaces the configured one.
func (o *PruneOptions) Options(searchKey string) (transcode.Options, error) {
	cfg := config.Default()
	if o.ConfigPath != "" {
		loaded, err := config.Load(o.ConfigPath)
		if err != nil {
			return transcode.Options{}, &ArgumentError{Err: err}
		}
		cfg = loaded
	}

	opts := transcode.Options{Rules: cfg.Rules()}
	if cfg.ContentEnabled() && !o.NoContentFilter {
		f := cfg.ContentFilter()
		if searchKey != "" {
			f.SearchKey = searchKey
		}
		opts.Content = &f
	}
	return opts, nil
}

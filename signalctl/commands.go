package main

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/DeafMist/signal-radar/internal/config"
	"github.com/DeafMist/signal-radar/internal/dataset"
	"github.com/DeafMist/signal-radar/internal/logger"
	"github.com/DeafMist/signal-radar/internal/signals"
)

type rootOptions struct {
	configFile   string
	dataFile     string
	defaultsFile string
	delimiter    string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "signalctl",
		Short:         "Inspect a signal dataset from the command line",
		Long:          `signalctl loads the signal file the same way the API does and prints the dashboard queries as JSON.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	f := root.PersistentFlags()
	f.StringVar(&opts.configFile, "config", "", "config file (default is $SIGNALS_CONFIG)")
	f.StringVar(&opts.dataFile, "file", "", "signal file to load (overrides SIGNALS_FILE)")
	f.StringVar(&opts.defaultsFile, "defaults", "", "YAML file with per-column fill defaults")
	f.StringVar(&opts.delimiter, "delimiter", "", "field delimiter: a character or tab|comma|semicolon|pipe")

	root.AddCommand(
		queryCmd(opts, "records", "Print every record in file order", func(ctx context.Context, svc *signals.Service) any {
			return svc.Records(ctx)
		}),
		queryCmd(opts, "stats", "Print summary statistics", func(ctx context.Context, svc *signals.Service) any {
			if stats := svc.Stats(ctx); stats != nil {
				return stats
			}
			return struct{}{}
		}),
		queryCmd(opts, "clusters", "Print record counts per topic cluster", func(ctx context.Context, svc *signals.Service) any {
			return svc.Clusters(ctx)
		}),
		queryCmd(opts, "high-impact", "Print the number of high-impact records", func(ctx context.Context, svc *signals.Service) any {
			if n, ok := svc.HighImpactCount(ctx); ok {
				return map[string]int{"high_impact_count": n}
			}
			return struct{}{}
		}),
	)

	return root
}

func queryCmd(opts *rootOptions, use, short string, query func(context.Context, *signals.Service) any) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := opts.service(cmd)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), query(cmd.Context(), svc))
		},
	}
}

// service resolves config, then lets explicitly set flags win.
func (o *rootOptions) service(cmd *cobra.Command) (*signals.Service, error) {
	cfg, err := config.LoadCLI(o.configFile)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("file") {
		cfg.DataFile = o.dataFile
	}
	if flags.Changed("defaults") {
		cfg.DefaultsFile = o.defaultsFile
	}
	if flags.Changed("delimiter") {
		d, err := config.ParseDelimiter(o.delimiter)
		if err != nil {
			return nil, err
		}
		cfg.Delimiter = d
	}

	defaults, err := dataset.LoadFillPolicy(cfg.DefaultsFile)
	if err != nil {
		return nil, err
	}

	log := logger.NewWithWriter(cmd.ErrOrStderr(), "signalctl", os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	return signals.NewService(dataset.NewLoader(dataset.Options{
		Path:      cfg.DataFile,
		Delimiter: cfg.Delimiter,
		Defaults:  defaults,
		Logger:    log,
	})), nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

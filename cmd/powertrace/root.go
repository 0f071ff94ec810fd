package main

import (
	"io"
	"time"

	"codeberg.org/mutker/powertrace/internal/analyzer"
	"codeberg.org/mutker/powertrace/internal/config"
	"codeberg.org/mutker/powertrace/internal/errors"
	"codeberg.org/mutker/powertrace/internal/logger"
	"codeberg.org/mutker/powertrace/internal/render"
	"codeberg.org/mutker/powertrace/internal/report"
	"codeberg.org/mutker/powertrace/internal/trace"
	"github.com/spf13/cobra"
)

// newRootCmd builds the command tree. Rendered results go to out.
func newRootCmd(out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "powertrace",
		Short:         "Analyze CPU idle, frequency and thermal behavior in kernel traces",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	config.RegisterFlags(root.PersistentFlags())
	root.PersistentFlags().StringP("config", "c", "", "Configuration file (default: $POWERTRACE_CONFIG or powertrace.toml in /etc/powertrace, ~/.config/powertrace)")

	root.AddCommand(newListCmd(out))
	for _, ns := range analyzer.Namespaces {
		root.AddCommand(newAccessorCmd(out, ns))
	}

	return root
}

// setup loads the configuration, initializes logging and builds an analyzer
// over the configured trace.
func setup(cmd *cobra.Command) (*config.Config, *analyzer.Analyzer, error) {
	errFactory := errors.New()

	var opts []config.Option
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		opts = append(opts, config.WithConfigFile(path))
	}

	cfg, err := config.Load(cmd.Flags(), opts...)
	if err != nil {
		return nil, nil, err
	}

	if err := logger.Init(cfg.LogLevel, logger.IsService()); err != nil {
		return nil, nil, err
	}
	logger.Debug().Msg("Config loaded")

	if cfg.Trace == "" {
		return nil, nil, errFactory.WithMessage(errors.ErrInvalidConfig, "no trace file given (--trace)")
	}

	src, err := trace.ReadFile(cfg.Trace)
	if err != nil {
		return nil, nil, err
	}

	clusters := make([]analyzer.Cluster, 0, len(cfg.Clusters))
	for _, c := range cfg.Clusters {
		clusters = append(clusters, analyzer.Cluster{Name: c.Name, CPUs: c.CPUs})
	}

	a, err := analyzer.New(src,
		analyzer.WithWindow(cfg.Start, cfg.End),
		analyzer.WithTopology(clusters...),
		analyzer.WithFrequencyDomains(cfg.FreqDomains...),
		analyzer.WithLogger(logger.Default()),
	)
	if err != nil {
		return nil, nil, err
	}

	return cfg, a, nil
}

func newAccessorCmd(out io.Writer, ns analyzer.Namespace) *cobra.Command {
	return &cobra.Command{
		Use:   string(ns) + " <module> <accessor> [cpus...]",
		Short: "Run a " + string(ns) + " accessor",
		Long: "Run an accessor from the " + string(ns) + " namespace of a module. " +
			"CPU arguments are kernel style lists such as 0-3,6.",
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cpus, err := config.ParseCPUArgs(args[2:])
			if err != nil {
				return err
			}

			cfg, a, err := setup(cmd)
			if err != nil {
				return err
			}

			tbl, err := a.Call(args[0], ns, args[1], cpus...)
			if err != nil {
				return err
			}

			r, err := render.For(cfg.Format.String())
			if err != nil {
				return err
			}
			if err := r(out, tbl); err != nil {
				return err
			}

			w := a.Window()
			rec, err := report.NewService(
				report.Config{DBPath: cfg.Store, BatchSize: cfg.BatchSize},
				report.Run{Trace: cfg.Trace, Start: w.Start, End: w.End, CreatedAt: time.Now()},
				logger.Default(),
			)
			if err != nil {
				return err
			}
			ref := report.Ref{Module: args[0], Namespace: string(ns), Accessor: args[1]}
			if err := rec.Record(cmd.Context(), ref, tbl); err != nil {
				if cerr := rec.Close(); cerr != nil {
					logger.Error().Err(cerr).Msg("Failed to close report store")
				}
				return err
			}

			return rec.Close()
		},
	}
}

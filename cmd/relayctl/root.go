package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/relay/internal/domain/model"
	"github.com/okian/relay/internal/domain/roster"
	"github.com/okian/relay/internal/samples"
	"github.com/okian/relay/pkg/logger"
)

// rootOptions carries the persistent flags and the logger they configure.
type rootOptions struct {
	verbose   bool
	logFormat string
	log       logger.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{log: logger.Nop()}

	rootCmd := &cobra.Command{
		Use:   "relayctl",
		Short: "Form mixed relay teams from a swimmer roster",
		Long: `relayctl assigns swimmers to relay teams of a fixed size with a minimum
number of women per team, and labels every team with the age category its
summed age falls into.

Modes:
  minimize-total  fastest possible teams, as many as the roster allows
  balance         teams whose summed times are as close as possible
  quota           a requested number of teams per category, then overflow`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level := "warn"
			if opts.verbose {
				level = "debug"
			}
			if err := logger.Init(
				logger.WithWriter(cmd.ErrOrStderr()),
				logger.WithFormat(opts.logFormat),
				logger.WithLevel(level),
			); err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			opts.log = logger.Get()
			return nil
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging on stderr")
	rootCmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "text", "Log format: text or json")

	rootCmd.AddCommand(newSolveCmd(opts))
	rootCmd.AddCommand(newValidateCmd(opts))
	rootCmd.AddCommand(newSampleCmd(opts))
	rootCmd.AddCommand(newRemoteCmd(opts))
	return rootCmd
}

// requestFlags are the optimization parameters shared by solve and remote.
type requestFlags struct {
	mode     string
	teamSize int
	minWomen int
	quotas   []string
	output   string
	timeout  time.Duration
}

func (f *requestFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.mode, "mode", "m", string(model.ModeMinimizeTotal), "minimize-total, balance or quota")
	cmd.Flags().IntVarP(&f.teamSize, "team-size", "s", 4, "Swimmers per team")
	cmd.Flags().IntVarP(&f.minWomen, "min-women", "w", 1, "Minimum women per team")
	cmd.Flags().StringArrayVarP(&f.quotas, "quota", "q", nil, "Teams per category as NAME=N; repeatable, quota mode only")
	cmd.Flags().StringVarP(&f.output, "output", "o", "table", "Output: table or json")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 30*time.Second, "Solver timeout, 0 for none")
}

func (f *requestFlags) request() (model.Request, error) {
	mode, err := model.ParseMode(f.mode)
	if err != nil {
		return model.Request{}, err
	}
	if f.output != "table" && f.output != "json" {
		return model.Request{}, fmt.Errorf("unknown output %q", f.output)
	}
	req := model.Request{Mode: mode, TeamSize: f.teamSize, MinWomen: f.minWomen}
	if len(f.quotas) > 0 {
		if mode != model.ModeQuota {
			return model.Request{}, fmt.Errorf("--quota needs --mode quota")
		}
		req.Quotas, err = parseQuotas(f.quotas)
		if err != nil {
			return model.Request{}, err
		}
	}
	return req, nil
}

// parseQuotas reads NAME=N pairs. A repeated name adds up.
func parseQuotas(raw []string) (map[string]int, error) {
	out := make(map[string]int, len(raw))
	for _, item := range raw {
		name, count, ok := strings.Cut(item, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("quota %q is not NAME=N", item)
		}
		n, err := strconv.Atoi(strings.TrimSpace(count))
		if err != nil || n < 0 {
			return nil, fmt.Errorf("quota %q needs a non-negative count", item)
		}
		out[name] += n
	}
	return out, nil
}

// datasetFlags pick the roster: a file or a bundled sample.
type datasetFlags struct {
	path   string
	sample string
}

func (f *datasetFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.path, "dataset", "d", "", "Dataset file (.yaml, .json or .csv)")
	cmd.Flags().StringVar(&f.sample, "sample", "", "Use the bundled roster with the 25m or 50m category table")
	cmd.MarkFlagsMutuallyExclusive("dataset", "sample")
}

// set reports whether either flag was given.
func (f *datasetFlags) set() bool { return f.path != "" || f.sample != "" }

func (f *datasetFlags) document() (roster.Document, error) {
	if f.sample != "" {
		table, ok := samples.Table(f.sample)
		if !ok {
			return roster.Document{}, fmt.Errorf("unknown sample %q, want 25m or 50m", f.sample)
		}
		return roster.Dataset{Swimmers: samples.Swimmers(), Categories: table}.Document(), nil
	}
	if f.path == "" {
		return roster.Document{}, fmt.Errorf("one of --dataset or --sample is required")
	}
	return readDocument(f.path)
}

func readDocument(path string) (roster.Document, error) {
	format, err := roster.FormatFromPath(path)
	if err != nil {
		return roster.Document{}, err
	}
	file, err := os.Open(path)
	if err != nil {
		return roster.Document{}, err
	}
	defer file.Close()
	return roster.Decode(file, format)
}

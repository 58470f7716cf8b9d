package main

import (
	"github.com/spf13/cobra"

	service "github.com/okian/relay/internal/app"
)

func newSolveCmd(opts *rootOptions) *cobra.Command {
	var (
		req      requestFlags
		data     datasetFlags
		maxNodes int
	)
	solveCmd := &cobra.Command{
		Use:   "solve",
		Short: "Form teams from a dataset in-process",
		Long: `Loads a dataset, runs one optimization and prints the teams.

Examples:
  relayctl solve --sample 25m --team-size 10 --min-women 2
  relayctl solve -d roster.yaml --mode balance -s 4 -w 2
  relayctl solve -d roster.csv --mode quota -q B=2 -q C=1 -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := req.request()
			if err != nil {
				return err
			}
			doc, err := data.document()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			svc := service.New(
				service.WithLogger(opts.log.Named("solve")),
				service.WithSolverTimeout(req.timeout),
				service.WithMaxNodes(maxNodes),
			)
			if _, err := svc.LoadDataset(ctx, doc); err != nil {
				return err
			}
			report, err := svc.Optimize(ctx, r)
			if err != nil {
				return solveError(err)
			}
			return renderReport(cmd.OutOrStdout(), report, req.output)
		},
	}
	req.bind(solveCmd)
	data.bind(solveCmd)
	solveCmd.Flags().IntVar(&maxNodes, "max-nodes", 200_000, "Branch-and-bound node cap, 0 for none")
	return solveCmd
}

// outcomeError reads as the user-facing outcome message and unwraps to the
// solver error.
type outcomeError struct {
	msg string
	err error
}

func (e *outcomeError) Error() string { return e.msg }
func (e *outcomeError) Unwrap() error { return e.err }

func solveError(err error) error {
	if err == nil {
		return nil
	}
	return &outcomeError{msg: service.StatusMessage(err), err: err}
}

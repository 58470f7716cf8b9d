package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/relay/internal/domain/roster"
)

func newValidateCmd(_ *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE",
		Short: "Check a dataset file and list every problem found",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(args[0])
			if err != nil {
				return err
			}
			ds, err := roster.Validate(doc)
			var verr *roster.ValidationError
			if errors.As(err, &verr) {
				for _, v := range verr.Violations {
					fmt.Fprintln(cmd.OutOrStdout(), warnStyle.Render(v.String()))
				}
				return fmt.Errorf("%s: %d problems", args[0], len(verr.Violations))
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render(fmt.Sprintf("ok: %d swimmers, %d categories",
				len(ds.Swimmers), len(ds.Categories))))
			return nil
		},
	}
}

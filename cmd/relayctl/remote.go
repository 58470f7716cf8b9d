package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/relay/internal/client"
	"github.com/okian/relay/internal/domain/model"
	"github.com/okian/relay/internal/domain/roster"
	"github.com/okian/relay/pkg/logger"
)

// httpSlack is added to the solver timeout for the HTTP round trip.
const httpSlack = 10 * time.Second

func newRemoteCmd(opts *rootOptions) *cobra.Command {
	var (
		req   requestFlags
		data  datasetFlags
		url   string
		async bool
		key   string
	)
	remoteCmd := &cobra.Command{
		Use:   "remote",
		Short: "Run an optimization on a relay server",
		Long: `Sends the request to a running server, optionally uploading a dataset
first, and checks the returned teams against the server's category table.

Examples:
  relayctl remote --sample 25m -s 10 -w 2
  relayctl remote --url http://relay:9080 --async --key nightly-1 -m balance`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := req.request()
			if err != nil {
				return err
			}
			c, err := client.New(url,
				client.WithTimeout(req.timeout+httpSlack),
				client.WithLogger(opts.log.Named("client")),
			)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if data.set() {
				doc, err := data.document()
				if err != nil {
					return err
				}
				info, err := c.LoadDataset(ctx, doc)
				if err != nil {
					return err
				}
				opts.log.Debug(ctx, "dataset uploaded", logger.String("version", info.Version))
				fmt.Fprintf(cmd.ErrOrStderr(), "dataset %s: %d swimmers, %d categories\n",
					info.Version, info.Swimmers, info.Categories)
			}

			var report *model.Report
			if async {
				job, err := c.Submit(ctx, key, r)
				if err != nil {
					return err
				}
				job, err = c.Wait(ctx, job.ID)
				if err != nil {
					return err
				}
				if job.State != model.JobSucceeded || job.Report == nil {
					return fmt.Errorf("job %s %s: %s", job.ID, job.State, job.Message)
				}
				report = job.Report
			} else {
				report, err = c.Optimize(ctx, r)
				if err != nil {
					return err
				}
			}

			doc, err := c.Dataset(ctx)
			if err != nil {
				return err
			}
			ds, err := roster.Validate(doc)
			if err != nil {
				return err
			}
			if err := client.Verify(report, r, ds.Categories); err != nil {
				return errors.Join(renderReport(cmd.OutOrStdout(), report, req.output), err)
			}
			return renderReport(cmd.OutOrStdout(), report, req.output)
		},
	}
	req.bind(remoteCmd)
	data.bind(remoteCmd)
	remoteCmd.Flags().StringVar(&url, "url", "http://localhost:9080", "Server base URL")
	remoteCmd.Flags().BoolVar(&async, "async", false, "Queue a job and wait for it")
	remoteCmd.Flags().StringVar(&key, "key", "", "Idempotency key for --async")
	return remoteCmd
}

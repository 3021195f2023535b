package main

import (
	"fmt"

	"github.com/spf13/cobra"

	chiTransport "github.com/kailas-cloud/decayscope/internal/transport/chi"
	analysisuc "github.com/kailas-cloud/decayscope/internal/usecase/analysis"
)

func newBatchCmd(opts *rootOptions) *cobra.Command {
	var (
		file        string
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Analyze many documents against a shared candidate pool",
		Long: `Batch reads a batch request (the body of POST /api/v1/analyses/batch)
and prints one result per document, in input order. A document that cannot be
analyzed yields an error record; the command still succeeds.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var req chiTransport.BatchRequest
			if err := readRequest(cmd, file, &req); err != nil {
				return err
			}
			if concurrency < 1 {
				return fmt.Errorf("--concurrency must be >= 1, got %d", concurrency)
			}

			svc, err := opts.service(concurrency)
			if err != nil {
				return err
			}
			results := svc.BatchAnalyze(cmd.Context(), req.Items(), req.Pool(), req.NowOrZero())

			resp := chiTransport.BatchResponse{Results: make([]chiTransport.BatchResultItem, 0, len(results))}
			for _, r := range results {
				resp.Results = append(resp.Results, chiTransport.BatchResultToResponse(r, ""))
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "-", `Request file ("-" for stdin)`)
	cmd.Flags().IntVar(&concurrency, "concurrency", analysisuc.DefaultMaxConcurrency, "Documents analyzed in parallel")
	return cmd
}

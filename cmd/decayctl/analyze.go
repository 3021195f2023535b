package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/decayscope/internal/domain/verdict"
	chiTransport "github.com/kailas-cloud/decayscope/internal/transport/chi"
)

type analyzeOutput struct {
	Verdict verdict.Verdict `json:"verdict"`
	Audit   *verdict.Audit  `json:"audit,omitempty"`
}

func newAnalyzeCmd(opts *rootOptions) *cobra.Command {
	var (
		file      string
		now       string
		withAudit bool
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze one document",
		Long: `Analyze reads an analysis request (the body of POST /api/v1/analyses)
and prints the verdict as JSON.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var req chiTransport.AnalyzeRequest
			if err := readRequest(cmd, file, &req); err != nil {
				return err
			}

			in := req.Input()
			if now != "" {
				t, err := time.Parse(time.RFC3339, now)
				if err != nil {
					return fmt.Errorf("--now: %w", err)
				}
				in.Now = t
			}

			svc, err := opts.service(1)
			if err != nil {
				return err
			}
			out, err := svc.Analyze(cmd.Context(), in)
			if err != nil {
				return fmt.Errorf("analyze %s: %w", req.Document.ID, err)
			}

			res := analyzeOutput{Verdict: out.Verdict}
			if withAudit {
				res.Audit = &out.Audit
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "-", `Request file ("-" for stdin)`)
	cmd.Flags().StringVar(&now, "now", "", "Evaluation time (RFC 3339), overrides the request")
	cmd.Flags().BoolVar(&withAudit, "audit", false, "Include the confidence breakdown")
	return cmd
}

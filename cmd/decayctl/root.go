package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/decayscope/internal/config"
	"github.com/kailas-cloud/decayscope/internal/domain/policy"
	logpkg "github.com/kailas-cloud/decayscope/internal/logger"
	analysisuc "github.com/kailas-cloud/decayscope/internal/usecase/analysis"
)

// rootOptions are the flags shared by every subcommand.
type rootOptions struct {
	verbose    bool
	policyPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "decayctl",
		Short: "Score documents for knowledge decay without a server",
		Long: `decayctl runs the decay analysis locally on JSON request files.
It uses lexical vectors only and never calls an embedding provider or the audit store.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level := "warn"
			if opts.verbose {
				level = "debug"
			}
			l, err := logpkg.NewLogger("cli", level)
			if err != nil {
				return err
			}
			cmd.SetContext(logpkg.ContextWithLogger(cmd.Context(), l))
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&opts.policyPath, "policy", "",
		"YAML file with an analysis section overriding the stock thresholds")

	cmd.AddCommand(newAnalyzeCmd(opts))
	cmd.AddCommand(newBatchCmd(opts))
	cmd.AddCommand(newVersionCmd())
	return cmd
}

// policy returns the stock policy, or the one described by --policy.
func (o *rootOptions) policy() (policy.Policy, error) {
	if o.policyPath == "" {
		return policy.Default(), nil
	}
	data, err := os.ReadFile(o.policyPath)
	if err != nil {
		return policy.Policy{}, fmt.Errorf("read policy: %w", err)
	}
	var file struct {
		Analysis config.AnalysisConfig `yaml:"analysis"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return policy.Policy{}, fmt.Errorf("parse policy: %w", err)
	}
	return file.Analysis.Policy()
}

func (o *rootOptions) service(concurrency int) (*analysisuc.Service, error) {
	p, err := o.policy()
	if err != nil {
		return nil, err
	}
	return analysisuc.New(p, nil).WithMaxConcurrency(concurrency), nil
}

// readRequest decodes a JSON request from path, or stdin when path is "-".
func readRequest(cmd *cobra.Command, path string, v any) error {
	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open request: %w", err)
		}
		defer f.Close()
		r = f
	}
	if err := json.NewDecoder(r).Decode(v); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	logpkg.FromContext(cmd.Context()).Debug("Request loaded", zap.String("path", path))
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

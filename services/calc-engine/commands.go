package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"intrinsic_valuation/pkg/core/logging"
	"intrinsic_valuation/pkg/core/report"
	"intrinsic_valuation/pkg/core/sensitivity"
	"intrinsic_valuation/pkg/core/utils"
	"intrinsic_valuation/pkg/core/valuation"
)

type options struct {
	file        string
	data        string
	format      string
	parallelism int
	verbose     bool

	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "calc-engine",
		Short: "DCF intrinsic value calculator with WACC / terminal growth sensitivity",
		Long: `calc-engine projects five years of free cash flow, capitalizes the final
year with a Gordon growth terminal value and discounts everything at WACC.

Inputs use percentage-scale rates (10 means 10%) and may be given as JSON or
Hjson, either inline with --data or from a file with --file ("-" for stdin).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := "warn"
			if opts.verbose {
				level = "debug"
			}
			logger, err := logging.New(level, "console")
			if err != nil {
				return err
			}
			opts.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.logger != nil {
				_ = opts.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVarP(&opts.file, "file", "f", "", "Input file (JSON or Hjson), - for stdin")
	root.PersistentFlags().StringVarP(&opts.data, "data", "d", "", "Inline JSON/Hjson input")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	valueCmd := &cobra.Command{
		Use:   "value",
		Short: "Compute intrinsic value per share and the sensitivity table",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValue(cmd, opts)
		},
	}
	valueCmd.Flags().StringVarP(&opts.format, "format", "o", "json", "Output format: json, markdown, html")
	valueCmd.Flags().IntVarP(&opts.parallelism, "parallelism", "p", sensitivity.GridSize, "Concurrent grid cells")

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Validate and normalize inputs without valuing",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, opts)
		},
	}

	root.AddCommand(valueCmd, checkCmd)
	return root
}

func readFields(cmd *cobra.Command, opts *options) (valuation.Fields, error) {
	var raw []byte
	switch {
	case opts.data != "" && opts.file != "":
		return nil, errors.New("use either --data or --file, not both")
	case opts.data != "":
		raw = []byte(opts.data)
	case opts.file == "-":
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		raw = b
	case opts.file != "":
		b, err := os.ReadFile(opts.file)
		if err != nil {
			return nil, fmt.Errorf("read input file: %w", err)
		}
		raw = b
	default:
		return nil, errors.New("no data provided: pass --data or --file")
	}
	return utils.DecodeFields(raw)
}

func runValue(cmd *cobra.Command, opts *options) error {
	fields, err := readFields(cmd, opts)
	if err != nil {
		return err
	}

	analyzer := sensitivity.NewAnalyzer(sensitivity.Options{Parallelism: opts.parallelism}, opts.logger)
	analysis, err := analyzer.Analyze(cmd.Context(), fields)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch strings.ToLower(opts.format) {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(analysis)
	case "markdown", "md":
		_, err := io.WriteString(out, report.Markdown(analysis))
		return err
	case "html":
		html, err := report.HTML(analysis)
		if err != nil {
			return err
		}
		_, err = io.WriteString(out, html)
		return err
	default:
		return fmt.Errorf("unknown format %q", opts.format)
	}
}

func runCheck(cmd *cobra.Command, opts *options) error {
	fields, err := readFields(cmd, opts)
	if err != nil {
		return err
	}

	for key := range fields {
		if !isKnownField(key) {
			opts.logger.Warn("ignoring unknown field", zap.String("field", key))
		}
	}

	in, err := valuation.Normalize(fields)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(in)
}

func isKnownField(key string) bool {
	for _, name := range valuation.FieldNames {
		if name == key {
			return true
		}
	}
	return false
}

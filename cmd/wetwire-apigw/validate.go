package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	wetwire "github.com/lex00/wetwire-apigw-go"
	"github.com/lex00/wetwire-apigw-go/internal/validation"
)

// newValidateCmd creates the "validate" subcommand for compiling and linting
// a config.
func newValidateCmd() *cobra.Command {
	var (
		outputFormat string
		base         string
		ignore       []string
	)

	cmd := &cobra.Command{
		Use:   "validate <config>",
		Short: "Compile a config and lint the resulting template",
		Long: `Validate compiles the proxies of a config and runs cfn-lint on the template.

Checks performed:
  - Every event has the fields a method needs (path, method, queue, auth)
  - No two events derive the same method with different content
  - The rendered template passes cfn-lint

Methods reference host resources such as the REST API and the integration
role. Pass the host template with --base so those references resolve, or
skip the rules that report them with --ignore.

Examples:
    wetwire-apigw validate proxies.yaml
    wetwire-apigw validate proxies.yaml --base host.yaml --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := commandLogger(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			result, err := runValidate(args[0], base, validation.Options{IgnoreRules: ignore}, logger)
			if err != nil {
				return err
			}
			return outputValidateResult(cmd.OutOrStdout(), result, outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")
	cmd.Flags().StringVarP(&base, "base", "b", "", "Host template the methods are merged into before linting")
	cmd.Flags().StringSliceVar(&ignore, "ignore", nil, "cfn-lint rule ids to skip")

	return cmd
}

// runValidate compiles and lints the config. Compile failures are reported
// in the result; only linter setup failures are returned as errors.
func runValidate(configPath, base string, opts validation.Options, logger *zap.Logger) (wetwire.ValidateResult, error) {
	result, err := compileFile(configPath, base, logger)
	if err != nil {
		return wetwire.ValidateResult{
			Success: false,
			Errors:  []string{err.Error()},
		}, nil
	}

	report, err := validation.ValidateTemplate(result.template(), opts)
	if err != nil {
		return wetwire.ValidateResult{}, fmt.Errorf("running cfn-lint: %w", err)
	}

	for logicalID, findings := range report.ByResource() {
		logger.Debug("lint findings",
			zap.String("resource", logicalID),
			zap.Int("count", len(findings)),
		)
	}
	logger.Info("linted template",
		zap.Int("errors", len(report.Errors())),
		zap.Int("warnings", len(report.Warnings())),
		zap.Int("ignored", report.Ignored),
	)

	return report.ValidateResult(len(result.registry)), nil
}

func outputValidateResult(w io.Writer, result wetwire.ValidateResult, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))

	case "text":
		if result.Success {
			fmt.Fprintf(w, "Validation passed: %d resources OK\n", result.Resources)
			for _, warnMsg := range result.Warnings {
				fmt.Fprintf(w, "  WARNING: %s\n", warnMsg)
			}
			return nil
		}

		fmt.Fprintln(w, "Validation FAILED:")
		for _, errMsg := range result.Errors {
			fmt.Fprintf(w, "  ERROR: %s\n", errMsg)
		}
		for _, warnMsg := range result.Warnings {
			fmt.Fprintf(w, "  WARNING: %s\n", warnMsg)
		}

	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	if !result.Success {
		return fmt.Errorf("validation failed")
	}

	return nil
}

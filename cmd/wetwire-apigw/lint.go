package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lex00/wetwire-apigw-go/internal/lint"
)

func newLintCmd() *cobra.Command {
	var (
		outputFormat string
		disable      []string
	)

	cmd := &cobra.Command{
		Use:   "lint <config>",
		Short: "Check a proxy config for common mistakes",
		Long: `Lint checks a proxy config for settings that compile but misbehave once deployed.

Rules:
    WAG001: Events for services other than sqs are skipped
    WAG002: CORS with credentials needs an explicit origin
    WAG003: Authorizer id is ignored for this authorization type
    WAG004: CUSTOM and COGNITO_USER_POOLS need an authorizer id
    WAG005: Authorization scopes only apply to COGNITO_USER_POOLS
    WAG006: Request parameter replaces a fixed SendMessage mapping
    WAG007: Queue name must be a name, not a URL or ARN
    WAG008: Path has no resolved API Gateway resource

Examples:
    wetwire-apigw lint proxies.yaml
    wetwire-apigw lint proxies.yaml --disable WAG001 --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := commandLogger(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			result, err := runLint(args[0], lint.Options{DisabledRules: disable}, logger)
			if err != nil {
				return err
			}
			return outputLintResult(cmd.OutOrStdout(), result, outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")
	cmd.Flags().StringSliceVar(&disable, "disable", nil, "Rule ids to skip")

	return cmd
}

func runLint(configPath string, opts lint.Options, logger *zap.Logger) (lint.Result, error) {
	result, err := lint.LintFile(configPath, opts)
	if err != nil {
		logger.Error("lint failed", zap.String("config", configPath), zap.Error(err))
		return lint.Result{}, fmt.Errorf("lint failed: %w", err)
	}
	logger.Debug("linted config",
		zap.String("config", configPath),
		zap.Int("issues", len(result.Issues)),
	)
	return result, nil
}

func outputLintResult(w io.Writer, result lint.Result, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))

	case "text":
		if len(result.Issues) == 0 {
			fmt.Fprintln(w, "No issues found.")
			return nil
		}
		for _, issue := range result.Issues {
			fmt.Fprintln(w, issue.String())
		}

	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	if !result.Success {
		return fmt.Errorf("lint found %d error(s)", len(result.Errors()))
	}
	return nil
}

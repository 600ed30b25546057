package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lex00/wetwire-apigw-go/internal/event"
	"github.com/lex00/wetwire-apigw-go/internal/preflight"
)

type verifyOptions struct {
	outputFormat string
	region       string
	accountID    string
}

// newChecker builds the preflight checker; tests replace it.
var newChecker = func(ctx context.Context, region string) (*preflight.Checker, error) {
	var optFns []func(*awsconfig.LoadOptions) error
	if region != "" {
		optFns = append(optFns, awsconfig.WithRegion(region))
	}
	return preflight.NewFromConfig(ctx, optFns...)
}

func newVerifyCmd() *cobra.Command {
	var opts verifyOptions

	cmd := &cobra.Command{
		Use:   "verify <config>",
		Short: "Check that the target queues exist",
		Long: `Verify looks up every literal queue name of a config in SQS.

Queue names given as intrinsic references resolve at deploy time and are
skipped. AWS credentials come from the default credential chain.

Examples:
    wetwire-apigw verify proxies.yaml
    wetwire-apigw verify proxies.yaml --region eu-west-1 --account-id 123456789012`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := commandLogger(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			report, err := runVerify(cmd.Context(), args[0], opts, logger)
			if err != nil {
				return err
			}
			return outputVerifyResult(cmd.OutOrStdout(), report, opts.outputFormat)
		},
	}

	cmd.Flags().StringVarP(&opts.outputFormat, "format", "f", "text", "Output format: text or json")
	cmd.Flags().StringVar(&opts.region, "region", "", "AWS region (default: from the AWS config)")
	cmd.Flags().StringVar(&opts.accountID, "account-id", "", "Account that owns the queues")

	return cmd
}

func runVerify(ctx context.Context, configPath string, opts verifyOptions, logger *zap.Logger) (*preflight.Report, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := event.Load(configPath)
	if err != nil {
		return nil, err
	}

	checker, err := newChecker(ctx, opts.region)
	if err != nil {
		return nil, err
	}
	checker.AccountID = opts.accountID

	report, err := checker.CheckQueues(ctx, cfg.Events)
	if err != nil {
		return nil, err
	}

	for _, check := range report.Checks {
		logger.Debug("checked queue",
			zap.String("queue", check.Queue),
			zap.String("status", string(check.Status)),
			zap.Ints("events", check.Events),
		)
	}
	return report, nil
}

func outputVerifyResult(w io.Writer, report *preflight.Report, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))

	case "text":
		if len(report.Checks) == 0 {
			fmt.Fprintln(w, "No SQS proxies found.")
			return nil
		}
		for _, check := range report.Checks {
			switch check.Status {
			case preflight.StatusFound:
				fmt.Fprintf(w, "  OK      %s (%s)\n", check.Queue, check.URL)
			case preflight.StatusMissing:
				fmt.Fprintf(w, "  MISSING %s (events %v)\n", check.Queue, check.Events)
			case preflight.StatusError:
				fmt.Fprintf(w, "  ERROR   %s: %s\n", check.Queue, check.Error)
			case preflight.StatusSkipped:
				fmt.Fprintf(w, "  SKIPPED dynamic queue names (events %v)\n", check.Events)
			}
		}

	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	if !report.OK() {
		return fmt.Errorf("verification failed")
	}
	return nil
}

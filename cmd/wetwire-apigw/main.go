// Command wetwire-apigw compiles API Gateway to SQS service proxies into
// CloudFormation templates.
//
// Usage:
//
//	wetwire-apigw build proxies.yaml        Generate CloudFormation template
//	wetwire-apigw lint proxies.yaml         Check the config for common mistakes
//	wetwire-apigw validate proxies.yaml     Compile and lint the template
//	wetwire-apigw verify proxies.yaml       Check the target queues exist
//	wetwire-apigw version                   Show version
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lex00/wetwire-apigw-go/internal/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "wetwire-apigw",
		Short: "Generate API Gateway to SQS proxies for CloudFormation",
		Long: `wetwire-apigw compiles API Gateway service proxies into CloudFormation resources.

Describe each proxy in YAML:

    apiGatewayServiceProxies:
      - sqs:
          path: /orders
          method: post
          queueName: orders
          cors: true

Then generate the API Gateway methods:

    wetwire-apigw build proxies.yaml`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error (default $"+logging.LevelEnv+" or warn)")
	rootCmd.PersistentFlags().String("log-format", "console", "Log format: console or json")

	rootCmd.AddCommand(
		newBuildCmd(),
		newListCmd(),
		newLintCmd(),
		newValidateCmd(),
		newDiffCmd(),
		newGraphCmd(),
		newWatchCmd(),
		newVerifyCmd(),
		newVersionCmd(),
	)

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "wetwire-apigw %s\n", getVersion())
		},
	}
}

// commandLogger builds the logger from the persistent log flags. Commands
// run outside the root command get the defaults.
func commandLogger(cmd *cobra.Command) (*zap.Logger, error) {
	level, _ := cmd.Flags().GetString("log-level")
	format, _ := cmd.Flags().GetString("log-format")
	return logging.New(logging.Options{
		Level:  level,
		Format: format,
		Output: cmd.ErrOrStderr(),
	})
}

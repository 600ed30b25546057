package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	wetwire "github.com/lex00/wetwire-apigw-go"
)

type buildOptions struct {
	config       string
	base         string
	outputFormat string
	outputFile   string
}

func newBuildCmd() *cobra.Command {
	var opts buildOptions

	cmd := &cobra.Command{
		Use:   "build <config>",
		Short: "Generate CloudFormation template from a proxy config",
		Long: `Build compiles the SQS proxies of a config file into API Gateway methods.

With --base, the resources of an existing template are kept and the
compiled methods are merged into it.

Examples:
    wetwire-apigw build proxies.yaml
    wetwire-apigw build proxies.yaml -o template.json
    wetwire-apigw build proxies.yaml --format yaml --base host.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := commandLogger(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			opts.config = args[0]
			result := runBuild(opts, logger)
			return outputResult(cmd.OutOrStdout(), cmd.ErrOrStderr(), result, opts.outputFormat, opts.outputFile)
		},
	}

	cmd.Flags().StringVarP(&opts.outputFormat, "format", "f", "json", "Output format: json or yaml")
	cmd.Flags().StringVarP(&opts.outputFile, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVarP(&opts.base, "base", "b", "", "Existing template to merge the methods into")

	return cmd
}

func runBuild(opts buildOptions, logger *zap.Logger) wetwire.BuildResult {
	result, err := compileFile(opts.config, opts.base, logger)
	if err != nil {
		return wetwire.BuildResult{
			Success: false,
			Errors:  []string{err.Error()},
		}
	}

	return wetwire.BuildResult{
		Success:   true,
		Template:  *result.template(),
		Resources: result.registry.Names(),
	}
}

func outputResult(stdout, stderr io.Writer, result wetwire.BuildResult, format, outputFile string) error {
	if !result.Success {
		for _, e := range result.Errors {
			fmt.Fprintln(stderr, e)
		}
		return fmt.Errorf("build failed")
	}

	data, err := renderTemplate(&result.Template, format)
	if err != nil {
		return err
	}

	if outputFile == "" {
		fmt.Fprintln(stdout, string(data))
		return nil
	}

	return os.WriteFile(outputFile, data, 0644)
}

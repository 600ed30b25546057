package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	wetwire "github.com/lex00/wetwire-apigw-go"
	"github.com/lex00/wetwire-apigw-go/internal/differ"
)

func newDiffCmd() *cobra.Command {
	var (
		outputFormat string
		ignoreOrder  bool
	)

	cmd := &cobra.Command{
		Use:   "diff <config> <template>",
		Short: "Compare compiled methods with an existing template",
		Long: `Diff compiles a config and compares the result with a template file.

Resources only in the template are reported as removed, resources only in
the compiled output as added.

Examples:
    wetwire-apigw diff proxies.yaml deployed.json
    wetwire-apigw diff proxies.yaml deployed.yaml --ignore-order -f json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := commandLogger(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			result, err := runDiff(args[0], args[1], differ.Options{IgnoreOrder: ignoreOrder}, logger)
			if err != nil {
				return err
			}
			return outputDiffResult(cmd.OutOrStdout(), result, outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")
	cmd.Flags().BoolVar(&ignoreOrder, "ignore-order", false, "Ignore array element order")

	return cmd
}

func runDiff(configPath, templatePath string, opts differ.Options, logger *zap.Logger) (*differ.Result, error) {
	existing, err := differ.LoadTemplate(templatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", templatePath, err)
	}

	result, err := compileFile(configPath, "", logger)
	if err != nil {
		return nil, err
	}

	return differ.Compare(existing, result.template(), opts)
}

func outputDiffResult(w io.Writer, result *differ.Result, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(struct {
			Diff    wetwire.TemplateDiff `json:"diff"`
			Summary wetwire.DiffSummary  `json:"summary"`
		}{result.Diff, result.Summary}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))

	case "text":
		if result.Summary.Total == 0 {
			fmt.Fprintln(w, "No differences.")
			return nil
		}

		for _, entry := range result.Diff.Added {
			fmt.Fprintf(w, "+ %s (%s)\n", entry.Resource, entry.Type)
		}
		for _, entry := range result.Diff.Removed {
			fmt.Fprintf(w, "- %s (%s)\n", entry.Resource, entry.Type)
		}
		for _, entry := range result.Diff.Modified {
			fmt.Fprintf(w, "~ %s (%s)\n", entry.Resource, entry.Type)
			for _, change := range entry.Changes {
				fmt.Fprintf(w, "    %s\n", change)
			}
		}
		fmt.Fprintf(w, "\n%d added, %d removed, %d modified\n",
			result.Summary.Added, result.Summary.Removed, result.Summary.Modified)

	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	return nil
}

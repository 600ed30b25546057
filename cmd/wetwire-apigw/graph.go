package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lex00/wetwire-apigw-go/internal/graph"
)

type graphOptions struct {
	base            string
	format          string
	includeExternal bool
	cluster         bool
}

func newGraphCmd() *cobra.Command {
	var opts graphOptions

	cmd := &cobra.Command{
		Use:   "graph <config>",
		Short: "Generate DOT graph of resource references",
		Long: `Generate a DOT or Mermaid format graph of the compiled resources and the
resources they reference.

The output can be rendered with Graphviz:
    wetwire-apigw graph proxies.yaml | dot -Tpng -o deps.png

Or used in GitHub markdown (Mermaid format):
    wetwire-apigw graph proxies.yaml -f mermaid

Examples:
    wetwire-apigw graph proxies.yaml
    wetwire-apigw graph proxies.yaml -e              # include host resources
    wetwire-apigw graph proxies.yaml -c              # cluster by service
    wetwire-apigw graph proxies.yaml -b host.yaml    # graph the merged template`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := commandLogger(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			return runGraph(cmd.OutOrStdout(), args[0], opts, logger)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", "dot", "Output format: dot or mermaid")
	cmd.Flags().BoolVarP(&opts.includeExternal, "include-external", "e", false, "Include referenced resources the template does not define")
	cmd.Flags().BoolVarP(&opts.cluster, "cluster", "c", false, "Cluster resources by AWS service")
	cmd.Flags().StringVarP(&opts.base, "base", "b", "", "Existing template to merge the methods into")

	return cmd
}

func runGraph(w io.Writer, configPath string, opts graphOptions, logger *zap.Logger) error {
	var graphFormat graph.Format
	switch opts.format {
	case "dot":
		graphFormat = graph.FormatDOT
	case "mermaid":
		graphFormat = graph.FormatMermaid
	default:
		return fmt.Errorf("unknown format: %s (use 'dot' or 'mermaid')", opts.format)
	}

	result, err := compileFile(configPath, opts.base, logger)
	if err != nil {
		return err
	}

	if len(result.registry) == 0 {
		return fmt.Errorf("no resources found")
	}

	gen := &graph.Generator{
		Format:          graphFormat,
		IncludeExternal: opts.includeExternal,
		ClusterByType:   opts.cluster,
	}

	return gen.Generate(result.template(), w)
}

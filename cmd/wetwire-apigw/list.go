package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	wetwire "github.com/lex00/wetwire-apigw-go"
	"github.com/lex00/wetwire-apigw-go/internal/apigw"
	"github.com/lex00/wetwire-apigw-go/internal/event"
)

func newListCmd() *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "list <config>",
		Short: "List the resources a config compiles to",
		Long: `List compiles a proxy config and displays the resulting methods.

Examples:
    wetwire-apigw list proxies.yaml
    wetwire-apigw list proxies.yaml --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := commandLogger(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			result, err := compileFile(args[0], "", logger)
			if err != nil {
				return err
			}
			return outputListResult(cmd.OutOrStdout(), listResources(result), outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")

	return cmd
}

// listResources describes every compiled resource, sorted by name. Methods
// carry the path and HTTP method of the event they came from.
func listResources(result *compiled) wetwire.ListResult {
	paths := methodPaths(result.config)

	listResult := wetwire.ListResult{
		Resources: make([]wetwire.ListResource, 0, len(result.registry)),
	}
	for _, name := range result.registry.Names() {
		def := result.registry[name]
		res := wetwire.ListResource{Name: name, Type: def.Type}
		if props, ok := def.Properties.(apigw.MethodProperties); ok {
			res.HTTPMethod = props.HttpMethod
			res.Path = paths[name]
		}
		listResult.Resources = append(listResult.Resources, res)
	}
	return listResult
}

// methodPaths maps method logical ids back to the event paths.
func methodPaths(cfg event.Config) map[string]string {
	paths := make(map[string]string)
	for _, ev := range cfg.Events {
		if ev.ServiceName != event.ServiceSQS {
			continue
		}
		res, ok := cfg.Resources.Resolve(ev.HTTP.Path, cfg.RestAPILogicalID)
		if !ok {
			continue
		}
		paths[apigw.MethodLogicalID(res.Name, ev.HTTP.Method)] = "/" + apigw.NormalizePath(ev.HTTP.Path)
	}
	return paths
}

func outputListResult(w io.Writer, result wetwire.ListResult, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))

	case "text":
		if len(result.Resources) == 0 {
			fmt.Fprintln(w, "No resources found.")
			return nil
		}

		fmt.Fprintf(w, "Compiled resources (%d):\n\n", len(result.Resources))
		for _, res := range result.Resources {
			route := strings.TrimSpace(res.HTTPMethod + " " + res.Path)
			if route != "" {
				fmt.Fprintf(w, "  %s: %s (%s)\n", res.Name, res.Type, route)
				continue
			}
			fmt.Fprintf(w, "  %s: %s\n", res.Name, res.Type)
		}

	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	return nil
}

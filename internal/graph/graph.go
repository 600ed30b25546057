// Package graph generates DOT and Mermaid format dependency graphs from
// compiled templates.
package graph

import (
	"io"
	"sort"
	"strings"

	"github.com/emicklei/dot"

	wetwire "github.com/lex00/wetwire-apigw-go"
	"github.com/lex00/wetwire-apigw-go/internal/template"
)

// Format specifies the output format for the graph.
type Format string

const (
	// FormatDOT outputs Graphviz DOT format.
	FormatDOT Format = "dot"
	// FormatMermaid outputs Mermaid format for GitHub/markdown rendering.
	FormatMermaid Format = "mermaid"
)

// Generator creates dependency graphs from templates.
type Generator struct {
	// IncludeExternal adds nodes for referenced resources that the template
	// does not define, such as the REST API and the integration role owned
	// by the host template.
	IncludeExternal bool

	// Format specifies the output format (dot or mermaid). Defaults to dot.
	Format Format

	// ClusterByType groups resources by AWS service.
	ClusterByType bool
}

// Reference is one edge of the dependency graph.
type Reference struct {
	From string
	To   string
	// GetAtt is set for Fn::GetAtt references, unset for Ref.
	GetAtt bool
}

// Generate creates a dependency graph and writes it to w.
func (g *Generator) Generate(tmpl *wetwire.Template, w io.Writer) error {
	graph, err := g.buildGraph(tmpl)
	if err != nil {
		return err
	}

	format := g.Format
	if format == "" {
		format = FormatDOT
	}

	var output string
	if format == FormatMermaid {
		output = dot.MermaidGraph(graph, dot.MermaidTopToBottom)
	} else {
		output = graph.String()
	}

	_, err = w.Write([]byte(output))
	return err
}

// GenerateString is a convenience method that returns the graph as a string.
func (g *Generator) GenerateString(tmpl *wetwire.Template) (string, error) {
	var sb strings.Builder
	if err := g.Generate(tmpl, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// References returns the Ref and Fn::GetAtt edges between resources, sorted
// by source then target. Pseudo parameters (AWS::Region and friends) are
// skipped.
func References(tmpl *wetwire.Template) ([]Reference, error) {
	normalized, err := template.Normalize(tmpl)
	if err != nil {
		return nil, err
	}

	seen := make(map[Reference]bool)
	var refs []Reference
	for name, def := range normalized.Resources {
		collect(def.Properties, func(target string, getAtt bool) {
			ref := Reference{From: name, To: target, GetAtt: getAtt}
			if !seen[ref] {
				seen[ref] = true
				refs = append(refs, ref)
			}
		})
		for _, dep := range def.DependsOn {
			ref := Reference{From: name, To: dep}
			if !seen[ref] {
				seen[ref] = true
				refs = append(refs, ref)
			}
		}
	}

	sort.Slice(refs, func(i, j int) bool {
		if refs[i].From != refs[j].From {
			return refs[i].From < refs[j].From
		}
		if refs[i].To != refs[j].To {
			return refs[i].To < refs[j].To
		}
		return !refs[i].GetAtt && refs[j].GetAtt
	})
	return refs, nil
}

// collect walks a decoded property tree and reports every reference target.
func collect(v any, visit func(target string, getAtt bool)) {
	switch val := v.(type) {
	case map[string]any:
		if len(val) == 1 {
			if target, ok := val["Ref"].(string); ok {
				if !strings.HasPrefix(target, "AWS::") {
					visit(target, false)
				}
				return
			}
			if args, ok := val["Fn::GetAtt"].([]any); ok && len(args) > 0 {
				if target, ok := args[0].(string); ok {
					visit(target, true)
				}
				return
			}
		}
		for _, child := range val {
			collect(child, visit)
		}
	case []any:
		for _, child := range val {
			collect(child, visit)
		}
	}
}

func (g *Generator) buildGraph(tmpl *wetwire.Template) (*dot.Graph, error) {
	refs, err := References(tmpl)
	if err != nil {
		return nil, err
	}

	graph := dot.NewGraph(dot.Directed)
	graph.Attr("rankdir", "TB")

	graph.NodeInitializer(func(n dot.Node) {
		n.Attr("shape", "box")
		n.Attr("fontname", "Arial")
	})

	graph.EdgeInitializer(func(e dot.Edge) {
		e.Attr("fontname", "Arial")
		e.Attr("fontsize", "10")
	})

	if g.ClusterByType {
		g.addClusteredNodes(graph, tmpl.Resources)
	} else {
		g.addNodes(graph, tmpl.Resources)
	}

	for _, ref := range refs {
		if _, isResource := tmpl.Resources[ref.To]; !isResource {
			if !g.IncludeExternal {
				continue
			}
			n := graph.Node(ref.To)
			n.Attr("shape", "ellipse")
			n.Attr("style", "dashed")
			n.Label(ref.To)
		}

		e := graph.Edge(graph.Node(ref.From), graph.Node(ref.To))
		if ref.GetAtt {
			e.Attr("color", "blue")
		}
	}

	return graph, nil
}

func (g *Generator) addNodes(graph *dot.Graph, resources map[string]wetwire.ResourceDef) {
	for _, name := range sortedNames(resources) {
		n := graph.Node(name)
		n.Label(name + "\\n[" + resources[name].Type + "]")
	}
}

// addClusteredNodes adds resource nodes grouped by AWS service. Services with
// a single resource are not clustered.
func (g *Generator) addClusteredNodes(graph *dot.Graph, resources map[string]wetwire.ResourceDef) {
	serviceResources := make(map[string][]string)
	for _, name := range sortedNames(resources) {
		service := extractService(resources[name].Type)
		serviceResources[service] = append(serviceResources[service], name)
	}

	services := make([]string, 0, len(serviceResources))
	for service := range serviceResources {
		services = append(services, service)
	}
	sort.Strings(services)

	for _, service := range services {
		names := serviceResources[service]
		parent := graph
		if len(names) > 1 {
			parent = graph.Subgraph("cluster_"+service, dot.ClusterOption{})
			parent.Attr("label", service)
			parent.Attr("style", "rounded")
			parent.Attr("bgcolor", "lightyellow")
		}
		for _, name := range names {
			n := parent.Node(name)
			n.Label(name + "\\n[" + resources[name].Type + "]")
		}
	}
}

// extractService extracts the service from a CloudFormation type.
// e.g., "AWS::ApiGateway::Method" -> "ApiGateway"
func extractService(cfType string) string {
	parts := strings.Split(cfType, "::")
	if len(parts) == 3 {
		return parts[1]
	}
	return "Other"
}

func sortedNames(resources map[string]wetwire.ResourceDef) []string {
	return template.Registry(resources).Names()
}

package event

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lex00/wetwire-apigw-go/internal/apigw"
	"github.com/lex00/wetwire-apigw-go/intrinsics"
)

// DefaultRestAPILogicalID is the logical id of the REST API created by the host.
const DefaultRestAPILogicalID = "ApiGatewayRestApi"

// Config is the input document of one compile pass: the events plus the
// references the resource-resolution step produced for them.
type Config struct {
	RestAPILogicalID string            `json:"restApiLogicalId,omitempty" yaml:"restApiLogicalId,omitempty"`
	Resources        apigw.ResourceMap `json:"resources,omitempty" yaml:"resources,omitempty"`
	Events           []ProxyEvent      `json:"events,omitempty" yaml:"events,omitempty"`

	// Proxies is the user-facing shorthand, one single-key map per proxy:
	//
	//	apiGatewayServiceProxies:
	//	  - sqs:
	//	      path: /queue
	//
	// Parse appends these to Events.
	Proxies []map[string]HTTPEvent `json:"apiGatewayServiceProxies,omitempty" yaml:"apiGatewayServiceProxies,omitempty"`
}

// Load reads a YAML or JSON config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a YAML or JSON config document. YAML short-form
// intrinsics such as !Ref and !GetAtt decode to their long form.
func Parse(data []byte) (*Config, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse as JSON or YAML: %w", err)
	}
	if err := intrinsics.ExpandShortForms(&root); err != nil {
		return nil, err
	}

	var cfg Config
	if root.Kind == 0 {
		return &cfg, nil
	}
	if err := root.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	for _, proxy := range cfg.Proxies {
		services := make([]string, 0, len(proxy))
		for name := range proxy {
			services = append(services, name)
		}
		sort.Strings(services)
		for _, name := range services {
			cfg.Events = append(cfg.Events, ProxyEvent{ServiceName: name, HTTP: proxy[name]})
		}
	}
	cfg.Proxies = nil

	return &cfg, nil
}

// Normalize returns a copy of the config with the defaults the upstream
// validator guarantees: authorization type NONE, the default REST API id,
// normalized resource paths and fully populated CORS descriptors. CORS
// written as false is dropped.
func (c Config) Normalize() Config {
	out := Config{
		RestAPILogicalID: c.RestAPILogicalID,
		Resources:        make(apigw.ResourceMap, len(c.Resources)),
		Events:           make([]ProxyEvent, len(c.Events)),
	}
	if out.RestAPILogicalID == "" {
		out.RestAPILogicalID = DefaultRestAPILogicalID
	}
	for path, ref := range c.Resources {
		out.Resources[apigw.NormalizePath(path)] = ref
	}

	for i, ev := range c.Events {
		if ev.HTTP.Auth.AuthorizationType == "" {
			ev.HTTP.Auth.AuthorizationType = "NONE"
		}
		ev.HTTP.CORS = normalizeCORS(ev.HTTP.CORS, ev.HTTP.Method)
		out.Events[i] = ev
	}
	return out
}

func normalizeCORS(c *CORS, method string) *CORS {
	if c == nil || c.disabled {
		return nil
	}
	out := *c
	if len(out.Origins) == 0 {
		if out.Origin != "" {
			out.Origins = []string{out.Origin}
		} else {
			out.Origins = []string{"*"}
		}
	}
	if out.Origin == "" {
		out.Origin = strings.Join(out.Origins, ",")
	}
	if len(out.Methods) == 0 {
		out.Methods = []string{"OPTIONS", strings.ToUpper(method)}
	}
	if len(out.Headers) == 0 {
		out.Headers = append([]string{}, DefaultCORSHeaders...)
	}
	return &out
}

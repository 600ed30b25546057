// Package event defines the validated service-proxy events consumed by the
// compilers and loads them from YAML or JSON documents.
package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ServiceSQS is the service name of SQS proxy events.
const ServiceSQS = "sqs"

// ProxyEvent is one validated endpoint descriptor.
type ProxyEvent struct {
	ServiceName string    `json:"serviceName" yaml:"serviceName"`
	HTTP        HTTPEvent `json:"http" yaml:"http"`
}

// HTTPEvent describes the HTTP side of a proxy and its queue target.
type HTTPEvent struct {
	Path   string `json:"path" yaml:"path"`
	Method string `json:"method" yaml:"method"`
	// QueueName is a literal queue name or an intrinsic such as
	// {"Fn::GetAtt": ["MyQueue", "QueueName"]}.
	QueueName any   `json:"queueName,omitempty" yaml:"queueName,omitempty"`
	Auth      Auth  `json:"auth" yaml:"auth"`
	CORS      *CORS `json:"cors,omitempty" yaml:"cors,omitempty"`
	// RequestParameters are extra integration request parameter mappings.
	RequestParameters map[string]string `json:"requestParameters,omitempty" yaml:"requestParameters,omitempty"`
	// RoleArn overrides the integration credentials.
	RoleArn any `json:"roleArn,omitempty" yaml:"roleArn,omitempty"`
	// Private requires an API key.
	Private bool `json:"private,omitempty" yaml:"private,omitempty"`
}

// Auth holds the method authorization settings.
type Auth struct {
	AuthorizationType string `json:"authorizationType" yaml:"authorizationType"`
	AuthorizerID      any    `json:"authorizerId,omitempty" yaml:"authorizerId,omitempty"`
	// AuthorizationScopes is nil when no scopes were configured; a pointer to
	// an empty list means scopes were configured as empty.
	AuthorizationScopes *[]string `json:"authorizationScopes,omitempty" yaml:"authorizationScopes,omitempty"`
}

// Scopes returns a pointer to a copy of scopes, for building Auth values.
func Scopes(scopes ...string) *[]string {
	s := append([]string{}, scopes...)
	return &s
}

// DefaultCORSHeaders are the headers allowed when CORS is enabled without a
// header list.
var DefaultCORSHeaders = []string{
	"Content-Type",
	"X-Amz-Date",
	"Authorization",
	"X-Api-Key",
	"X-Amz-Security-Token",
	"X-Amz-User-Agent",
}

// CORS is the cross-origin configuration of an endpoint. In documents it may
// also be written as a bare boolean: true enables the defaults, false
// disables CORS. A document may set origin or origins, not both.
type CORS struct {
	Origins          []string `json:"origins,omitempty" yaml:"origins,omitempty"`
	Origin           string   `json:"origin,omitempty" yaml:"origin,omitempty"`
	Methods          []string `json:"methods,omitempty" yaml:"methods,omitempty"`
	Headers          []string `json:"headers,omitempty" yaml:"headers,omitempty"`
	AllowCredentials bool     `json:"allowCredentials,omitempty" yaml:"allowCredentials,omitempty"`

	disabled bool
}

// ResolvedOrigin returns the single origin value written into the
// Access-Control-Allow-Origin mapping.
func (c *CORS) ResolvedOrigin() string {
	switch {
	case c.Origin != "":
		return c.Origin
	case len(c.Origins) > 0:
		return strings.Join(c.Origins, ",")
	default:
		return "*"
	}
}

type corsFields CORS

// UnmarshalYAML accepts either a boolean or a CORS mapping.
func (c *CORS) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode && value.ShortTag() == "!!bool" {
		var enabled bool
		if err := value.Decode(&enabled); err != nil {
			return err
		}
		*c = CORS{disabled: !enabled}
		return nil
	}
	var fields corsFields
	if err := value.Decode(&fields); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	return c.set(fields)
}

// UnmarshalJSON accepts either a boolean or a CORS object.
func (c *CORS) UnmarshalJSON(data []byte) error {
	var enabled bool
	if err := json.Unmarshal(data, &enabled); err == nil {
		*c = CORS{disabled: !enabled}
		return nil
	}
	var fields corsFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	return c.set(fields)
}

// errOriginConflict is returned for a CORS mapping that sets both origin
// and origins.
var errOriginConflict = errors.New("cors: origin and origins are mutually exclusive")

func (c *CORS) set(fields corsFields) error {
	if fields.Origin != "" && len(fields.Origins) > 0 {
		return errOriginConflict
	}
	*c = CORS(fields)
	return nil
}

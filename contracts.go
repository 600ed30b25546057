// Package wetwire_apigw compiles API Gateway to SQS service proxies into
// CloudFormation resource fragments.
//
// A proxy event such as
//
//	sqs:
//	  path: /queue
//	  method: post
//	  queueName: orders
//
// becomes an AWS::ApiGateway::Method whose AWS integration sends the request
// body to the queue with the SendMessage action. The wetwire-apigw CLI reads
// a list of such events and writes the resulting template.
package wetwire_apigw

// Template represents a CloudFormation template.
//
// Only Resources is produced by the compilers. The other sections are
// carried through from a host template unchanged.
type Template struct {
	AWSTemplateFormatVersion string                 `json:"AWSTemplateFormatVersion,omitempty" yaml:"AWSTemplateFormatVersion,omitempty"`
	Transform                any                    `json:"Transform,omitempty" yaml:"Transform,omitempty"`
	Description              string                 `json:"Description,omitempty" yaml:"Description,omitempty"`
	Parameters               map[string]any         `json:"Parameters,omitempty" yaml:"Parameters,omitempty"`
	Mappings                 map[string]any         `json:"Mappings,omitempty" yaml:"Mappings,omitempty"`
	Conditions               map[string]any         `json:"Conditions,omitempty" yaml:"Conditions,omitempty"`
	Resources                map[string]ResourceDef `json:"Resources" yaml:"Resources"`
	Outputs                  map[string]any         `json:"Outputs,omitempty" yaml:"Outputs,omitempty"`
}

// ResourceDef is a single resource in the CloudFormation template.
//
// Properties holds either a typed property struct (as produced by the
// compilers) or a map[string]any (as read back from a template file).
type ResourceDef struct {
	Type       string   `json:"Type" yaml:"Type"`
	Properties any      `json:"Properties,omitempty" yaml:"Properties,omitempty"`
	DependsOn  []string `json:"DependsOn,omitempty" yaml:"DependsOn,omitempty"`
}

// BuildResult is the JSON output from `wetwire-apigw build`.
type BuildResult struct {
	Success   bool     `json:"success"`
	Template  Template `json:"template,omitempty"`
	Resources []string `json:"resources,omitempty"`
	Errors    []string `json:"errors,omitempty"`
}

// ValidateResult is the JSON output from `wetwire-apigw validate`.
type ValidateResult struct {
	Success   bool     `json:"success"`
	Resources int      `json:"resources"`
	Errors    []string `json:"errors,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
}

// ListResult is the JSON output from `wetwire-apigw list`.
type ListResult struct {
	Resources []ListResource `json:"resources"`
}

// ListResource is a single resource in the list output.
type ListResource struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Path       string `json:"path,omitempty"`
	HTTPMethod string `json:"httpMethod,omitempty"`
}

// TemplateDiff holds the per-resource differences between two templates.
type TemplateDiff struct {
	Added    []DiffEntry `json:"added,omitempty"`
	Removed  []DiffEntry `json:"removed,omitempty"`
	Modified []DiffEntry `json:"modified,omitempty"`
}

// DiffEntry describes one added, removed or modified resource.
type DiffEntry struct {
	Resource string   `json:"resource"`
	Type     string   `json:"type"`
	Changes  []string `json:"changes,omitempty"`
}

// DiffSummary counts the entries of a TemplateDiff.
type DiffSummary struct {
	Added    int `json:"added"`
	Removed  int `json:"removed"`
	Modified int `json:"modified"`
	Total    int `json:"total"`
}

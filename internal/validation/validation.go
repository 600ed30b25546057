// Package validation lints compiled templates with cfn-lint-go.
//
// The linter runs as a library over a temporary YAML rendering of the
// template, so no cfn-lint binary is needed.
package validation

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lex00/cfn-lint-go/pkg/lint"

	wetwire "github.com/lex00/wetwire-apigw-go"
	"github.com/lex00/wetwire-apigw-go/internal/template"
)

// Levels reported by cfn-lint-go.
const (
	LevelError   = "Error"
	LevelWarning = "Warning"
)

// Finding is one linter match.
type Finding struct {
	Rule    string   `json:"rule"`
	Level   string   `json:"level"`
	Message string   `json:"message"`
	Path    []string `json:"path,omitempty"`
	// Resource is the logical id the match points into, if any.
	Resource string `json:"resource,omitempty"`
}

func (f Finding) String() string {
	if len(f.Path) == 0 {
		return fmt.Sprintf("%s: %s", f.Rule, f.Message)
	}
	return fmt.Sprintf("%s: %s (at %s)", f.Rule, f.Message, strings.Join(f.Path, "/"))
}

// Options configures a lint run.
type Options struct {
	// IgnoreRules drops matches of these rule ids.
	IgnoreRules []string
}

// Report holds the findings of one lint run.
type Report struct {
	Findings []Finding `json:"findings"`
	// Ignored counts matches dropped by Options.IgnoreRules.
	Ignored int `json:"ignored,omitempty"`
}

// Errors returns the error-level findings.
func (r *Report) Errors() []Finding { return r.level(LevelError, true) }

// Warnings returns every finding that is not an error.
func (r *Report) Warnings() []Finding { return r.level(LevelError, false) }

func (r *Report) level(level string, match bool) []Finding {
	out := []Finding{}
	for _, f := range r.Findings {
		if (f.Level == level) == match {
			out = append(out, f)
		}
	}
	return out
}

// Passed reports whether no error-level finding remains. Warnings do not
// fail validation.
func (r *Report) Passed() bool { return len(r.Errors()) == 0 }

// ByResource groups findings by logical id. Template-level findings are
// keyed by the empty string.
func (r *Report) ByResource() map[string][]Finding {
	out := map[string][]Finding{}
	for _, f := range r.Findings {
		out[f.Resource] = append(out[f.Resource], f)
	}
	return out
}

// ValidateResult converts the report to the CLI's validate output.
func (r *Report) ValidateResult(resources int) wetwire.ValidateResult {
	return wetwire.ValidateResult{
		Success:   r.Passed(),
		Resources: resources,
		Errors:    findingStrings(r.Errors()),
		Warnings:  findingStrings(r.Warnings()),
	}
}

func findingStrings(findings []Finding) []string {
	out := make([]string, 0, len(findings))
	for _, f := range findings {
		out = append(out, f.String())
	}
	return out
}

// ValidateTemplate renders tmpl to YAML and lints it.
func ValidateTemplate(tmpl *wetwire.Template, opts Options) (*Report, error) {
	data, err := template.ToYAML(tmpl)
	if err != nil {
		return nil, fmt.Errorf("rendering template: %w", err)
	}

	dir, err := os.MkdirTemp("", "wetwire-apigw-validate")
	if err != nil {
		return nil, fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "template.yaml")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, fmt.Errorf("writing template: %w", err)
	}

	return LintFile(path, opts)
}

// LintFile lints the template at path. Findings are sorted by resource,
// then rule id.
func LintFile(path string, opts Options) (*Report, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("template %s: %w", path, err)
	}

	matches, err := lint.New(lint.Options{}).LintFile(path)
	if err != nil {
		return nil, fmt.Errorf("cfn-lint %s: %w", path, err)
	}

	ignored := make(map[string]bool, len(opts.IgnoreRules))
	for _, id := range opts.IgnoreRules {
		ignored[id] = true
	}

	report := &Report{Findings: []Finding{}}
	for _, m := range matches {
		if ignored[m.Rule.ID] {
			report.Ignored++
			continue
		}
		report.Findings = append(report.Findings, newFinding(m))
	}

	sort.SliceStable(report.Findings, func(i, j int) bool {
		a, b := report.Findings[i], report.Findings[j]
		if a.Resource != b.Resource {
			return a.Resource < b.Resource
		}
		return a.Rule < b.Rule
	})

	return report, nil
}

func newFinding(m lint.Match) Finding {
	f := Finding{
		Rule:    m.Rule.ID,
		Level:   m.Level,
		Message: m.Message,
	}
	for _, p := range m.Location.Path {
		f.Path = append(f.Path, fmt.Sprint(p))
	}
	if len(f.Path) > 1 && f.Path[0] == "Resources" {
		f.Resource = f.Path[1]
	}
	return f
}

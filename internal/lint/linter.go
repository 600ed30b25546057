// Package lint checks proxy configs for settings that compile but do not
// behave as written once deployed.
//
// Rules:
//
//	WAG001: Events for services other than sqs are skipped
//	WAG002: CORS with credentials needs an explicit origin
//	WAG003: Authorizer id is ignored for this authorization type
//	WAG004: CUSTOM and COGNITO_USER_POOLS need an authorizer id
//	WAG005: Authorization scopes only apply to COGNITO_USER_POOLS
//	WAG006: Request parameter replaces a fixed SendMessage mapping
//	WAG007: Queue name must be a name, not a URL or ARN
//	WAG008: Path has no resolved API Gateway resource
package lint

import (
	"fmt"
	"sort"

	"github.com/lex00/wetwire-apigw-go/internal/event"
)

// Severity is the level of an Issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Issue is one finding of a Rule against one event.
type Issue struct {
	Rule     string   `json:"rule"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	// Event is the index of the offending event, or -1 for config-wide issues.
	Event  int    `json:"event"`
	Path   string `json:"path,omitempty"`
	Method string `json:"method,omitempty"`
}

func (i Issue) String() string {
	if i.Event < 0 {
		return fmt.Sprintf("%s: %s [%s]", i.Severity, i.Message, i.Rule)
	}
	return fmt.Sprintf("events[%d] %s %s: %s: %s [%s]",
		i.Event, i.Method, i.Path, i.Severity, i.Message, i.Rule)
}

// Rule checks a normalized config.
type Rule interface {
	ID() string
	Description() string
	Check(cfg event.Config) []Issue
}

// Result contains the outcome of linting.
type Result struct {
	// Success is false when any issue has error severity.
	Success bool    `json:"success"`
	Issues  []Issue `json:"issues"`
}

// Errors returns the error-severity issues.
func (r Result) Errors() []Issue {
	var out []Issue
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			out = append(out, issue)
		}
	}
	return out
}

// Options configures the linter.
type Options struct {
	// Rules to enable. If empty, all rules are enabled.
	EnabledRules []string
	// DisabledRules are skipped even when enabled.
	DisabledRules []string
}

// LintFile loads, normalizes and lints the config at path.
func LintFile(path string, opts Options) (Result, error) {
	cfg, err := event.Load(path)
	if err != nil {
		return Result{}, err
	}
	return Lint(cfg.Normalize(), opts), nil
}

// Lint runs the enabled rules over cfg. Issues are ordered by event index,
// then rule id.
func Lint(cfg event.Config, opts Options) Result {
	issues := []Issue{}
	for _, rule := range getRules(opts) {
		issues = append(issues, rule.Check(cfg)...)
	}

	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].Event != issues[j].Event {
			return issues[i].Event < issues[j].Event
		}
		return issues[i].Rule < issues[j].Rule
	})

	result := Result{Success: true, Issues: issues}
	if len(result.Errors()) > 0 {
		result.Success = false
	}
	return result
}

// getRules returns the rules selected by opts.
func getRules(opts Options) []Rule {
	all := AllRules()

	disabled := make(map[string]bool, len(opts.DisabledRules))
	for _, id := range opts.DisabledRules {
		disabled[id] = true
	}

	enabled := make(map[string]bool, len(opts.EnabledRules))
	for _, id := range opts.EnabledRules {
		enabled[id] = true
	}

	var rules []Rule
	for _, rule := range all {
		if disabled[rule.ID()] {
			continue
		}
		if len(enabled) > 0 && !enabled[rule.ID()] {
			continue
		}
		rules = append(rules, rule)
	}
	return rules
}

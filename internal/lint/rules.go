package lint

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lex00/wetwire-apigw-go/internal/event"
	"github.com/lex00/wetwire-apigw-go/internal/sqs"
)

// AllRules returns every rule in id order.
func AllRules() []Rule {
	return []Rule{
		UnsupportedService{},
		CredentialedWildcardOrigin{},
		UnusedAuthorizer{},
		MissingAuthorizer{},
		ScopesWithoutCognito{},
		FixedParameterOverride{},
		QueueNameNotName{},
		UnresolvedPath{},
	}
}

func newIssue(rule Rule, severity Severity, i int, ev event.ProxyEvent, msg string) Issue {
	return Issue{
		Rule:     rule.ID(),
		Severity: severity,
		Message:  msg,
		Event:    i,
		Path:     ev.HTTP.Path,
		Method:   strings.ToUpper(ev.HTTP.Method),
	}
}

// sqsEvents calls fn for each sqs event with its index in cfg.Events.
func sqsEvents(cfg event.Config, fn func(i int, ev event.ProxyEvent)) {
	for i, ev := range cfg.Events {
		if ev.ServiceName == event.ServiceSQS {
			fn(i, ev)
		}
	}
}

// UnsupportedService flags events the compiler skips.
type UnsupportedService struct{}

func (r UnsupportedService) ID() string { return "WAG001" }
func (r UnsupportedService) Description() string {
	return "Events for services other than sqs are skipped"
}

func (r UnsupportedService) Check(cfg event.Config) []Issue {
	var issues []Issue
	for i, ev := range cfg.Events {
		if ev.ServiceName != event.ServiceSQS {
			issues = append(issues, newIssue(r, SeverityWarning, i, ev,
				fmt.Sprintf("service %q is not compiled; the event is skipped", ev.ServiceName)))
		}
	}
	return issues
}

// CredentialedWildcardOrigin flags credentialed CORS with a wildcard origin,
// which browsers reject.
type CredentialedWildcardOrigin struct{}

func (r CredentialedWildcardOrigin) ID() string { return "WAG002" }
func (r CredentialedWildcardOrigin) Description() string {
	return "CORS with credentials needs an explicit origin"
}

func (r CredentialedWildcardOrigin) Check(cfg event.Config) []Issue {
	var issues []Issue
	sqsEvents(cfg, func(i int, ev event.ProxyEvent) {
		cors := ev.HTTP.CORS
		if cors == nil || !cors.AllowCredentials {
			return
		}
		if strings.Contains(cors.ResolvedOrigin(), "*") {
			issues = append(issues, newIssue(r, SeverityError, i, ev,
				"allowCredentials cannot be combined with a wildcard origin"))
		}
	})
	return issues
}

func usesAuthorizer(authType string) bool {
	return authType == "CUSTOM" || authType == "COGNITO_USER_POOLS"
}

// hasAuthorizer reports whether auth carries a non-blank authorizer id.
func hasAuthorizer(auth event.Auth) bool {
	if id, ok := auth.AuthorizerID.(string); ok {
		return strings.TrimSpace(id) != ""
	}
	return auth.AuthorizerID != nil
}

// UnusedAuthorizer flags an authorizer id the compiler drops.
type UnusedAuthorizer struct{}

func (r UnusedAuthorizer) ID() string { return "WAG003" }
func (r UnusedAuthorizer) Description() string {
	return "Authorizer id is ignored for this authorization type"
}

func (r UnusedAuthorizer) Check(cfg event.Config) []Issue {
	var issues []Issue
	sqsEvents(cfg, func(i int, ev event.ProxyEvent) {
		auth := ev.HTTP.Auth
		if hasAuthorizer(auth) && !usesAuthorizer(auth.AuthorizationType) {
			issues = append(issues, newIssue(r, SeverityWarning, i, ev,
				fmt.Sprintf("authorizerId is dropped for authorization type %s", auth.AuthorizationType)))
		}
	})
	return issues
}

// MissingAuthorizer flags authorizer-backed methods without an authorizer.
type MissingAuthorizer struct{}

func (r MissingAuthorizer) ID() string { return "WAG004" }
func (r MissingAuthorizer) Description() string {
	return "CUSTOM and COGNITO_USER_POOLS need an authorizer id"
}

func (r MissingAuthorizer) Check(cfg event.Config) []Issue {
	var issues []Issue
	sqsEvents(cfg, func(i int, ev event.ProxyEvent) {
		auth := ev.HTTP.Auth
		if usesAuthorizer(auth.AuthorizationType) && !hasAuthorizer(auth) {
			issues = append(issues, newIssue(r, SeverityError, i, ev,
				fmt.Sprintf("authorization type %s requires authorizerId", auth.AuthorizationType)))
		}
	})
	return issues
}

// ScopesWithoutCognito flags scopes API Gateway will not evaluate.
type ScopesWithoutCognito struct{}

func (r ScopesWithoutCognito) ID() string { return "WAG005" }
func (r ScopesWithoutCognito) Description() string {
	return "Authorization scopes only apply to COGNITO_USER_POOLS"
}

func (r ScopesWithoutCognito) Check(cfg event.Config) []Issue {
	var issues []Issue
	sqsEvents(cfg, func(i int, ev event.ProxyEvent) {
		auth := ev.HTTP.Auth
		if auth.AuthorizationScopes == nil || len(*auth.AuthorizationScopes) == 0 {
			return
		}
		if auth.AuthorizationType != "COGNITO_USER_POOLS" {
			issues = append(issues, newIssue(r, SeverityWarning, i, ev,
				fmt.Sprintf("authorizationScopes have no effect with authorization type %s", auth.AuthorizationType)))
		}
	})
	return issues
}

// FixedParameterOverride flags user mappings the compiler ignores.
type FixedParameterOverride struct{}

func (r FixedParameterOverride) ID() string { return "WAG006" }
func (r FixedParameterOverride) Description() string {
	return "Request parameter replaces a fixed SendMessage mapping"
}

func (r FixedParameterOverride) Check(cfg event.Config) []Issue {
	var issues []Issue
	sqsEvents(cfg, func(i int, ev event.ProxyEvent) {
		for key := range ev.HTTP.RequestParameters {
			if sqs.IsFixedParameter(key) {
				issues = append(issues, newIssue(r, SeverityWarning, i, ev,
					fmt.Sprintf("requestParameters key %s is ignored", key)))
			}
		}
	})
	// Map iteration order varies.
	sort.SliceStable(issues, func(a, b int) bool {
		if issues[a].Event != issues[b].Event {
			return issues[a].Event < issues[b].Event
		}
		return issues[a].Message < issues[b].Message
	})
	return issues
}

// QueueNameNotName flags literal queue names that look like URLs or ARNs.
// The integration path appends the name to the account id.
type QueueNameNotName struct{}

func (r QueueNameNotName) ID() string { return "WAG007" }
func (r QueueNameNotName) Description() string {
	return "Queue name must be a name, not a URL or ARN"
}

func (r QueueNameNotName) Check(cfg event.Config) []Issue {
	var issues []Issue
	sqsEvents(cfg, func(i int, ev event.ProxyEvent) {
		name, ok := ev.HTTP.QueueName.(string)
		if !ok {
			return
		}
		if strings.HasPrefix(name, "arn:") || strings.Contains(name, "://") {
			issues = append(issues, newIssue(r, SeverityError, i, ev,
				fmt.Sprintf("queueName %q is not a queue name", name)))
		}
	})
	return issues
}

// UnresolvedPath flags paths missing from the resource map.
type UnresolvedPath struct{}

func (r UnresolvedPath) ID() string { return "WAG008" }
func (r UnresolvedPath) Description() string {
	return "Path has no resolved API Gateway resource"
}

func (r UnresolvedPath) Check(cfg event.Config) []Issue {
	var issues []Issue
	sqsEvents(cfg, func(i int, ev event.ProxyEvent) {
		if _, ok := cfg.Resources.Resolve(ev.HTTP.Path, cfg.RestAPILogicalID); !ok {
			issues = append(issues, newIssue(r, SeverityError, i, ev,
				fmt.Sprintf("no resource for path %q", ev.HTTP.Path)))
		}
	})
	return issues
}

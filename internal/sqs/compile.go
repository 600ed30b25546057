// Package sqs compiles SQS service-proxy events into API Gateway method
// resources.
//
// Each event becomes one AWS::ApiGateway::Method with an AWS integration that
// calls the SQS SendMessage action on the target queue, passing the request
// body as the message body:
//
//	POST /sqs  ->  ApiGatewayMethodsqsPost
//	               Integration.Uri = arn:aws:apigateway:<region>:sqs:path//<account>/"<queue>"
//
// Compilation is pure: the input registry is never modified, and a failing
// event leaves no partial output.
package sqs

import (
	"errors"
	"fmt"
	"strings"

	wetwire "github.com/lex00/wetwire-apigw-go"
	"github.com/lex00/wetwire-apigw-go/internal/apigw"
	"github.com/lex00/wetwire-apigw-go/internal/event"
	"github.com/lex00/wetwire-apigw-go/internal/template"
	"github.com/lex00/wetwire-apigw-go/intrinsics"
)

const (
	// RoleLogicalID is the IAM role API Gateway assumes to call SQS,
	// compiled by the host alongside the methods.
	RoleLogicalID = "ApigatewayToSqsRole"

	actionParameter      = "integration.request.querystring.Action"
	messageBodyParameter = "integration.request.querystring.MessageBody"
	allowOriginParameter = "method.response.header.Access-Control-Allow-Origin"

	sendMessageAction = "'SendMessage'"
	requestBody       = "method.request.body"
	requestTemplate   = "{statusCode:200}"
)

var errRequired = errors.New("is required")

// responseStatuses are the status codes every method maps, in order.
var responseStatuses = []int{200, 400}

// Compile builds one method per SQS event and returns registry with the
// methods merged in. Events for other services are skipped.
//
// Entries already present in registry are overwritten. Two events of the same
// pass that derive the same logical id must produce identical methods, or a
// *template.DuplicateResourceError is returned. Missing required fields yield
// a *wetwire.ConfigurationError. On error the returned registry is nil.
func Compile(events []event.ProxyEvent, restAPIID string, resources apigw.ResourceMap, registry template.Registry) (template.Registry, error) {
	if restAPIID == "" {
		return nil, &wetwire.ConfigurationError{Index: -1, Field: "restApiLogicalId", Message: "is required"}
	}

	compiled := template.Registry{}
	for i, ev := range events {
		if ev.ServiceName != event.ServiceSQS {
			continue
		}

		name, def, err := compileMethod(i, ev.HTTP, restAPIID, resources)
		if err != nil {
			return nil, err
		}

		if existing, ok := compiled[name]; ok {
			same, err := template.Equal(existing, def)
			if err != nil {
				return nil, fmt.Errorf("comparing %s: %w", name, err)
			}
			if !same {
				return nil, &template.DuplicateResourceError{LogicalID: name}
			}
		}
		compiled.Put(name, def)
	}

	return template.Merge(registry, compiled, false)
}

// CompileConfig normalizes cfg and compiles its events into registry.
func CompileConfig(cfg event.Config, registry template.Registry) (template.Registry, error) {
	normalized := cfg.Normalize()
	return Compile(normalized.Events, normalized.RestAPILogicalID, normalized.Resources, registry)
}

func compileMethod(index int, http event.HTTPEvent, restAPIID string, resources apigw.ResourceMap) (string, wetwire.ResourceDef, error) {
	fail := func(field, format string, args ...any) (string, wetwire.ResourceDef, error) {
		return "", wetwire.ResourceDef{}, &wetwire.ConfigurationError{
			Index:   index,
			Field:   field,
			Message: fmt.Sprintf(format, args...),
		}
	}

	if strings.TrimSpace(http.Path) == "" {
		return fail("http.path", "is required")
	}
	if strings.TrimSpace(http.Method) == "" {
		return fail("http.method", "is required")
	}
	if http.Auth.AuthorizationType == "" {
		return fail("http.auth.authorizationType", "is required")
	}

	queue, err := queueSegment(http.QueueName)
	if err != nil {
		return fail("http.queueName", "%v", err)
	}

	credentials := any(intrinsics.GetAtt{LogicalName: RoleLogicalID, Attribute: "Arn"})
	if http.RoleArn != nil {
		if !validReference(http.RoleArn) {
			return fail("http.roleArn", "must be an ARN or an intrinsic reference")
		}
		credentials = http.RoleArn
	}

	resource, ok := resources.Resolve(http.Path, restAPIID)
	if !ok {
		return fail("http.path", "no API Gateway resource resolved for path %q", http.Path)
	}

	var cors map[string]string
	if http.CORS != nil {
		cors = map[string]string{allowOriginParameter: "'" + http.CORS.ResolvedOrigin() + "'"}
	}

	props := apigw.MethodProperties{
		HttpMethod:          strings.ToUpper(http.Method),
		RequestParameters:   map[string]string{},
		AuthorizationType:   http.Auth.AuthorizationType,
		AuthorizationScopes: copyScopes(http.Auth.AuthorizationScopes),
		AuthorizerId:        authorizerID(http.Auth),
		ApiKeyRequired:      http.Private,
		ResourceId:          resource.ID,
		RestApiId:           intrinsics.Ref{LogicalName: restAPIID},
		Integration: apigw.Integration{
			IntegrationHttpMethod: "POST",
			Type:                  "AWS",
			Credentials:           credentials,
			Uri:                   queueURI(queue),
			RequestParameters:     integrationRequestParameters(http.RequestParameters),
			RequestTemplates:      map[string]string{"application/json": requestTemplate},
			IntegrationResponses:  integrationResponses(cors),
		},
		MethodResponses: methodResponses(cors),
	}

	name := apigw.MethodLogicalID(resource.Name, http.Method)
	return name, wetwire.ResourceDef{Type: apigw.ResourceTypeMethod, Properties: props}, nil
}

// queueURI is the SQS path integration URI. It stays a Fn::Join so the queue
// segment may itself be a reference.
func queueURI(queue any) intrinsics.Join {
	return intrinsics.Join{
		Delimiter: "",
		Values: []any{
			"arn:aws:apigateway:",
			intrinsics.AWS_REGION,
			":sqs:path//",
			intrinsics.AWS_ACCOUNT_ID,
			"/",
			queue,
		},
	}
}

func queueSegment(queueName any) (any, error) {
	switch q := queueName.(type) {
	case nil:
		return nil, errRequired
	case string:
		if strings.TrimSpace(q) == "" {
			return nil, errRequired
		}
		return intrinsics.Quoted(q), nil
	default:
		if intrinsics.IsIntrinsic(q) {
			return q, nil
		}
		return nil, fmt.Errorf("must be a queue name or an intrinsic reference, got %T", q)
	}
}

func validReference(v any) bool {
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) != ""
	}
	return intrinsics.IsIntrinsic(v)
}

// authorizerID passes the authorizer through for authorization types that
// use one. A blank id counts as absent.
func authorizerID(auth event.Auth) any {
	if id, ok := auth.AuthorizerID.(string); ok && strings.TrimSpace(id) == "" {
		return nil
	}
	switch auth.AuthorizationType {
	case "CUSTOM", "COGNITO_USER_POOLS":
		return auth.AuthorizerID
	default:
		return nil
	}
}

func copyScopes(scopes *[]string) *[]string {
	if scopes == nil {
		return nil
	}
	out := append([]string{}, (*scopes)...)
	return &out
}

// IsFixedParameter reports whether key names an integration request
// mapping that every method sets and user mappings cannot replace.
func IsFixedParameter(key string) bool {
	return key == actionParameter || key == messageBodyParameter
}

// integrationRequestParameters adds the user mappings after the SendMessage
// mappings. A user key naming a fixed mapping is ignored.
func integrationRequestParameters(extra map[string]string) map[string]string {
	params := map[string]string{
		actionParameter:      sendMessageAction,
		messageBodyParameter: requestBody,
	}
	for key, value := range extra {
		if IsFixedParameter(key) {
			continue
		}
		params[key] = value
	}
	return params
}

func integrationResponses(cors map[string]string) []apigw.IntegrationResponse {
	out := make([]apigw.IntegrationResponse, 0, len(responseStatuses))
	for _, status := range responseStatuses {
		out = append(out, apigw.IntegrationResponse{
			StatusCode:         status,
			SelectionPattern:   status,
			ResponseParameters: copyMap(cors),
			ResponseTemplates:  map[string]string{},
		})
	}
	return out
}

func methodResponses(cors map[string]string) []apigw.MethodResponse {
	out := make([]apigw.MethodResponse, 0, len(responseStatuses))
	for _, status := range responseStatuses {
		out = append(out, apigw.MethodResponse{
			ResponseParameters: copyMap(cors),
			ResponseModels:     map[string]string{},
			StatusCode:         status,
		})
	}
	return out
}

func copyMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

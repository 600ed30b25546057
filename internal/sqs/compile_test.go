package sqs

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wetwire "github.com/lex00/wetwire-apigw-go"
	"github.com/lex00/wetwire-apigw-go/internal/apigw"
	"github.com/lex00/wetwire-apigw-go/internal/event"
	"github.com/lex00/wetwire-apigw-go/internal/template"
	"github.com/lex00/wetwire-apigw-go/intrinsics"
)

const restAPIID = "ApiGatewayRestApi"

var sqsResources = apigw.ResourceMap{
	"sqs": {Name: "sqs", ResourceLogicalID: "ApiGatewayResourceSqs"},
}

func sqsEvent(http event.HTTPEvent) event.ProxyEvent {
	if http.Path == "" {
		http.Path = "sqs"
	}
	if http.Method == "" {
		http.Method = "post"
	}
	if http.QueueName == nil {
		http.QueueName = "myQueue"
	}
	if http.Auth.AuthorizationType == "" {
		http.Auth.AuthorizationType = "NONE"
	}
	return event.ProxyEvent{ServiceName: event.ServiceSQS, HTTP: http}
}

// expectedMethod renders the method the host plugin produces for POST /sqs
// on myQueue. auth holds the authorization properties, params any extra
// integration request parameters and responseParams the per-response header
// mappings.
func expectedMethod(auth, params, responseParams string) string {
	if params != "" {
		params = "," + params
	}
	return fmt.Sprintf(`{
  "ApiGatewayMethodsqsPost": {
    "Type": "AWS::ApiGateway::Method",
    "Properties": {
      "HttpMethod": "POST",
      "RequestParameters": {},
      %s,
      "ApiKeyRequired": false,
      "ResourceId": {"Ref": "ApiGatewayResourceSqs"},
      "RestApiId": {"Ref": "ApiGatewayRestApi"},
      "Integration": {
        "IntegrationHttpMethod": "POST",
        "Type": "AWS",
        "Credentials": {"Fn::GetAtt": ["ApigatewayToSqsRole", "Arn"]},
        "Uri": {
          "Fn::Join": ["", [
            "arn:aws:apigateway:",
            {"Ref": "AWS::Region"},
            ":sqs:path//",
            {"Ref": "AWS::AccountId"},
            "/",
            "\"myQueue\""
          ]]
        },
        "RequestParameters": {
          "integration.request.querystring.Action": "'SendMessage'",
          "integration.request.querystring.MessageBody": "method.request.body"%s
        },
        "RequestTemplates": {"application/json": "{statusCode:200}"},
        "IntegrationResponses": [
          {"StatusCode": 200, "SelectionPattern": 200, "ResponseParameters": {%[3]s}, "ResponseTemplates": {}},
          {"StatusCode": 400, "SelectionPattern": 400, "ResponseParameters": {%[3]s}, "ResponseTemplates": {}}
        ]
      },
      "MethodResponses": [
        {"ResponseParameters": {%[3]s}, "ResponseModels": {}, "StatusCode": 200},
        {"ResponseParameters": {%[3]s}, "ResponseModels": {}, "StatusCode": 400}
      ]
    }
  }
}`, auth, params, responseParams)
}

func compileJSON(t *testing.T, events ...event.ProxyEvent) string {
	t.Helper()
	reg, err := Compile(events, restAPIID, sqsResources, template.Registry{})
	require.NoError(t, err)
	data, err := json.Marshal(reg)
	require.NoError(t, err)
	return string(data)
}

func TestCompile_CreatesMethod(t *testing.T) {
	got := compileJSON(t, sqsEvent(event.HTTPEvent{}))
	assert.JSONEq(t, expectedMethod(`"AuthorizationType": "NONE"`, "", ""), got)
}

func TestCompile_WithCORS(t *testing.T) {
	ev := sqsEvent(event.HTTPEvent{
		CORS: &event.CORS{
			Origins:          []string{"*"},
			Origin:           "*",
			Methods:          []string{"OPTIONS", "POST"},
			Headers:          event.DefaultCORSHeaders,
			AllowCredentials: false,
		},
	})

	got := compileJSON(t, ev)
	allowOrigin := `"method.response.header.Access-Control-Allow-Origin": "'*'"`
	assert.JSONEq(t, expectedMethod(`"AuthorizationType": "NONE"`, "", allowOrigin), got)
}

func TestCompile_CustomAuthorizer(t *testing.T) {
	ev := sqsEvent(event.HTTPEvent{
		Auth: event.Auth{
			AuthorizationType: "CUSTOM",
			AuthorizerID:      intrinsics.Ref{LogicalName: "AuthorizerLogicalId"},
		},
	})

	got := compileJSON(t, ev)
	auth := `"AuthorizationType": "CUSTOM", "AuthorizerId": {"Ref": "AuthorizerLogicalId"}`
	assert.JSONEq(t, expectedMethod(auth, "", ""), got)
	assert.NotContains(t, got, "AuthorizationScopes")
}

func TestCompile_CognitoScopes(t *testing.T) {
	ev := sqsEvent(event.HTTPEvent{
		Auth: event.Auth{
			AuthorizationType:   "COGNITO_USER_POOLS",
			AuthorizationScopes: event.Scopes("admin"),
		},
	})

	got := compileJSON(t, ev)
	auth := `"AuthorizationType": "COGNITO_USER_POOLS", "AuthorizationScopes": ["admin"]`
	assert.JSONEq(t, expectedMethod(auth, "", ""), got)
	assert.NotContains(t, got, "AuthorizerId")
}

func TestCompile_EmptyScopesArePresent(t *testing.T) {
	ev := sqsEvent(event.HTTPEvent{
		Auth: event.Auth{
			AuthorizationType:   "COGNITO_USER_POOLS",
			AuthorizationScopes: event.Scopes(),
		},
	})

	got := compileJSON(t, ev)
	auth := `"AuthorizationType": "COGNITO_USER_POOLS", "AuthorizationScopes": []`
	assert.JSONEq(t, expectedMethod(auth, "", ""), got)
}

func TestCompile_AuthorizerDroppedForOtherTypes(t *testing.T) {
	for _, authType := range []string{"NONE", "AWS_IAM"} {
		t.Run(authType, func(t *testing.T) {
			ev := sqsEvent(event.HTTPEvent{
				Auth: event.Auth{AuthorizationType: authType, AuthorizerID: "abc123"},
			})
			got := compileJSON(t, ev)
			assert.NotContains(t, got, "AuthorizerId")
		})
	}
}

func TestCompile_AdditionalRequestParameters(t *testing.T) {
	ev := sqsEvent(event.HTTPEvent{
		RequestParameters: map[string]string{"key1": "value1", "key2": "value2"},
	})

	got := compileJSON(t, ev)
	assert.JSONEq(t, expectedMethod(`"AuthorizationType": "NONE"`, `"key1": "value1", "key2": "value2"`, ""), got)
}

func TestCompile_FixedRequestParametersWin(t *testing.T) {
	ev := sqsEvent(event.HTTPEvent{
		RequestParameters: map[string]string{
			"integration.request.querystring.Action":      "'DeleteQueue'",
			"integration.request.querystring.MessageBody": "method.request.path.id",
			"key1": "value1",
		},
	})

	reg, err := Compile([]event.ProxyEvent{ev}, restAPIID, sqsResources, nil)
	require.NoError(t, err)

	props := reg["ApiGatewayMethodsqsPost"].Properties.(apigw.MethodProperties)
	assert.Equal(t, map[string]string{
		"integration.request.querystring.Action":      "'SendMessage'",
		"integration.request.querystring.MessageBody": "method.request.body",
		"key1": "value1",
	}, props.Integration.RequestParameters)
}

func TestCompile_EndToEnd(t *testing.T) {
	reg, err := Compile([]event.ProxyEvent{sqsEvent(event.HTTPEvent{})}, restAPIID, sqsResources, template.Registry{})
	require.NoError(t, err)
	require.Equal(t, []string{"ApiGatewayMethodsqsPost"}, reg.Names())

	def := reg["ApiGatewayMethodsqsPost"]
	assert.Equal(t, "AWS::ApiGateway::Method", def.Type)

	props := def.Properties.(apigw.MethodProperties)
	uri := props.Integration.Uri.(intrinsics.Join)
	assert.Contains(t, uri.Values, `"myQueue"`)
	assert.Nil(t, props.AuthorizationScopes)
	assert.Nil(t, props.AuthorizerId)
}

func TestCompile_DynamicQueueName(t *testing.T) {
	queue := map[string]any{"Fn::GetAtt": []any{"OrdersQueue", "QueueName"}}
	reg, err := Compile([]event.ProxyEvent{sqsEvent(event.HTTPEvent{QueueName: queue})}, restAPIID, sqsResources, nil)
	require.NoError(t, err)

	props := reg["ApiGatewayMethodsqsPost"].Properties.(apigw.MethodProperties)
	uri := props.Integration.Uri.(intrinsics.Join)
	assert.Equal(t, queue, uri.Values[len(uri.Values)-1])
}

func TestCompile_RoleArnAndPrivate(t *testing.T) {
	ev := sqsEvent(event.HTTPEvent{
		RoleArn: "arn:aws:iam::123456789012:role/proxy",
		Private: true,
	})
	reg, err := Compile([]event.ProxyEvent{ev}, restAPIID, sqsResources, nil)
	require.NoError(t, err)

	props := reg["ApiGatewayMethodsqsPost"].Properties.(apigw.MethodProperties)
	assert.Equal(t, "arn:aws:iam::123456789012:role/proxy", props.Integration.Credentials)
	assert.True(t, props.ApiKeyRequired)
}

func TestCompile_RootPath(t *testing.T) {
	ev := sqsEvent(event.HTTPEvent{Path: "/", Method: "put"})
	reg, err := Compile([]event.ProxyEvent{ev}, restAPIID, nil, nil)
	require.NoError(t, err)

	def, ok := reg["ApiGatewayMethodPut"]
	require.True(t, ok)
	data, err := json.Marshal(def.Properties.(apigw.MethodProperties).ResourceId)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Fn::GetAtt": ["ApiGatewayRestApi", "RootResourceId"]}`, string(data))
}

func TestCompile_SkipsOtherServices(t *testing.T) {
	events := []event.ProxyEvent{
		{ServiceName: "kinesis", HTTP: event.HTTPEvent{Path: "kinesis", Method: "post"}},
		sqsEvent(event.HTTPEvent{}),
	}
	reg, err := Compile(events, restAPIID, sqsResources, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"ApiGatewayMethodsqsPost"}, reg.Names())
}

func TestCompile_ConfigurationErrors(t *testing.T) {
	tests := []struct {
		name  string
		event event.ProxyEvent
		field string
	}{
		{
			name:  "missing queue name",
			event: event.ProxyEvent{ServiceName: event.ServiceSQS, HTTP: event.HTTPEvent{Path: "sqs", Method: "post", Auth: event.Auth{AuthorizationType: "NONE"}}},
			field: "http.queueName",
		},
		{
			name:  "blank queue name",
			event: sqsEvent(event.HTTPEvent{QueueName: "  "}),
			field: "http.queueName",
		},
		{
			name:  "queue name of wrong type",
			event: sqsEvent(event.HTTPEvent{QueueName: 42}),
			field: "http.queueName",
		},
		{
			name:  "missing path",
			event: event.ProxyEvent{ServiceName: event.ServiceSQS, HTTP: event.HTTPEvent{Method: "post", QueueName: "q", Auth: event.Auth{AuthorizationType: "NONE"}}},
			field: "http.path",
		},
		{
			name:  "missing method",
			event: event.ProxyEvent{ServiceName: event.ServiceSQS, HTTP: event.HTTPEvent{Path: "sqs", QueueName: "q", Auth: event.Auth{AuthorizationType: "NONE"}}},
			field: "http.method",
		},
		{
			name:  "missing auth type",
			event: event.ProxyEvent{ServiceName: event.ServiceSQS, HTTP: event.HTTPEvent{Path: "sqs", Method: "post", QueueName: "q"}},
			field: "http.auth.authorizationType",
		},
		{
			name:  "unresolved path",
			event: sqsEvent(event.HTTPEvent{Path: "unknown"}),
			field: "http.path",
		},
		{
			name:  "invalid role arn",
			event: sqsEvent(event.HTTPEvent{RoleArn: []string{"not", "an", "arn"}}),
			field: "http.roleArn",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			existing := template.Registry{"Existing": {Type: "AWS::SQS::Queue"}}
			events := []event.ProxyEvent{
				sqsEvent(event.HTTPEvent{}),
				tt.event,
			}

			reg, err := Compile(events, restAPIID, sqsResources, existing)
			require.Error(t, err)
			assert.Nil(t, reg)

			var cfgErr *wetwire.ConfigurationError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, 1, cfgErr.Index)
			assert.Equal(t, tt.field, cfgErr.Field)

			// Nothing leaks into the caller's registry.
			assert.Equal(t, []string{"Existing"}, existing.Names())
		})
	}
}

func TestCompile_MissingRestAPIID(t *testing.T) {
	_, err := Compile([]event.ProxyEvent{sqsEvent(event.HTTPEvent{})}, "", sqsResources, nil)

	var cfgErr *wetwire.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, -1, cfgErr.Index)
}

func TestCompile_DuplicateLogicalIDs(t *testing.T) {
	t.Run("identical events collapse", func(t *testing.T) {
		ev := sqsEvent(event.HTTPEvent{})
		reg, err := Compile([]event.ProxyEvent{ev, ev}, restAPIID, sqsResources, nil)
		require.NoError(t, err)
		assert.Len(t, reg, 1)
	})

	t.Run("conflicting events fail", func(t *testing.T) {
		events := []event.ProxyEvent{
			sqsEvent(event.HTTPEvent{QueueName: "first"}),
			sqsEvent(event.HTTPEvent{Path: "/sqs/", QueueName: "second"}),
		}
		_, err := Compile(events, restAPIID, sqsResources, nil)

		var dupErr *template.DuplicateResourceError
		require.True(t, errors.As(err, &dupErr))
		assert.Equal(t, "ApiGatewayMethodsqsPost", dupErr.LogicalID)
	})
}

func TestCompile_OverwritesAcrossPasses(t *testing.T) {
	ev := sqsEvent(event.HTTPEvent{})

	first, err := Compile([]event.ProxyEvent{ev}, restAPIID, sqsResources, template.Registry{})
	require.NoError(t, err)
	second, err := Compile([]event.ProxyEvent{ev}, restAPIID, sqsResources, first)
	require.NoError(t, err)

	assert.Len(t, second, 1)
	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.JSONEq(t, string(a), string(b))

	changed := sqsEvent(event.HTTPEvent{QueueName: "other"})
	third, err := Compile([]event.ProxyEvent{changed}, restAPIID, sqsResources, second)
	require.NoError(t, err)
	props := third["ApiGatewayMethodsqsPost"].Properties.(apigw.MethodProperties)
	assert.Contains(t, props.Integration.Uri.(intrinsics.Join).Values, `"other"`)
}

func TestCompile_KeepsExistingEntries(t *testing.T) {
	existing := template.Registry{"ApigatewayToSqsRole": {Type: "AWS::IAM::Role"}}
	reg, err := Compile([]event.ProxyEvent{sqsEvent(event.HTTPEvent{})}, restAPIID, sqsResources, existing)
	require.NoError(t, err)

	assert.Equal(t, []string{"ApiGatewayMethodsqsPost", "ApigatewayToSqsRole"}, reg.Names())
	assert.Len(t, existing, 1)
}

func TestCompileConfig_AppliesDefaults(t *testing.T) {
	cfg, err := event.Parse([]byte(`
resources:
  /sqs:
    name: sqs
    resourceLogicalId: ApiGatewayResourceSqs
apiGatewayServiceProxies:
  - sqs:
      path: /sqs
      method: post
      queueName: myQueue
      cors: true
`))
	require.NoError(t, err)

	reg, err := CompileConfig(*cfg, nil)
	require.NoError(t, err)

	data, err := json.Marshal(reg)
	require.NoError(t, err)
	allowOrigin := `"method.response.header.Access-Control-Allow-Origin": "'*'"`
	assert.JSONEq(t, expectedMethod(`"AuthorizationType": "NONE"`, "", allowOrigin), string(data))
}

func TestCompileConfig_ShortFormQueueName(t *testing.T) {
	cfg, err := event.Parse([]byte(`
resources:
  sqs:
    resourceLogicalId: ApiGatewayResourceSqs
apiGatewayServiceProxies:
  - sqs:
      path: /sqs
      method: post
      queueName: !GetAtt OrdersQueue.QueueName
`))
	require.NoError(t, err)

	reg, err := CompileConfig(*cfg, nil)
	require.NoError(t, err)

	props := reg["ApiGatewayMethodSqsPost"].Properties.(apigw.MethodProperties)
	data, err := json.Marshal(props.Integration.Uri)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Fn::Join": ["", [
		"arn:aws:apigateway:", {"Ref": "AWS::Region"}, ":sqs:path//", {"Ref": "AWS::AccountId"}, "/",
		{"Fn::GetAtt": ["OrdersQueue", "QueueName"]}
	]]}`, string(data))
}

func TestCompile_UnnormalizedResourceKeys(t *testing.T) {
	resources := apigw.ResourceMap{"/sqs": {Name: "sqs", ResourceLogicalID: "ApiGatewayResourceSqs"}}

	reg, err := Compile([]event.ProxyEvent{sqsEvent(event.HTTPEvent{Path: "/sqs"})}, restAPIID, resources, nil)
	require.NoError(t, err)
	assert.Contains(t, reg, "ApiGatewayMethodsqsPost")
}

func TestCompile_BlankAuthorizerID(t *testing.T) {
	got := compileJSON(t, sqsEvent(event.HTTPEvent{
		Auth: event.Auth{AuthorizationType: "CUSTOM", AuthorizerID: "  "},
	}))
	assert.NotContains(t, got, "AuthorizerId")
	assert.Contains(t, got, `"AuthorizationType":"CUSTOM"`)
}

func TestCompile_CORSOriginPlacement(t *testing.T) {
	tests := []struct {
		name     string
		cors     *event.CORS
		expected int
	}{
		{"no cors", nil, 0},
		{"wildcard", &event.CORS{Origin: "*"}, 4},
		{"single origin", &event.CORS{Origins: []string{"https://example.com"}}, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := compileJSON(t, sqsEvent(event.HTTPEvent{CORS: tt.cors}))
			assert.Equal(t, tt.expected, strings.Count(got, "Access-Control-Allow-Origin"))
		})
	}
}

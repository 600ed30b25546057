// Package apigw defines the API Gateway resource shapes emitted by the proxy
// compilers, and the naming rules that derive their logical ids.
package apigw

// ResourceTypeMethod is the CloudFormation type of an API Gateway method.
const ResourceTypeMethod = "AWS::ApiGateway::Method"

// MethodProperties are the properties of an AWS::ApiGateway::Method.
//
// Field order matches the property order of the host plugin's output.
// AuthorizationScopes and AuthorizerId are omitted when nil; an empty but
// non-nil scope list is still emitted.
type MethodProperties struct {
	HttpMethod          string            `json:"HttpMethod"`
	RequestParameters   map[string]string `json:"RequestParameters"`
	AuthorizationType   string            `json:"AuthorizationType"`
	AuthorizationScopes *[]string         `json:"AuthorizationScopes,omitempty"`
	AuthorizerId        any               `json:"AuthorizerId,omitempty"`
	ApiKeyRequired      bool              `json:"ApiKeyRequired"`
	ResourceId          any               `json:"ResourceId"`
	RestApiId           any               `json:"RestApiId"`
	Integration         Integration       `json:"Integration"`
	MethodResponses     []MethodResponse  `json:"MethodResponses"`
}

// Integration is the backend binding of a method.
type Integration struct {
	IntegrationHttpMethod string                `json:"IntegrationHttpMethod"`
	Type                  string                `json:"Type"`
	Credentials           any                   `json:"Credentials"`
	Uri                   any                   `json:"Uri"`
	RequestParameters     map[string]string     `json:"RequestParameters"`
	RequestTemplates      map[string]string     `json:"RequestTemplates"`
	IntegrationResponses  []IntegrationResponse `json:"IntegrationResponses"`
}

// IntegrationResponse maps a backend status to a method response.
// SelectionPattern is the numeric status itself, matched exactly.
type IntegrationResponse struct {
	StatusCode         int               `json:"StatusCode"`
	SelectionPattern   int               `json:"SelectionPattern"`
	ResponseParameters map[string]string `json:"ResponseParameters"`
	ResponseTemplates  map[string]string `json:"ResponseTemplates"`
}

// MethodResponse declares a status code the method can return.
type MethodResponse struct {
	ResponseParameters map[string]string `json:"ResponseParameters"`
	ResponseModels     map[string]string `json:"ResponseModels"`
	StatusCode         int               `json:"StatusCode"`
}

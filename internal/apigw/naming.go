package apigw

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MethodLogicalID returns the logical id of the method bound to the named
// resource, e.g. ("sqs", "post") -> "ApiGatewayMethodsqsPost".
func MethodLogicalID(resourceName, httpMethod string) string {
	return "ApiGatewayMethod" + resourceName + NormalizeMethodName(httpMethod)
}

// NormalizeMethodName capitalizes an HTTP method for use in logical ids.
// e.g., "post" -> "Post", "DELETE" -> "Delete"
func NormalizeMethodName(method string) string {
	return upperFirst(strings.ToLower(method))
}

// NormalizePath strips surrounding slashes and whitespace. The root path
// normalizes to "".
func NormalizePath(path string) string {
	return strings.Trim(strings.TrimSpace(path), "/")
}

// ResourceName derives a resource name from a path when the resolver did not
// supply one: segments are capitalized and concatenated, path variables get a
// "Var" suffix and dashes become "Dash".
// e.g., "users/{id}/orders-list" -> "UsersIdVarOrdersDashlist"
func ResourceName(path string) string {
	var result strings.Builder
	for _, segment := range strings.Split(NormalizePath(path), "/") {
		if segment == "" {
			continue
		}
		if strings.HasPrefix(segment, "{") && strings.HasSuffix(segment, "}") {
			segment = strings.TrimSuffix(strings.Trim(segment, "{}"), "+") + "Var"
		}
		segment = strings.ReplaceAll(segment, "-", "Dash")
		result.WriteString(upperFirst(segment))
	}
	return result.String()
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

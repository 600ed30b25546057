// Package intrinsics provides the CloudFormation intrinsic functions used by
// the proxy compilers.
//
// The core types are re-exported from cloudformation-schema-go:
//
//	Ref{LogicalName: "ApiGatewayRestApi"} → {"Ref": "ApiGatewayRestApi"}
//	GetAtt{LogicalName: "ApigatewayToSqsRole", Attribute: "Arn"} → {"Fn::GetAtt": ["ApigatewayToSqsRole", "Arn"]}
//	Join{Delimiter: "", Values: []any{"a", "b"}} → {"Fn::Join": ["", ["a", "b"]]}
package intrinsics

import (
	"strings"

	"github.com/lex00/cloudformation-schema-go/intrinsics"
)

type (
	// Ref represents a CloudFormation Ref intrinsic function.
	Ref = intrinsics.Ref

	// GetAtt represents a CloudFormation Fn::GetAtt intrinsic function.
	GetAtt = intrinsics.GetAtt

	// Join represents a CloudFormation Fn::Join intrinsic function.
	Join = intrinsics.Join

	// Sub represents a CloudFormation Fn::Sub intrinsic function.
	Sub = intrinsics.Sub

	// ImportValue represents a CloudFormation Fn::ImportValue intrinsic function.
	ImportValue = intrinsics.ImportValue
)

// Quoted wraps a literal in double quotes.
//
// API Gateway's SQS path integration expects the queue segment of the URI
// quoted, so "orders" is emitted as "\"orders\"".
func Quoted(s string) string {
	return `"` + s + `"`
}

// IsIntrinsic reports whether v is a dynamic CloudFormation expression rather
// than a literal. Decoded documents carry intrinsics as single-key maps
// ({"Ref": ...}, {"Fn::GetAtt": ...}); Go callers may pass the typed values.
func IsIntrinsic(v any) bool {
	switch val := v.(type) {
	case Ref, GetAtt, Join, Sub, ImportValue,
		*Ref, *GetAtt, *Join, *Sub, *ImportValue:
		return true
	case map[string]any:
		return hasIntrinsicKey(val)
	case map[string]string:
		return hasIntrinsicKey(val)
	default:
		return false
	}
}

func hasIntrinsicKey[V any](m map[string]V) bool {
	if len(m) != 1 {
		return false
	}
	for k := range m {
		return k == "Ref" || strings.HasPrefix(k, "Fn::")
	}
	return false
}

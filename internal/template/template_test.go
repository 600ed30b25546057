package template

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	wetwire "github.com/lex00/wetwire-apigw-go"
	"github.com/lex00/wetwire-apigw-go/intrinsics"
)

func methodDef(httpMethod string) wetwire.ResourceDef {
	return wetwire.ResourceDef{
		Type: "AWS::ApiGateway::Method",
		Properties: map[string]any{
			"HttpMethod": httpMethod,
			"RestApiId":  intrinsics.Ref{LogicalName: "ApiGatewayRestApi"},
		},
	}
}

func TestRegistry_CloneIsIndependent(t *testing.T) {
	reg := Registry{"A": methodDef("POST")}
	clone := reg.Clone()
	clone.Put("B", methodDef("GET"))

	assert.Len(t, reg, 1)
	assert.Len(t, clone, 2)
}

func TestRegistry_PutOverwrites(t *testing.T) {
	reg := Registry{}
	reg.Put("A", methodDef("POST"))
	reg.Put("A", methodDef("PUT"))

	require.Len(t, reg, 1)
	props := reg["A"].Properties.(map[string]any)
	assert.Equal(t, "PUT", props["HttpMethod"])
}

func TestRegistry_Names(t *testing.T) {
	reg := Registry{"C": {}, "A": {}, "B": {}}
	assert.Equal(t, []string{"A", "B", "C"}, reg.Names())
}

func TestRegistry_Template(t *testing.T) {
	tmpl := Registry{"A": methodDef("POST")}.Template()
	assert.Equal(t, FormatVersion, tmpl.AWSTemplateFormatVersion)
	assert.Len(t, tmpl.Resources, 1)
}

func TestRegistry_Into(t *testing.T) {
	base := &wetwire.Template{
		Description: "host stack",
		Parameters:  map[string]any{"Stage": map[string]any{"Type": "String"}},
		Conditions:  map[string]any{"IsProd": map[string]any{"Fn::Equals": []any{map[string]any{"Ref": "Stage"}, "prod"}}},
		Resources:   map[string]wetwire.ResourceDef{"Old": methodDef("GET")},
		Outputs:     map[string]any{"ApiId": map[string]any{"Value": map[string]any{"Ref": "ApiGatewayRestApi"}}},
	}

	tmpl := Registry{"A": methodDef("POST")}.Into(base)

	assert.Equal(t, FormatVersion, tmpl.AWSTemplateFormatVersion)
	assert.Equal(t, "host stack", tmpl.Description)
	assert.Equal(t, base.Parameters, tmpl.Parameters)
	assert.Equal(t, base.Conditions, tmpl.Conditions)
	assert.Equal(t, base.Outputs, tmpl.Outputs)
	assert.Equal(t, []string{"A"}, Registry(tmpl.Resources).Names())
	assert.Len(t, base.Resources, 1, "base must not be mutated")
	assert.Contains(t, base.Resources, "Old")

	data, err := ToJSON(tmpl)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"Outputs"`)

	bare, err := ToJSON(Registry{"A": methodDef("POST")}.Template())
	require.NoError(t, err)
	assert.NotContains(t, string(bare), `"Outputs"`)
	assert.NotContains(t, string(bare), `"Parameters"`)
}

func TestMerge(t *testing.T) {
	dst := Registry{"A": methodDef("POST")}

	t.Run("adds new entries", func(t *testing.T) {
		out, err := Merge(dst, Registry{"B": methodDef("GET")}, true)
		require.NoError(t, err)
		assert.Equal(t, []string{"A", "B"}, out.Names())
		assert.Len(t, dst, 1)
	})

	t.Run("identical duplicate is idempotent", func(t *testing.T) {
		out, err := Merge(dst, Registry{"A": methodDef("POST")}, true)
		require.NoError(t, err)
		assert.Len(t, out, 1)
	})

	t.Run("conflicting duplicate in strict mode", func(t *testing.T) {
		_, err := Merge(dst, Registry{"A": methodDef("PUT")}, true)
		require.Error(t, err)

		var dupErr *DuplicateResourceError
		require.True(t, errors.As(err, &dupErr))
		assert.Equal(t, "A", dupErr.LogicalID)
	})

	t.Run("conflicting duplicate overwrites when lenient", func(t *testing.T) {
		out, err := Merge(dst, Registry{"A": methodDef("PUT")}, false)
		require.NoError(t, err)
		assert.Equal(t, "PUT", out["A"].Properties.(map[string]any)["HttpMethod"])
	})
}

func TestEqual_TypedAndDecodedProperties(t *testing.T) {
	typed := methodDef("POST")
	decoded := wetwire.ResourceDef{
		Type: "AWS::ApiGateway::Method",
		Properties: map[string]any{
			"HttpMethod": "POST",
			"RestApiId":  map[string]any{"Ref": "ApiGatewayRestApi"},
		},
	}

	same, err := Equal(typed, decoded)
	require.NoError(t, err)
	assert.True(t, same)
}

func TestToJSON(t *testing.T) {
	tmpl := Registry{"ApiGatewayMethodsqsPost": methodDef("POST")}.Template()

	data, err := ToJSON(tmpl)
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(data, &parsed))

	assert.Equal(t, "2010-09-09", parsed["AWSTemplateFormatVersion"])
	resources := parsed["Resources"].(map[string]any)
	method := resources["ApiGatewayMethodsqsPost"].(map[string]any)
	assert.Equal(t, "AWS::ApiGateway::Method", method["Type"])
}

func TestToYAML_KeepsIntrinsicForm(t *testing.T) {
	tmpl := Registry{"ApiGatewayMethodsqsPost": methodDef("POST")}.Template()

	data, err := ToYAML(tmpl)
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, yaml.Unmarshal(data, &parsed))

	resources := parsed["Resources"].(map[string]any)
	method := resources["ApiGatewayMethodsqsPost"].(map[string]any)
	props := method["Properties"].(map[string]any)
	assert.Equal(t, map[string]any{"Ref": "ApiGatewayRestApi"}, props["RestApiId"])
}

func TestNormalize(t *testing.T) {
	tmpl := Registry{"A": methodDef("POST")}.Template()

	normalized, err := Normalize(tmpl)
	require.NoError(t, err)

	props, ok := normalized.Resources["A"].Properties.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"Ref": "ApiGatewayRestApi"}, props["RestApiId"])
}

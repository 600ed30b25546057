package intrinsics

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// shortForms maps YAML short-form tags to the key of their long form.
var shortForms = map[string]string{
	"!Ref":         "Ref",
	"!Condition":   "Condition",
	"!GetAtt":      "Fn::GetAtt",
	"!Sub":         "Fn::Sub",
	"!Join":        "Fn::Join",
	"!ImportValue": "Fn::ImportValue",
	"!Select":      "Fn::Select",
	"!Split":       "Fn::Split",
	"!FindInMap":   "Fn::FindInMap",
	"!GetAZs":      "Fn::GetAZs",
	"!Base64":      "Fn::Base64",
	"!Cidr":        "Fn::Cidr",
	"!If":          "Fn::If",
	"!Equals":      "Fn::Equals",
	"!And":         "Fn::And",
	"!Or":          "Fn::Or",
	"!Not":         "Fn::Not",
}

// ExpandShortForms rewrites YAML short-form intrinsics in place so the
// document decodes to the same maps as the long form:
//
//	!Ref Queue                → {Ref: Queue}
//	!GetAtt Queue.QueueName   → {Fn::GetAtt: [Queue, QueueName]}
//	!Sub "${AWS::StackName}"  → {Fn::Sub: "${AWS::StackName}"}
//
// Any other local tag is an error.
func ExpandShortForms(node *yaml.Node) error {
	if node == nil {
		return nil
	}
	for _, child := range node.Content {
		if err := ExpandShortForms(child); err != nil {
			return err
		}
	}
	if node.Kind == yaml.AliasNode || !strings.HasPrefix(node.Tag, "!") || strings.HasPrefix(node.Tag, "!!") {
		return nil
	}

	key, ok := shortForms[node.Tag]
	if !ok {
		return fmt.Errorf("line %d: unsupported tag %s", node.Line, node.Tag)
	}

	value := *node
	value.Tag = defaultTag(value.Kind)
	if node.Tag == "!GetAtt" && value.Kind == yaml.ScalarNode {
		logicalName, attribute, found := strings.Cut(value.Value, ".")
		if !found {
			return fmt.Errorf("line %d: !GetAtt %q must be LogicalName.Attribute", node.Line, value.Value)
		}
		value = yaml.Node{
			Kind: yaml.SequenceNode,
			Tag:  "!!seq",
			Content: []*yaml.Node{
				{Kind: yaml.ScalarNode, Tag: "!!str", Value: logicalName},
				{Kind: yaml.ScalarNode, Tag: "!!str", Value: attribute},
			},
			Line:   node.Line,
			Column: node.Column,
		}
	}

	*node = yaml.Node{
		Kind: yaml.MappingNode,
		Tag:  "!!map",
		Content: []*yaml.Node{
			{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
			&value,
		},
		Line:   node.Line,
		Column: node.Column,
	}
	return nil
}

// defaultTag is the tag a node of kind gets once its short-form tag is
// removed. Scalars stay strings so !Ref 123 keeps its text.
func defaultTag(kind yaml.Kind) string {
	switch kind {
	case yaml.SequenceNode:
		return "!!seq"
	case yaml.MappingNode:
		return "!!map"
	default:
		return "!!str"
	}
}

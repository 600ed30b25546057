// Package template accumulates compiled resources into a registry and
// renders CloudFormation templates from it.
package template

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"

	"gopkg.in/yaml.v3"

	wetwire "github.com/lex00/wetwire-apigw-go"
)

// FormatVersion is the AWSTemplateFormatVersion of rendered templates.
const FormatVersion = "2010-09-09"

// Registry maps logical ids to resource definitions.
type Registry map[string]wetwire.ResourceDef

// DuplicateResourceError reports two different resources derived for the
// same logical id within one compile pass.
type DuplicateResourceError struct {
	LogicalID string
}

func (e *DuplicateResourceError) Error() string {
	return fmt.Sprintf("duplicate resource %s: two definitions derive the same logical id", e.LogicalID)
}

// Clone returns a shallow copy of the registry. Resource definitions are
// never mutated after insertion, so sharing them is safe.
func (r Registry) Clone() Registry {
	out := make(Registry, len(r))
	for name, def := range r {
		out[name] = def
	}
	return out
}

// Put inserts def under name, overwriting any existing entry.
func (r Registry) Put(name string, def wetwire.ResourceDef) {
	r[name] = def
}

// Names returns the logical ids in sorted order.
func (r Registry) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Template wraps the registry in a CloudFormation template.
func (r Registry) Template() *wetwire.Template {
	return r.Into(nil)
}

// Into renders the registry into a copy of base. Every section of base
// other than Resources is kept as is; Resources is replaced by the
// registry. A nil base yields a bare template.
func (r Registry) Into(base *wetwire.Template) *wetwire.Template {
	out := wetwire.Template{}
	if base != nil {
		out = *base
	}
	if out.AWSTemplateFormatVersion == "" {
		out.AWSTemplateFormatVersion = FormatVersion
	}
	out.Resources = r.Clone()
	return &out
}

// Merge returns dst with every entry of src added. With strict set, an entry
// whose logical id already exists in dst with different content yields a
// DuplicateResourceError; otherwise src wins.
func Merge(dst, src Registry, strict bool) (Registry, error) {
	out := dst.Clone()
	for _, name := range src.Names() {
		def := src[name]
		if existing, ok := out[name]; ok && strict {
			same, err := Equal(existing, def)
			if err != nil {
				return nil, fmt.Errorf("comparing %s: %w", name, err)
			}
			if !same {
				return nil, &DuplicateResourceError{LogicalID: name}
			}
		}
		out[name] = def
	}
	return out, nil
}

// Equal reports whether two resource definitions render identically.
func Equal(a, b wetwire.ResourceDef) (bool, error) {
	na, err := normalizeValue(a)
	if err != nil {
		return false, err
	}
	nb, err := normalizeValue(b)
	if err != nil {
		return false, err
	}
	return reflect.DeepEqual(na, nb), nil
}

// Normalize converts every resource's properties to the generic
// map[string]any form a template file decodes to, so compiled and loaded
// templates can be compared.
func Normalize(t *wetwire.Template) (*wetwire.Template, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	var out wetwire.Template
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func normalizeValue(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ToJSON serializes the template to JSON.
func ToJSON(t *wetwire.Template) ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}

// ToYAML serializes the template to YAML.
//
// Intrinsics only define a JSON form, so the template is rendered through
// its JSON tree first.
func ToYAML(t *wetwire.Template) ([]byte, error) {
	tree, err := normalizeValue(t)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(tree)
}

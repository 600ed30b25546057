// Package differ provides semantic comparison of CloudFormation templates.
//
// It is used to review what a recompile changes in a previously rendered
// template, for example after editing a proxy's queue or CORS settings.
package differ

import (
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"slices"
	"sort"

	"gopkg.in/yaml.v3"

	wetwire "github.com/lex00/wetwire-apigw-go"
	"github.com/lex00/wetwire-apigw-go/internal/template"
	"github.com/lex00/wetwire-apigw-go/intrinsics"
)

// Options configures the differ.
type Options struct {
	// IgnoreOrder ignores array element order in comparisons
	IgnoreOrder bool
}

// Result contains the difference between two templates.
type Result struct {
	Diff    wetwire.TemplateDiff
	Summary wetwire.DiffSummary
}

// Compare compares two CloudFormation templates and returns differences.
// Typed properties and properties decoded from a file compare equal when they
// render to the same JSON.
func Compare(template1, template2 *wetwire.Template, opts Options) (*Result, error) {
	t1, err := template.Normalize(template1)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize first template: %w", err)
	}
	t2, err := template.Normalize(template2)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize second template: %w", err)
	}

	old := template.Registry(t1.Resources)
	cur := template.Registry(t2.Resources)

	result := &Result{}
	for _, name := range mergedNames(old, cur) {
		before, inOld := old[name]
		after, inCur := cur[name]
		switch {
		case !inOld:
			result.Diff.Added = append(result.Diff.Added, wetwire.DiffEntry{Resource: name, Type: after.Type})
		case !inCur:
			result.Diff.Removed = append(result.Diff.Removed, wetwire.DiffEntry{Resource: name, Type: before.Type})
		default:
			if changes := compareResources(before, after, opts); len(changes) > 0 {
				result.Diff.Modified = append(result.Diff.Modified, wetwire.DiffEntry{
					Resource: name,
					Type:     before.Type,
					Changes:  changes,
				})
			}
		}
	}

	result.Summary = summarize(result.Diff)
	return result, nil
}

// CompareFiles compares two template files.
func CompareFiles(file1, file2 string, opts Options) (*Result, error) {
	t1, err := LoadTemplate(file1)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", file1, err)
	}

	t2, err := LoadTemplate(file2)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", file2, err)
	}

	return Compare(t1, t2, opts)
}

// LoadTemplate loads a CloudFormation template from a JSON or YAML file.
// YAML short-form intrinsics such as !Ref are expanded to their long form.
func LoadTemplate(path string) (*wetwire.Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var tmpl wetwire.Template

	// Try JSON first
	if err := json.Unmarshal(data, &tmpl); err == nil {
		return &tmpl, nil
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse as JSON or YAML: %w", err)
	}
	if err := intrinsics.ExpandShortForms(&root); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if root.Kind != 0 {
		if err := root.Decode(&tmpl); err != nil {
			return nil, fmt.Errorf("failed to decode template: %w", err)
		}
	}

	return &tmpl, nil
}

func compareResources(def1, def2 wetwire.ResourceDef, opts Options) []string {
	var changes []string

	if def1.Type != def2.Type {
		changes = append(changes, fmt.Sprintf("Type changed: %s → %s", def1.Type, def2.Type))
	}

	changes = append(changes, compareValues("", def1.Properties, def2.Properties, opts)...)

	if !slices.Equal(def1.DependsOn, def2.DependsOn) {
		changes = append(changes, "DependsOn changed")
	}

	sort.Strings(changes)
	return changes
}

// compareValues walks nested property maps and reports changes by dotted
// path. Non-map values and intrinsic functions are compared as a whole.
func compareValues(prefix string, v1, v2 any, opts Options) []string {
	props1, ok1 := v1.(map[string]any)
	props2, ok2 := v2.(map[string]any)
	if !ok1 || !ok2 || intrinsics.IsIntrinsic(props1) || intrinsics.IsIntrinsic(props2) {
		if deepEqual(v1, v2, opts) {
			return nil
		}
		switch {
		case v1 == nil:
			return []string{label(prefix, "Properties") + " added"}
		case v2 == nil:
			return []string{label(prefix, "Properties") + " removed"}
		default:
			return []string{label(prefix, "Properties") + " modified"}
		}
	}

	var changes []string
	for key, val2 := range props2 {
		path := join(prefix, key)
		if val1, exists := props1[key]; exists {
			changes = append(changes, compareValues(path, val1, val2, opts)...)
		} else {
			changes = append(changes, path+" added")
		}
	}

	for key := range props1 {
		if _, exists := props2[key]; !exists {
			changes = append(changes, join(prefix, key)+" removed")
		}
	}

	return changes
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

func label(path, fallback string) string {
	if path == "" {
		return fallback
	}
	return path
}

// deepEqual compares two values deeply, optionally ignoring array order.
func deepEqual(a, b any, opts Options) bool {
	if opts.IgnoreOrder {
		a = normalizeValue(a)
		b = normalizeValue(b)
	}
	return reflect.DeepEqual(a, b)
}

// normalizeValue sorts arrays by their JSON rendering so that two arrays with
// the same elements in different order compare equal.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case []any:
		result := make([]any, len(val))
		for i, elem := range val {
			result[i] = normalizeValue(elem)
		}
		sort.SliceStable(result, func(i, j int) bool {
			return sortKey(result[i]) < sortKey(result[j])
		})
		return result
	case map[string]any:
		result := make(map[string]any, len(val))
		for k, v := range val {
			result[k] = normalizeValue(v)
		}
		return result
	default:
		return v
	}
}

func sortKey(v any) string {
	data, _ := json.Marshal(v)
	return string(data)
}

// mergedNames returns the logical ids of both registries, sorted and
// without repeats.
func mergedNames(a, b template.Registry) []string {
	merged := a.Clone()
	for name, def := range b {
		merged[name] = def
	}
	return merged.Names()
}

func summarize(diff wetwire.TemplateDiff) wetwire.DiffSummary {
	summary := wetwire.DiffSummary{
		Added:    len(diff.Added),
		Removed:  len(diff.Removed),
		Modified: len(diff.Modified),
	}
	summary.Total = summary.Added + summary.Removed + summary.Modified
	return summary
}

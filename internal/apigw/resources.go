package apigw

import (
	"github.com/lex00/wetwire-apigw-go/intrinsics"
)

// ResourceRef is the resource-resolution output for one path: the name used
// in method logical ids and the logical id of the AWS::ApiGateway::Resource.
type ResourceRef struct {
	Name              string `json:"name,omitempty" yaml:"name,omitempty"`
	ResourceLogicalID string `json:"resourceLogicalId" yaml:"resourceLogicalId"`
}

// ResourceMap maps a normalized path (no leading or trailing slash) to its
// resolved resource.
type ResourceMap map[string]ResourceRef

// Resolved is a resource reference ready to be embedded in a method.
type Resolved struct {
	// ID is the value for the method's ResourceId property.
	ID any
	// Name is the resource name used in the method logical id.
	Name string
}

// Resolve looks up the resource for path. Map keys may be written with or
// without surrounding slashes. The root path resolves to the RootResourceId
// attribute of the REST API and needs no map entry.
func (m ResourceMap) Resolve(path, restAPIID string) (Resolved, bool) {
	p := NormalizePath(path)
	if p == "" {
		return Resolved{
			ID: intrinsics.GetAtt{LogicalName: restAPIID, Attribute: "RootResourceId"},
		}, true
	}

	ref, ok := m.lookup(p)
	if !ok || ref.ResourceLogicalID == "" {
		return Resolved{}, false
	}

	name := ref.Name
	if name == "" {
		name = ResourceName(p)
	}
	return Resolved{
		ID:   intrinsics.Ref{LogicalName: ref.ResourceLogicalID},
		Name: name,
	}, true
}

// lookup finds the entry for a normalized path, falling back to keys that
// normalize to it.
func (m ResourceMap) lookup(p string) (ResourceRef, bool) {
	if ref, ok := m[p]; ok {
		return ref, true
	}
	for key, ref := range m {
		if NormalizePath(key) == p {
			return ref, true
		}
	}
	return ResourceRef{}, false
}

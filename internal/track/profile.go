// Package track holds per-track static metadata: which geometries to
// delete from the mesh, which vertex groups get their material rewritten
// to the physics sentinel, and the material-to-semantic-class mapping.
package track

import (
	"fmt"

	"github.com/simlabels/groundtruth/internal/classes"
)

// Profile is the per-track configuration named in spec.md §3.
type Profile struct {
	Name                 string
	GeometriesToRemove   map[string]bool
	VertexGroupsToModify map[string]bool
	MaterialToClassName  map[string]string

	// MaterialToID is derived at construction: each class name in
	// MaterialToClassName is resolved against the semantic table.
	MaterialToID map[string]int8
}

// New builds a Profile and resolves MaterialToClassName against tbl.
// Construction fails if any mapped class name is not present in tbl,
// per the invariant in spec.md §3.
func New(name string, geometriesToRemove, vertexGroupsToModify []string, materialToClassName map[string]string, tbl *classes.Table) (*Profile, error) {
	p := &Profile{
		Name:                 name,
		GeometriesToRemove:   toSet(geometriesToRemove),
		VertexGroupsToModify: toSet(vertexGroupsToModify),
		MaterialToClassName:  materialToClassName,
		MaterialToID:         make(map[string]int8, len(materialToClassName)),
	}
	for material, className := range materialToClassName {
		id, ok := tbl.TrainID(className)
		if !ok {
			return nil, fmt.Errorf("track %q: material %q maps to unknown class %q", name, material, className)
		}
		p.MaterialToID[material] = int8(id)
	}
	return p, nil
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}

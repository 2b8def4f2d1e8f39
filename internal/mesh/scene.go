package mesh

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/simlabels/groundtruth/internal/geom"
)

// Triangle is one flattened triangle in a Scene, with a pre-computed
// face normal (zero for degenerate triangles, per spec.md's "degenerate
// triangle normals are encoded as zero" recovery rule).
type Triangle struct {
	A, B, C geom.Vec
	Normal  geom.Vec
}

// Scene holds a flattened triangle buffer, a parallel
// triangle-index -> material-name array, and the named geometries the
// triangles were grouped under at load time. Triangle index is stable
// across queries into the same Scene value.
type Scene struct {
	Triangles []Triangle
	Material  []string
	// Geometry maps a geometry name to the triangle indices it owns in
	// this Scene; a Scene returned by DeleteGeometries holds only the
	// kept geometries, with renumbered indices.
	Geometry map[string][]int
}

// Loader is the narrow external-collaborator interface for mesh I/O:
// something that can parse the source mesh format and report
// per-triangle material names and vertex coordinates.
type Loader interface {
	Load(path string) (*Scene, error)
}

// DeleteGeometries returns a new Scene with the named geometries removed
// from the flattened triangle buffer. Triangle indices in the result are
// renumbered and no longer correspond to indices in the receiver.
func (s *Scene) DeleteGeometries(names map[string]bool) *Scene {
	if len(names) == 0 {
		return s
	}
	removed := make(map[int]bool)
	for name, indices := range s.Geometry {
		if names[name] {
			for _, idx := range indices {
				removed[idx] = true
			}
		}
	}
	if len(removed) == 0 {
		return s
	}

	out := &Scene{Geometry: make(map[string][]int, len(s.Geometry))}
	remap := make(map[int]int, len(s.Triangles))
	for i, tri := range s.Triangles {
		if removed[i] {
			continue
		}
		remap[i] = len(out.Triangles)
		out.Triangles = append(out.Triangles, tri)
		out.Material = append(out.Material, s.Material[i])
	}
	for name, indices := range s.Geometry {
		if names[name] {
			continue
		}
		kept := make([]int, 0, len(indices))
		for _, idx := range indices {
			if newIdx, ok := remap[idx]; ok {
				kept = append(kept, newIdx)
			}
		}
		out.Geometry[name] = kept
	}
	return out
}

func computeNormal(a, b, c geom.Vec) geom.Vec {
	ab := geom.Vec{X: b.X - a.X, Y: b.Y - a.Y, Z: b.Z - a.Z}
	ac := geom.Vec{X: c.X - a.X, Y: c.Y - a.Y, Z: c.Z - a.Z}
	n := geom.Vec{
		X: ab.Y*ac.Z - ab.Z*ac.Y,
		Y: ab.Z*ac.X - ab.X*ac.Z,
		Z: ab.X*ac.Y - ab.Y*ac.X,
	}
	length := n.X*n.X + n.Y*n.Y + n.Z*n.Z
	if length == 0 {
		return geom.Vec{}
	}
	inv := 1 / math.Sqrt(length)
	return geom.Vec{X: n.X * inv, Y: n.Y * inv, Z: n.Z * inv}
}

// OBJLoader is the default mesh loader: a triangulated-OBJ-subset parser
// that tracks `g` geometry groups and `usemtl` material assignments,
// enough to support the track profile's geometry-deletion and
// vertex-group semantics. It does not support OBJ features the track
// pipeline never produces (smoothing groups, texture/normal indices,
// multiple objects via `o`).
type OBJLoader struct{}

// Load implements Loader.
func (OBJLoader) Load(path string) (*Scene, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var vertices []geom.Vec
	scene := &Scene{Geometry: make(map[string][]int)}
	currentGroup := ""
	currentMaterial := ""

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "v":
			v, err := parseVertex(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("mesh %s: %w", path, err)
			}
			vertices = append(vertices, v)
		case "g":
			if len(fields) > 1 {
				currentGroup = strings.Join(fields[1:], " ")
			} else {
				currentGroup = ""
			}
		case "usemtl":
			if len(fields) > 1 {
				currentMaterial = fields[1]
			}
		case "f":
			idxs, err := parseFaceIndices(fields[1:], len(vertices))
			if err != nil {
				return nil, fmt.Errorf("mesh %s: %w", path, err)
			}
			for i := 1; i+1 < len(idxs); i++ {
				a, b, c := vertices[idxs[0]], vertices[idxs[i]], vertices[idxs[i+1]]
				triIdx := len(scene.Triangles)
				scene.Triangles = append(scene.Triangles, Triangle{A: a, B: b, C: c, Normal: computeNormal(a, b, c)})
				scene.Material = append(scene.Material, currentMaterial)
				scene.Geometry[currentGroup] = append(scene.Geometry[currentGroup], triIdx)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return scene, nil
}

func parseVertex(fields []string) (geom.Vec, error) {
	if len(fields) < 3 {
		return geom.Vec{}, fmt.Errorf("malformed vertex line")
	}
	x, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return geom.Vec{}, err
	}
	y, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return geom.Vec{}, err
	}
	z, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return geom.Vec{}, err
	}
	return geom.Vec{X: x, Y: y, Z: z}, nil
}

// parseFaceIndices resolves a face line's vertex references (which may
// be "v", "v/vt" or "v/vt/vn" form, and may be negative/relative) to
// zero-based indices into the vertex slice loaded so far.
func parseFaceIndices(fields []string, nVertices int) ([]int, error) {
	idxs := make([]int, 0, len(fields))
	for _, f := range fields {
		ref := strings.SplitN(f, "/", 2)[0]
		n, err := strconv.Atoi(ref)
		if err != nil {
			return nil, fmt.Errorf("malformed face vertex reference %q", f)
		}
		var idx int
		if n < 0 {
			idx = nVertices + n
		} else {
			idx = n - 1
		}
		if idx < 0 || idx >= nVertices {
			return nil, fmt.Errorf("face vertex index %d out of range (have %d vertices)", n, nVertices)
		}
		idxs = append(idxs, idx)
	}
	return idxs, nil
}

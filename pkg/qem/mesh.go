package qem

import (
	"fmt"
	"slices"

	"github.com/Faultbox/qem/pkg/math"
)

// ref points at one corner of a triangle incident to a vertex.
type ref struct {
	tri    int
	corner int
}

type vertex struct {
	pos math.Vec3
	q   Quadric
	// bq holds the unweighted fold and face planes of the border edges this
	// vertex has absorbed. It is zero exactly on those boundary lines.
	bq      Quadric
	refs    []ref
	border  bool
	deleted bool
	touched bool
}

type triangle struct {
	v [3]int
	// n is the unit normal at build time. It stays with the slot so the flip
	// guard measures drift against the input surface.
	n math.Vec3
	// err[j] and pos[j] describe collapsing edge (v[j], v[(j+1)%3]).
	err     [3]float64
	pos     [3]math.Vec3
	best    float64
	dirty   bool
	deleted bool
}

func (t *triangle) has(v int) bool {
	return t.v[0] == v || t.v[1] == v || t.v[2] == v
}

// Mesh is the arena of vertex and triangle records a simplification run
// mutates. Records are addressed by stable indices and tombstoned on
// deletion; nothing is physically removed before Compact.
type Mesh struct {
	verts []vertex
	tris  []triangle
	// merged[v] is the vertex v was collapsed into, or -1.
	merged []int

	liveVerts int
	liveTris  int
	dropped   int
	diag      float64
	touched   []int
}

// Build validates the input arrays and constructs the mesh store.
// Triangles that repeat a vertex index are dropped; vertices no triangle
// references are tombstoned right away.
func Build(vertices []math.Vec3, triangles [][3]int) (*Mesh, error) {
	for i, p := range vertices {
		if !p.IsFinite() {
			return nil, fmt.Errorf("%w: vertex %d has non-finite position %v", ErrInvalidTopology, i, p)
		}
	}

	m := &Mesh{
		verts:  make([]vertex, len(vertices)),
		tris:   make([]triangle, 0, len(triangles)),
		merged: make([]int, len(vertices)),
	}
	for i, p := range vertices {
		m.verts[i].pos = p
		m.merged[i] = -1
	}

	for i, t := range triangles {
		for _, v := range t {
			if v < 0 || v >= len(vertices) {
				return nil, fmt.Errorf("%w: triangle %d references vertex %d, mesh has %d vertices",
					ErrInvalidTopology, i, v, len(vertices))
			}
		}
		if t[0] == t[1] || t[1] == t[2] || t[2] == t[0] {
			m.dropped++
			continue
		}
		m.tris = append(m.tris, triangle{
			v: t,
			n: math.TriangleNormal(vertices[t[0]], vertices[t[1]], vertices[t[2]]),
		})
	}
	if len(m.tris) == 0 {
		return nil, fmt.Errorf("%w: %d of %d triangles dropped", ErrDegenerateMesh, m.dropped, len(triangles))
	}
	m.liveTris = len(m.tris)

	for ti := range m.tris {
		for c, v := range m.tris[ti].v {
			m.verts[v].refs = append(m.verts[v].refs, ref{tri: ti, corner: c})
		}
	}

	bounds := math.EmptyBounds()
	for i := range m.verts {
		v := &m.verts[i]
		if len(v.refs) == 0 {
			v.deleted = true
			continue
		}
		m.liveVerts++
		bounds = bounds.Extend(v.pos)
	}
	m.diag = bounds.Diagonal()

	m.MarkBorders()
	return m, nil
}

// LiveVertices returns the number of vertices not yet deleted.
func (m *Mesh) LiveVertices() int { return m.liveVerts }

// LiveTriangles returns the number of triangles not yet deleted.
func (m *Mesh) LiveTriangles() int { return m.liveTris }

// Dropped returns how many input triangles Build discarded for repeating a
// vertex.
func (m *Mesh) Dropped() int { return m.dropped }

// NumVertices returns the size of the vertex arena, deleted records included.
func (m *Mesh) NumVertices() int { return len(m.verts) }

// NumTriangles returns the size of the triangle arena, deleted records included.
func (m *Mesh) NumTriangles() int { return len(m.tris) }

// Position returns the current position of vertex v.
func (m *Mesh) Position(v int) math.Vec3 { return m.verts[v].pos }

// Border reports whether vertex v lies on an open boundary.
func (m *Mesh) Border(v int) bool { return m.verts[v].border }

// VertexDeleted reports whether vertex v has been tombstoned.
func (m *Mesh) VertexDeleted(v int) bool { return m.verts[v].deleted }

// Triangle returns the vertex indices of triangle t and whether it is live.
func (m *Mesh) Triangle(t int) ([3]int, bool) {
	return m.tris[t].v, !m.tris[t].deleted
}

// Incident returns the ids of the live triangles containing vertex v.
func (m *Mesh) Incident(v int) []int {
	ids := make([]int, len(m.verts[v].refs))
	for i, r := range m.verts[v].refs {
		ids[i] = r.tri
	}
	return ids
}

// edgeValence counts the live triangles sharing the edge (a, b).
func (m *Mesh) edgeValence(a, b int) int {
	n := 0
	for _, r := range m.verts[a].refs {
		if m.tris[r.tri].has(b) {
			n++
		}
	}
	return n
}

// MarkBorders recomputes the border flag of the given vertices, or of every
// vertex when called without arguments. A vertex is on the border when one
// of its edges is used by exactly one live triangle.
func (m *Mesh) MarkBorders(ids ...int) {
	if len(ids) == 0 {
		for v := range m.verts {
			m.markBorder(v)
		}
		return
	}
	for _, v := range ids {
		m.markBorder(v)
	}
}

func (m *Mesh) markBorder(v int) {
	vx := &m.verts[v]
	vx.border = false
	if vx.deleted {
		return
	}

	// Count how often each neighbour appears across the incident triangles;
	// a neighbour seen once shares a single triangle with v.
	var nbrs, counts []int
	for _, r := range vx.refs {
		t := &m.tris[r.tri]
		for _, w := range [2]int{t.v[(r.corner+1)%3], t.v[(r.corner+2)%3]} {
			if i := slices.Index(nbrs, w); i >= 0 {
				counts[i]++
			} else {
				nbrs = append(nbrs, w)
				counts = append(counts, 1)
			}
		}
	}
	for _, c := range counts {
		if c == 1 {
			vx.border = true
			return
		}
	}
}

// AccumulateQuadrics resets and rebuilds every vertex quadric from the plane
// of each live triangle. Each border edge also contributes a fold plane,
// perpendicular to its face and containing the edge, weighted by k.
func (m *Mesh) AccumulateQuadrics(k float64) {
	for i := range m.verts {
		m.verts[i].q = Quadric{}
		m.verts[i].bq = Quadric{}
	}

	for ti := range m.tris {
		t := &m.tris[ti]
		if t.deleted {
			continue
		}
		p0 := m.verts[t.v[0]].pos
		plane := PlaneQuadric(t.n, -t.n.Dot(p0))
		for _, v := range t.v {
			m.verts[v].q = m.verts[v].q.Add(plane)
		}

		for j := 0; j < 3; j++ {
			a, b := t.v[j], t.v[(j+1)%3]
			if m.edgeValence(a, b) != 1 {
				continue
			}
			pa, pb := m.verts[a].pos, m.verts[b].pos
			fn := pb.Sub(pa).Cross(t.n).Normalize()
			fold := PlaneQuadric(fn, -fn.Dot(pa))
			penalty := fold.Scale(k)
			boundary := fold.Add(plane)
			for _, v := range [2]int{a, b} {
				m.verts[v].q = m.verts[v].q.Add(penalty)
				m.verts[v].bq = m.verts[v].bq.Add(boundary)
			}
		}
	}
}

// markAllDirty flags every live triangle for re-evaluation.
func (m *Mesh) markAllDirty() {
	for ti := range m.tris {
		if !m.tris[ti].deleted {
			m.tris[ti].dirty = true
		}
	}
}

// touch queues v for the next border refresh.
func (m *Mesh) touch(v int) {
	if !m.verts[v].touched {
		m.verts[v].touched = true
		m.touched = append(m.touched, v)
	}
}

// flushBorders recomputes border flags of every vertex touched since the
// last flush.
func (m *Mesh) flushBorders() {
	for _, v := range m.touched {
		m.verts[v].touched = false
		m.markBorder(v)
	}
	m.touched = m.touched[:0]
}

package qem

import (
	gomath "math"
	"slices"

	"github.com/Faultbox/qem/pkg/math"
)

// sliverCos rejects a moved triangle whose corner at the moved vertex would
// be narrower than about 2.5 degrees.
const sliverCos = 0.999

var inf = gomath.Inf(1)

// EvaluateEdge computes the cost and merged position of collapsing v1 into
// v0. It reports false when the collapse is not allowed: non-manifold or
// pinching edges, border mismatches under PreserveBorder, link condition
// violations, triangle flips and collapses that would remove the last
// triangle.
func (m *Mesh) EvaluateEdge(v0, v1 int, opts Options) (float64, math.Vec3, bool) {
	a, b := &m.verts[v0], &m.verts[v1]

	valence := m.edgeValence(v0, v1)
	if valence == 0 || valence > 2 {
		return inf, math.Vec3{}, false
	}
	// Joining two boundary vertices across the surface pinches it.
	if a.border && b.border && valence != 1 {
		return inf, math.Vec3{}, false
	}
	if m.liveTris-valence < 1 {
		return inf, math.Vec3{}, false
	}

	q := a.q.Add(b.q)
	var (
		p    math.Vec3
		cost float64
	)
	if opts.PreserveBorder && (a.border || b.border) {
		if a.border != b.border {
			return inf, math.Vec3{}, false
		}
		var ok bool
		p, cost, ok = m.placeOnBorder(q, a, b, opts.BorderTolerance)
		if !ok {
			return inf, math.Vec3{}, false
		}
	} else {
		p, cost = q.Minimize(a.pos, b.pos)
	}

	if m.linked(v0, v1) {
		return inf, math.Vec3{}, false
	}
	if m.flipped(p, v0, v1, opts.FlipThreshold) || m.flipped(p, v1, v0, opts.FlipThreshold) {
		return inf, math.Vec3{}, false
	}
	return gomath.Max(cost, 0), p, true
}

// placeOnBorder picks the cheapest position for a border-border collapse
// that stays on both vertices' boundary lines.
func (m *Mesh) placeOnBorder(q Quadric, a, b *vertex, tolerance float64) (math.Vec3, float64, bool) {
	bq := a.bq.Add(b.bq)
	limit := tolerance * m.diag * m.diag

	candidates := make([]math.Vec3, 0, 4)
	if p, ok := q.Optimal(); ok {
		candidates = append(candidates, p)
	}
	candidates = append(candidates, a.pos, b.pos, a.pos.Midpoint(b.pos))

	var (
		best  math.Vec3
		cost  = inf
		found bool
	)
	for _, c := range candidates {
		if bq.Evaluate(c) > limit {
			continue
		}
		if e := q.Evaluate(c); e < cost {
			best, cost, found = c, e, true
		}
	}
	return best, cost, found
}

// linked reports whether collapsing (i0, i1) would break the link
// condition: every vertex adjacent to both must span a triangle with the
// edge, and no edge may be opposite to both vertices. Violations produce
// duplicate triangles or non-manifold edges.
func (m *Mesh) linked(i0, i1 int) bool {
	var (
		buf0, buf1   [24]int
		ebuf0, ebuf1 [24][2]int
		cbuf         [4]int
	)
	shared := cbuf[:0]
	n0, e0, shared := m.link(i0, i1, buf0[:0], ebuf0[:0], shared)
	n1, e1, shared := m.link(i1, i0, buf1[:0], ebuf1[:0], shared)

	for _, v := range n0 {
		if slices.Contains(n1, v) && !slices.Contains(shared, v) {
			return true
		}
	}
	for _, e := range e0 {
		if slices.Contains(e1, e) {
			return true
		}
	}
	return false
}

// link appends the neighbours of v and the edges opposite to v in its
// triangles. The third vertex of every triangle holding both v and other
// goes to shared.
func (m *Mesh) link(v, other int, verts []int, edges [][2]int, shared []int) ([]int, [][2]int, []int) {
	for _, r := range m.verts[v].refs {
		t := &m.tris[r.tri]
		o1, o2 := t.v[(r.corner+1)%3], t.v[(r.corner+2)%3]
		switch other {
		case o1:
			shared = appendUnique(shared, o2)
		case o2:
			shared = appendUnique(shared, o1)
		}
		verts = appendUnique(verts, o1)
		verts = appendUnique(verts, o2)
		edges = append(edges, [2]int{min(o1, o2), max(o1, o2)})
	}
	return verts, edges, shared
}

func appendUnique(s []int, v int) []int {
	if slices.Contains(s, v) {
		return s
	}
	return append(s, v)
}

// flipped reports whether moving i0 to p flips or slivers any of its
// triangles that do not also contain i1.
func (m *Mesh) flipped(p math.Vec3, i0, i1 int, threshold float64) bool {
	for _, r := range m.verts[i0].refs {
		t := &m.tris[r.tri]
		id1, id2 := t.v[(r.corner+1)%3], t.v[(r.corner+2)%3]
		if id1 == i1 || id2 == i1 {
			continue
		}
		d1 := m.verts[id1].pos.Sub(p).Normalize()
		d2 := m.verts[id2].pos.Sub(p).Normalize()
		if gomath.Abs(d1.Dot(d2)) > sliverCos {
			return true
		}
		n := d1.Cross(d2).Normalize()
		if n.Dot(t.n) < threshold {
			return true
		}
	}
	return false
}

// EvaluateTriangle refreshes the per-edge errors of triangle ti and clears
// its dirty flag. It writes only to ti's own record, so distinct triangles
// can be evaluated concurrently while the topology is not mutated.
func (m *Mesh) EvaluateTriangle(ti int, opts Options) {
	t := &m.tris[ti]
	t.best = inf
	for j := 0; j < 3; j++ {
		cost, p, ok := m.EvaluateEdge(t.v[j], t.v[(j+1)%3], opts)
		if !ok {
			cost = inf
		}
		t.err[j] = cost
		t.pos[j] = p
		t.best = gomath.Min(t.best, cost)
	}
	t.dirty = false
}

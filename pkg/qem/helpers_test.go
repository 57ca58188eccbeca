package qem

import (
	gomath "math"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/Faultbox/qem/pkg/math"
)

// unitCube returns a closed, outward-facing cube with 8 vertices and 12 triangles.
func unitCube() ([]math.Vec3, [][3]int) {
	vertices := []math.Vec3{
		{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
		{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1},
	}
	triangles := [][3]int{
		{0, 2, 1}, {0, 3, 2}, // bottom
		{4, 5, 6}, {4, 6, 7}, // top
		{0, 1, 5}, {0, 5, 4}, // front
		{3, 7, 6}, {3, 6, 2}, // back
		{0, 4, 7}, {0, 7, 3}, // left
		{1, 2, 6}, {1, 6, 5}, // right
	}
	return vertices, triangles
}

// grid returns an n x n vertex grid with unit spacing in the XY plane,
// triangulated with +Z facing triangles. height sets the Z of each vertex.
func grid(n int, height func(x, y int) float64) ([]math.Vec3, [][3]int) {
	vertices := make([]math.Vec3, 0, n*n)
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			z := 0.0
			if height != nil {
				z = height(x, y)
			}
			vertices = append(vertices, math.Vec3{X: float64(x), Y: float64(y), Z: z})
		}
	}
	var triangles [][3]int
	for y := 0; y < n-1; y++ {
		for x := 0; x < n-1; x++ {
			a := y*n + x
			b := a + 1
			c := a + n + 1
			d := a + n
			triangles = append(triangles, [3]int{a, b, c}, [3]int{a, c, d})
		}
	}
	return vertices, triangles
}

// bumpy is a height field with a flat border ring and a curved interior.
func bumpy(n int) func(x, y int) float64 {
	return func(x, y int) float64 {
		if x == 0 || y == 0 || x == n-1 || y == n-1 {
			return 0
		}
		return 0.3 * gomath.Sin(float64(x)*1.3) * gomath.Cos(float64(y)*0.9)
	}
}

// noisySphere returns a closed UV sphere whose radii are jittered by up to
// 5% with a generator seeded by seed.
func noisySphere(rings, segments int, seed uint64) ([]math.Vec3, [][3]int) {
	rng := rand.New(rand.NewPCG(seed, 0))
	radius := func() float64 { return 1 + 0.05*(2*rng.Float64()-1) }

	vertices := []math.Vec3{{Z: radius()}}
	for r := 1; r < rings; r++ {
		theta := gomath.Pi * float64(r) / float64(rings)
		for s := 0; s < segments; s++ {
			phi := 2 * gomath.Pi * float64(s) / float64(segments)
			rad := radius()
			vertices = append(vertices, math.Vec3{
				X: rad * gomath.Sin(theta) * gomath.Cos(phi),
				Y: rad * gomath.Sin(theta) * gomath.Sin(phi),
				Z: rad * gomath.Cos(theta),
			})
		}
	}
	bottom := len(vertices)
	vertices = append(vertices, math.Vec3{Z: -radius()})

	idx := func(r, s int) int { return 1 + (r-1)*segments + s%segments }
	var triangles [][3]int
	for s := 0; s < segments; s++ {
		triangles = append(triangles, [3]int{0, idx(1, s), idx(1, s+1)})
		for r := 1; r < rings-1; r++ {
			a, b := idx(r, s), idx(r, s+1)
			c, d := idx(r+1, s+1), idx(r+1, s)
			triangles = append(triangles, [3]int{a, d, c}, [3]int{a, c, b})
		}
		triangles = append(triangles, [3]int{bottom, idx(rings-1, s+1), idx(rings-1, s)})
	}
	return vertices, triangles
}

// checkClosed verifies that every live edge is shared by exactly two live
// triangles and that no two live triangles use the same vertices.
func checkClosed(t *testing.T, m *Mesh) {
	t.Helper()
	edges := make(map[[2]int]int)
	faces := make(map[[3]int]int)
	for ti := range m.tris {
		tri := &m.tris[ti]
		if tri.deleted {
			continue
		}
		key := tri.v
		slices.Sort(key[:])
		if other, ok := faces[key]; ok {
			t.Fatalf("triangles %d and %d share vertices %v", other, ti, key)
		}
		faces[key] = ti
		for j := 0; j < 3; j++ {
			a, b := tri.v[j], tri.v[(j+1)%3]
			edges[[2]int{min(a, b), max(a, b)}]++
		}
	}
	for e, n := range edges {
		if n != 2 {
			t.Fatalf("edge %v is used by %d triangles, want 2", e, n)
		}
	}
}

// checkResult verifies the output contract: indices in range and no
// degenerate triangles.
func checkResult(t *testing.T, res *Result) {
	t.Helper()
	for i, tri := range res.Triangles {
		for _, v := range tri {
			if v < 0 || v >= len(res.Vertices) {
				t.Fatalf("triangle %d index %d out of range (%d vertices)", i, v, len(res.Vertices))
			}
		}
		if tri[0] == tri[1] || tri[1] == tri[2] || tri[2] == tri[0] {
			t.Fatalf("triangle %d is degenerate: %v", i, tri)
		}
	}
	if len(res.Normals) != len(res.Triangles) {
		t.Errorf("got %d normals for %d triangles", len(res.Normals), len(res.Triangles))
	}
	for i, v := range res.VertexMap {
		if v < -1 || v >= len(res.Vertices) {
			t.Fatalf("vertex map entry %d = %d out of range", i, v)
		}
	}
}

// checkConsistent verifies the store invariants: live triangles reference
// distinct live vertices and every reference list matches the live
// triangles containing that vertex.
func checkConsistent(t *testing.T, m *Mesh) {
	t.Helper()
	want := make(map[int]map[int]bool)
	liveTris := 0
	for ti := range m.tris {
		tri := &m.tris[ti]
		if tri.deleted {
			continue
		}
		liveTris++
		if tri.v[0] == tri.v[1] || tri.v[1] == tri.v[2] || tri.v[2] == tri.v[0] {
			t.Fatalf("live triangle %d is degenerate: %v", ti, tri.v)
		}
		for _, v := range tri.v {
			if m.verts[v].deleted {
				t.Fatalf("live triangle %d references deleted vertex %d", ti, v)
			}
			if want[v] == nil {
				want[v] = make(map[int]bool)
			}
			want[v][ti] = true
		}
	}
	if liveTris != m.LiveTriangles() {
		t.Errorf("LiveTriangles() = %d, counted %d", m.LiveTriangles(), liveTris)
	}

	liveVerts := 0
	for v := range m.verts {
		if m.verts[v].deleted {
			if len(m.verts[v].refs) != 0 {
				t.Errorf("deleted vertex %d still has %d references", v, len(m.verts[v].refs))
			}
			continue
		}
		liveVerts++
		refs := m.verts[v].refs
		if len(refs) != len(want[v]) {
			t.Fatalf("vertex %d has %d references, want %d", v, len(refs), len(want[v]))
		}
		for _, r := range refs {
			if !want[v][r.tri] {
				t.Fatalf("vertex %d references triangle %d which does not contain it", v, r.tri)
			}
			if m.tris[r.tri].v[r.corner] != v {
				t.Fatalf("vertex %d reference to triangle %d has wrong corner %d", v, r.tri, r.corner)
			}
		}
	}
	if liveVerts != m.LiveVertices() {
		t.Errorf("LiveVertices() = %d, counted %d", m.LiveVertices(), liveVerts)
	}
}

func near(a, b, eps float64) bool {
	return gomath.Abs(a-b) <= eps
}

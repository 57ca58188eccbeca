package qem

import "github.com/Faultbox/qem/pkg/math"

// Result is a simplified mesh in dense form.
type Result struct {
	Vertices  []math.Vec3
	Triangles [][3]int
	// Normals holds one unit normal per output triangle.
	Normals []math.Vec3
	// VertexMap[i] is the output index of the vertex input vertex i was
	// merged into, or -1 when it did not survive.
	VertexMap []int
	Stats     Stats
}

// Compact drops deleted records and renumbers the survivors, keeping their
// original relative order. The arena is left untouched.
func (m *Mesh) Compact() *Result {
	index := make([]int, len(m.verts))
	vertices := make([]math.Vec3, 0, m.liveVerts)
	for i := range m.verts {
		if m.verts[i].deleted {
			index[i] = -1
			continue
		}
		index[i] = len(vertices)
		vertices = append(vertices, m.verts[i].pos)
	}

	triangles := make([][3]int, 0, m.liveTris)
	normals := make([]math.Vec3, 0, m.liveTris)
	for ti := range m.tris {
		t := &m.tris[ti]
		if t.deleted {
			continue
		}
		var out [3]int
		for c, v := range t.v {
			out[c] = index[v]
		}
		triangles = append(triangles, out)
		normals = append(normals, math.TriangleNormal(vertices[out[0]], vertices[out[1]], vertices[out[2]]))
	}

	return &Result{
		Vertices:  vertices,
		Triangles: triangles,
		Normals:   normals,
		VertexMap: m.vertexMap(index),
	}
}

// vertexMap follows merge chains to the surviving vertex of every input
// vertex, compressing paths as it goes.
func (m *Mesh) vertexMap(index []int) []int {
	root := make([]int, len(m.verts))
	for i := range root {
		root[i] = -2
	}
	var find func(v int) int
	find = func(v int) int {
		if root[v] != -2 {
			return root[v]
		}
		switch {
		case !m.verts[v].deleted:
			root[v] = v
		case m.merged[v] < 0:
			root[v] = -1
		default:
			root[v] = find(m.merged[v])
		}
		return root[v]
	}

	out := make([]int, len(m.verts))
	for i := range out {
		if r := find(i); r >= 0 {
			out[i] = index[r]
		} else {
			out[i] = -1
		}
	}
	return out
}

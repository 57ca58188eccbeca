package qem

import (
	"slices"

	"github.com/Faultbox/qem/pkg/math"
)

// CollapseEdge merges vertex remove into vertex keep and places keep at p.
//
// Triangles containing both vertices are deleted, the rest of remove's
// triangles are retargeted to keep, quadrics are summed and remove is
// tombstoned. Vertices left without triangles are tombstoned as well.
// Triangles around keep and its neighbours are marked dirty. It returns the
// number of triangles deleted. The caller is responsible for validating the
// collapse first; CollapseEdge itself never fails.
func (m *Mesh) CollapseEdge(keep, remove int, p math.Vec3) int {
	k, r := &m.verts[keep], &m.verts[remove]
	k.pos = p
	k.q = k.q.Add(r.q)
	k.bq = k.bq.Add(r.bq)

	var orphans []int
	deleted := 0
	for _, rf := range slices.Clone(r.refs) {
		t := &m.tris[rf.tri]
		if !t.has(keep) {
			continue
		}
		for _, v := range t.v {
			if v != keep && v != remove {
				orphans = append(orphans, v)
			}
		}
		m.deleteTriangle(rf.tri)
		deleted++
	}

	// Only triangles that survive the collapse are left in remove's list.
	for _, rf := range r.refs {
		m.tris[rf.tri].v[rf.corner] = keep
		k.refs = append(k.refs, rf)
	}
	r.refs = nil
	r.deleted = true
	r.border = false
	m.merged[remove] = keep
	m.liveVerts--

	if len(k.refs) == 0 {
		m.deleteVertex(keep)
	}
	for _, v := range orphans {
		m.touch(v)
		if len(m.verts[v].refs) == 0 && !m.verts[v].deleted {
			m.deleteVertex(v)
		}
	}

	m.touch(keep)
	for _, rf := range k.refs {
		for _, v := range m.tris[rf.tri].v {
			m.touch(v)
		}
	}
	m.markRingDirty(keep)
	return deleted
}

// deleteTriangle tombstones t and drops it from its corners' reference lists.
func (m *Mesh) deleteTriangle(ti int) {
	t := &m.tris[ti]
	t.deleted = true
	t.dirty = false
	m.liveTris--
	for _, v := range t.v {
		vx := &m.verts[v]
		vx.refs = slices.DeleteFunc(vx.refs, func(r ref) bool { return r.tri == ti })
	}
}

func (m *Mesh) deleteVertex(v int) {
	m.verts[v].deleted = true
	m.verts[v].border = false
	m.liveVerts--
}

// markRingDirty flags every triangle touching v or one of its neighbours.
// Their edge errors or validity may depend on v's new position.
func (m *Mesh) markRingDirty(v int) {
	for _, rf := range m.verts[v].refs {
		for _, w := range m.tris[rf.tri].v {
			for _, wr := range m.verts[w].refs {
				m.tris[wr.tri].dirty = true
			}
		}
	}
}

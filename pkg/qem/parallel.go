package qem

import "golang.org/x/sync/errgroup"

// refresh re-evaluates every dirty triangle. Large batches are split across
// a bounded pool of goroutines; each worker writes only the error slots of
// its own triangles and nothing mutates topology until Wait returns.
func (s *Simplifier) refresh() error {
	m := s.mesh
	dirty := s.dirty[:0]
	for ti := range m.tris {
		if t := &m.tris[ti]; !t.deleted && t.dirty {
			dirty = append(dirty, ti)
		}
	}
	s.dirty = dirty

	workers := s.opts.workers()
	if len(dirty) < s.opts.ParallelMin || workers == 1 {
		for _, ti := range dirty {
			m.EvaluateTriangle(ti, s.opts)
		}
		return nil
	}

	var g errgroup.Group
	g.SetLimit(workers)
	chunk := (len(dirty) + workers - 1) / workers
	for start := 0; start < len(dirty); start += chunk {
		part := dirty[start:min(start+chunk, len(dirty))]
		g.Go(func() error {
			for _, ti := range part {
				m.EvaluateTriangle(ti, s.opts)
			}
			return nil
		})
	}
	return g.Wait()
}

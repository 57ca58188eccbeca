package qem

import (
	"context"
	gomath "math"

	"go.uber.org/zap"

	"github.com/Faultbox/qem/pkg/math"
)

// thresholdOffset shifts the iteration count so the first pass already
// accepts small errors.
const thresholdOffset = 3

// StopReason tells why the main loop ended.
type StopReason int

const (
	StopNone StopReason = iota
	StopTargetReached
	StopMaxIterations
	StopExhausted
	StopCancelled
)

// String returns a human-readable reason name.
func (r StopReason) String() string {
	switch r {
	case StopTargetReached:
		return "target reached"
	case StopMaxIterations:
		return "max iterations"
	case StopExhausted:
		return "no eligible edges"
	case StopCancelled:
		return "cancelled"
	default:
		return "none"
	}
}

// Stats summarizes a simplification run.
type Stats struct {
	Iterations       int
	Collapses        int
	CleanupPasses    int
	CleanupCollapses int
	Threshold        float64
	Reason           StopReason

	InputVertices    int
	InputTriangles   int
	DroppedTriangles int
	OutputVertices   int
	OutputTriangles  int
}

// Threshold returns the error a collapse may cost in the given iteration.
func Threshold(alpha, aggressiveness float64, iteration int) float64 {
	return alpha * gomath.Pow(float64(iteration+thresholdOffset), aggressiveness)
}

// Simplify reduces the mesh until it has at most opts.TargetCount vertices,
// the iteration budget runs out or no collapse is left. Not reaching the
// target is not an error: the best mesh found is returned. Cancelling ctx
// stops the run between iterations and also returns the mesh reached so far.
func Simplify(ctx context.Context, vertices []math.Vec3, triangles [][3]int, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	m, err := Build(vertices, triangles)
	if err != nil {
		return nil, err
	}

	stats, err := NewSimplifier(m, opts).Run(ctx)
	if err != nil {
		return nil, err
	}
	stats.InputVertices = len(vertices)
	stats.InputTriangles = len(triangles)

	res := m.Compact()
	stats.OutputVertices = len(res.Vertices)
	stats.OutputTriangles = len(res.Triangles)
	res.Stats = stats
	return res, nil
}

// Simplifier drives the collapse loop over a single mesh. It owns the mesh
// for the duration of Run.
type Simplifier struct {
	mesh  *Mesh
	opts  Options
	log   *zap.Logger
	dirty []int

	sinceFlush int
}

// NewSimplifier returns a driver for m.
func NewSimplifier(m *Mesh, opts Options) *Simplifier {
	return &Simplifier{
		mesh: m,
		opts: opts,
		log:  opts.logger().Named("qem"),
	}
}

// Run accumulates quadrics, runs the threshold schedule and, when enabled,
// the lossless cleanup passes.
func (s *Simplifier) Run(ctx context.Context) (Stats, error) {
	m := s.mesh
	stats := Stats{DroppedTriangles: m.dropped}

	m.AccumulateQuadrics(s.opts.K)
	m.markAllDirty()

	stats.Reason = StopMaxIterations
	for i := 0; i < s.opts.MaxIterations; i++ {
		if ctx.Err() != nil {
			stats.Reason = StopCancelled
			break
		}
		if m.LiveVertices() <= s.opts.TargetCount {
			stats.Reason = StopTargetReached
			break
		}

		threshold := Threshold(s.opts.Alpha, s.opts.Aggressiveness, i)
		if err := s.refresh(); err != nil {
			return stats, err
		}
		n := s.pass(threshold, true)

		stats.Iterations++
		stats.Collapses += n
		stats.Threshold = threshold
		s.log.Debug("iteration",
			zap.Int("iteration", i),
			zap.Float64("threshold", threshold),
			zap.Int("collapses", n),
			zap.Int("vertices", m.LiveVertices()),
			zap.Int("triangles", m.LiveTriangles()))

		if n == 0 && !s.eligible() {
			stats.Reason = StopExhausted
			break
		}
	}
	if stats.Reason == StopMaxIterations && m.LiveVertices() <= s.opts.TargetCount {
		stats.Reason = StopTargetReached
	}

	if s.opts.Lossless && stats.Reason != StopCancelled {
		if err := s.cleanup(ctx, &stats); err != nil {
			return stats, err
		}
	}

	s.log.Debug("simplification finished",
		zap.Stringer("reason", stats.Reason),
		zap.Int("iterations", stats.Iterations),
		zap.Int("collapses", stats.Collapses+stats.CleanupCollapses),
		zap.Int("vertices", m.LiveVertices()),
		zap.Int("triangles", m.LiveTriangles()))
	return stats, nil
}

// cleanup repeats passes at the fixed lossless threshold, ignoring the
// target count, until a pass collapses nothing.
func (s *Simplifier) cleanup(ctx context.Context, stats *Stats) error {
	passes := max(s.opts.MaxIterations, 1)
	for i := 0; i < passes; i++ {
		if ctx.Err() != nil {
			stats.Reason = StopCancelled
			return nil
		}
		if err := s.refresh(); err != nil {
			return err
		}
		n := s.pass(s.opts.ThresholdLossless, false)
		stats.CleanupPasses++
		stats.CleanupCollapses += n
		s.log.Debug("lossless pass",
			zap.Int("pass", i),
			zap.Int("collapses", n),
			zap.Int("vertices", s.mesh.LiveVertices()))
		if n == 0 {
			break
		}
	}
	return nil
}

// pass scans live triangles in index order and collapses the cheapest
// valid edge of each one whose error is within threshold. Triangles dirtied
// earlier in the same pass wait for the next refresh.
func (s *Simplifier) pass(threshold float64, toTarget bool) int {
	m := s.mesh
	collapses := 0
	for ti := range m.tris {
		if toTarget && m.LiveVertices() <= s.opts.TargetCount {
			break
		}
		t := &m.tris[ti]
		if t.deleted || t.dirty || t.best > threshold {
			continue
		}
		if !s.collapseTriangle(ti, threshold) {
			continue
		}
		collapses++
		s.sinceFlush++
		if s.sinceFlush >= s.opts.UpdateRate {
			m.flushBorders()
			s.sinceFlush = 0
		}
	}
	m.flushBorders()
	s.sinceFlush = 0
	return collapses
}

// collapseTriangle tries the edges of ti from cheapest to costliest and
// applies the first one that is still valid and within threshold.
func (s *Simplifier) collapseTriangle(ti int, threshold float64) bool {
	m := s.mesh
	t := &m.tris[ti]

	order := [3]int{0, 1, 2}
	for i := 1; i < 3; i++ {
		for j := i; j > 0 && t.err[order[j]] < t.err[order[j-1]]; j-- {
			order[j], order[j-1] = order[j-1], order[j]
		}
	}

	for _, j := range order {
		if t.err[j] > threshold {
			break
		}
		v0, v1 := t.v[j], t.v[(j+1)%3]
		// An earlier collapse in this pass may have changed the neighbourhood.
		cost, p, ok := m.EvaluateEdge(v0, v1, s.opts)
		if !ok || cost > threshold {
			continue
		}
		m.CollapseEdge(v0, v1, p)
		return true
	}
	return false
}

// eligible reports whether any live triangle still has a valid edge.
func (s *Simplifier) eligible() bool {
	for ti := range s.mesh.tris {
		t := &s.mesh.tris[ti]
		if !t.deleted && !gomath.IsInf(t.best, 1) {
			return true
		}
	}
	return false
}

package qem

import (
	gomath "math"

	"github.com/Faultbox/qem/pkg/math"
)

// detEpsilon is the smallest |det| of the 3x3 minor that is still inverted.
// The minor is a sum of outer products of unit normals, so the bound does not
// depend on the scale of the mesh.
const detEpsilon = 1e-10

// Quadric is the symmetric 4x4 error matrix of Q(p) = pᵗAp + 2bᵗp + c,
// stored as its upper triangle in row order:
//
//	[0 1 2 3]
//	[  4 5 6]
//	[    7 8]
//	[      9]
type Quadric [10]float64

// PlaneQuadric returns the quadric of the plane n·p + d = 0. With a unit
// normal it measures squared distance to the plane.
func PlaneQuadric(n math.Vec3, d float64) Quadric {
	return Quadric{
		n.X * n.X, n.X * n.Y, n.X * n.Z, n.X * d,
		n.Y * n.Y, n.Y * n.Z, n.Y * d,
		n.Z * n.Z, n.Z * d,
		d * d,
	}
}

// Add returns the coefficient-wise sum of q and o.
func (q Quadric) Add(o Quadric) Quadric {
	for i := range q {
		q[i] += o[i]
	}
	return q
}

// Scale returns q with every coefficient multiplied by w.
func (q Quadric) Scale(w float64) Quadric {
	for i := range q {
		q[i] *= w
	}
	return q
}

// Evaluate returns the error of placing a vertex at p.
func (q Quadric) Evaluate(p math.Vec3) float64 {
	x, y, z := p.X, p.Y, p.Z
	return q[0]*x*x + 2*q[1]*x*y + 2*q[2]*x*z + 2*q[3]*x +
		q[4]*y*y + 2*q[5]*y*z + 2*q[6]*y +
		q[7]*z*z + 2*q[8]*z +
		q[9]
}

// det returns the determinant of the 3x3 matrix picked from q by index.
func (q Quadric) det(a11, a12, a13, a21, a22, a23, a31, a32, a33 int) float64 {
	return q[a11]*q[a22]*q[a33] + q[a13]*q[a21]*q[a32] + q[a12]*q[a23]*q[a31] -
		q[a13]*q[a22]*q[a31] - q[a11]*q[a23]*q[a32] - q[a12]*q[a21]*q[a33]
}

// Optimal returns the point minimizing q, found by setting the gradient to
// zero. It reports false when the 3x3 minor is (near) singular.
func (q Quadric) Optimal() (math.Vec3, bool) {
	d := q.det(0, 1, 2, 1, 4, 5, 2, 5, 7)
	if gomath.Abs(d) < detEpsilon {
		return math.Vec3{}, false
	}
	p := math.Vec3{
		X: -1 / d * q.det(1, 2, 3, 4, 5, 6, 5, 7, 8),
		Y: 1 / d * q.det(0, 2, 3, 1, 5, 6, 2, 7, 8),
		Z: -1 / d * q.det(0, 1, 3, 1, 4, 6, 2, 5, 8),
	}
	if !p.IsFinite() {
		return math.Vec3{}, false
	}
	return p, true
}

// Minimize returns the best position for merging the endpoints a and b
// together with its error. When the system cannot be solved it picks the
// cheapest of a, b and their midpoint; ties keep the earlier candidate.
func (q Quadric) Minimize(a, b math.Vec3) (math.Vec3, float64) {
	if p, ok := q.Optimal(); ok {
		return p, q.Evaluate(p)
	}
	best, cost := a, q.Evaluate(a)
	for _, c := range [...]math.Vec3{b, a.Midpoint(b)} {
		if e := q.Evaluate(c); e < cost {
			best, cost = c, e
		}
	}
	return best, cost
}

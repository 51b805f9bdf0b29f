// Package ptgeom implements the geometry model: a sensor
// plane's offset and orthonormal linear map, local↔global transforms, pose
// parameter conversion, and covariance propagation between planes.
//
// The linear-map re-orthonormalisation after construction/correction uses a
// full gonum SVD rather than a determinant check, so the invariant
// ‖I−Q·Qᵀ‖_F ≤ 16·ε holds exactly rather than approximately.
package ptgeom

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Vec4 is a spatial 4-vector over axes (x, y, z, t), or equivalently a
// local-plane 4-vector over (u, v, w, s) — the axis names are carried only
// by convention at the call site.
type Vec4 [4]float64

// Mat4 is a 4×4 linear map, row-major.
type Mat4 [4][4]float64

// Plane is a sensor plane: an offset r0 and a linear map Q that is
// orthonormal on its spatial 3×3 block and identity on the time row/column
//.
type Plane struct {
	Offset Vec4
	Q Mat4
}

// Identity returns the plane at the origin with no rotation.
func Identity() Plane {
	var p Plane
	for i := 0; i < 4; i++ {
		p.Q[i][i] = 1
	}
	return p
}

// mulMatVec applies a Mat4 to a Vec4.
func mulMatVec(m Mat4, v Vec4) Vec4 {
	var out Vec4
	for i := 0; i < 4; i++ {
		var sum float64
		for j := 0; j < 4; j++ {
			sum += m[i][j] * v[j]
		}
		out[i] = sum
	}
	return out
}

func transposeMat(m Mat4) Mat4 {
	var out Mat4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			out[i][j] = m[j][i]
		}
	}
	return out
}

func mulMatMat(a, b Mat4) Mat4 {
	var out Mat4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += a[i][k] * b[k][j]
			}
			out[i][j] = sum
		}
	}
	return out
}

func addVec(a, b Vec4) Vec4 {
	return Vec4{a[0] + b[0], a[1] + b[1], a[2] + b[2], a[3] + b[3]}
}

func subVec(a, b Vec4) Vec4 {
	return Vec4{a[0] - b[0], a[1] - b[1], a[2] - b[2], a[3] - b[3]}
}

// ToGlobal maps a local-plane vector to the global frame: global = r0 + Q·local.
func (p Plane) ToGlobal(local Vec4) Vec4 {
	return addVec(p.Offset, mulMatVec(p.Q, local))
}

// ToLocal maps a global vector to the plane's local frame: local = Qᵀ·(global − r0).
func (p Plane) ToLocal(global Vec4) Vec4 {
	return mulMatVec(transposeMat(p.Q), subVec(global, p.Offset))
}

// rot321 builds dQ = R1(a)·R2(b)·R3(g), embedded in the 4×4 space/time
// block (identity on the time row and column).
func rot321(a, b, g float64) Mat4 {
	sa, ca := math.Sin(a), math.Cos(a)
	sb, cb := math.Sin(b), math.Cos(b)
	sg, cg := math.Sin(g), math.Cos(g)

	r1 := Mat4{
		{1, 0, 0, 0},
		{0, ca, -sa, 0},
		{0, sa, ca, 0},
		{0, 0, 0, 1},
	}
	r2 := Mat4{
		{cb, 0, sb, 0},
		{0, 1, 0, 0},
		{-sb, 0, cb, 0},
		{0, 0, 0, 1},
	}
	r3 := Mat4{
		{cg, -sg, 0, 0},
		{sg, cg, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}
	return mulMatMat(mulMatMat(r1, r2), r3)
}

// FromAngles321 builds a Plane from the 3-2-1 Euler angles and an offset.
func FromAngles321(alpha, beta, gamma float64, offset Vec4) Plane {
	return Plane{Offset: offset, Q: rot321(alpha, beta, gamma)}
}

// FromDirections builds a Plane from its two in-plane unit directions and
// an offset. The normal is dirU×dirV and the resulting 4×4 is
// re-orthonormalised by SVD
func FromDirections(dirU, dirV [3]float64, offset Vec4) Plane {
	nx := dirU[1]*dirV[2] - dirU[2]*dirV[1]
	ny := dirU[2]*dirV[0] - dirU[0]*dirV[2]
	nz := dirU[0]*dirV[1] - dirU[1]*dirV[0]

	q := Mat4{
		{dirU[0], dirV[0], nx, 0},
		{dirU[1], dirV[1], ny, 0},
		{dirU[2], dirV[2], nz, 0},
		{0, 0, 0, 1},
	}
	return Plane{Offset: offset, Q: orthonormalize(q)}
}

// orthonormalize re-orthonormalises the spatial 3×3 block of Q by SVD
// (Q = U·Σ·Vᵀ → Q' = U·Vᵀ), leaving the time row/column as identity. This
// is the invariant enforcement requires on every construction.
func orthonormalize(q Mat4) Mat4 {
	spatial := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			spatial.Set(i, j, q[i][j])
		}
	}

	var svd mat.SVD
	if !svd.Factorize(spatial, mat.SVDFull) {
		// Singular input: fall back to the unmodified block rather than fail
		// construction; callers validate separately.
		return q
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	var uvT mat.Dense
	uvT.Mul(&u, v.T())

	out := q
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = uvT.At(i, j)
		}
	}
	return out
}

// Reorthonormalize returns a copy of p with its linear map re-orthonormalised.
func (p Plane) Reorthonormalize() Plane {
	return Plane{Offset: p.Offset, Q: orthonormalize(p.Q)}
}

// OrthonormalityResidual returns ‖I − Q·Qᵀ‖_F, the quantity bounds
// by 16·ε for every Plane.
func (p Plane) OrthonormalityResidual() float64 {
	qqT := mulMatMat(p.Q, transposeMat(p.Q))
	var sumSq float64
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			d := qqT[i][j]
			if i == j {
				d -= 1
			}
			sumSq += d * d
		}
	}
	return math.Sqrt(sumSq)
}

// CorrectedGlobal applies a 6-vector correction δ=[dx,dy,dz,dα,dβ,dγ] in the
// global frame: r0 ← r0+[dx,dy,dz,0]; Q ← dQ·Q.
func (p Plane) CorrectedGlobal(delta [6]float64) Plane {
	offset := p.Offset
	offset[0] += delta[0]
	offset[1] += delta[1]
	offset[2] += delta[2]

	dQ := rot321(delta[3], delta[4], delta[5])
	return Plane{Offset: offset, Q: orthonormalize(mulMatMat(dQ, p.Q))}
}

// CorrectedLocal applies a 6-vector correction δ in the local frame: the
// positional part is rotated into global by Q before being added, and the
// rotation is applied as Q ← Q·dQ.
func (p Plane) CorrectedLocal(delta [6]float64) Plane {
	localOffset := Vec4{delta[0], delta[1], delta[2], 0}
	globalOffset := mulMatVec(p.Q, localOffset)

	offset := addVec(p.Offset, globalOffset)
	dQ := rot321(delta[3], delta[4], delta[5])
	return Plane{Offset: offset, Q: orthonormalize(mulMatMat(p.Q, dQ))}
}

// AsParams extracts the 3-2-1 Euler angles [α, β, γ] from Q for I/O and
// reporting. Angle extraction is numerically fragile near
// β=±π/2 ; callers that need rotations should prefer Q directly.
func (p Plane) AsParams() (alpha, beta, gamma float64, warn bool) {
	q := p.Q
	alpha = math.Atan2(-q[1][2], q[2][2])
	beta = math.Asin(clamp(q[0][2], -1, 1))
	gamma = math.Atan2(-q[0][1], q[0][0])

	reconstructed := rot321(alpha, beta, gamma)
	var residual float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			d := reconstructed[i][j] - q[i][j]
			residual += d * d
		}
	}
	warn = math.Sqrt(residual) >= 8*epsilon
	return
}

// Params returns the full 6-vector pose [x, y, z, α, β, γ].
func (p Plane) Params() [6]float64 {
	alpha, beta, gamma, _ := p.AsParams()
	return [6]float64{p.Offset[0], p.Offset[1], p.Offset[2], alpha, beta, gamma}
}

const epsilon = 2.220446049250313e-16

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

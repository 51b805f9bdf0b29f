package ptgeom

import "gonum.org/v1/gonum/mat"

// State is the 6-parameter local track state [u, v, du, dv, s, ds] with its
// 6×6 covariance
type State struct {
	Params [6]float64
	Cov *mat.SymDense // 6×6, may be nil if unknown
}

// JacobianSlopeSlope maps a change in source (du, dv) slope to a change in
// target (du, dv) slope given the tangent direction and the source→target
// linear map. tangent is the 3D direction of travel in the
// source frame; toTarget is the spatial 3×3 block mapping source-local to
// target-local directions.
func JacobianSlopeSlope(tangent [3]float64, toTarget [3][3]float64) [2][2]float64 {
	// S = toTarget · tangent, normalised so Sw=1 defines the slope frame.
	s := [3]float64{}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			s[i] += toTarget[i][j] * tangent[j]
		}
	}
	if s[2] == 0 {
		s[2] = 1e-300
	}
	// d(Su/Sw)/d(tu), d(Su/Sw)/d(tv), etc, via quotient rule on the linear map.
	var jac [2][2]float64
	for row := 0; row < 2; row++ {
		for col := 0; col < 2; col++ {
			// Partial of S[row] w.r.t. tangent[col] is toTarget[row][col]
			// (tangent_w held fixed at 1 since slopes are du/dw, dv/dw).
			dNum := toTarget[row][col]
			dDen := toTarget[2][col]
			jac[row][col] = (dNum*s[2] - s[row]*dDen) / (s[2] * s[2])
		}
	}
	return jac
}

// JacobianState builds the full 6×6 parameter-transport Jacobian between
// two planes for a track travelling along the slope-parametrised tangent,
// using S = toTarget·tangent/tangent_w.
//
// The Jacobian is block-structured: position (u,v) propagates linearly
// through the toTarget 2×2 in-plane block plus a slope-dependent drift term
// from the change in intersection distance w0; slope (du,dv) propagates
// through JacobianSlopeSlope; time (s, ds) are carried through unchanged,
// since time is never rotated into space.
func JacobianState(tangent [3]float64, toTarget [3][3]float64, w0 float64) [6][6]float64 {
	var jac [6][6]float64

	slopeJac := JacobianSlopeSlope(tangent, toTarget)

	// Position block: in-plane rotation plus drift-with-slope term w0*dSlope.
	for row := 0; row < 2; row++ {
		for col := 0; col < 2; col++ {
			jac[row][col] = toTarget[row][col]
		}
		jac[row][2] = w0 * slopeJac[row][0]
		jac[row][3] = w0 * slopeJac[row][1]
	}

	// Slope block.
	jac[2][2] = slopeJac[0][0]
	jac[2][3] = slopeJac[0][1]
	jac[3][2] = slopeJac[1][0]
	jac[3][3] = slopeJac[1][1]

	// Time block: identity.
	jac[4][4] = 1
	jac[5][5] = 1

	return jac
}

// TransportCov applies Cov' = J·Cov·Jᵀ, symmetrising the result afterward
// with a 0.5·(M+Mᵀ) round-off guard.
func TransportCov(jac [6][6]float64, cov *mat.SymDense) *mat.SymDense {
	j := mat.NewDense(6, 6, nil)
	for i := 0; i < 6; i++ {
		for k := 0; k < 6; k++ {
			j.Set(i, k, jac[i][k])
		}
	}
	var tmp, out mat.Dense
	tmp.Mul(j, cov)
	out.Mul(&tmp, j.T())

	sym := mat.NewSymDense(6, nil)
	for i := 0; i < 6; i++ {
		for k := i; k < 6; k++ {
			v := 0.5 * (out.At(i, k) + out.At(k, i))
			sym.SetSym(i, k, v)
		}
	}
	return sym
}

// spatialBlock extracts the upper-left 3×3 of a Mat4.
func spatialBlock(m Mat4) [3][3]float64 {
	var out [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = m[i][j]
		}
	}
	return out
}

// PropagateTo intersects a local track state defined on source with the
// target plane along its slope-parametrised tangent and transports the
// covariance. Propagation from a plane to itself
// is the identity.
func PropagateTo(state State, source, target Plane) State {
	// Tangent in global frame: direction of travel, unit-normalised-ish
	// using the source plane's spatial block and the local slopes.
	du, dv := state.Params[2], state.Params[3]
	localTangent := Vec4{du, dv, 1, state.Params[5]}
	globalTangent := mulMatVec(source.Q, localTangent)

	// Global position of the state on the source plane.
	globalPos := source.ToGlobal(Vec4{state.Params[0], state.Params[1], 0, state.Params[4]})

	// Intersect the ray (globalPos + t*globalTangent) with the target plane:
	// solve for t such that (globalPos+t*tangent - target.Offset)·targetNormal = 0,
	// i.e. local w-coordinate of the intersection is zero.
	targetNormal := [3]float64{target.Q[0][2], target.Q[1][2], target.Q[2][2]}
	diff := [3]float64{
		globalPos[0] - target.Offset[0],
		globalPos[1] - target.Offset[1],
		globalPos[2] - target.Offset[2],
	}
	var num, den float64
	for i := 0; i < 3; i++ {
		num += diff[i] * targetNormal[i]
		den += globalTangent[i] * targetNormal[i]
	}
	if den == 0 {
		den = 1e-300
	}
	t := -num / den

	intersection := Vec4{
		globalPos[0] + t*globalTangent[0],
		globalPos[1] + t*globalTangent[1],
		globalPos[2] + t*globalTangent[2],
		globalPos[3] + t*globalTangent[3],
	}
	localAtTarget := target.ToLocal(intersection)

	// New slopes: rotate the tangent into the target frame and divide by w.
	targetLocalTangent := target.ToLocal(addVec(intersection, Vec4{globalTangent[0], globalTangent[1], globalTangent[2], globalTangent[3]}))
	targetLocalTangent = subVec(targetLocalTangent, localAtTarget)
	w := targetLocalTangent[2]
	if w == 0 {
		w = 1e-300
	}
	newDu := targetLocalTangent[0] / w
	newDv := targetLocalTangent[1] / w
	newDs := targetLocalTangent[3] / w

	out := State{Params: [6]float64{
			localAtTarget[0], localAtTarget[1], newDu, newDv, localAtTarget[3], newDs,
		}}

	if state.Cov != nil {
		toTarget := spatialBlock(mulMatMat(transposeMat(target.Q), source.Q))
		jac := JacobianState([3]float64{du, dv, 1}, toTarget, localAtTarget[2])
		out.Cov = TransportCov(jac, state.Cov)
	}

	return out
}

package sdfscene

import (
	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"

	"github.com/geomfield/sdfscene/field"
)

// This file implements [field.Normaler3] for every node in the package:
// closed-form unit gradients for primitives and per-point argmin/argmax
// child selection for the CSG combinators. Selection uses strict
// comparisons against the running best so an exact distance tie always
// keeps the earlier child's normal (first-child-wins). Singular points
// where the gradient has no unique value report [field.SingularNormal].

func (s *sphere) EvaluateNormals(pos, normals []ms3.Vec, userData any) error {
	for i, p := range pos {
		norm := ms3.Norm(p)
		if norm < epstol {
			// Sphere center.
			normals[i] = field.SingularNormal()
			continue
		}
		normals[i] = ms3.Scale(1/norm, p)
	}
	return nil
}

func (b *box) EvaluateNormals(pos, normals []ms3.Vec, userData any) error {
	d := ms3.Scale(0.5, b.dims)
	r := b.round
	for i, p := range pos {
		q := ms3.AddScalar(r, ms3.Sub(ms3.AbsElem(p), d))
		qp := ms3.MaxElem(q, ms3.Vec{})
		norm := ms3.Norm(qp)
		var n ms3.Vec
		if norm > epstol {
			// Outside: gradient of |max(q,0)| mapped back to the
			// signed octant of p.
			n = ms3.Scale(1/norm, qp)
			n.X = math32.Copysign(n.X, p.X)
			n.Y = math32.Copysign(n.Y, p.Y)
			n.Z = math32.Copysign(n.Z, p.Z)
		} else {
			// Inside: distance is the largest (least negative) q
			// component, so the gradient is that face's normal.
			// X wins ties, then Y.
			switch {
			case q.X >= q.Y && q.X >= q.Z:
				n = ms3.Vec{X: math32.Copysign(1, p.X)}
			case q.Y >= q.Z:
				n = ms3.Vec{Y: math32.Copysign(1, p.Y)}
			default:
				n = ms3.Vec{Z: math32.Copysign(1, p.Z)}
			}
		}
		normals[i] = n
	}
	return nil
}

func (t *torus) EvaluateNormals(pos, normals []ms3.Vec, userData any) error {
	t1 := t.rGreater
	for i, p := range pos {
		rho := hypotf(p.X, p.Y)
		a := rho - t1
		norm := hypotf(a, p.Z)
		if rho < epstol || norm < epstol {
			// Torus axis or spine circle.
			normals[i] = field.SingularNormal()
			continue
		}
		radial := a / (norm * rho)
		normals[i] = ms3.Vec{X: radial * p.X, Y: radial * p.Y, Z: p.Z / norm}
	}
	return nil
}

func (c *cylinder) EvaluateNormals(pos, normals []ms3.Vec, userData any) error {
	r, h, round := c.args()
	for i, p := range pos {
		rho := hypotf(p.X, p.Y)
		dx := rho - r + round
		dy := absf(p.Z) - h
		var n ms3.Vec
		if dx > 0 || dy > 0 {
			gx := maxf(dx, 0)
			gy := maxf(dy, 0)
			norm := hypotf(gx, gy)
			if gx > 0 {
				// gx > 0 implies rho > r-round > 0.
				radial := gx / (norm * rho)
				n = ms3.Vec{X: radial * p.X, Y: radial * p.Y}
			}
			n.Z = math32.Copysign(gy/norm, p.Z)
		} else if dx >= dy {
			// Inside, side wall closest. Side wins ties with the caps.
			if rho < epstol {
				normals[i] = field.SingularNormal()
				continue
			}
			n = ms3.Vec{X: p.X / rho, Y: p.Y / rho}
		} else {
			n = ms3.Vec{Z: math32.Copysign(1, p.Z)}
		}
		normals[i] = n
	}
	return nil
}

// EvaluateNormals implements [field.Normaler3] with per-point argmin child selection.
func (u *OpUnion) EvaluateNormals(pos, normals []ms3.Vec, userData any) error {
	u.mustValidate()
	vp, err := field.GetVecPool(userData)
	if err != nil {
		return err
	}
	best := vp.Float.Acquire(len(pos))
	auxDist := vp.Float.Acquire(len(pos))
	auxNorm := vp.V3.Acquire(len(pos))
	defer vp.Float.Release(best)
	defer vp.Float.Release(auxDist)
	defer vp.V3.Release(auxNorm)
	err = u.joined[0].Evaluate(pos, best, userData)
	if err != nil {
		return err
	}
	err = u.joined[0].EvaluateNormals(pos, normals, userData)
	if err != nil {
		return err
	}
	for _, shape := range u.joined[1:] {
		err = shape.Evaluate(pos, auxDist, userData)
		if err != nil {
			return err
		}
		err = shape.EvaluateNormals(pos, auxNorm, userData)
		if err != nil {
			return err
		}
		for i, d := range auxDist {
			if d < best[i] {
				best[i] = d
				normals[i] = auxNorm[i]
			}
		}
	}
	return nil
}

// EvaluateNormals implements [field.Normaler3] with per-point argmax child selection.
func (s *intersect) EvaluateNormals(pos, normals []ms3.Vec, userData any) error {
	vp, err := field.GetVecPool(userData)
	if err != nil {
		return err
	}
	best := vp.Float.Acquire(len(pos))
	auxDist := vp.Float.Acquire(len(pos))
	auxNorm := vp.V3.Acquire(len(pos))
	defer vp.Float.Release(best)
	defer vp.Float.Release(auxDist)
	defer vp.V3.Release(auxNorm)
	err = s.shapes[0].Evaluate(pos, best, userData)
	if err != nil {
		return err
	}
	err = s.shapes[0].EvaluateNormals(pos, normals, userData)
	if err != nil {
		return err
	}
	for _, shape := range s.shapes[1:] {
		err = shape.Evaluate(pos, auxDist, userData)
		if err != nil {
			return err
		}
		err = shape.EvaluateNormals(pos, auxNorm, userData)
		if err != nil {
			return err
		}
		for i, d := range auxDist {
			if d > best[i] {
				best[i] = d
				normals[i] = auxNorm[i]
			}
		}
	}
	return nil
}

// EvaluateNormals implements [field.Normaler3]. Where a subtrahend's negated
// distance dominates, its gradient is reported sign-flipped since the carved
// surface faces the opposite way.
func (s *diff) EvaluateNormals(pos, normals []ms3.Vec, userData any) error {
	vp, err := field.GetVecPool(userData)
	if err != nil {
		return err
	}
	best := vp.Float.Acquire(len(pos))
	auxDist := vp.Float.Acquire(len(pos))
	auxNorm := vp.V3.Acquire(len(pos))
	defer vp.Float.Release(best)
	defer vp.Float.Release(auxDist)
	defer vp.V3.Release(auxNorm)
	err = s.s1.Evaluate(pos, best, userData)
	if err != nil {
		return err
	}
	err = s.s1.EvaluateNormals(pos, normals, userData)
	if err != nil {
		return err
	}
	for _, sub := range s.subs {
		err = sub.Evaluate(pos, auxDist, userData)
		if err != nil {
			return err
		}
		err = sub.EvaluateNormals(pos, auxNorm, userData)
		if err != nil {
			return err
		}
		for i, d := range auxDist {
			if -d > best[i] {
				best[i] = -d
				normals[i] = ms3.Scale(-1, auxNorm[i])
			}
		}
	}
	return nil
}

func (t *translate) EvaluateNormals(pos, normals []ms3.Vec, userData any) error {
	vp, err := field.GetVecPool(userData)
	if err != nil {
		return err
	}
	transformed := vp.V3.Acquire(len(pos))
	defer vp.V3.Release(transformed)
	T := t.p
	for i, p := range pos {
		transformed[i] = ms3.Sub(p, T)
	}
	return t.s.EvaluateNormals(transformed, normals, userData)
}

func (t *rotation) EvaluateNormals(pos, normals []ms3.Vec, userData any) error {
	vp, err := field.GetVecPool(userData)
	if err != nil {
		return err
	}
	transformed := vp.V3.Acquire(len(pos))
	defer vp.V3.Release(transformed)
	Tinv := t.tInv
	for i, p := range pos {
		transformed[i] = Tinv.MulPosition(p)
	}
	err = t.s.EvaluateNormals(transformed, normals, userData)
	if err != nil {
		return err
	}
	// Rotation matrices have no translation part so MulPosition acts as
	// the pure linear map on directions.
	T := t.t
	for i, n := range normals {
		normals[i] = T.MulPosition(n)
	}
	return nil
}

func (u *scale) EvaluateNormals(pos, normals []ms3.Vec, userData any) error {
	vp, err := field.GetVecPool(userData)
	if err != nil {
		return err
	}
	scaled := vp.V3.Acquire(len(pos))
	defer vp.V3.Release(scaled)
	factorInv := 1 / u.scale
	for i, p := range pos {
		scaled[i] = ms3.Scale(factorInv, p)
	}
	// Uniform scaling leaves gradient directions unchanged.
	return u.s.EvaluateNormals(scaled, normals, userData)
}

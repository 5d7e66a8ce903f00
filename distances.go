package sdfscene

import (
	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms2"
	"github.com/soypat/geometry/ms3"

	"github.com/geomfield/sdfscene/field"
)

// minReduce takes element-wise minimum of arguments and stores to first argument.
func minReduce(d1AndDst, d2 []float32) {
	for i := range d1AndDst {
		d1AndDst[i] = math32.Min(d1AndDst[i], d2[i])
	}
}

// maxReduce takes element-wise maximum of arguments and stores to first argument.
func maxReduce(d1AndDst, d2 []float32) {
	for i := range d1AndDst {
		d1AndDst[i] = math32.Max(d1AndDst[i], d2[i])
	}
}

// maxNegReduce stores max(dst, -d2) to the first argument. Used by Difference.
func maxNegReduce(d1AndDst, d2 []float32) {
	for i := range d1AndDst {
		d1AndDst[i] = math32.Max(d1AndDst[i], -d2[i])
	}
}

func (s *sphere) Evaluate(pos []ms3.Vec, dist []float32, userData any) error {
	r := s.r
	for i, p := range pos {
		dist[i] = ms3.Norm(p) - r
	}
	return nil
}

func (b *box) Evaluate(pos []ms3.Vec, dist []float32, userData any) error {
	d := ms3.Scale(0.5, b.dims)
	r := b.round
	for i, p := range pos {
		q := ms3.AddScalar(r, ms3.Sub(ms3.AbsElem(p), d))
		dist[i] = ms3.Norm(ms3.MaxElem(q, ms3.Vec{})) + minf(maxf(q.X, maxf(q.Y, q.Z)), 0.0) - r
	}
	return nil
}

func (t *torus) Evaluate(pos []ms3.Vec, dist []float32, userData any) error {
	t1 := t.rGreater
	t2 := t.rLesser
	for i, p := range pos {
		q := ms2.Vec{X: hypotf(p.X, p.Y) - t1, Y: p.Z}
		dist[i] = ms2.Norm(q) - t2
	}
	return nil
}

func (c *cylinder) Evaluate(pos []ms3.Vec, dist []float32, userData any) error {
	r, h, round := c.args()
	if round == 0 {
		for i, p := range pos {
			dx := math32.Hypot(p.X, p.Y) - r
			dy := math32.Abs(p.Z) - h
			dist[i] = minf(0, maxf(dx, dy)) + hypotf(maxf(dx, 0), maxf(dy, 0))
		}
	} else {
		for i, p := range pos {
			dx := math32.Hypot(p.X, p.Y) - r + round
			dy := math32.Abs(p.Z) - h
			dist[i] = minf(maxf(dx, dy), 0) + hypotf(maxf(dx, 0), maxf(dy, 0)) - round
		}
	}
	return nil
}

// Evaluate implements [field.SDF3].
func (u *OpUnion) Evaluate(pos []ms3.Vec, dist []float32, userData any) error {
	u.mustValidate()
	vp, err := field.GetVecPool(userData)
	if err != nil {
		return err
	}
	auxDist := vp.Float.Acquire(len(dist))
	defer vp.Float.Release(auxDist)
	err = u.joined[0].Evaluate(pos, dist, userData)
	if err != nil {
		return err
	}
	for _, shape := range u.joined[1:] {
		err = shape.Evaluate(pos, auxDist, userData)
		if err != nil {
			return err
		}
		minReduce(dist, auxDist)
	}
	return nil
}

func (s *intersect) Evaluate(pos []ms3.Vec, dist []float32, userData any) error {
	vp, err := field.GetVecPool(userData)
	if err != nil {
		return err
	}
	auxDist := vp.Float.Acquire(len(dist))
	defer vp.Float.Release(auxDist)
	err = s.shapes[0].Evaluate(pos, dist, userData)
	if err != nil {
		return err
	}
	for _, shape := range s.shapes[1:] {
		err = shape.Evaluate(pos, auxDist, userData)
		if err != nil {
			return err
		}
		maxReduce(dist, auxDist)
	}
	return nil
}

func (s *diff) Evaluate(pos []ms3.Vec, dist []float32, userData any) error {
	vp, err := field.GetVecPool(userData)
	if err != nil {
		return err
	}
	auxDist := vp.Float.Acquire(len(dist))
	defer vp.Float.Release(auxDist)
	err = s.s1.Evaluate(pos, dist, userData)
	if err != nil {
		return err
	}
	for _, sub := range s.subs {
		err = sub.Evaluate(pos, auxDist, userData)
		if err != nil {
			return err
		}
		maxNegReduce(dist, auxDist)
	}
	return nil
}

func (t *translate) Evaluate(pos []ms3.Vec, dist []float32, userData any) error {
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
	return t.s.Evaluate(transformed, dist, userData)
}

func (t *rotation) Evaluate(pos []ms3.Vec, dist []float32, userData any) error {
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
	return t.s.Evaluate(transformed, dist, userData)
}

func (u *scale) Evaluate(pos []ms3.Vec, dist []float32, userData any) error {
	vp, err := field.GetVecPool(userData)
	if err != nil {
		return err
	}
	scaled := vp.V3.Acquire(len(pos))
	defer vp.V3.Release(scaled)
	factor := u.scale
	factorInv := 1 / u.scale
	for i, p := range pos {
		scaled[i] = ms3.Scale(factorInv, p)
	}
	err = u.s.Evaluate(scaled, dist, userData)
	if err != nil {
		return err
	}
	for i := range dist {
		dist[i] *= factor
	}
	return nil
}

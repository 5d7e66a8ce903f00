package scenario

import (
	"errors"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"

	"github.com/geomfield/sdfscene/field"
)

// Grid returns an evenly spaced lattice of nx*ny*nz points spanning bounds,
// including both faces on each axis. Points are ordered x-fastest, then y,
// then z, so consumers can score reconstructions on a reproducible lattice.
func Grid(bounds ms3.Box, nx, ny, nz int) ([]ms3.Vec, error) {
	if nx < 2 || ny < 2 || nz < 2 {
		return nil, errors.New("grid needs at least 2 points per axis")
	}
	sz := bounds.Size()
	step := ms3.Vec{
		X: sz.X / float32(nx-1),
		Y: sz.Y / float32(ny-1),
		Z: sz.Z / float32(nz-1),
	}
	pts := make([]ms3.Vec, 0, nx*ny*nz)
	for k := 0; k < nz; k++ {
		z := bounds.Min.Z + float32(k)*step.Z
		for j := 0; j < ny; j++ {
			y := bounds.Min.Y + float32(j)*step.Y
			for i := 0; i < nx; i++ {
				pts = append(pts, ms3.Vec{X: bounds.Min.X + float32(i)*step.X, Y: y, Z: z})
			}
		}
	}
	return pts, nil
}

// projection sweeps and acceptance band for surface sampling, in fractions
// of the largest bounds dimension.
const (
	projectSweeps = 6
	surfaceTolDiv = 1e-4
)

// surfaceSample projects lattice points onto the zero level set along the
// analytic gradient (p ← p − φ(p)·∇φ(p)) and keeps points that converged
// onto the surface. The result is fully determined by the truth field and
// the lattice resolution.
func surfaceSample(f field.Field, bounds ms3.Box, res int, vp *field.VecPool) (PointTable, error) {
	var table PointTable
	pts, err := Grid(bounds, res, res, res)
	if err != nil {
		return table, err
	}
	dist := vp.Float.Acquire(len(pts))
	normals := vp.V3.Acquire(len(pts))
	defer vp.Float.Release(dist)
	defer vp.V3.Release(normals)
	for sweep := 0; sweep < projectSweeps; sweep++ {
		err = field.Evaluate(f, pts, dist, vp)
		if err != nil {
			return table, err
		}
		err = field.Normals(f, pts, normals, field.NormStep(f), vp)
		if err != nil {
			return table, err
		}
		for i, p := range pts {
			pts[i] = ms3.Sub(p, ms3.Scale(dist[i], normals[i]))
		}
	}
	err = field.Evaluate(f, pts, dist, vp)
	if err != nil {
		return table, err
	}
	err = field.Normals(f, pts, normals, field.NormStep(f), vp)
	if err != nil {
		return table, err
	}
	tol := math32.Max(bounds.Size().Max()*surfaceTolDiv, 1e-5)
	for i, p := range pts {
		if math32.Abs(dist[i]) > tol {
			continue
		}
		if p.X < bounds.Min.X || p.Y < bounds.Min.Y || p.Z < bounds.Min.Z ||
			p.X > bounds.Max.X || p.Y > bounds.Max.Y || p.Z > bounds.Max.Z {
			continue
		}
		table.append(p, normals[i])
	}
	return table, nil
}

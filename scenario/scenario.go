package scenario

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/soypat/geometry/ms3"

	"github.com/geomfield/sdfscene/field"
)

// Scenario pairs a truth field with a pre-generated surface sample table.
// Scenarios are immutable after construction: downstream code evaluates the
// truth field at arbitrary points regardless of how the sample table was
// generated.
type Scenario struct {
	name    string
	seed    uint64
	descr   string
	truth   field.Field
	bounds  ms3.Box
	surface PointTable
	meta    map[string]any
}

// Name returns the scenario's registry name.
func (sc *Scenario) Name() string { return sc.name }

// Seed returns the seed the scenario was generated with.
func (sc *Scenario) Seed() uint64 { return sc.seed }

// Description returns a human readable description of the scenario.
func (sc *Scenario) Description() string { return sc.descr }

// Truth returns the scenario's analytic truth oracle. The returned field is
// immutable and safe for unsynchronized concurrent evaluation.
func (sc *Scenario) Truth() field.Field { return sc.truth }

// Bounds returns the scenario's padded bounding box.
func (sc *Scenario) Bounds() ms3.Box { return sc.bounds }

// Surface returns the scenario's surface sample table. The table's backing
// slices are shared; callers must treat them as read-only.
func (sc *Scenario) Surface() PointTable { return sc.surface }

// Metadata returns a copy of the scenario's generation metadata.
func (sc *Scenario) Metadata() map[string]any {
	m := make(map[string]any, len(sc.meta))
	for k, v := range sc.meta {
		m[k] = v
	}
	return m
}

// boundsPad is the absolute padding in scene units added on every side of
// the truth field's bounding box.
const boundsPad = 0.15

func newScenario(name string, seed uint64, descr string, truth field.Field, res int, meta map[string]any) (*Scenario, error) {
	bb := truth.Bounds()
	bb.Min = ms3.AddScalar(-boundsPad, bb.Min)
	bb.Max = ms3.AddScalar(boundsPad, bb.Max)
	var vp field.VecPool
	surface, err := surfaceSample(truth, bb, res, &vp)
	if err != nil {
		return nil, err
	}
	surface.Source = name
	meta["surface_points"] = surface.Len()
	meta["grid_res"] = res
	return &Scenario{
		name:    name,
		seed:    seed,
		descr:   descr,
		truth:   truth,
		bounds:  bb,
		surface: surface,
		meta:    meta,
	}, nil
}

// PointTable is a columnar table of surface samples: positions, outward unit
// normals and the generating scenario's name. Columns are index-aligned.
type PointTable struct {
	X, Y, Z    []float32
	NX, NY, NZ []float32
	Source     string
}

// Len returns the number of rows in the table.
func (t *PointTable) Len() int { return len(t.X) }

// Point returns the position stored in row i.
func (t *PointTable) Point(i int) ms3.Vec {
	return ms3.Vec{X: t.X[i], Y: t.Y[i], Z: t.Z[i]}
}

// Normal returns the outward unit normal stored in row i.
func (t *PointTable) Normal(i int) ms3.Vec {
	return ms3.Vec{X: t.NX[i], Y: t.NY[i], Z: t.NZ[i]}
}

func (t *PointTable) append(p, n ms3.Vec) {
	t.X = append(t.X, p.X)
	t.Y = append(t.Y, p.Y)
	t.Z = append(t.Z, p.Z)
	t.NX = append(t.NX, n.X)
	t.NY = append(t.NY, n.Y)
	t.NZ = append(t.NZ, n.Z)
}

// WriteCSV writes the table with a header row of
// x,y,z,nx,ny,nz,source columns.
func (t *PointTable) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	err := cw.Write([]string{"x", "y", "z", "nx", "ny", "nz", "source"})
	if err != nil {
		return err
	}
	row := make([]string, 7)
	row[6] = t.Source
	for i := 0; i < t.Len(); i++ {
		row[0] = fmtf(t.X[i])
		row[1] = fmtf(t.Y[i])
		row[2] = fmtf(t.Z[i])
		row[3] = fmtf(t.NX[i])
		row[4] = fmtf(t.NY[i])
		row[5] = fmtf(t.NZ[i])
		err = cw.Write(row)
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func fmtf(f float32) string {
	return strconv.FormatFloat(float64(f), 'g', -1, 32)
}

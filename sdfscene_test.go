package sdfscene_test

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"

	"github.com/geomfield/sdfscene"
	"github.com/geomfield/sdfscene/field"
)

type fieldTestConfig struct {
	bld     *sdfscene.Builder
	posbuf  []ms3.Vec
	distbuf [2][]float32
	normbuf [2][]ms3.Vec
	vp      field.VecPool
	testres float32
}

func newFieldTestConfig() *fieldTestConfig {
	const bufsize = 32 * 32 * 32
	cfg := &fieldTestConfig{
		bld:     &sdfscene.Builder{},
		posbuf:  make([]ms3.Vec, bufsize),
		testres: 1. / 3,
	}
	for i := range cfg.distbuf {
		cfg.distbuf[i] = make([]float32, bufsize)
		cfg.normbuf[i] = make([]ms3.Vec, bufsize)
	}
	return cfg
}

func (cfg *fieldTestConfig) div3(bounds ms3.Box) (int, int, int) {
	sz := bounds.Size()
	return cfg.div(sz.X), cfg.div(sz.Y), cfg.div(sz.Z)
}

func (cfg *fieldTestConfig) div(dim float32) int {
	divs := int(dim / cfg.testres)
	if divs < 5 {
		return 5
	} else if divs > 24 {
		return 24
	}
	return divs
}

func TestPrimitiveFields(t *testing.T) {
	cfg := newFieldTestConfig()
	bld := cfg.bld
	const maxdim float32 = 1.0
	dimVec := ms3.Vec{X: maxdim, Y: maxdim * 0.47, Z: maxdim * 0.8}
	thick := maxdim / 10
	var primitives = []field.Field{
		bld.NewSphere(1),
		bld.NewBox(dimVec.X, dimVec.Y, dimVec.Z, 0),
		bld.NewBox(dimVec.X, dimVec.Y, dimVec.Z, thick),
		bld.NewCylinder(dimVec.X, dimVec.Y, 0),
		bld.NewCylinder(dimVec.X, dimVec.Y, thick),
		bld.NewTorus(dimVec.X, dimVec.Y),
	}
	for _, primitive := range primitives {
		testField(t, primitive, cfg)
	}
	if err := bld.Err(); err != nil {
		t.Fatal(err)
	}
}

func TestCSGFields(t *testing.T) {
	cfg := newFieldTestConfig()
	bld := cfg.bld
	s1 := bld.NewSphere(1)
	s2 := bld.NewBox(1, 0.6, 0.8, 0.1)
	s2 = bld.Translate(s2, 0.5, 0.7, 0.8)
	s3 := bld.Translate(bld.NewSphere(0.4), -0.3, 0.2, -0.5)
	// s4 overlaps both s1 and s2 so intersections keep valid bounds.
	s4 := bld.Translate(bld.NewSphere(1.2), 0.3, 0.4, 0.5)
	var trees = []field.Field{
		bld.Union(s1, s2),
		bld.Union(s1, s2, s3),
		bld.Intersection(s1, s2),
		bld.Intersection(s1, s2, s4),
		bld.Difference(s1, s2),
		bld.Difference(s1, s2, s3),
		bld.Rotate(bld.Union(s1, s2), 0.7, ms3.Vec{X: 1, Y: 0.5, Z: 0.1}),
		bld.Scale(bld.Difference(s1, s3), 1.6),
		bld.Translate(bld.Intersection(s1, s2), 0.2, -0.4, 0.9),
	}
	for _, tree := range trees {
		testField(t, tree, cfg)
	}
	if err := bld.Err(); err != nil {
		t.Fatal(err)
	}
}

// testField grid-evaluates the field over its bounds, checking analytic
// normals are unit length and match central differences away from seams.
func testField(t *testing.T, obj field.Field, cfg *fieldTestConfig) {
	t.Helper()
	vp := &cfg.vp
	bounds := obj.Bounds()
	nx, ny, nz := cfg.div3(bounds)
	pos := ms3.AppendGrid(cfg.posbuf[:0], bounds, nx, ny, nz)
	dist := cfg.distbuf[0][:len(pos)]
	normals := cfg.normbuf[0][:len(pos)]
	numeric := cfg.normbuf[1][:len(pos)]

	err := field.Evaluate(obj, pos, dist, vp)
	if err != nil {
		t.Fatal(err)
	}
	err = field.Normals(obj, pos, normals, 0, vp)
	if err != nil {
		t.Fatal(err)
	}
	step := bounds.Size().Max() * 2e-3
	err = field.NormalsCentralDiff(obj, pos, numeric, step, vp)
	if err != nil {
		t.Fatal(err)
	}
	mismatches := 0
	for i, n := range normals {
		gotNorm := ms3.Norm(n)
		if math32.Abs(gotNorm-1) > 1e-3 {
			t.Errorf("normal not unit length: pos=%+v |n|=%f idx=%d", pos[i], gotNorm, i)
			mismatches++
		}
		// Skip points whose numeric gradient magnitude deviates from 1:
		// the central difference straddles a seam or singular set there.
		num := numeric[i]
		numNorm := ms3.Norm(num)
		if math32.Abs(numNorm/step-1) > 0.1 {
			continue
		}
		num = ms3.Scale(1/numNorm, num)
		if ms3.Dot(n, num) < 0.995 {
			t.Errorf("normal mismatch: pos=%+v analytic=%+v numeric=%+v idx=%d", pos[i], n, num, i)
			mismatches++
		}
		if mismatches > 8 {
			t.Fatal("too many mismatched normals")
		}
	}
}

func TestSphereSignConvention(t *testing.T) {
	var bld sdfscene.Builder
	const r = 1.5
	center := ms3.Vec{X: 0.3, Y: -0.8, Z: 2}
	s := bld.Translate(bld.NewSphere(r), center.X, center.Y, center.Z)
	pos := []ms3.Vec{
		center,
		ms3.Add(center, ms3.Vec{X: r}),
		ms3.Add(center, ms3.Vec{X: 2 * r}),
	}
	dist := make([]float32, len(pos))
	err := field.Evaluate(s, pos, dist, nil)
	if err != nil {
		t.Fatal(err)
	}
	const tol = 1e-6
	if math32.Abs(dist[0]+r) > tol {
		t.Errorf("distance at center: got %f, want %f", dist[0], -r)
	}
	if math32.Abs(dist[1]) > tol {
		t.Errorf("distance on boundary: got %f, want 0", dist[1])
	}
	if math32.Abs(dist[2]-r) > tol {
		t.Errorf("distance outside: got %f, want %f", dist[2], r)
	}
}

func TestUnionIdempotentDistance(t *testing.T) {
	var bld sdfscene.Builder
	s := bld.NewSphere(0.8)
	// Immutable nodes may be shared by several parents.
	u := bld.Union(s, s)
	pos := randomPositions(64, 3)
	want := make([]float32, len(pos))
	got := make([]float32, len(pos))
	var vp field.VecPool
	err := field.Evaluate(s, pos, want, &vp)
	if err != nil {
		t.Fatal(err)
	}
	err = field.Evaluate(u, pos, got, &vp)
	if err != nil {
		t.Fatal(err)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("Union(A,A) != A at %+v: got %f, want %f", pos[i], got[i], want[i])
		}
	}
}

func TestDifferenceContainment(t *testing.T) {
	var bld sdfscene.Builder
	a := bld.NewSphere(1)
	b := bld.Translate(bld.NewBox(1, 1, 1, 0), 0.4, 0, 0)
	d := bld.Difference(a, b)
	pos := randomPositions(512, 1.5)
	distD := make([]float32, len(pos))
	distA := make([]float32, len(pos))
	distB := make([]float32, len(pos))
	var vp field.VecPool
	for _, pair := range []struct {
		s   field.Field
		dst []float32
	}{{d, distD}, {a, distA}, {b, distB}} {
		err := field.Evaluate(pair.s, pos, pair.dst, &vp)
		if err != nil {
			t.Fatal(err)
		}
	}
	for i := range pos {
		if distD[i] < 0 && (distA[i] >= 0 || distB[i] < 0) {
			t.Errorf("containment violated at %+v: d=%f a=%f b=%f", pos[i], distD[i], distA[i], distB[i])
		}
	}
}

func TestBatchOrderInvariance(t *testing.T) {
	var bld sdfscene.Builder
	s := bld.Union(bld.NewSphere(1), bld.Translate(bld.NewTorus(1, 0.3), 0.5, 0, 0))
	p1 := ms3.Vec{X: 0.3, Y: -1, Z: 0.2}
	p2 := ms3.Vec{X: -2, Y: 0.4, Z: 1.1}
	fwd := make([]float32, 2)
	rev := make([]float32, 2)
	var vp field.VecPool
	err := field.Evaluate(s, []ms3.Vec{p1, p2}, fwd, &vp)
	if err != nil {
		t.Fatal(err)
	}
	err = field.Evaluate(s, []ms3.Vec{p2, p1}, rev, &vp)
	if err != nil {
		t.Fatal(err)
	}
	if fwd[0] != rev[1] || fwd[1] != rev[0] {
		t.Errorf("cross-point interaction: fwd=%v rev=%v", fwd, rev)
	}
}

func TestEmptyBatch(t *testing.T) {
	var bld sdfscene.Builder
	s := bld.Difference(bld.NewSphere(1), bld.NewBox(0.5, 0.5, 0.5, 0))
	err := field.Evaluate(s, nil, nil, nil)
	if err != nil {
		t.Errorf("empty distance batch: %v", err)
	}
	err = field.Normals(s, []ms3.Vec{}, []ms3.Vec{}, 0, nil)
	if err != nil {
		t.Errorf("empty normals batch: %v", err)
	}
}

func TestIntersectionEndToEnd(t *testing.T) {
	var bld sdfscene.Builder
	// Sphere radius 2 with a box of half-extents (1,1,1).
	s := bld.Intersection(bld.NewSphere(2), bld.NewBox(2, 2, 2, 0))
	pos := []ms3.Vec{{}, {X: 3}}
	dist := make([]float32, 2)
	err := field.Evaluate(s, pos, dist, nil)
	if err != nil {
		t.Fatal(err)
	}
	if dist[0] != -1 {
		t.Errorf("origin: got %f, want -1 (box face binds)", dist[0])
	}
	if dist[1] != 2 {
		t.Errorf("(3,0,0): got %f, want 2 (box corner distance binds)", dist[1])
	}
}

func TestBuilderErrors(t *testing.T) {
	bld := sdfscene.Builder{NoPanic: true}
	s := bld.NewSphere(-1)
	if s == nil {
		t.Error("expecting non-nil shape")
	}
	bld.NewBox(1, 0, 1, 0)
	bld.NewTorus(1, 0.9)
	if bld.Err() == nil {
		t.Error("expecting accumulated builder errors")
	}
	bld.ClearErrors()
	if bld.Err() != nil {
		t.Error("expected builder errors to be cleared")
	}
}

// randomPositions returns a deterministic pseudo-random point cloud in the
// centered cube of the given half-extent.
func randomPositions(n int, extent float32) []ms3.Vec {
	pos := make([]ms3.Vec, n)
	state := uint32(2463534242)
	next := func() float32 {
		// xorshift32.
		state ^= state << 13
		state ^= state >> 17
		state ^= state << 5
		return (float32(state)/float32(^uint32(0))*2 - 1) * extent
	}
	for i := range pos {
		pos[i] = ms3.Vec{X: next(), Y: next(), Z: next()}
	}
	return pos
}

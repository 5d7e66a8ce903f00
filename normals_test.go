package sdfscene_test

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"

	"github.com/geomfield/sdfscene"
	"github.com/geomfield/sdfscene/field"
)

func TestSingularNormalFallback(t *testing.T) {
	var bld sdfscene.Builder
	want := field.SingularNormal()
	cases := []struct {
		name string
		s    field.Field
		pos  ms3.Vec
	}{
		{name: "sphere center", s: bld.NewSphere(1), pos: ms3.Vec{}},
		{name: "torus axis", s: bld.NewTorus(1, 0.3), pos: ms3.Vec{Z: 0.1}},
		{name: "torus center", s: bld.NewTorus(1, 0.3), pos: ms3.Vec{}},
	}
	for _, tc := range cases {
		normals := make([]ms3.Vec, 1)
		err := field.Normals(tc.s, []ms3.Vec{tc.pos}, normals, 0, nil)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if normals[0] != want {
			t.Errorf("%s: got %+v, want fallback %+v", tc.name, normals[0], want)
		}
	}
}

func TestUnionTieFirstChildWins(t *testing.T) {
	var bld sdfscene.Builder
	// Two identical spheres straddling the origin: a query at the origin
	// is exactly equidistant and must keep the first child's gradient.
	a := bld.Translate(bld.NewSphere(0.5), -1, 0, 0)
	b := bld.Translate(bld.NewSphere(0.5), 1, 0, 0)
	u := bld.Union(a, b)
	normals := make([]ms3.Vec, 1)
	err := field.Normals(u, []ms3.Vec{{}}, normals, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := ms3.Vec{X: 1} // Away from the first sphere's center at x=-1.
	if normals[0] != want {
		t.Errorf("tie at seam: got %+v, want first child's %+v", normals[0], want)
	}
}

func TestDifferenceNormalFlipped(t *testing.T) {
	var bld sdfscene.Builder
	// Carve a small sphere out of a big one and query inside the cavity
	// wall: the reported normal must point into the carved sphere,
	// opposite its own outward gradient.
	d := bld.Difference(bld.NewSphere(2), bld.NewSphere(1))
	pos := []ms3.Vec{{X: 1.2}}
	normals := make([]ms3.Vec, 1)
	err := field.Normals(d, pos, normals, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	// Cavity surface at x=1 is closer than the outer shell at x=2.
	want := ms3.Vec{X: -1}
	if ms3.Norm(ms3.Sub(normals[0], want)) > 1e-6 {
		t.Errorf("cavity normal: got %+v, want %+v", normals[0], want)
	}
}

func TestSeamSelectionVariesPerPoint(t *testing.T) {
	var bld sdfscene.Builder
	a := bld.Translate(bld.NewSphere(0.5), -1, 0, 0)
	b := bld.Translate(bld.NewSphere(0.5), 1, 0, 0)
	u := bld.Union(a, b)
	// One point per side of the seam in a single batch: each must select
	// its own closest child, not a blend.
	pos := []ms3.Vec{{X: -0.4}, {X: 0.4}}
	normals := make([]ms3.Vec, 2)
	err := field.Normals(u, pos, normals, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	// The left point lies right of the left sphere's center, so its
	// outward normal points +x; mirrored for the right point.
	if normals[0].X <= 0 {
		t.Errorf("left point selected wrong child: %+v", normals[0])
	}
	if normals[1].X >= 0 {
		t.Errorf("right point selected wrong child: %+v", normals[1])
	}
	for i, n := range normals {
		if math32.Abs(ms3.Norm(n)-1) > 1e-6 {
			t.Errorf("seam normal %d not unit: %+v", i, n)
		}
	}
}

func TestRotatedBoxNormals(t *testing.T) {
	var bld sdfscene.Builder
	const angle = math32.Pi / 4
	s := bld.Rotate(bld.NewBox(2, 2, 2, 0), angle, ms3.Vec{Z: 1})
	// The +x face normal rotates with the shape.
	pos := []ms3.Vec{{X: 2 * math32.Cos(angle), Y: 2 * math32.Sin(angle)}}
	normals := make([]ms3.Vec, 1)
	err := field.Normals(s, pos, normals, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := ms3.Vec{X: math32.Cos(angle), Y: math32.Sin(angle)}
	if ms3.Norm(ms3.Sub(normals[0], want)) > 1e-5 {
		t.Errorf("rotated face normal: got %+v, want %+v", normals[0], want)
	}
}

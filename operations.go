package sdfscene

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"

	"github.com/geomfield/sdfscene/field"
)

// OpUnion is the result of the [Builder.Union] operation. Prefer using Union to using this type directly.
//
// Normally primitives and results of operations in this package are
// not exported since their concrete type provides relatively little value.
// The result of Union is the exception to the rule since it is the most
// common operation in scenario trees and lets users inspect how many
// children a generated tree joins.
type OpUnion struct {
	// joined contains 2 or more 3D SDFs.
	// OpUnion methods will panic if joined less than 2 elements.
	joined []field.Field
}

// Union joins the shapes of several 3D SDFs into one: phi = min(phi_children...). Is exact.
// Union aggregates nested Union results into its own. To prevent this behaviour use [OpUnion] directly.
func (bld *Builder) Union(shapes ...field.Field) field.Field {
	if len(shapes) < 2 {
		panic("need at least 2 arguments to Union")
	}
	var U OpUnion
	for i, s := range shapes {
		if s == nil {
			bld.nilsdf(fmt.Sprintf("nil arg[%d] to Union", i))
		}
		if subU, ok := s.(*OpUnion); ok {
			// Discard nested union elements and join their elements.
			// Results in a flatter tree with identical distances.
			U.joined = append(U.joined, subU.joined...)
		} else {
			U.joined = append(U.joined, s)
		}
	}
	return &U
}

// Children returns the number of shapes joined by the union.
func (u *OpUnion) Children() int { return len(u.joined) }

// Bounds returns the union of all joined SDF bounds. Implements [field.SDF3].
func (u *OpUnion) Bounds() ms3.Box {
	u.mustValidate()
	bb := u.joined[0].Bounds()
	for _, s := range u.joined[1:] {
		bb = bb.Union(s.Bounds())
	}
	return bb
}

func (u *OpUnion) mustValidate() {
	if len(u.joined) < 2 {
		panic("OpUnion must have at least 2 elements. please prefer using Builder.Union over OpUnion")
	}
}

// Intersection is the boolean intersection of two or more SDFs:
// phi = max(phi_children...). Does not produce an exact SDF inside seams.
func (bld *Builder) Intersection(shapes ...field.Field) field.Field {
	if len(shapes) < 2 {
		panic("need at least 2 arguments to Intersection")
	}
	for i, s := range shapes {
		if s == nil {
			bld.nilsdf(fmt.Sprintf("nil arg[%d] to Intersection", i))
		}
	}
	return &intersect{shapes: append([]field.Field{}, shapes...)}
}

type intersect struct {
	shapes []field.Field
}

func (s *intersect) Bounds() ms3.Box {
	bb := s.shapes[0].Bounds()
	for _, sub := range s.shapes[1:] {
		bb = bb.Intersect(sub.Bounds())
	}
	return bb
}

// Difference is the SDF difference of a minus the union of subtrahends:
// phi = max(phi_a, -phi_subtrahends...). Does not produce a true SDF near
// carved seams, which is the accepted behavior of min/max CSG.
func (bld *Builder) Difference(a field.Field, subtrahends ...field.Field) field.Field {
	if a == nil {
		bld.nilsdf("Difference minuend")
	}
	if len(subtrahends) == 0 {
		panic("need at least 1 subtrahend argument to Difference")
	}
	for i, s := range subtrahends {
		if s == nil {
			bld.nilsdf(fmt.Sprintf("nil subtrahend[%d] to Difference", i))
		}
	}
	return &diff{s1: a, subs: append([]field.Field{}, subtrahends...)}
}

type diff struct {
	s1   field.Field // minuend.
	subs []field.Field
}

func (s *diff) Bounds() ms3.Box {
	return s.s1.Bounds()
}

// Translate moves the SDF s in the given direction (dirX, dirY, dirZ) and returns the result.
func (bld *Builder) Translate(s field.Field, dirX, dirY, dirZ float32) field.Field {
	if s == nil {
		bld.nilsdf("Translate")
	}
	return &translate{s: s, p: ms3.Vec{X: dirX, Y: dirY, Z: dirZ}}
}

type translate struct {
	s field.Field
	p ms3.Vec
}

func (t *translate) Bounds() ms3.Box {
	return t.s.Bounds().Add(t.p)
}

// Rotate is the rotation of radians angle around an axis vector. Normals of
// the rotated shape are rotated alongside so gradients stay exact.
func (bld *Builder) Rotate(s field.Field, radians float32, axis ms3.Vec) field.Field {
	if s == nil {
		bld.nilsdf("Rotate")
	}
	if axis == (ms3.Vec{}) {
		bld.shapeErrorf("null rotation axis")
	}
	T := ms3.RotationMat4(radians, ms3.Unit(axis))
	det := T.Determinant()
	if math32.Abs(det) < epstol {
		bld.shapeErrorf("singular rotation matrix")
	}
	return &rotation{s: s, t: T, tInv: T.Inverse()}
}

type rotation struct {
	s field.Field
	// Rotation matrix. Rotates the shape; used to transform the bounding
	// box and to bring child normals back to world frame.
	t ms3.Mat4
	// Inverse rotation. The child SDF receives points in its own frame, so
	// query points travel backwards through the rotation.
	tInv ms3.Mat4
}

func (t *rotation) Bounds() ms3.Box {
	return t.t.MulBox(t.s.Bounds())
}

// Scale scales s by scaleFactor around the origin. Distances scale
// uniformly so the result remains an exact SDF with unchanged normals.
func (bld *Builder) Scale(s field.Field, scaleFactor float32) field.Field {
	if s == nil {
		bld.nilsdf("Scale")
	}
	if scaleFactor <= 0 {
		bld.shapeErrorf("zero or negative scale factor")
	}
	return &scale{s: s, scale: scaleFactor}
}

type scale struct {
	s     field.Field
	scale float32
}

func (u *scale) Bounds() ms3.Box {
	b := u.s.Bounds()
	return b.Scale(ms3.Vec{X: u.scale, Y: u.scale, Z: u.scale})
}

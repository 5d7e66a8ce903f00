// Package sdfscene builds analytic signed distance fields for synthetic
// surface-reconstruction benchmarks. Primitive solids are combined through
// CSG operators into immutable expression trees whose distance and gradient
// are exact at arbitrary query points. Scenario assembly and sampling live
// in the scenario subpackage; the batch evaluation protocol lives in field.
package sdfscene

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
)

const (
	largenum = 1e20
	// epstol is used to check for badly conditioned denominators
	// such as lengths used for normalization or transformation matrix determinants.
	epstol = 6e-7
)

// Builder wraps all SDF primitive and operation logic generation.
// Provides error handling strategies with panics or error accumulation during shape generation.
type Builder struct {
	// NoPanic makes the Builder accumulate parameter errors
	// instead of panicking. Check accumulated errors with Err.
	NoPanic   bool
	accumErrs []error
}

// Err returns errors accumulated during shape construction. Nil if none.
func (bld *Builder) Err() error {
	if len(bld.accumErrs) == 0 {
		return nil
	}
	return errors.Join(bld.accumErrs...)
}

// ClearErrors discards accumulated construction errors.
func (bld *Builder) ClearErrors() {
	bld.accumErrs = nil
}

func (bld *Builder) shapeErrorf(msg string, args ...any) {
	if !bld.NoPanic {
		panic(fmt.Sprintf(msg, args...))
	}
	bld.accumErrs = append(bld.accumErrs, fmt.Errorf(msg, args...))
}

func (*Builder) nilsdf(msg string) {
	panic("nil SDF argument: " + msg)
}

func minf(a, b float32) float32 {
	return math32.Min(a, b)
}

func maxf(a, b float32) float32 {
	return math32.Max(a, b)
}

func absf(a float32) float32 {
	return math32.Abs(a)
}

func hypotf(a, b float32) float32 {
	return math32.Hypot(a, b)
}


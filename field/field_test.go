package field_test

import (
	"testing"

	"github.com/soypat/geometry/ms3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geomfield/sdfscene/field"
)

// unitSphere is a minimal SDF3 without analytic normals, standing in for
// foreign implementations such as mesh-backed fields.
type unitSphere struct{}

func (unitSphere) Evaluate(pos []ms3.Vec, dist []float32, userData any) error {
	for i, p := range pos {
		dist[i] = ms3.Norm(p) - 1
	}
	return nil
}

func (unitSphere) Bounds() ms3.Box {
	return ms3.NewCenteredBox(ms3.Vec{}, ms3.Vec{X: 2, Y: 2, Z: 2})
}

func TestEvaluateValidation(t *testing.T) {
	var s unitSphere
	err := field.Evaluate(s, make([]ms3.Vec, 3), make([]float32, 2), nil)
	assert.ErrorIs(t, err, field.ErrBufferMismatch)
	err = field.Normals(s, make([]ms3.Vec, 1), make([]ms3.Vec, 4), 1e-3, nil)
	assert.ErrorIs(t, err, field.ErrBufferMismatch)
	err = field.Evaluate(nil, nil, nil, nil)
	assert.Error(t, err)
	// Empty batches succeed without touching anything.
	assert.NoError(t, field.Evaluate(s, nil, nil, nil))
	assert.NoError(t, field.Normals(s, nil, nil, 1e-3, nil))
}

func TestNormalsCentralDiffFallback(t *testing.T) {
	var s unitSphere
	pos := []ms3.Vec{{X: 2}, {Y: -3}, {X: 1, Y: 1, Z: 1}}
	normals := make([]ms3.Vec, len(pos))
	err := field.Normals(s, pos, normals, field.NormStep(s), nil)
	require.NoError(t, err)
	for i, p := range pos {
		want := ms3.Unit(p)
		assert.InDelta(t, 1, float64(ms3.Norm(normals[i])), 1e-3, "normal %d not unit", i)
		assert.InDelta(t, 1, float64(ms3.Dot(normals[i], want)), 1e-3, "normal %d direction", i)
	}
}

func TestVecPoolReuse(t *testing.T) {
	var vp field.VecPool
	buf := vp.Float.Acquire(128)
	require.Len(t, buf, 128)
	vp.Float.Release(buf)
	again := vp.Float.Acquire(64)
	require.Len(t, again, 64)
	assert.Equal(t, 1, vp.TotalAlloc(), "released buffer should be reused")
	for i := range again {
		assert.Zero(t, again[i], "acquired buffer must be zeroed")
	}
}

func TestGetVecPool(t *testing.T) {
	vp, err := field.GetVecPool(nil)
	require.NoError(t, err)
	require.NotNil(t, vp)
	same, err := field.GetVecPool(vp)
	require.NoError(t, err)
	assert.Same(t, vp, same)
	_, err = field.GetVecPool(42)
	assert.Error(t, err)
}

func TestBlockCachedField(t *testing.T) {
	inner := analyticSphere{}
	var c field.BlockCachedField
	require.NoError(t, c.Reset(inner, 0.25, 0.25, 0.25))
	pos := []ms3.Vec{{X: 1.5}, {X: 1.5}, {Y: 0.7}, {X: 1.5}}
	dist := make([]float32, len(pos))
	require.NoError(t, c.Evaluate(pos, dist, nil))
	want := make([]float32, len(pos))
	require.NoError(t, inner.Evaluate(pos, want, nil))
	assert.Equal(t, want, dist)
	// A second pass over the same cells is answered from the cache.
	require.NoError(t, c.Evaluate(pos, dist, nil))
	assert.Equal(t, want, dist)
	assert.Equal(t, uint64(len(pos)), c.CacheHits())
	assert.Equal(t, uint64(2*len(pos)), c.Evaluations())

	err := c.Reset(inner, 0, 1, 1)
	assert.Error(t, err)
}

// analyticSphere implements the full Field contract for cache tests.
type analyticSphere struct{ unitSphere }

func (analyticSphere) EvaluateNormals(pos, normals []ms3.Vec, userData any) error {
	for i, p := range pos {
		n := ms3.Norm(p)
		if n < 1e-6 {
			normals[i] = field.SingularNormal()
			continue
		}
		normals[i] = ms3.Scale(1/n, p)
	}
	return nil
}

func TestBlockCachedFieldNormalsForwarded(t *testing.T) {
	var c field.BlockCachedField
	require.NoError(t, c.Reset(analyticSphere{}, 0.5, 0.5, 0.5))
	pos := []ms3.Vec{{X: 3}}
	normals := make([]ms3.Vec, 1)
	require.NoError(t, c.EvaluateNormals(pos, normals, nil))
	assert.Equal(t, ms3.Vec{X: 1}, normals[0])
}

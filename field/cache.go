package field

import (
	"errors"

	"github.com/soypat/geometry/ms3"
)

// BlockCachedField wraps a Field and caches distances by quantized spatial
// cell. Useful for repeated lattice passes over heavy scenario trees where
// many queries land in the same cell. Normals are never cached; they are
// forwarded to the wrapped field so gradient truth stays exact.
//
// Unlike bare Fields a BlockCachedField is stateful and must not be shared
// between goroutines.
type BlockCachedField struct {
	fld     Field
	mul     ms3.Vec
	m       map[[3]int]float32
	posbuf  []ms3.Vec
	distbuf []float32
	idxbuf  []int
	hits    uint64
	evals   uint64
}

// Reset resets the BlockCachedField to wrap fld with the given cell
// resolution and reuses the underlying buffers for future evaluations.
// It also resets statistics such as evaluations and cache hits.
func (c *BlockCachedField) Reset(fld Field, resX, resY, resZ float32) error {
	if fld == nil {
		return errNilSDF
	}
	if resX <= 0 || resY <= 0 || resZ <= 0 {
		return errors.New("invalid resolution for BlockCachedField")
	}
	if c.m == nil {
		c.m = make(map[[3]int]float32)
	} else {
		clear(c.m)
	}
	*c = BlockCachedField{
		fld:     fld,
		mul:     ms3.DivElem(ms3.Vec{X: 1, Y: 1, Z: 1}, ms3.Vec{X: resX, Y: resY, Z: resZ}),
		m:       c.m,
		posbuf:  c.posbuf[:0],
		distbuf: c.distbuf[:0],
		idxbuf:  c.idxbuf[:0],
	}
	return nil
}

// CacheHits returns total amount of cached evaluations done throughout the field's lifetime.
func (c *BlockCachedField) CacheHits() uint64 {
	return c.hits
}

// Evaluations returns total evaluations performed successfully during the field's lifetime, including cached.
func (c *BlockCachedField) Evaluations() uint64 {
	return c.evals
}

// Evaluate implements the [SDF3] interface with cached evaluation.
func (c *BlockCachedField) Evaluate(pos []ms3.Vec, dist []float32, userData any) error {
	if len(pos) != len(dist) {
		return ErrBufferMismatch
	} else if len(pos) == 0 {
		return nil
	}
	bb := c.fld.Bounds()
	seekPos := c.posbuf[:0]
	idx := c.idxbuf[:0]
	mul := c.mul
	for i, p := range pos {
		k := c.cell(mul, bb.Min, p)
		d, cached := c.m[k]
		if cached {
			dist[i] = d
		} else {
			seekPos = append(seekPos, p)
			idx = append(idx, i)
		}
	}
	if len(idx) > 0 {
		// Renew buffers in case they were grown.
		c.idxbuf = idx
		c.posbuf = seekPos
		if cap(c.distbuf) < len(seekPos) {
			c.distbuf = make([]float32, len(seekPos))
		}
		seekDist := c.distbuf[:len(seekPos)]
		err := c.fld.Evaluate(seekPos, seekDist, userData)
		if err != nil {
			return err
		}
		for i, p := range seekPos {
			c.m[c.cell(mul, bb.Min, p)] = seekDist[i]
		}
		for i, d := range seekDist {
			dist[idx[i]] = d
		}
	}
	c.evals += uint64(len(dist))
	c.hits += uint64(len(dist) - len(seekPos))
	return nil
}

func (c *BlockCachedField) cell(mul, minBound, p ms3.Vec) [3]int {
	tp := ms3.MulElem(mul, ms3.Sub(p, minBound))
	return [3]int{int(tp.X), int(tp.Y), int(tp.Z)}
}

// EvaluateNormals implements [Normaler3] by forwarding to the wrapped field.
func (c *BlockCachedField) EvaluateNormals(pos, normals []ms3.Vec, userData any) error {
	return c.fld.EvaluateNormals(pos, normals, userData)
}

// Bounds returns the wrapped field's bounding box.
func (c *BlockCachedField) Bounds() ms3.Box {
	return c.fld.Bounds()
}

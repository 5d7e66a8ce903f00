package field

import (
	"errors"
	"fmt"

	"github.com/soypat/geometry/ms3"
)

// VecPool hands out scratch buffers to evaluators so that recursive CSG
// evaluation over large batches does not allocate per node. It is passed
// to Evaluate calls through the userData argument and retrieved with
// [GetVecPool]. A VecPool is not safe for concurrent use; concurrent
// evaluations of the same tree should each carry their own pool.
type VecPool struct {
	Float bufPool[float32]
	V3    bufPool[ms3.Vec]
}

// GetVecPool retrieves a [VecPool] from userData. userData may be a *VecPool
// itself or implement a VecPool() *VecPool accessor. A nil userData yields a
// fresh pool so that one-shot evaluations work without setup.
func GetVecPool(userData any) (*VecPool, error) {
	switch t := userData.(type) {
	case nil:
		return &VecPool{}, nil
	case *VecPool:
		return t, nil
	case interface{ VecPool() *VecPool }:
		vp := t.VecPool()
		if vp == nil {
			return nil, errors.New("nil VecPool accessor result")
		}
		return vp, nil
	}
	return nil, fmt.Errorf("userData %T does not provide a *field.VecPool", userData)
}

// TotalAlloc returns the total number of buffers created over the pool's lifetime.
func (vp *VecPool) TotalAlloc() int {
	return vp.Float.allocs + vp.V3.allocs
}

type bufPool[T any] struct {
	free   [][]T
	allocs int
}

// Acquire returns a zeroed buffer of length n, reusing a free buffer when
// one is large enough.
func (bp *bufPool[T]) Acquire(n int) []T {
	for i, buf := range bp.free {
		if cap(buf) >= n {
			bp.free[i] = bp.free[len(bp.free)-1]
			bp.free = bp.free[:len(bp.free)-1]
			buf = buf[:n]
			clear(buf)
			return buf
		}
	}
	bp.allocs++
	return make([]T, n)
}

// Release returns a buffer acquired from this pool for future reuse.
func (bp *bufPool[T]) Release(buf []T) {
	if cap(buf) == 0 {
		return
	}
	bp.free = append(bp.free, buf[:0])
}

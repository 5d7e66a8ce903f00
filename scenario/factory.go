package scenario

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"

	"github.com/geomfield/sdfscene"
	"github.com/geomfield/sdfscene/field"
)

// Factory builds a named scenario from a seed. All registered factories are
// deterministic: identical (name, seed) pairs produce bit-identical trees
// and sample tables.
type Factory func(seed uint64) (*Scenario, error)

var factories = map[string]Factory{
	"torus": func(seed uint64) (*Scenario, error) {
		return Torus(seed, DefaultTorusParams())
	},
	"asteroid_field": func(seed uint64) (*Scenario, error) {
		return AsteroidField(seed, DefaultAsteroidFieldParams())
	},
	"cave_network": func(seed uint64) (*Scenario, error) {
		return CaveNetwork(seed, DefaultCaveNetworkParams())
	},
	"canal_maze": func(seed uint64) (*Scenario, error) {
		return CanalMaze(seed, DefaultCanalMazeParams())
	},
}

// List returns the registered scenario names, sorted.
func List() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load builds the named scenario with default parameters and the given seed.
func Load(name string, seed uint64) (*Scenario, error) {
	f, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown scenario %q, available: %v", name, List())
	}
	return f(seed)
}

// TorusParams parameterizes the torus scenario.
type TorusParams struct {
	MajorRadius float32
	MinorRadius float32
	// MaxTilt is the largest magnitude of the random tilt around the x
	// axis applied to the torus, in radians.
	MaxTilt float32
	GridRes int
}

// DefaultTorusParams returns the parameters used by the scenario registry.
func DefaultTorusParams() TorusParams {
	return TorusParams{MajorRadius: 2, MinorRadius: 0.6, MaxTilt: 0.35, GridRes: 36}
}

// Torus builds a single tilted torus scenario.
func Torus(seed uint64, p TorusParams) (*Scenario, error) {
	if p.GridRes < 2 {
		return nil, errors.New("torus grid resolution too small")
	}
	bld := sdfscene.Builder{NoPanic: true}
	r := NewRand(seed, "torus")
	tilt := uniform(r, -p.MaxTilt, p.MaxTilt)
	s := bld.NewTorus(p.MajorRadius, p.MinorRadius)
	if tilt != 0 {
		s = bld.Rotate(s, tilt, ms3.Vec{X: 1})
	}
	if err := bld.Err(); err != nil {
		return nil, err
	}
	meta := map[string]any{
		"major_radius": p.MajorRadius,
		"minor_radius": p.MinorRadius,
		"tilt":         tilt,
	}
	return newScenario("torus", seed, "Analytic torus with a random tilt.", s, p.GridRes, meta)
}

// AsteroidFieldParams parameterizes the asteroid field scenario.
type AsteroidFieldParams struct {
	// Asteroids is the number of jittered spheres joined by the union.
	Asteroids int
	// Extent is the half-extent of the cube the asteroids scatter over.
	Extent float32
	RadiusMin, RadiusMax float32
	// Jitter is the placement offset per lattice site as a fraction of
	// the lattice spacing.
	Jitter  float32
	GridRes int
}

// DefaultAsteroidFieldParams returns the parameters used by the scenario registry.
func DefaultAsteroidFieldParams() AsteroidFieldParams {
	return AsteroidFieldParams{
		Asteroids: 24,
		Extent:    4,
		RadiusMin: 0.3,
		RadiusMax: 0.8,
		Jitter:    0.45,
		GridRes:   48,
	}
}

// AsteroidField builds a union of jittered spheres scattered over a cubic
// lattice.
func AsteroidField(seed uint64, p AsteroidFieldParams) (*Scenario, error) {
	if p.Asteroids < 2 {
		return nil, errors.New("asteroid field needs at least 2 asteroids")
	}
	if p.RadiusMin <= 0 || p.RadiusMax < p.RadiusMin {
		return nil, errors.New("bad asteroid radius range")
	}
	if p.GridRes < 2 {
		return nil, errors.New("asteroid field grid resolution too small")
	}
	bld := sdfscene.Builder{NoPanic: true}
	r := NewRand(seed, "asteroid_field")

	side := int(math32.Ceil(math32.Cbrt(float32(p.Asteroids))))
	spacing := 2 * p.Extent / float32(side)
	jit := p.Jitter * spacing
	asteroids := make([]field.Field, 0, p.Asteroids)
	for k := 0; k < side && len(asteroids) < p.Asteroids; k++ {
		for j := 0; j < side && len(asteroids) < p.Asteroids; j++ {
			for i := 0; i < side && len(asteroids) < p.Asteroids; i++ {
				center := ms3.Vec{
					X: -p.Extent + spacing*(float32(i)+0.5) + uniform(r, -jit, jit),
					Y: -p.Extent + spacing*(float32(j)+0.5) + uniform(r, -jit, jit),
					Z: -p.Extent + spacing*(float32(k)+0.5) + uniform(r, -jit, jit),
				}
				radius := uniform(r, p.RadiusMin, p.RadiusMax)
				s := bld.NewSphere(radius)
				asteroids = append(asteroids, bld.Translate(s, center.X, center.Y, center.Z))
			}
		}
	}
	tree := bld.Union(asteroids...)
	if err := bld.Err(); err != nil {
		return nil, err
	}
	meta := map[string]any{
		"asteroids":  len(asteroids),
		"extent":     p.Extent,
		"radius_min": p.RadiusMin,
		"radius_max": p.RadiusMax,
		"jitter":     p.Jitter,
	}
	return newScenario("asteroid_field", seed, "Union of jittered spheres on a cubic lattice.", tree, p.GridRes, meta)
}

// CaveNetworkParams parameterizes the cave network scenario.
type CaveNetworkParams struct {
	// Block dimensions the tunnels are carved from.
	BlockX, BlockY, BlockZ float32
	Tunnels                int
	// Segments is the number of straight tunnel segments per tunnel.
	Segments     int
	TunnelRadius float32
	// Wander scales the per-segment random change of tunnel direction.
	Wander  float32
	GridRes int
}

// DefaultCaveNetworkParams returns the parameters used by the scenario registry.
func DefaultCaveNetworkParams() CaveNetworkParams {
	return CaveNetworkParams{
		BlockX: 6, BlockY: 6, BlockZ: 4,
		Tunnels:      3,
		Segments:     5,
		TunnelRadius: 0.45,
		Wander:       0.6,
		GridRes:      48,
	}
}

// CaveNetwork builds a solid block with randomized tunnel paths carved out
// of it. Each tunnel is a chain of oriented cylinders with sphere joints so
// consecutive segments meet smoothly.
func CaveNetwork(seed uint64, p CaveNetworkParams) (*Scenario, error) {
	if p.Tunnels < 1 || p.Segments < 1 {
		return nil, errors.New("cave network needs at least 1 tunnel of 1 segment")
	}
	if p.TunnelRadius <= 0 {
		return nil, errors.New("bad tunnel radius")
	}
	if p.GridRes < 2 {
		return nil, errors.New("cave network grid resolution too small")
	}
	bld := sdfscene.Builder{NoPanic: true}
	r := NewRand(seed, "cave_network")

	block := bld.NewBox(p.BlockX, p.BlockY, p.BlockZ, 0)
	// Tunnel stations stay inside this margin so carved walls keep thickness.
	lim := ms3.Vec{
		X: p.BlockX/2 - 2*p.TunnelRadius,
		Y: p.BlockY/2 - 2*p.TunnelRadius,
		Z: p.BlockZ/2 - 2*p.TunnelRadius,
	}
	if lim.X <= 0 || lim.Y <= 0 || lim.Z <= 0 {
		return nil, errors.New("tunnel radius too large for block")
	}
	segLen := lim.Min()

	var carve []field.Field
	for tun := 0; tun < p.Tunnels; tun++ {
		at := ms3.Vec{
			X: uniform(r, -lim.X, lim.X),
			Y: uniform(r, -lim.Y, lim.Y),
			Z: uniform(r, -lim.Z, lim.Z),
		}
		dir := randUnit(r)
		carve = append(carve, bld.Translate(bld.NewSphere(p.TunnelRadius), at.X, at.Y, at.Z))
		for seg := 0; seg < p.Segments; seg++ {
			step := uniform(r, 0.5, 1) * segLen
			next := ms3.Add(at, ms3.Scale(step, dir))
			next = ms3.ClampElem(next, ms3.Scale(-1, lim), lim)
			delta := ms3.Sub(next, at)
			length := ms3.Norm(delta)
			if length > 1e-3 {
				tube := orientedCylinder(&bld, p.TunnelRadius, delta)
				mid := ms3.Scale(0.5, ms3.Add(at, next))
				carve = append(carve, bld.Translate(tube, mid.X, mid.Y, mid.Z))
				carve = append(carve, bld.Translate(bld.NewSphere(p.TunnelRadius), next.X, next.Y, next.Z))
				dir = ms3.Scale(1/length, delta)
			}
			at = next
			dir = jitterDir(r, dir, p.Wander)
		}
	}
	tree := bld.Difference(block, carve...)
	if err := bld.Err(); err != nil {
		return nil, err
	}
	meta := map[string]any{
		"tunnels":       p.Tunnels,
		"segments":      p.Segments,
		"tunnel_radius": p.TunnelRadius,
		"carved_solids": len(carve),
	}
	return newScenario("cave_network", seed, "Solid block with randomized tunnels carved out.", tree, p.GridRes, meta)
}

// orientedCylinder returns a cylinder spanning delta, centered at the origin.
func orientedCylinder(bld *sdfscene.Builder, radius float32, delta ms3.Vec) field.Field {
	length := ms3.Norm(delta)
	cyl := bld.NewCylinder(radius, length, 0)
	dir := ms3.Scale(1/length, delta)
	// Rotation taking +z to dir.
	axis := cross3(ms3.Vec{Z: 1}, dir)
	sin := ms3.Norm(axis)
	cos := dir.Z
	if sin < 1e-6 {
		if cos > 0 {
			return cyl
		}
		// Antiparallel: any axis orthogonal to z works.
		return bld.Rotate(cyl, math32.Pi, ms3.Vec{X: 1})
	}
	return bld.Rotate(cyl, math32.Atan2(sin, cos), ms3.Scale(1/sin, axis))
}

func cross3(a, b ms3.Vec) ms3.Vec {
	return ms3.Vec{
		X: a.Y*b.Z - a.Z*b.Y,
		Y: a.Z*b.X - a.X*b.Z,
		Z: a.X*b.Y - a.Y*b.X,
	}
}

// randUnit draws a uniformly distributed unit vector.
func randUnit(r *rand.Rand) ms3.Vec {
	for {
		v := ms3.Vec{
			X: float32(r.NormFloat64()),
			Y: float32(r.NormFloat64()),
			Z: float32(r.NormFloat64()),
		}
		n := ms3.Norm(v)
		if n > 1e-4 {
			return ms3.Scale(1/n, v)
		}
	}
}

// jitterDir perturbs dir by wander-scaled Gaussian noise and renormalizes.
func jitterDir(r *rand.Rand, dir ms3.Vec, wander float32) ms3.Vec {
	v := ms3.Add(dir, ms3.Scale(wander, randUnit(r)))
	n := ms3.Norm(v)
	if n < 1e-4 {
		return dir
	}
	return ms3.Scale(1/n, v)
}

// CanalMazeParams parameterizes the canal maze scenario.
type CanalMazeParams struct {
	// Cells is the maze side length in cells; the maze is Cells x Cells.
	Cells    int
	CellSize float32
	// CanalWidth and CanalDepth size the channels carved into the slab top.
	CanalWidth float32
	CanalDepth float32
	// SlabThickness is the total slab height.
	SlabThickness float32
	GridRes       int
}

// DefaultCanalMazeParams returns the parameters used by the scenario registry.
func DefaultCanalMazeParams() CanalMazeParams {
	return CanalMazeParams{
		Cells:         5,
		CellSize:      1.2,
		CanalWidth:    0.5,
		CanalDepth:    0.6,
		SlabThickness: 1.5,
		GridRes:       48,
	}
}

// CanalMaze builds a slab with a perfect maze of canals carved into its top
// face. Maze topology comes from a recursive backtracker driven by the
// scenario's random source, so a (seed, namespace) pair fixes the maze.
func CanalMaze(seed uint64, p CanalMazeParams) (*Scenario, error) {
	if p.Cells < 2 {
		return nil, errors.New("canal maze needs at least 2x2 cells")
	}
	if p.CanalWidth <= 0 || p.CanalWidth >= p.CellSize {
		return nil, errors.New("canal width must be positive and smaller than cell size")
	}
	if p.CanalDepth <= 0 || p.CanalDepth >= p.SlabThickness {
		return nil, errors.New("canal depth must be positive and smaller than slab thickness")
	}
	if p.GridRes < 2 {
		return nil, errors.New("canal maze grid resolution too small")
	}
	bld := sdfscene.Builder{NoPanic: true}
	r := NewRand(seed, "canal_maze")

	n := p.Cells
	extent := float32(n) * p.CellSize
	slab := bld.NewBox(extent, extent, p.SlabThickness, 0)
	topZ := p.SlabThickness / 2

	cellCenter := func(i, j int) ms3.Vec {
		return ms3.Vec{
			X: -extent/2 + p.CellSize*(float32(i)+0.5),
			Y: -extent/2 + p.CellSize*(float32(j)+0.5),
		}
	}
	// Channel boxes reach CanalDepth below the top face and protrude above
	// it so the carve cuts cleanly through the surface.
	chanH := 2 * p.CanalDepth
	chanZ := topZ - p.CanalDepth + chanH/2
	var canals []field.Field
	carvePassage := func(ai, aj, bi, bj int) {
		a := cellCenter(ai, aj)
		b := cellCenter(bi, bj)
		mid := ms3.Scale(0.5, ms3.Add(a, b))
		dx := p.CanalWidth
		dy := p.CanalWidth
		if ai != bi {
			dx = p.CellSize + p.CanalWidth
		} else {
			dy = p.CellSize + p.CanalWidth
		}
		ch := bld.NewBox(dx, dy, chanH, 0)
		canals = append(canals, bld.Translate(ch, mid.X, mid.Y, chanZ))
	}

	// Recursive backtracker over the cell grid.
	visited := make([]bool, n*n)
	type cell struct{ i, j int }
	stack := []cell{{0, 0}}
	visited[0] = true
	deltas := [4]cell{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	for len(stack) > 0 {
		c := stack[len(stack)-1]
		next := cell{-1, -1}
		for _, k := range r.Perm(4) {
			d := deltas[k]
			ni, nj := c.i+d.i, c.j+d.j
			if ni < 0 || nj < 0 || ni >= n || nj >= n || visited[nj*n+ni] {
				continue
			}
			next = cell{ni, nj}
			break
		}
		if next.i < 0 {
			stack = stack[:len(stack)-1]
			continue
		}
		carvePassage(c.i, c.j, next.i, next.j)
		visited[next.j*n+next.i] = true
		stack = append(stack, next)
	}

	tree := bld.Difference(slab, canals...)
	if err := bld.Err(); err != nil {
		return nil, err
	}
	meta := map[string]any{
		"cells":       n,
		"cell_size":   p.CellSize,
		"canal_width": p.CanalWidth,
		"canal_depth": p.CanalDepth,
		"passages":    len(canals),
	}
	return newScenario("canal_maze", seed, "Slab with a perfect maze of canals carved into its top face.", tree, p.GridRes, meta)
}

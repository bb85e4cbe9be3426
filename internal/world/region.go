package world

import (
	"math"
	"sort"

	"tileworld/internal/config"
)

// Cell is a tile position in global world space. Y grows upward.
type Cell struct {
	X int
	Y int
}

// ChunkCoord identifies a chunk in global chunk space.
type ChunkCoord struct {
	X int
	Y int
}

// Bounds is an axis-aligned rectangle represented by inclusive min/max corners in tile space.
type Bounds struct {
	Min Cell
	Max Cell
}

func (b Bounds) Width() int  { return b.Max.X - b.Min.X + 1 }
func (b Bounds) Height() int { return b.Max.Y - b.Min.Y + 1 }

func (b Bounds) Contains(x, y int) bool {
	return x >= b.Min.X && x <= b.Max.X && y >= b.Min.Y && y <= b.Max.Y
}

// Grid maps tile space onto square chunks of ChunkSize tiles.
type Grid struct {
	ChunkSize int
}

func NewGrid(cfg *config.Config) Grid {
	return Grid{ChunkSize: cfg.World.ChunkSize}
}

func (g Grid) ChunkOf(x, y int) ChunkCoord {
	return ChunkCoord{
		X: FloorDiv(x, g.ChunkSize),
		Y: FloorDiv(y, g.ChunkSize),
	}
}

// ChunkAtPosition returns the chunk containing a continuous world position.
func (g Grid) ChunkAtPosition(x, y float64) ChunkCoord {
	return g.ChunkOf(int(math.Floor(x)), int(math.Floor(y)))
}

func (g Grid) ChunkBounds(coord ChunkCoord) Bounds {
	min := Cell{X: coord.X * g.ChunkSize, Y: coord.Y * g.ChunkSize}
	return Bounds{
		Min: min,
		Max: Cell{X: min.X + g.ChunkSize - 1, Y: min.Y + g.ChunkSize - 1},
	}
}

// Around returns every chunk within Chebyshev distance radius of center,
// ordered nearest first, then by row and column.
func (g Grid) Around(center ChunkCoord, radius int) []ChunkCoord {
	if radius < 0 {
		return nil
	}
	side := 2*radius + 1
	coords := make([]ChunkCoord, 0, side*side)
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			coords = append(coords, ChunkCoord{X: center.X + dx, Y: center.Y + dy})
		}
	}
	sort.SliceStable(coords, func(i, j int) bool {
		di, dj := chebyshev(center, coords[i]), chebyshev(center, coords[j])
		if di != dj {
			return di < dj
		}
		if coords[i].Y != coords[j].Y {
			return coords[i].Y < coords[j].Y
		}
		return coords[i].X < coords[j].X
	})
	return coords
}

func chebyshev(a, b ChunkCoord) int {
	dx := absInt(a.X - b.X)
	dy := absInt(a.Y - b.Y)
	if dx > dy {
		return dx
	}
	return dy
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// FloorDiv divides rounding toward negative infinity so that negative tile
// coordinates land in negative chunks.
func FloorDiv(value, size int) int {
	if size <= 0 {
		return 0
	}
	if value >= 0 {
		return value / size
	}
	return -((-value + size - 1) / size)
}

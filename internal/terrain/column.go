package terrain

import (
	"math"

	"tileworld/internal/world"
)

// SurfaceHeight returns the y of the first air cell of column x before
// features. It depends on x only.
func (g *Generator) SurfaceHeight(x int) int {
	t := g.cfg.Terrain
	fx := float64(x) * t.Frequency
	v := t.HeightVariation

	h1 := (g.sampler.Noise1D(StreamSurface, fx) - 0.5) * (v * 2)
	h2 := (g.sampler.Noise1D(StreamSurfaceDetail, fx*2) - 0.5) * v
	h3 := (g.sampler.Noise1D(StreamSurfaceFine, fx*4) - 0.5) * (v * 0.5)

	surface := g.cfg.World.GroundLevel + int(math.Round(h1+h2+h3))
	if t.ClampSurface {
		if surface < t.MinSurfaceY {
			surface = t.MinSurfaceY
		}
		if surface > t.MaxSurfaceY {
			surface = t.MaxSurfaceY
		}
	}
	return surface
}

// GroundHeight returns the y of the topmost terrain cell of column x.
func (g *Generator) GroundHeight(x int) int {
	return g.SurfaceHeight(x) - 1
}

func (g *Generator) MagmaPlane() int {
	return g.cfg.World.MagmaPlaneY
}

// SampleBase classifies (x, y) before features, decorations and edits.
func (g *Generator) SampleBase(x, y int) world.TileCode {
	return g.sampleBase(x, y, g.SurfaceHeight(x))
}

func (g *Generator) sampleBase(x, y, surface int) world.TileCode {
	if y < g.cfg.World.MagmaPlaneY {
		return world.Lava
	}
	if code, ok := g.islandTile(x, y); ok {
		return code
	}
	if y >= surface {
		return world.Air
	}
	if g.entranceCarved(x, y, surface) {
		return world.Air
	}
	if g.caveCarved(x, y, surface) {
		return world.Air
	}
	return stratum(y, surface)
}

func stratum(y, surface int) world.TileCode {
	switch {
	case y >= surface-1:
		return world.Grass
	case y >= surface-5:
		return world.Dirt
	default:
		return world.Stone
	}
}

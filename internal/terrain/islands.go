package terrain

import "tileworld/internal/world"

func (g *Generator) islandSolid(x, y int) bool {
	is := g.cfg.Islands
	if y < is.MinY || y > is.MaxY {
		return false
	}
	n := g.sampler.Noise2D(StreamIsland, float64(x)*is.Frequency, float64(y)*is.Frequency)
	return n > is.Threshold
}

// islandTile returns the floating island material at (x, y): grass on the
// exposed top, one layer of dirt and the configured core below.
func (g *Generator) islandTile(x, y int) (world.TileCode, bool) {
	if !g.cfg.Islands.Enabled || !g.islandSolid(x, y) {
		return world.Air, false
	}
	if !g.islandSolid(x, y+1) {
		return world.Grass, true
	}
	if !g.islandSolid(x, y+2) {
		return world.Dirt, true
	}
	return g.islandCore, true
}

package terrain

import "tileworld/internal/world"

// foregroundSample is the procedural foreground before decorations and
// edits: the base tile with trunks on top.
func (g *Generator) foregroundSample(x, y int) world.TileCode {
	code := g.SampleBase(x, y)
	if code != world.Lava && g.trunkCovers(x, y) {
		return world.Wood
	}
	return code
}

// solidBelow reports whether the cell under (x, y) can carry a decoration.
// The buffer being generated wins, then any cell the reader has rendered
// (a dug Air cell included), then the procedural foreground.
func (g *Generator) solidBelow(buf *world.Chunk, reader world.TileReader, x, y int) bool {
	below := y - 1
	if code, ok := buf.Tile(world.Foreground, x, below); ok {
		return code.SupportsDecoration()
	}
	if reader != nil {
		if code, rendered := reader.Tile(world.Foreground, x, below); rendered {
			return code.SupportsDecoration()
		}
	}
	return g.foregroundSample(x, below).SupportsDecoration()
}

// decorateSurface places flowers and small stones on the first air cell of
// every column.
func (g *Generator) decorateSurface(buf *world.Chunk, reader world.TileReader, surfaces []int) {
	d := g.cfg.Decorations
	b := buf.Bounds
	for i, surface := range surfaces {
		x := b.Min.X + i
		if surface < b.Min.Y || surface > b.Max.Y {
			continue
		}
		if code, _ := buf.Tile(world.Foreground, x, surface); code != world.Air {
			continue
		}
		if !g.solidBelow(buf, reader, x, surface) {
			continue
		}
		h := g.sampler.Hash(x, 0, SaltFlower)
		r := unit(h)
		switch {
		case r < d.FlowerChance:
			flower := world.FlowerA
			if subUnit(h, 1) < d.FlowerBPortion {
				flower = world.FlowerB
			}
			buf.SetTile(world.Foreground, x, surface, flower)
		case r < d.FlowerChance+d.SurfaceStoneChance:
			buf.SetTile(world.Foreground, x, surface, world.SurfaceStone)
		}
	}
}

// decorateCaveRow scatters small stones on cave floors of row y, keeping
// clear of the two rows under the surface.
func (g *Generator) decorateCaveRow(buf *world.Chunk, reader world.TileReader, surfaces []int, y int) {
	chance := g.cfg.Decorations.CaveStoneChance
	if chance <= 0 {
		return
	}
	b := buf.Bounds
	for i, surface := range surfaces {
		if y >= surface-2 {
			continue
		}
		x := b.Min.X + i
		if code, _ := buf.Tile(world.Foreground, x, y); code != world.Air {
			continue
		}
		if g.sampler.Sample(x, y, SaltCaveStone) >= chance {
			continue
		}
		if !g.solidBelow(buf, reader, x, y) {
			continue
		}
		buf.SetTile(world.Foreground, x, y, world.CaveStone)
	}
}

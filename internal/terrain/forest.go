package terrain

import (
	"math"

	"tileworld/internal/config"
	"tileworld/internal/world"
)

// Tree is one procedurally placed tree anchored at column X.
type Tree struct {
	X          int
	Surface    int
	Height     int
	TrunkWidth int
	Giant      bool
}

// trunkSpan returns the inclusive columns covered by the trunk.
func (t Tree) trunkSpan() (int, int) {
	return t.X - (t.TrunkWidth-1)/2, t.X + t.TrunkWidth/2
}

// Crown returns the canopy centre.
func (t Tree) Crown() (int, int) {
	return t.X, t.Surface + t.Height
}

type branch struct {
	startX    int
	startY    int
	dir       int
	length    int
	slope     float64
	thickness int
}

// TreeAt returns the tree anchored at column x, if any.
func (g *Generator) TreeAt(x int) (Tree, bool) {
	tc := g.cfg.Trees
	if !tc.Enabled && !tc.Giant {
		return Tree{}, false
	}

	surface := g.SurfaceHeight(x)
	if absInt(g.SurfaceHeight(x-1)-g.SurfaceHeight(x+1)) > 3 {
		return Tree{}, false
	}
	if surface <= g.cfg.World.MagmaPlaneY+2 {
		return Tree{}, false
	}

	if tc.Giant {
		cluster := floorDiv(x, tc.GiantClusterSize)
		h := g.sampler.Hash(cluster, 0, SaltGiant)
		if unit(h) < tc.GiantChance {
			center := cluster*tc.GiantClusterSize + int(subUnit(h, 1)*float64(tc.GiantClusterSize-8)) + 4
			switch {
			case x == center:
				return Tree{
					X:          x,
					Surface:    surface,
					Height:     rangeInt(subUnit(h, 3), tc.GiantHeight.Min, tc.GiantHeight.Max),
					TrunkWidth: max(1, rangeInt(subUnit(h, 2), tc.GiantTrunkWidth.Min, tc.GiantTrunkWidth.Max)),
					Giant:      true,
				}, true
			case absInt(x-center) <= 1:
				return Tree{}, false
			}
		}
	}

	if !tc.Enabled {
		return Tree{}, false
	}
	h := g.sampler.Hash(x, 0, SaltTree)
	if unit(h) >= tc.NormalChance {
		return Tree{}, false
	}
	height := rangeInt(subUnit(h, 1), tc.NormalHeight.Min, tc.NormalHeight.Max)
	if height <= 0 {
		return Tree{}, false
	}
	return Tree{
		X:          x,
		Surface:    surface,
		Height:     height,
		TrunkWidth: max(1, tc.TrunkWidth),
	}, true
}

// TreesInRange enumerates trees anchored in [minX, maxX] in ascending x.
func (g *Generator) TreesInRange(minX, maxX int) []Tree {
	var trees []Tree
	for x := minX; x <= maxX; x++ {
		if t, ok := g.TreeAt(x); ok {
			trees = append(trees, t)
		}
	}
	return trees
}

// FeatureKey identifies the crown of t across chunk boundaries.
func (g *Generator) FeatureKey(t Tree) world.FeatureKey {
	return world.FeatureKey(g.sampler.Hash(t.X, t.Surface, SaltFeatureKey))
}

func (g *Generator) branches(t Tree) []branch {
	tc := g.cfg.Trees
	countRange, lengthRange := tc.NormalBranches, tc.NormalBranchLength
	slopeMax := 0.9
	if t.Giant {
		countRange, lengthRange = tc.GiantBranches, tc.GiantBranchLength
		slopeMax = 1.2
	}
	count := rangeInt(g.sampler.Sample(t.X, 0, SaltBranch), countRange.Min, countRange.Max)
	if count <= 0 {
		return nil
	}

	minY := t.Surface + t.Height/3
	maxY := t.Surface + t.Height - 3
	left, right := t.trunkSpan()

	out := make([]branch, 0, count)
	for i := 0; i < count; i++ {
		h := g.sampler.Hash(t.X, i+1, SaltBranch)
		b := branch{
			dir:       1,
			length:    rangeInt(subUnit(h, 1), lengthRange.Min, lengthRange.Max),
			startY:    int(math.Round(lerp(float64(minY), float64(maxY), subUnit(h, 2)))),
			slope:     tc.BranchSlope * lerp(0.5, slopeMax, subUnit(h, 3)),
			thickness: max(1, tc.BranchThickness),
			startX:    right + 1,
		}
		if unit(h) < 0.5 {
			b.dir = -1
			b.startX = left - 1
		}
		if b.length > 0 {
			out = append(out, b)
		}
	}
	return out
}

func (g *Generator) canopyRadius(t Tree) int {
	r := g.cfg.Canopy.NormalRadius
	if t.Giant {
		r = g.cfg.Canopy.GiantRadius
	}
	return max(3, rangeInt(g.sampler.Sample(t.X, 0, SaltCanopy), r.Min, r.Max))
}

// featureMargin is how far outside a region a tree anchor can still touch it.
func featureMargin(cfg *config.Config) int {
	tc := cfg.Trees
	widest := max(tc.TrunkWidth, tc.GiantTrunkWidth.Max)
	longest := max(tc.NormalBranchLength.Max, tc.GiantBranchLength.Max)
	branchReach := widest/2 + 1 + longest + tc.BranchThickness

	canopyReach := 0
	if cfg.Canopy.Mode == config.CanopyTiles {
		canopyReach = max(3, max(cfg.Canopy.NormalRadius.Max, cfg.Canopy.GiantRadius.Max)) + 2
	}
	return max(tc.BranchMargin, max(branchReach, canopyReach))
}

// drawTrunk writes Wood over [Surface, Surface+Height) for every trunk column.
func (g *Generator) drawTrunk(buf *world.Chunk, t Tree) {
	left, right := t.trunkSpan()
	b := buf.Bounds
	for x := max(left, b.Min.X); x <= min(right, b.Max.X); x++ {
		for y := max(t.Surface, b.Min.Y); y <= min(t.Surface+t.Height-1, b.Max.Y); y++ {
			if code, _ := buf.Tile(world.Foreground, x, y); code == world.Lava {
				continue
			}
			buf.SetTile(world.Foreground, x, y, world.Wood)
		}
	}
}

// trunkCovers reports whether any trunk occupies (x, y).
func (g *Generator) trunkCovers(x, y int) bool {
	reach := max(g.cfg.Trees.TrunkWidth, g.cfg.Trees.GiantTrunkWidth.Max) / 2
	for ax := x - reach; ax <= x+reach; ax++ {
		t, ok := g.TreeAt(ax)
		if !ok {
			continue
		}
		left, right := t.trunkSpan()
		if x >= left && x <= right && y >= t.Surface && y < t.Surface+t.Height {
			return true
		}
	}
	return false
}

// drawBranches plots sloped platforms that only fill open air.
func (g *Generator) drawBranches(buf *world.Chunk, t Tree) {
	b := buf.Bounds
	for _, br := range g.branches(t) {
		endX := br.startX + br.dir*br.length
		if max(br.startX, endX) < b.Min.X || min(br.startX, endX) > b.Max.X {
			continue
		}
		for i := 0; i <= br.length; i++ {
			px := br.startX + br.dir*i
			if px < b.Min.X || px > b.Max.X {
				continue
			}
			noise := g.sampler.Noise2D(StreamBranchWiggle, float64(px)*0.15, float64(br.startY)*0.15)
			rise := br.slope*float64(i) + (noise-0.5)*g.cfg.Trees.BranchWiggle*float64(br.length)
			py := br.startY + int(math.Round(rise))
			for y := py - (br.thickness-1)/2; y <= py+br.thickness/2; y++ {
				if y < b.Min.Y || y > b.Max.Y {
					continue
				}
				if code, _ := buf.Tile(world.Foreground, px, y); code != world.Air {
					continue
				}
				if g.SampleBase(px, y) != world.Air {
					continue
				}
				buf.SetTile(world.Foreground, px, y, world.Branch)
			}
		}
	}
}

// drawCanopy paints background leaves inside a noise perturbed disc.
func (g *Generator) drawCanopy(buf *world.Chunk, t Tree) {
	radius := g.canopyRadius(t)
	cx, cy := t.Crown()
	b := buf.Bounds

	minX, maxX := max(b.Min.X, cx-radius-2), min(b.Max.X, cx+radius+2)
	minY, maxY := max(b.Min.Y, cy-radius-2), min(b.Max.Y, cy+radius+2)
	r := float64(radius)
	irregularity := g.cfg.Canopy.EdgeNoise

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			dx, dy := float64(x-cx), float64(y-cy)
			dist2 := dx*dx + dy*dy
			if dist2 > r*r*1.3 {
				continue
			}
			edge := 1 + (g.sampler.Noise2D(StreamCanopyEdge, float64(x)*0.1, float64(y)*0.1)-0.5)*irregularity*2
			if dist2 > (r*edge)*(r*edge) {
				continue
			}
			if g.SampleBase(x, y) != world.Air {
				continue
			}
			buf.SetTile(world.Background, x, y, world.Leaf)
		}
	}
}

// canopyProp requests a crown prop when the crown point lies inside the buffer.
func (g *Generator) canopyProp(buf *world.Chunk, t Tree) (world.PropRequest, bool) {
	cx, cy := t.Crown()
	if !buf.Bounds.Contains(cx, cy) {
		return world.PropRequest{}, false
	}
	return world.PropRequest{
		Key:    g.FeatureKey(t),
		Prefab: g.cfg.Canopy.Prefab,
		X:      float64(cx) + 0.5,
		Y:      float64(cy) + 0.5,
	}, true
}

// growForest draws every tree that can reach buf: trunks first, then
// branches, then canopies, so overlapping trees resolve the same way in every
// chunk.
func (g *Generator) growForest(buf *world.Chunk) []world.PropRequest {
	margin := g.margin
	trees := g.TreesInRange(buf.Bounds.Min.X-margin, buf.Bounds.Max.X+margin)
	if len(trees) == 0 {
		return nil
	}
	for _, t := range trees {
		g.drawTrunk(buf, t)
	}
	for _, t := range trees {
		g.drawBranches(buf, t)
	}

	var props []world.PropRequest
	switch g.cfg.Canopy.Mode {
	case config.CanopyTiles:
		for _, t := range trees {
			g.drawCanopy(buf, t)
		}
	case config.CanopyProps:
		for _, t := range trees {
			if req, ok := g.canopyProp(buf, t); ok {
				props = append(props, req)
			}
		}
	}
	return props
}

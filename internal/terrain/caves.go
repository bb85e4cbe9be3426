package terrain

import "math"

// caveCarved reports whether any enabled cave mechanism opens (x, y). Carving
// stays clear of the surface by the roof padding and of the magma plane by the
// floor padding.
func (g *Generator) caveCarved(x, y, surface int) bool {
	c := g.cfg.Caves
	magma := g.cfg.World.MagmaPlaneY
	if y < magma+c.FloorPadding || y >= surface-c.RoofPadding {
		return false
	}
	if c.Worms && g.wormCarved(x, y) {
		return true
	}
	if c.Chambers && g.chamberCarved(x, y) {
		return true
	}
	if c.Blobs && g.blobCarved(x, y) {
		return true
	}
	return false
}

// chamberCarved opens ridged noise chambers in the band just above the magma
// plane. The threshold relaxes toward the plane so chambers grow with depth.
func (g *Generator) chamberCarved(x, y int) bool {
	c := g.cfg.Caves
	if c.LavaCarveHeight <= 0 {
		return false
	}
	dy := y - g.cfg.World.MagmaPlaneY
	if dy > c.LavaCarveHeight {
		return false
	}
	t := 1 - clamp01(float64(dy)/float64(c.LavaCarveHeight))
	n := g.sampler.Noise2D(StreamChamber, float64(x)*c.ChamberFrequency, float64(y)*c.ChamberFrequency)
	threshold := lerp(c.ChamberThreshold, c.ChamberThreshold*0.5, t)
	return Ridged(n) > threshold
}

func (g *Generator) blobCarved(x, y int) bool {
	c := g.cfg.Caves
	fx, fy := float64(x)*c.BlobFrequency, float64(y)*c.BlobFrequency
	n := (g.sampler.Noise2D(StreamBlob, fx, fy) + g.sampler.Noise2D(StreamBlobDetail, fx*2, fy*2)) * 0.5
	return n < c.BlobThreshold
}

// worm is one tunnel centreline owned by a region.
type worm struct {
	base   float64 // y for horizontal worms, x for vertical ones
	center float64 // region centre along the travel axis
	amp    float64
	phase  float64
	offset float64 // wiggle noise offset
	radius float64
}

func (g *Generator) regionWorm(rx, ry, index int, vertical bool) worm {
	c := g.cfg.Caves
	size := float64(c.WormRegionSize)
	h := sub(g.sampler.Hash(rx, ry, SaltWorm), index*2)
	ampMin, ampMax := c.WormAmplitude.Min, c.WormAmplitude.Max
	w := worm{
		phase:  subUnit(h, 3) * 2 * math.Pi,
		offset: subUnit(h, 4) * perlinPeriod,
		radius: c.WormBaseRadius * lerp(0.8, 1.4, subUnit(h, 5)),
	}
	if vertical {
		h = sub(h, 1)
		ampMin, ampMax = ampMin*0.7, ampMax*0.8
		w.base = float64(rx)*size + subUnit(h, 1)*size
		w.center = float64(ry)*size + size/2
	} else {
		w.base = float64(ry)*size + subUnit(h, 1)*size
		w.center = float64(rx)*size + size/2
	}
	w.amp = rangeFloat(subUnit(h, 2), ampMin, ampMax)
	return w
}

// wormCarved checks the worms of the 3×3 regions around (x, y). Each worm
// fades out one region length from its region centre, so the neighbourhood
// always contains every worm that can reach the cell.
func (g *Generator) wormCarved(x, y int) bool {
	c := g.cfg.Caves
	size := c.WormRegionSize
	rx, ry := floorDiv(x, size), floorDiv(y, size)
	fx, fy := float64(x), float64(y)

	boost := 1.0
	magma := g.cfg.World.MagmaPlaneY
	if c.LavaCarveHeight > 0 && y < magma+c.LavaCarveHeight {
		nearMagma := 1 - clamp01(float64(y-magma)/float64(c.LavaCarveHeight))
		boost += 1.5 * nearMagma
	}

	for oy := -1; oy <= 1; oy++ {
		for ox := -1; ox <= 1; ox++ {
			crx, cry := rx+ox, ry+oy
			for i := 0; i < c.WormsHorizontal; i++ {
				w := g.regionWorm(crx, cry, i, false)
				if g.wormHit(w, fx, fy, boost) {
					return true
				}
			}
			for i := 0; i < c.WormsVertical; i++ {
				w := g.regionWorm(crx, cry, i, true)
				if g.wormHit(w, fy, fx, boost) {
					return true
				}
			}
		}
	}
	return false
}

// wormHit tests a cell given its coordinate along the worm (along) and across
// it (across).
func (g *Generator) wormHit(w worm, along, across, boost float64) bool {
	size := float64(g.cfg.Caves.WormRegionSize)
	edge := math.Abs(along-w.center) / size
	if edge >= 1 {
		return false
	}
	taper := clampFloat((1-edge)*4, 0, 1)

	wiggle := (g.sampler.Periodic1D(StreamWormWiggle, along*0.05+w.offset) - 0.5) * w.amp * 0.5
	mid := w.base + w.amp*math.Sin(along*g.cfg.Caves.WormCurveFrequency+w.phase) + wiggle
	radius := w.radius * boost * taper
	return math.Abs(across-mid) <= radius
}

// entranceCarved opens tapered shafts from the surface down. Entrances ignore
// the cave roof padding. Neighbouring clusters are checked because a wobbling
// shaft can lean across a cluster border.
func (g *Generator) entranceCarved(x, y, surface int) bool {
	e := g.cfg.Entrances
	if !e.Enabled || y >= surface {
		return false
	}
	cluster := floorDiv(x, e.ClusterSize)
	for c := cluster - 1; c <= cluster+1; c++ {
		if g.entranceHit(c, x, y, surface) {
			return true
		}
	}
	return false
}

func (g *Generator) entranceHit(cluster, x, y, surface int) bool {
	e := g.cfg.Entrances
	h := g.sampler.Hash(cluster, 0, SaltEntrance)
	if unit(h) >= e.Chance {
		return false
	}
	offset := int(subUnit(h, 1)*float64(e.ClusterSize-6)) + 3
	centerX := float64(cluster*e.ClusterSize + offset)

	depth := rangeInt(subUnit(h, 2), e.Depth.Min, e.Depth.Max)
	if y < surface-depth {
		return false
	}

	d := float64(surface - y)
	wobble := math.Sin(d*e.WobbleFrequency+subUnit(h, 3)*2*math.Pi) * e.WobbleAmplitude
	center := centerX + wobble

	radius := e.BaseRadius*e.TopWiden - e.Taper*d*e.BaseRadius
	if radius < 0.6 {
		radius = 0.6
	}
	radius *= lerp(0.9, 1.15, g.sampler.Sample(x, y, SaltEntranceJitter))
	return math.Abs(float64(x)-center) <= radius
}

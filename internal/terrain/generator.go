package terrain

import (
	"math"

	"tileworld/internal/config"
	"tileworld/internal/world"
)

// Generator produces tiles for any region of an infinite world. It holds no
// mutable state, so jobs for different chunks may run side by side.
type Generator struct {
	cfg        *config.Config
	sampler    *Sampler
	margin     int
	islandCore world.TileCode
}

func NewGenerator(cfg *config.Config) *Generator {
	core := world.Stone
	if cfg.Islands.Core == "cloud" {
		core = world.Cloud
	}
	return &Generator{
		cfg:        cfg,
		sampler:    NewSampler(cfg.World.Seed),
		margin:     featureMargin(cfg),
		islandCore: core,
	}
}

func (g *Generator) Sampler() *Sampler {
	return g.sampler
}

// Margin is the distance outside a region searched for tree anchors.
func (g *Generator) Margin() int {
	return g.margin
}

type jobPhase int

const (
	phaseBase jobPhase = iota
	phaseFeatures
	phaseSurfaceDecorations
	phaseCaveDecorations
	phaseDone
)

// chunkJob generates one region in resumable steps. A base row, the feature
// pass, the surface decoration pass and a cave decoration row each cost one
// work unit.
type chunkJob struct {
	g        *Generator
	reader   world.TileReader
	buf      *world.Chunk
	surfaces []int
	phase    jobPhase
	row      int
	props    []world.PropRequest
}

// Begin starts a job for bounds. reader exposes already rendered neighbours
// and may be nil.
func (g *Generator) Begin(coord world.ChunkCoord, bounds world.Bounds, reader world.TileReader) world.Job {
	return g.begin(coord, bounds, reader)
}

func (g *Generator) begin(coord world.ChunkCoord, bounds world.Bounds, reader world.TileReader) *chunkJob {
	surfaces := make([]int, bounds.Width())
	for i := range surfaces {
		surfaces[i] = g.SurfaceHeight(bounds.Min.X + i)
	}
	return &chunkJob{
		g:        g,
		reader:   reader,
		buf:      world.NewChunk(coord, bounds),
		surfaces: surfaces,
	}
}

func (j *chunkJob) Step(budget int) (int, bool) {
	if budget < 1 {
		budget = 1
	}
	spent := 0
	decorate := j.g.cfg.Decorations.Enabled
	for spent < budget && j.phase != phaseDone {
		switch j.phase {
		case phaseBase:
			j.baseRow(j.buf.Bounds.Min.Y + j.row)
			j.row++
			spent++
			if j.row >= j.buf.Bounds.Height() {
				j.phase, j.row = phaseFeatures, 0
			}
		case phaseFeatures:
			if j.g.cfg.Trees.Enabled || j.g.cfg.Trees.Giant {
				j.props = j.g.growForest(j.buf)
			}
			spent++
			j.phase = phaseSurfaceDecorations
			if !decorate {
				j.phase = phaseDone
			}
		case phaseSurfaceDecorations:
			j.g.decorateSurface(j.buf, j.reader, j.surfaces)
			spent++
			j.phase = phaseCaveDecorations
		case phaseCaveDecorations:
			j.g.decorateCaveRow(j.buf, j.reader, j.surfaces, j.buf.Bounds.Min.Y+j.row)
			j.row++
			spent++
			if j.row >= j.buf.Bounds.Height() {
				j.phase = phaseDone
			}
		}
	}
	return spent, j.phase == phaseDone
}

func (j *chunkJob) baseRow(y int) {
	b := j.buf.Bounds
	for i, surface := range j.surfaces {
		x := b.Min.X + i
		j.buf.SetTile(world.Foreground, x, y, j.g.sampleBase(x, y, surface))
	}
}

func (j *chunkJob) Result() *world.Chunk {
	return j.buf
}

func (j *chunkJob) Props() []world.PropRequest {
	return j.props
}

// GenerateRegion runs a full job over an arbitrary rectangle with no
// neighbouring context.
func (g *Generator) GenerateRegion(originX, originY, w, h int) *world.Chunk {
	bounds := world.Bounds{
		Min: world.Cell{X: originX, Y: originY},
		Max: world.Cell{X: originX + w - 1, Y: originY + h - 1},
	}
	job := g.begin(world.ChunkCoord{}, bounds, nil)
	job.Step(math.MaxInt)
	return job.buf
}

// GenerateChunk runs a full job for coord on grid.
func (g *Generator) GenerateChunk(grid world.Grid, coord world.ChunkCoord, reader world.TileReader) (*world.Chunk, []world.PropRequest) {
	job := g.begin(coord, grid.ChunkBounds(coord), reader)
	job.Step(math.MaxInt)
	return job.buf, job.props
}

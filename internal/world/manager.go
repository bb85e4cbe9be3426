package world

import (
	"log"
	"math"
	"sort"
	"sync"

	"tileworld/internal/config"
)

// Job is one resumable chunk generation.
type Job interface {
	// Step performs at most budget work units and reports how many were used
	// and whether the job is finished. A positive budget always makes progress.
	Step(budget int) (spent int, done bool)
	// Result returns the generated buffers once the job is done.
	Result() *Chunk
	// Props lists the props the finished chunk owns.
	Props() []PropRequest
}

// Generator describes procedural population of chunks.
type Generator interface {
	Begin(coord ChunkCoord, bounds Bounds, reader TileReader) Job
	SampleBase(x, y int) TileCode
	SurfaceHeight(x int) int
	MagmaPlane() int
}

// Viewer reports the continuous world position streaming is centred on.
type Viewer interface {
	Position() (x, y float64)
}

// ViewerFunc adapts a function to the Viewer interface.
type ViewerFunc func() (float64, float64)

func (f ViewerFunc) Position() (float64, float64) { return f() }

// Options carries the streaming limits of a Manager.
type Options struct {
	Grid            Grid
	ViewRadius      int
	ChunksPerTick   int
	ClearsPerTick   int
	RowsPerTick     int // work units per tick, <= 0 means unbounded
	CompactEvery    int
	CancelUndesired bool
}

func NewOptions(cfg *config.Config) Options {
	return Options{
		Grid:            NewGrid(cfg),
		ViewRadius:      cfg.Streaming.ViewRadius,
		ChunksPerTick:   cfg.Streaming.ChunksPerTick,
		ClearsPerTick:   cfg.Streaming.ClearsPerTick,
		RowsPerTick:     cfg.Streaming.RowsPerTick,
		CompactEvery:    cfg.Streaming.CompactEvery,
		CancelUndesired: cfg.Streaming.CancelUndesired,
	}
}

// Stats is a snapshot of scheduler counters.
type Stats struct {
	Generated   int
	Cleared     int
	Cancelled   int
	Loaded      int
	Desired     int
	GenQueued   int
	ClearQueued int
	InFlight    bool
	Props       int
	Edits       int
}

// TickResult describes the work done by one Tick.
type TickResult struct {
	Generated int
	Cleared   int
	Units     int
}

type inflight struct {
	coord ChunkCoord
	job   Job
}

// Manager streams chunks around a viewer into a sink, a bounded amount of
// work per tick.
type Manager struct {
	opts      Options
	generator Generator
	sink      Sink
	viewer    Viewer
	edits     *EditOverlay
	features  *featureIndex

	mu          sync.Mutex
	haveCenter  bool
	center      ChunkCoord
	desired     map[ChunkCoord]struct{}
	desiredList []ChunkCoord
	loaded      map[ChunkCoord]struct{}
	genQueue    []ChunkCoord
	genQueued   map[ChunkCoord]struct{}
	clearQueue  []ChunkCoord
	clearQueued map[ChunkCoord]struct{}
	current     *inflight
	stats       Stats
}

// NewManager wires a scheduler. edits may be nil for a world without player
// overrides; spawner may be nil when props are not used.
func NewManager(opts Options, generator Generator, sink Sink, viewer Viewer, edits *EditOverlay, spawner PropSpawner) *Manager {
	if opts.Grid.ChunkSize <= 0 {
		opts.Grid.ChunkSize = 64
	}
	if opts.ChunksPerTick <= 0 {
		opts.ChunksPerTick = 1
	}
	if opts.ClearsPerTick <= 0 {
		opts.ClearsPerTick = 1
	}
	if edits == nil {
		edits, _ = NewEditOverlay(generator.MagmaPlane(), nil)
	}
	return &Manager{
		opts:        opts,
		generator:   generator,
		sink:        sink,
		viewer:      viewer,
		edits:       edits,
		features:    newFeatureIndex(spawner),
		desired:     make(map[ChunkCoord]struct{}),
		loaded:      make(map[ChunkCoord]struct{}),
		genQueued:   make(map[ChunkCoord]struct{}),
		clearQueued: make(map[ChunkCoord]struct{}),
	}
}

func (m *Manager) Grid() Grid {
	return m.opts.Grid
}

// Tick polls the viewer once, schedules work and advances generation and
// clearing within the configured per-tick caps.
func (m *Manager) Tick() TickResult {
	x, y := m.viewer.Position()
	center := m.opts.Grid.ChunkAtPosition(x, y)

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.haveCenter || center != m.center {
		m.refreshDesired(center)
	}
	m.enqueueWork()

	var res TickResult
	m.advanceGeneration(&res)
	m.processClears(&res)
	return res
}

func (m *Manager) refreshDesired(center ChunkCoord) {
	m.haveCenter = true
	m.center = center
	m.desiredList = m.opts.Grid.Around(center, m.opts.ViewRadius)
	m.desired = make(map[ChunkCoord]struct{}, len(m.desiredList))
	for _, coord := range m.desiredList {
		m.desired[coord] = struct{}{}
	}
}

func (m *Manager) enqueueWork() {
	for _, coord := range m.desiredList {
		if _, ok := m.loaded[coord]; ok {
			continue
		}
		if _, ok := m.genQueued[coord]; ok {
			continue
		}
		if m.current != nil && m.current.coord == coord {
			continue
		}
		m.genQueue = append(m.genQueue, coord)
		m.genQueued[coord] = struct{}{}
	}

	var stale []ChunkCoord
	for coord := range m.loaded {
		if _, ok := m.desired[coord]; ok {
			continue
		}
		if _, ok := m.clearQueued[coord]; ok {
			continue
		}
		stale = append(stale, coord)
	}
	sort.Slice(stale, func(i, j int) bool {
		if stale[i].Y != stale[j].Y {
			return stale[i].Y < stale[j].Y
		}
		return stale[i].X < stale[j].X
	})
	for _, coord := range stale {
		m.clearQueue = append(m.clearQueue, coord)
		m.clearQueued[coord] = struct{}{}
	}
}

func (m *Manager) advanceGeneration(res *TickResult) {
	remaining := m.opts.RowsPerTick
	if remaining <= 0 {
		remaining = math.MaxInt
	}

	for res.Generated < m.opts.ChunksPerTick && remaining > 0 {
		if m.current == nil {
			coord, ok := m.nextGeneration()
			if !ok {
				return
			}
			bounds := m.opts.Grid.ChunkBounds(coord)
			m.current = &inflight{coord: coord, job: m.generator.Begin(coord, bounds, m.sink)}
		}

		if m.opts.CancelUndesired && !m.isDesired(m.current.coord) && !m.isLoaded(m.current.coord) {
			m.current = nil
			m.stats.Cancelled++
			continue
		}

		spent, done := m.current.job.Step(remaining)
		if spent < 1 {
			spent = 1
		}
		res.Units += spent
		remaining -= spent
		if !done {
			continue
		}
		m.complete(m.current)
		m.current = nil
		res.Generated++
	}
}

// nextGeneration pops the next chunk worth generating. Chunks that left the
// view before their job started are dropped unless they are loaded.
func (m *Manager) nextGeneration() (ChunkCoord, bool) {
	for len(m.genQueue) > 0 {
		coord := m.genQueue[0]
		m.genQueue = m.genQueue[1:]
		delete(m.genQueued, coord)
		if !m.isDesired(coord) && !m.isLoaded(coord) {
			continue
		}
		return coord, true
	}
	return ChunkCoord{}, false
}

func (m *Manager) complete(work *inflight) {
	chunk := work.job.Result()
	m.edits.Apply(chunk)

	blitLayers(m.sink, chunk.Bounds, chunk.Layer(Foreground), chunk.Layer(Background))
	m.features.attach(work.coord, work.job.Props())

	m.loaded[work.coord] = struct{}{}
	m.stats.Generated++
	log.Printf("generated chunk %d,%d", work.coord.X, work.coord.Y)

	if m.opts.CompactEvery > 0 && m.stats.Generated%m.opts.CompactEvery == 0 {
		if c, ok := m.sink.(Compacter); ok {
			c.Compact()
		}
	}
}

func (m *Manager) processClears(res *TickResult) {
	for res.Cleared < m.opts.ClearsPerTick && len(m.clearQueue) > 0 {
		coord := m.clearQueue[0]
		m.clearQueue = m.clearQueue[1:]
		delete(m.clearQueued, coord)

		if m.isDesired(coord) || !m.isLoaded(coord) {
			continue
		}
		clearLayers(m.sink, m.opts.Grid.ChunkBounds(coord))
		m.features.release(coord)
		delete(m.loaded, coord)
		m.stats.Cleared++
		res.Cleared++
	}
}

func (m *Manager) isDesired(coord ChunkCoord) bool {
	_, ok := m.desired[coord]
	return ok
}

func (m *Manager) isLoaded(coord ChunkCoord) bool {
	_, ok := m.loaded[coord]
	return ok
}

// SetEdit overrides the foreground tile at (x, y) and schedules the owning
// chunk for regeneration when it is loaded. Setting Air removes the override,
// so the procedural tile reappears; use Dig to carve a cell out.
func (m *Manager) SetEdit(x, y int, code TileCode) error {
	if code == Air {
		return m.ClearEdit(x, y)
	}
	return m.override(x, y, code)
}

// Dig stores an Air override at (x, y), emptying the cell whatever the
// generator places there.
func (m *Manager) Dig(x, y int) error {
	return m.override(x, y, Air)
}

func (m *Manager) override(x, y int, code TileCode) error {
	if err := m.edits.Set(x, y, code); err != nil {
		return err
	}
	m.mu.Lock()
	m.forceRegeneration(m.opts.Grid.ChunkOf(x, y))
	m.mu.Unlock()
	return nil
}

// ClearEdit removes the override at (x, y) so the procedural tile reappears.
func (m *Manager) ClearEdit(x, y int) error {
	existed, err := m.edits.Clear(x, y)
	if err != nil {
		return err
	}
	if !existed {
		return nil
	}
	m.mu.Lock()
	m.forceRegeneration(m.opts.Grid.ChunkOf(x, y))
	m.mu.Unlock()
	return nil
}

func (m *Manager) forceRegeneration(coord ChunkCoord) {
	if !m.isLoaded(coord) {
		return
	}
	if _, ok := m.genQueued[coord]; ok {
		return
	}
	if _, ok := m.clearQueued[coord]; ok {
		return
	}
	m.genQueue = append([]ChunkCoord{coord}, m.genQueue...)
	m.genQueued[coord] = struct{}{}
}

// TileAt returns the foreground tile at (x, y): the edit if one exists, the
// rendered tile if the sink has one, otherwise the procedural base sample.
func (m *Manager) TileAt(x, y int) TileCode {
	if code, ok := m.edits.Get(x, y); ok {
		return code
	}
	if code, rendered := m.sink.Tile(Foreground, x, y); rendered {
		return code
	}
	return m.generator.SampleBase(x, y)
}

// GroundHeight returns the y of the topmost terrain cell of column x, before
// features and edits.
func (m *Manager) GroundHeight(x int) int {
	return m.generator.SurfaceHeight(x) - 1
}

func (m *Manager) IsLoaded(coord ChunkCoord) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.isLoaded(coord)
}

// Loaded returns the loaded chunks sorted by row then column.
func (m *Manager) Loaded() []ChunkCoord {
	m.mu.Lock()
	out := make([]ChunkCoord, 0, len(m.loaded))
	for coord := range m.loaded {
		out = append(out, coord)
	}
	m.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Y != out[j].Y {
			return out[i].Y < out[j].Y
		}
		return out[i].X < out[j].X
	})
	return out
}

func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.stats
	s.Loaded = len(m.loaded)
	s.Desired = len(m.desired)
	s.GenQueued = len(m.genQueue)
	s.ClearQueued = len(m.clearQueue)
	s.InFlight = m.current != nil
	s.Props = m.features.live()
	s.Edits = m.edits.Len()
	return s
}

// Close releases the edit store.
func (m *Manager) Close() error {
	return m.edits.Close()
}

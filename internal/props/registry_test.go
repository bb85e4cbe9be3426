package props

import (
	"sync"
	"testing"

	"tileworld/internal/config"
	"tileworld/internal/terrain"
	"tileworld/internal/world"
)

type recordingListener struct {
	mu        sync.Mutex
	spawned   []Prop
	destroyed []Prop
}

func (l *recordingListener) PropSpawned(p Prop) {
	l.mu.Lock()
	l.spawned = append(l.spawned, p)
	l.mu.Unlock()
}

func (l *recordingListener) PropDestroyed(p Prop) {
	l.mu.Lock()
	l.destroyed = append(l.destroyed, p)
	l.mu.Unlock()
}

func TestRegistrySpawnAndDestroy(t *testing.T) {
	reg := NewRegistry(world.Grid{ChunkSize: 16})
	listener := &recordingListener{}
	reg.SetListener(listener)

	a := reg.Spawn("canopy", 3.5, 20.5)
	b := reg.Spawn("canopy", -0.5, 4.5)
	if a == b || a == "" {
		t.Fatalf("expected distinct handles, got %q and %q", a, b)
	}

	p, ok := reg.Prop(a)
	if !ok || p.Chunk != (world.ChunkCoord{X: 0, Y: 1}) {
		t.Fatalf("unexpected prop %+v", p)
	}
	if got := reg.ByChunk(world.ChunkCoord{X: -1, Y: 0}); len(got) != 1 || got[0].Handle != b {
		t.Fatalf("expected prop b in chunk (-1,0), got %+v", got)
	}

	reg.Destroy(a)
	reg.Destroy(a)
	if reg.Len() != 1 {
		t.Fatalf("expected one live prop, got %d", reg.Len())
	}
	if len(reg.ByChunk(world.ChunkCoord{X: 0, Y: 1})) != 0 {
		t.Fatalf("destroyed prop still indexed by chunk")
	}
	if len(listener.spawned) != 2 || len(listener.destroyed) != 1 || listener.destroyed[0].Handle != a {
		t.Fatalf("unexpected notifications: %d spawned, %d destroyed", len(listener.spawned), len(listener.destroyed))
	}
}

func TestRegistryTracksStreamedCanopies(t *testing.T) {
	cfg := config.Default()
	cfg.Canopy.Mode = config.CanopyProps
	cfg.Trees.NormalChance = 0.3
	cfg.Streaming.ViewRadius = 1
	cfg.Streaming.RowsPerTick = 0

	gen := terrain.NewGenerator(cfg)
	opts := world.NewOptions(cfg)
	reg := NewRegistry(opts.Grid)
	viewer := &struct{ x, y float64 }{32, 180}
	m := world.NewManager(opts, gen, world.NewMemorySink(opts.Grid.ChunkSize),
		world.ViewerFunc(func() (float64, float64) { return viewer.x, viewer.y }), nil, reg)
	defer m.Close()

	settle := func() {
		for i := 0; i < 100; i++ {
			m.Tick()
			s := m.Stats()
			if s.GenQueued == 0 && s.ClearQueued == 0 && !s.InFlight {
				return
			}
		}
		t.Fatalf("streaming did not settle")
	}
	settle()

	if reg.Len() == 0 {
		t.Fatalf("expected canopy props around the viewer")
	}
	if reg.Len() != m.Stats().Props {
		t.Fatalf("registry has %d props, manager tracks %d", reg.Len(), m.Stats().Props)
	}
	positions := make(map[[2]float64]bool)
	for _, p := range reg.All() {
		if !m.IsLoaded(p.Chunk) {
			t.Fatalf("prop %s lives in unloaded chunk %v", p.Handle, p.Chunk)
		}
		key := [2]float64{p.X, p.Y}
		if positions[key] {
			t.Fatalf("duplicate prop at (%g,%g)", p.X, p.Y)
		}
		positions[key] = true
	}

	viewer.x = 100000
	settle()
	for _, p := range reg.All() {
		if p.X < 50000 {
			t.Fatalf("prop at (%g,%g) survived its chunk", p.X, p.Y)
		}
	}
}

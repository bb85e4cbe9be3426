package props

import (
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"tileworld/internal/world"
)

// Prop is one live decorative object placed outside the tile grid.
type Prop struct {
	Handle  world.PropHandle
	Prefab  string
	X       float64
	Y       float64
	Chunk   world.ChunkCoord
	Spawned time.Time
}

// Listener observes prop lifecycle changes, e.g. to forward them to clients.
type Listener interface {
	PropSpawned(p Prop)
	PropDestroyed(p Prop)
}

// Registry is the in-process prop store. It implements world.PropSpawner.
type Registry struct {
	grid world.Grid

	mu       sync.RWMutex
	props    map[world.PropHandle]*Prop
	byChunk  map[world.ChunkCoord]map[world.PropHandle]*Prop
	listener Listener
}

func NewRegistry(grid world.Grid) *Registry {
	return &Registry{
		grid:    grid,
		props:   make(map[world.PropHandle]*Prop),
		byChunk: make(map[world.ChunkCoord]map[world.PropHandle]*Prop),
	}
}

// SetListener replaces the lifecycle listener. nil disables notifications.
func (r *Registry) SetListener(l Listener) {
	r.mu.Lock()
	r.listener = l
	r.mu.Unlock()
}

func (r *Registry) Spawn(prefab string, x, y float64) world.PropHandle {
	p := &Prop{
		Handle:  world.PropHandle(uuid.NewString()),
		Prefab:  prefab,
		X:       x,
		Y:       y,
		Chunk:   r.grid.ChunkAtPosition(x, y),
		Spawned: time.Now(),
	}

	r.mu.Lock()
	r.props[p.Handle] = p
	set := r.byChunk[p.Chunk]
	if set == nil {
		set = make(map[world.PropHandle]*Prop)
		r.byChunk[p.Chunk] = set
	}
	set[p.Handle] = p
	listener := r.listener
	r.mu.Unlock()

	if listener != nil {
		listener.PropSpawned(*p)
	}
	return p.Handle
}

func (r *Registry) Destroy(handle world.PropHandle) {
	r.mu.Lock()
	p, ok := r.props[handle]
	if !ok {
		r.mu.Unlock()
		log.Printf("props: destroy of unknown handle %s", handle)
		return
	}
	delete(r.props, handle)
	if set := r.byChunk[p.Chunk]; set != nil {
		delete(set, handle)
		if len(set) == 0 {
			delete(r.byChunk, p.Chunk)
		}
	}
	listener := r.listener
	r.mu.Unlock()

	if listener != nil {
		listener.PropDestroyed(*p)
	}
}

func (r *Registry) Prop(handle world.PropHandle) (Prop, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.props[handle]
	if !ok {
		return Prop{}, false
	}
	return *p, true
}

// ByChunk returns the props whose anchor lies in coord, ordered by position.
func (r *Registry) ByChunk(coord world.ChunkCoord) []Prop {
	r.mu.RLock()
	set := r.byChunk[coord]
	out := make([]Prop, 0, len(set))
	for _, p := range set {
		out = append(out, *p)
	}
	r.mu.RUnlock()
	sortProps(out)
	return out
}

// All returns every live prop ordered by position.
func (r *Registry) All() []Prop {
	r.mu.RLock()
	out := make([]Prop, 0, len(r.props))
	for _, p := range r.props {
		out = append(out, *p)
	}
	r.mu.RUnlock()
	sortProps(out)
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.props)
}

func sortProps(ps []Prop) {
	sort.Slice(ps, func(i, j int) bool {
		if ps[i].Y != ps[j].Y {
			return ps[i].Y < ps[j].Y
		}
		if ps[i].X != ps[j].X {
			return ps[i].X < ps[j].X
		}
		return ps[i].Handle < ps[j].Handle
	})
}

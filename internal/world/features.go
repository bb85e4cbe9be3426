package world

import "sort"

// FeatureKey identifies one procedural feature instance, e.g. a tree crown.
// Equal keys always denote the same instance regardless of which chunk
// generated it.
type FeatureKey uint64

// PropHandle is an opaque reference to a spawned engine object.
type PropHandle string

// PropSpawner creates and removes decorative objects outside the tile grid.
type PropSpawner interface {
	Spawn(prefab string, x, y float64) PropHandle
	Destroy(handle PropHandle)
}

// PropRequest asks for one prop owned by the chunk that produced it.
type PropRequest struct {
	Key    FeatureKey
	Prefab string
	X      float64
	Y      float64
}

// featureIndex tracks live props by feature key and by owning chunk so that
// regenerating a chunk never duplicates a prop.
type featureIndex struct {
	spawner PropSpawner
	handles map[FeatureKey]PropHandle
	byChunk map[ChunkCoord]map[FeatureKey]struct{}
}

func newFeatureIndex(spawner PropSpawner) *featureIndex {
	return &featureIndex{
		spawner: spawner,
		handles: make(map[FeatureKey]PropHandle),
		byChunk: make(map[ChunkCoord]map[FeatureKey]struct{}),
	}
}

// attach spawns requested props that are not live yet and destroys props the
// chunk owned before but no longer requests. It returns the number spawned.
func (f *featureIndex) attach(coord ChunkCoord, reqs []PropRequest) int {
	if f.spawner == nil {
		return 0
	}
	owned := f.byChunk[coord]
	next := make(map[FeatureKey]struct{}, len(reqs))
	spawned := 0
	for _, req := range reqs {
		next[req.Key] = struct{}{}
		if _, live := f.handles[req.Key]; live {
			continue
		}
		f.handles[req.Key] = f.spawner.Spawn(req.Prefab, req.X, req.Y)
		spawned++
	}
	for key := range owned {
		if _, keep := next[key]; keep {
			continue
		}
		f.destroy(key)
	}
	if len(next) == 0 {
		delete(f.byChunk, coord)
	} else {
		f.byChunk[coord] = next
	}
	return spawned
}

// release destroys every prop owned by coord and forgets their keys.
func (f *featureIndex) release(coord ChunkCoord) int {
	owned := f.byChunk[coord]
	keys := make([]FeatureKey, 0, len(owned))
	for key := range owned {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	for _, key := range keys {
		f.destroy(key)
	}
	delete(f.byChunk, coord)
	return len(keys)
}

func (f *featureIndex) destroy(key FeatureKey) {
	handle, ok := f.handles[key]
	if !ok {
		return
	}
	delete(f.handles, key)
	if f.spawner != nil {
		f.spawner.Destroy(handle)
	}
}

func (f *featureIndex) live() int {
	return len(f.handles)
}

package world

import "sync"

// TileReader answers tile lookups for already rendered cells. The boolean
// reports whether the cell has been rendered; a rendered cell may hold Air.
type TileReader interface {
	Tile(layer Layer, x, y int) (TileCode, bool)
}

// Sink receives finished regions. Tiles are row-major, bottom row first, and
// Air entries clear the destination cell.
type Sink interface {
	TileReader
	BlitRegion(layer Layer, originX, originY, w, h int, tiles []TileCode)
	ClearRegion(layer Layer, originX, originY, w, h int)
}

// LayerBlitter is implemented by sinks that take both layers of a region in
// one call. Observers of such a sink never see one layer without the other.
type LayerBlitter interface {
	BlitLayers(originX, originY, w, h int, fg, bg []TileCode)
	ClearLayers(originX, originY, w, h int)
}

// Compacter is implemented by sinks that can release memory on demand.
type Compacter interface {
	Compact()
}

func blitLayers(sink Sink, b Bounds, fg, bg []TileCode) {
	if lb, ok := sink.(LayerBlitter); ok {
		lb.BlitLayers(b.Min.X, b.Min.Y, b.Width(), b.Height(), fg, bg)
		return
	}
	sink.BlitRegion(Foreground, b.Min.X, b.Min.Y, b.Width(), b.Height(), fg)
	sink.BlitRegion(Background, b.Min.X, b.Min.Y, b.Width(), b.Height(), bg)
}

func clearLayers(sink Sink, b Bounds) {
	if lb, ok := sink.(LayerBlitter); ok {
		lb.ClearLayers(b.Min.X, b.Min.Y, b.Width(), b.Height())
		return
	}
	sink.ClearRegion(Foreground, b.Min.X, b.Min.Y, b.Width(), b.Height())
	sink.ClearRegion(Background, b.Min.X, b.Min.Y, b.Width(), b.Height())
}

type sinkBlock struct {
	layers   [2][]TileCode
	rendered [2][]bool
	count    int // rendered cells over both layers
}

// MemorySink is a sparse tile store split into square blocks. It remembers
// which cells were rendered, Air included. Blocks with no rendered cell left
// are kept until Compact runs.
type MemorySink struct {
	blockSize int

	mu     sync.RWMutex
	blocks map[ChunkCoord]*sinkBlock
}

func NewMemorySink(blockSize int) *MemorySink {
	if blockSize <= 0 {
		blockSize = 64
	}
	return &MemorySink{
		blockSize: blockSize,
		blocks:    make(map[ChunkCoord]*sinkBlock),
	}
}

func (s *MemorySink) locate(x, y int) (ChunkCoord, int) {
	key := ChunkCoord{X: FloorDiv(x, s.blockSize), Y: FloorDiv(y, s.blockSize)}
	lx := x - key.X*s.blockSize
	ly := y - key.Y*s.blockSize
	return key, ly*s.blockSize + lx
}

func (s *MemorySink) Tile(layer Layer, x, y int) (TileCode, bool) {
	key, idx := s.locate(x, y)
	s.mu.RLock()
	defer s.mu.RUnlock()
	block, ok := s.blocks[key]
	if !ok || block.rendered[layer] == nil {
		return Air, false
	}
	return block.layers[layer][idx], block.rendered[layer][idx]
}

func (s *MemorySink) BlitRegion(layer Layer, originX, originY, w, h int, tiles []TileCode) {
	if w <= 0 || h <= 0 || len(tiles) < w*h {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blitLocked(layer, originX, originY, w, h, tiles)
}

// BlitLayers implements LayerBlitter.
func (s *MemorySink) BlitLayers(originX, originY, w, h int, fg, bg []TileCode) {
	if w <= 0 || h <= 0 || len(fg) < w*h || len(bg) < w*h {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blitLocked(Foreground, originX, originY, w, h, fg)
	s.blitLocked(Background, originX, originY, w, h, bg)
}

func (s *MemorySink) ClearRegion(layer Layer, originX, originY, w, h int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked(layer, originX, originY, w, h)
}

// ClearLayers implements LayerBlitter.
func (s *MemorySink) ClearLayers(originX, originY, w, h int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked(Foreground, originX, originY, w, h)
	s.clearLocked(Background, originX, originY, w, h)
}

func (s *MemorySink) blitLocked(layer Layer, originX, originY, w, h int, tiles []TileCode) {
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			key, idx := s.locate(originX+col, originY+row)
			block, ok := s.blocks[key]
			if !ok {
				block = &sinkBlock{}
				s.blocks[key] = block
			}
			if block.rendered[layer] == nil {
				block.layers[layer] = make([]TileCode, s.blockSize*s.blockSize)
				block.rendered[layer] = make([]bool, s.blockSize*s.blockSize)
			}
			block.layers[layer][idx] = tiles[row*w+col]
			if !block.rendered[layer][idx] {
				block.rendered[layer][idx] = true
				block.count++
			}
		}
	}
}

func (s *MemorySink) clearLocked(layer Layer, originX, originY, w, h int) {
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			key, idx := s.locate(originX+col, originY+row)
			block, ok := s.blocks[key]
			if !ok || block.rendered[layer] == nil {
				continue
			}
			block.layers[layer][idx] = Air
			if block.rendered[layer][idx] {
				block.rendered[layer][idx] = false
				block.count--
			}
		}
	}
}

// Compact drops blocks that no longer hold any rendered cell.
func (s *MemorySink) Compact() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, block := range s.blocks {
		if block.count == 0 {
			delete(s.blocks, key)
		}
	}
}

// Len returns the number of allocated blocks.
func (s *MemorySink) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blocks)
}

// ForEachBlock visits every block holding rendered cells with copies of both
// layers. Layers that were never written are returned as nil.
func (s *MemorySink) ForEachBlock(fn func(origin Cell, size int, fg, bg []TileCode) bool) {
	s.mu.RLock()
	type snapshot struct {
		origin Cell
		fg, bg []TileCode
	}
	snaps := make([]snapshot, 0, len(s.blocks))
	for key, block := range s.blocks {
		if block.count == 0 {
			continue
		}
		snaps = append(snaps, snapshot{
			origin: Cell{X: key.X * s.blockSize, Y: key.Y * s.blockSize},
			fg:     cloneTiles(block.layers[Foreground]),
			bg:     cloneTiles(block.layers[Background]),
		})
	}
	s.mu.RUnlock()

	for _, snap := range snaps {
		if !fn(snap.origin, s.blockSize, snap.fg, snap.bg) {
			return
		}
	}
}

func cloneTiles(tiles []TileCode) []TileCode {
	if tiles == nil {
		return nil
	}
	dup := make([]TileCode, len(tiles))
	copy(dup, tiles)
	return dup
}

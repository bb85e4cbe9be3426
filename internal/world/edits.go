package world

import (
	"errors"
	"fmt"
	"sync"
)

// ErrBelowMagma is returned for edits targeting the immutable lava floor.
var ErrBelowMagma = errors.New("edit below magma plane")

// Edit is a single player override.
type Edit struct {
	Cell Cell
	Code TileCode
}

// EditOverlay holds player overrides of procedural foreground tiles. Entries
// never expire; an Air entry is a dug cell.
type EditOverlay struct {
	floorY int
	store  EditStore

	mu    sync.RWMutex
	edits map[Cell]TileCode
}

// NewEditOverlay builds an overlay that rejects cells below floorY. Existing
// edits are loaded from store when one is supplied.
func NewEditOverlay(floorY int, store EditStore) (*EditOverlay, error) {
	o := &EditOverlay{
		floorY: floorY,
		store:  store,
		edits:  make(map[Cell]TileCode),
	}
	if store == nil {
		return o, nil
	}
	err := store.ForEach(func(cell Cell, code TileCode) bool {
		if cell.Y >= floorY {
			o.edits[cell] = code
		}
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("load edits: %w", err)
	}
	return o, nil
}

// Set stores an override. The store is written first; on failure the overlay
// is left unchanged.
func (o *EditOverlay) Set(x, y int, code TileCode) error {
	if y < o.floorY {
		return fmt.Errorf("set (%d,%d): %w", x, y, ErrBelowMagma)
	}
	if !code.Valid() {
		return fmt.Errorf("set (%d,%d): unknown tile code %d", x, y, code)
	}
	cell := Cell{X: x, Y: y}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.store != nil {
		if err := o.store.Save(cell, code); err != nil {
			return fmt.Errorf("save edit (%d,%d): %w", x, y, err)
		}
	}
	o.edits[cell] = code
	return nil
}

// Clear removes the override at (x, y) and reports whether one existed. When
// the store cannot delete it the override stays in place.
func (o *EditOverlay) Clear(x, y int) (bool, error) {
	cell := Cell{X: x, Y: y}
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.edits[cell]; !ok {
		return false, nil
	}
	if o.store != nil {
		if err := o.store.Delete(cell); err != nil {
			return false, fmt.Errorf("delete edit (%d,%d): %w", x, y, err)
		}
	}
	delete(o.edits, cell)
	return true, nil
}

func (o *EditOverlay) Get(x, y int) (TileCode, bool) {
	o.mu.RLock()
	code, ok := o.edits[Cell{X: x, Y: y}]
	o.mu.RUnlock()
	return code, ok
}

func (o *EditOverlay) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.edits)
}

// Within returns the edits inside b.
func (o *EditOverlay) Within(b Bounds) []Edit {
	o.mu.RLock()
	defer o.mu.RUnlock()
	var out []Edit
	area := b.Width() * b.Height()
	if len(o.edits) < area {
		for cell, code := range o.edits {
			if b.Contains(cell.X, cell.Y) {
				out = append(out, Edit{Cell: cell, Code: code})
			}
		}
		return out
	}
	for y := b.Min.Y; y <= b.Max.Y; y++ {
		for x := b.Min.X; x <= b.Max.X; x++ {
			if code, ok := o.edits[Cell{X: x, Y: y}]; ok {
				out = append(out, Edit{Cell: Cell{X: x, Y: y}, Code: code})
			}
		}
	}
	return out
}

// Apply writes every edit inside the chunk onto its foreground.
func (o *EditOverlay) Apply(ch *Chunk) int {
	edits := o.Within(ch.Bounds)
	for _, e := range edits {
		ch.SetTile(Foreground, e.Cell.X, e.Cell.Y, e.Code)
	}
	return len(edits)
}

func (o *EditOverlay) Close() error {
	if o.store == nil {
		return nil
	}
	return o.store.Close()
}

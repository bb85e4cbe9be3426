package world

// Chunk is a dense two-layer tile buffer covering Bounds. Rows are stored
// bottom-up starting at Bounds.Min.Y.
type Chunk struct {
	Key    ChunkCoord
	Bounds Bounds
	fg     []TileCode
	bg     []TileCode
}

func NewChunk(key ChunkCoord, bounds Bounds) *Chunk {
	size := bounds.Width() * bounds.Height()
	if size < 0 {
		size = 0
	}
	return &Chunk{
		Key:    key,
		Bounds: bounds,
		fg:     make([]TileCode, size),
		bg:     make([]TileCode, size),
	}
}

func (c *Chunk) index(x, y int) (int, bool) {
	if !c.Bounds.Contains(x, y) {
		return 0, false
	}
	return (y-c.Bounds.Min.Y)*c.Bounds.Width() + (x - c.Bounds.Min.X), true
}

// Tile returns the code at global (x, y). Cells outside the chunk report false.
func (c *Chunk) Tile(layer Layer, x, y int) (TileCode, bool) {
	idx, ok := c.index(x, y)
	if !ok {
		return Air, false
	}
	return c.Layer(layer)[idx], true
}

// SetTile writes code at global (x, y) and reports whether the cell was inside the chunk.
func (c *Chunk) SetTile(layer Layer, x, y int, code TileCode) bool {
	idx, ok := c.index(x, y)
	if !ok {
		return false
	}
	c.Layer(layer)[idx] = code
	return true
}

// Layer exposes the raw row-major buffer for layer. Callers must not retain it
// past the next mutation.
func (c *Chunk) Layer(layer Layer) []TileCode {
	if layer == Background {
		return c.bg
	}
	return c.fg
}

// Count returns how many cells of layer hold code.
func (c *Chunk) Count(layer Layer, code TileCode) int {
	n := 0
	for _, t := range c.Layer(layer) {
		if t == code {
			n++
		}
	}
	return n
}

// Equal reports whether both chunks cover the same bounds with identical layers.
func (c *Chunk) Equal(other *Chunk) bool {
	if other == nil || c.Bounds != other.Bounds {
		return false
	}
	for i := range c.fg {
		if c.fg[i] != other.fg[i] || c.bg[i] != other.bg[i] {
			return false
		}
	}
	return true
}

// Sub copies the portion of c covered by bounds into a new chunk.
func (c *Chunk) Sub(key ChunkCoord, bounds Bounds) *Chunk {
	out := NewChunk(key, bounds)
	for y := bounds.Min.Y; y <= bounds.Max.Y; y++ {
		for x := bounds.Min.X; x <= bounds.Max.X; x++ {
			if code, ok := c.Tile(Foreground, x, y); ok {
				out.SetTile(Foreground, x, y, code)
			}
			if code, ok := c.Tile(Background, x, y); ok {
				out.SetTile(Background, x, y, code)
			}
		}
	}
	return out
}

package terrain

import (
	"testing"

	"tileworld/internal/world"
)

func TestSolidBelowTrustsRenderedAir(t *testing.T) {
	g := NewGenerator(plainConfig())

	x, s := 0, 0
	for x = 0; x < 1000; x++ {
		s = g.SurfaceHeight(x)
		if g.foregroundSample(x, s-1).SupportsDecoration() {
			break
		}
	}
	if x == 1000 {
		t.Fatalf("no column with solid ground found")
	}

	// The buffer starts on the surface row, so the ground cell below comes
	// from the reader or the procedural sample.
	buf := world.NewChunk(world.ChunkCoord{}, world.Bounds{
		Min: world.Cell{X: x - 1, Y: s},
		Max: world.Cell{X: x + 1, Y: s + 3},
	})

	if !g.solidBelow(buf, nil, x, s) {
		t.Fatalf("procedural ground at (%d,%d) should carry a decoration", x, s-1)
	}

	sink := world.NewMemorySink(16)
	if !g.solidBelow(buf, sink, x, s) {
		t.Fatalf("an unrendered cell must fall back to the procedural ground")
	}

	sink.BlitRegion(world.Foreground, x, s-1, 1, 1, []world.TileCode{world.Air})
	if g.solidBelow(buf, sink, x, s) {
		t.Fatalf("a dug cell in a rendered neighbour must not carry a decoration")
	}

	sink.BlitRegion(world.Foreground, x, s-1, 1, 1, []world.TileCode{world.Stone})
	if !g.solidBelow(buf, sink, x, s) {
		t.Fatalf("rendered stone should carry a decoration")
	}
}

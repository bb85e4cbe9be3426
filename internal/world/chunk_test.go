package world

import "testing"

func TestChunkTileAddressing(t *testing.T) {
	grid := Grid{ChunkSize: 4}
	ch := NewChunk(ChunkCoord{X: -1, Y: 0}, grid.ChunkBounds(ChunkCoord{X: -1, Y: 0}))

	if !ch.SetTile(Foreground, -4, 0, Stone) || !ch.SetTile(Foreground, -1, 3, Wood) {
		t.Fatalf("expected corner cells to be inside the chunk")
	}
	if ch.SetTile(Foreground, 0, 0, Stone) {
		t.Fatalf("cell (0,0) belongs to the next chunk")
	}
	if code, ok := ch.Tile(Foreground, -1, 3); !ok || code != Wood {
		t.Fatalf("expected wood at top right, got %v", code)
	}
	if ch.Layer(Foreground)[0] != Stone {
		t.Fatalf("expected bottom left stored first")
	}
	if ch.Count(Foreground, Air) != 14 {
		t.Fatalf("expected 14 air cells, got %d", ch.Count(Foreground, Air))
	}
}

func TestChunkSubAndEqual(t *testing.T) {
	big := NewChunk(ChunkCoord{}, Bounds{Max: Cell{X: 7, Y: 3}})
	for x := 0; x < 8; x++ {
		big.SetTile(Foreground, x, 0, Stone)
		big.SetTile(Background, x, 3, Leaf)
	}
	grid := Grid{ChunkSize: 4}
	right := big.Sub(ChunkCoord{X: 1}, grid.ChunkBounds(ChunkCoord{X: 1}))

	want := NewChunk(ChunkCoord{X: 1}, grid.ChunkBounds(ChunkCoord{X: 1}))
	for x := 4; x < 8; x++ {
		want.SetTile(Foreground, x, 0, Stone)
		want.SetTile(Background, x, 3, Leaf)
	}
	if !right.Equal(want) {
		t.Fatalf("sub chunk differs from expected content")
	}
	want.SetTile(Background, 5, 3, Air)
	if right.Equal(want) {
		t.Fatalf("expected background difference to be detected")
	}
}

package world

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func TestSaveChunkPreviewWritesPNG(t *testing.T) {
	grid := Grid{ChunkSize: 4}
	ch := NewChunk(ChunkCoord{X: 1, Y: 2}, grid.ChunkBounds(ChunkCoord{X: 1, Y: 2}))
	b := ch.Bounds
	ch.SetTile(Foreground, b.Min.X, b.Min.Y, Stone)
	ch.SetTile(Background, b.Max.X, b.Max.Y, Leaf)

	dir := t.TempDir()
	if err := SaveChunkPreview(ch, dir, 2); err != nil {
		t.Fatalf("SaveChunkPreview: %v", err)
	}

	f, err := os.Open(filepath.Join(dir, "chunk_1_2.png"))
	if err != nil {
		t.Fatalf("open preview: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode preview: %v", err)
	}
	if got := img.Bounds().Dx(); got != 8 {
		t.Fatalf("expected 8 pixel wide preview, got %d", got)
	}

	stone, _ := parseHexColor(DefaultTileColors[Stone])
	leaf, _ := parseHexColor(DefaultTileColors[Leaf])
	// Min.Y is the bottom row of the image.
	if r, g, bl, _ := img.At(0, 7).RGBA(); uint8(r>>8) != stone.R || uint8(g>>8) != stone.G || uint8(bl>>8) != stone.B {
		t.Fatalf("expected stone bottom left")
	}
	if r, g, bl, _ := img.At(7, 0).RGBA(); uint8(r>>8) != leaf.R || uint8(g>>8) != leaf.G || uint8(bl>>8) != leaf.B {
		t.Fatalf("expected leaf top right")
	}
}

func TestSaveRegionPreviewRejectsEmptyBounds(t *testing.T) {
	err := SaveRegionPreview(NewMemorySink(4), Bounds{Min: Cell{X: 1}, Max: Cell{X: 0}}, 1, filepath.Join(t.TempDir(), "x.png"))
	if err == nil {
		t.Fatalf("expected an error for empty bounds")
	}
}

package world

import "testing"

func TestMemorySinkBlitAndClear(t *testing.T) {
	sink := NewMemorySink(4)
	tiles := []TileCode{
		Stone, Dirt, Air,
		Grass, Air, Wood,
	}
	sink.BlitRegion(Foreground, -2, -1, 3, 2, tiles)

	tests := []struct {
		x, y int
		want TileCode
		ok   bool
	}{
		{-2, -1, Stone, true},
		{-1, -1, Dirt, true},
		{0, -1, Air, true},
		{-2, 0, Grass, true},
		{0, 0, Wood, true},
		{5, 5, Air, false},
	}
	for _, tc := range tests {
		got, ok := sink.Tile(Foreground, tc.x, tc.y)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("Tile(%d,%d) = %v,%v want %v,%v", tc.x, tc.y, got, ok, tc.want, tc.ok)
		}
	}
	if _, ok := sink.Tile(Background, -2, -1); ok {
		t.Fatalf("background layer must be independent")
	}

	sink.ClearRegion(Foreground, -2, -1, 3, 2)
	if _, ok := sink.Tile(Foreground, -2, -1); ok {
		t.Fatalf("expected cleared cell")
	}
	if sink.Len() == 0 {
		t.Fatalf("empty blocks are kept until Compact")
	}
	sink.Compact()
	if sink.Len() != 0 {
		t.Fatalf("expected Compact to drop empty blocks, %d left", sink.Len())
	}
}

func TestMemorySinkAirBlitOverwrites(t *testing.T) {
	sink := NewMemorySink(8)
	sink.BlitRegion(Foreground, 0, 0, 2, 1, []TileCode{Stone, Stone})
	sink.BlitRegion(Foreground, 0, 0, 2, 1, []TileCode{Air, Stone})

	if code, ok := sink.Tile(Foreground, 0, 0); !ok || code != Air {
		t.Fatalf("air blit must overwrite the previous tile, got %v,%v", code, ok)
	}
	if code, ok := sink.Tile(Foreground, 1, 0); !ok || code != Stone {
		t.Fatalf("expected stone to remain, got %v", code)
	}
}

func TestMemorySinkForEachBlockCopies(t *testing.T) {
	sink := NewMemorySink(2)
	sink.BlitRegion(Background, 0, 0, 1, 1, []TileCode{Leaf})

	visited := 0
	sink.ForEachBlock(func(origin Cell, size int, fg, bg []TileCode) bool {
		visited++
		if origin != (Cell{}) || size != 2 {
			t.Fatalf("unexpected block %v size %d", origin, size)
		}
		if fg != nil {
			t.Fatalf("foreground was never written")
		}
		if bg[0] != Leaf {
			t.Fatalf("expected leaf, got %v", bg[0])
		}
		bg[0] = Air
		return true
	})
	if visited != 1 {
		t.Fatalf("expected one block, got %d", visited)
	}
	if code, ok := sink.Tile(Background, 0, 0); !ok || code != Leaf {
		t.Fatalf("ForEachBlock must hand out copies")
	}
}

func TestMemorySinkLayeredBlitAndClear(t *testing.T) {
	sink := NewMemorySink(4)
	fg := []TileCode{Stone, Air, Air, Air}
	bg := []TileCode{Air, Leaf, Air, Air}
	sink.BlitLayers(0, 0, 2, 2, fg, bg)

	tests := []struct {
		layer Layer
		x, y  int
		want  TileCode
	}{
		{Foreground, 0, 0, Stone},
		{Foreground, 1, 0, Air},
		{Background, 1, 0, Leaf},
		{Background, 0, 1, Air},
	}
	for _, tc := range tests {
		got, rendered := sink.Tile(tc.layer, tc.x, tc.y)
		if !rendered || got != tc.want {
			t.Fatalf("Tile(%v,%d,%d) = %v,%v want %v rendered", tc.layer, tc.x, tc.y, got, rendered, tc.want)
		}
	}
	if _, rendered := sink.Tile(Foreground, 2, 0); rendered {
		t.Fatalf("cells outside the blit are not rendered")
	}

	sink.ClearLayers(0, 0, 2, 2)
	for _, layer := range []Layer{Foreground, Background} {
		if _, rendered := sink.Tile(layer, 0, 0); rendered {
			t.Fatalf("%v still rendered after ClearLayers", layer)
		}
	}
	sink.Compact()
	if sink.Len() != 0 {
		t.Fatalf("expected Compact to drop the cleared block")
	}
}

func TestMemorySinkKeepsAllAirBlocks(t *testing.T) {
	sink := NewMemorySink(2)
	sink.BlitRegion(Foreground, 0, 0, 2, 2, []TileCode{Air, Air, Air, Air})
	sink.Compact()
	if sink.Len() != 1 {
		t.Fatalf("a rendered sky block must survive Compact")
	}
	if _, rendered := sink.Tile(Foreground, 1, 1); !rendered {
		t.Fatalf("expected rendered air")
	}
}

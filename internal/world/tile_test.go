package world

import "testing"

func TestPaletteFallsBackToStone(t *testing.T) {
	p := NewPalette(map[string]string{
		"stone": "tiles/stone",
		"grass": "tiles/grass",
		"bogus": "tiles/bogus",
	})

	if got := p.Resolve(Grass); got != "tiles/grass" {
		t.Fatalf("expected grass asset, got %q", got)
	}
	if got := p.Resolve(Wood); got != "tiles/stone" {
		t.Fatalf("expected unmapped wood to fall back to stone, got %q", got)
	}
	if got := p.Resolve(Air); got != "" {
		t.Fatalf("air must resolve to no asset, got %q", got)
	}
	if got := p.Resolve(TileCode(200)); got != "tiles/stone" {
		t.Fatalf("unknown code should fall back to stone, got %q", got)
	}
	if entries := p.Entries(); entries["branch"] != "tiles/stone" || len(entries) != int(tileCodeCount)-1 {
		t.Fatalf("unexpected entries: %v", entries)
	}
}

func TestParseTileCode(t *testing.T) {
	for code := Air; code < tileCodeCount; code++ {
		got, ok := ParseTileCode(code.String())
		if !ok || got != code {
			t.Fatalf("ParseTileCode(%q) = %v, %v", code.String(), got, ok)
		}
	}
	if _, ok := ParseTileCode("granite"); ok {
		t.Fatalf("unknown tile name must not parse")
	}
}

func TestSupportsDecoration(t *testing.T) {
	solid := map[TileCode]bool{Stone: true, Dirt: true, Grass: true, Cloud: true}
	for code := Air; code < tileCodeCount; code++ {
		if got := code.SupportsDecoration(); got != solid[code] {
			t.Fatalf("%v.SupportsDecoration() = %v", code, got)
		}
	}
}

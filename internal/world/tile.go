package world

import (
	"fmt"
	"log"
	"sort"
)

// TileCode is the compact per-cell material identifier. Air is the zero value
// so freshly allocated buffers read as empty.
type TileCode uint8

const (
	Air TileCode = iota
	Dirt
	Grass
	Stone
	Lava
	Wood
	Branch
	Cloud
	Leaf
	FlowerA
	FlowerB
	SurfaceStone
	CaveStone

	tileCodeCount
)

var tileNames = [tileCodeCount]string{
	Air:          "air",
	Dirt:         "dirt",
	Grass:        "grass",
	Stone:        "stone",
	Lava:         "lava",
	Wood:         "wood",
	Branch:       "branch",
	Cloud:        "cloud",
	Leaf:         "leaf",
	FlowerA:      "flower_a",
	FlowerB:      "flower_b",
	SurfaceStone: "surface_stone",
	CaveStone:    "cave_stone",
}

func (c TileCode) String() string {
	if c < tileCodeCount {
		return tileNames[c]
	}
	return fmt.Sprintf("tile(%d)", uint8(c))
}

// Valid reports whether c names a known material.
func (c TileCode) Valid() bool {
	return c < tileCodeCount
}

// SupportsDecoration reports whether a decoration may rest on top of c.
func (c TileCode) SupportsDecoration() bool {
	switch c {
	case Stone, Dirt, Grass, Cloud:
		return true
	default:
		return false
	}
}

// ParseTileCode resolves a tile name as used in configuration and on the wire.
func ParseTileCode(name string) (TileCode, bool) {
	for i, n := range tileNames {
		if n == name {
			return TileCode(i), true
		}
	}
	return Air, false
}

// Layer selects one of the two tile planes. Leaf canopy lives in Background,
// everything else in Foreground.
type Layer uint8

const (
	Foreground Layer = iota
	Background
)

func (l Layer) String() string {
	switch l {
	case Foreground:
		return "foreground"
	case Background:
		return "background"
	default:
		return fmt.Sprintf("layer(%d)", uint8(l))
	}
}

// Palette maps tile codes to engine asset identifiers.
type Palette struct {
	assets   [tileCodeCount]string
	fallback string
}

// NewPalette builds a palette from a name to asset map. Codes without an entry
// fall back to the Stone asset and are logged once here rather than per tile.
func NewPalette(entries map[string]string) Palette {
	var p Palette
	for name, asset := range entries {
		code, ok := ParseTileCode(name)
		if !ok {
			log.Printf("palette: ignoring unknown tile %q", name)
			continue
		}
		p.assets[code] = asset
	}
	p.fallback = p.assets[Stone]

	var missing []string
	for code := Dirt; code < tileCodeCount; code++ {
		if p.assets[code] == "" {
			missing = append(missing, code.String())
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		log.Printf("palette: no asset for %v, using stone", missing)
	}
	return p
}

// Resolve returns the asset for code. Air resolves to the empty asset.
func (p Palette) Resolve(code TileCode) string {
	if code == Air {
		return ""
	}
	if code < tileCodeCount && p.assets[code] != "" {
		return p.assets[code]
	}
	return p.fallback
}

// Entries returns the resolved asset of every non-air code keyed by tile name.
func (p Palette) Entries() map[string]string {
	out := make(map[string]string, int(tileCodeCount)-1)
	for code := Dirt; code < tileCodeCount; code++ {
		out[code.String()] = p.Resolve(code)
	}
	return out
}

package world

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultTileColors is the preview colour of each tile code.
var DefaultTileColors = map[TileCode]string{
	Dirt:         "#7a5230",
	Grass:        "#4caf50",
	Stone:        "#6e6e6e",
	Lava:         "#ff5a1f",
	Wood:         "#5d3a1a",
	Branch:       "#8b5a2b",
	Cloud:        "#e8eef5",
	Leaf:         "#2e7d32",
	FlowerA:      "#e53935",
	FlowerB:      "#fdd835",
	SurfaceStone: "#9e9e9e",
	CaveStone:    "#505050",
}

var previewSky = color.NRGBA{R: 135, G: 190, B: 235, A: 255}

// RenderRegion draws bounds as seen through reader, one scale×scale pixel
// square per tile. Foreground wins over background; row Max.Y is at the top.
func RenderRegion(reader TileReader, bounds Bounds, scale int) *image.NRGBA {
	if scale < 1 {
		scale = 1
	}
	w, h := bounds.Width(), bounds.Height()
	img := image.NewNRGBA(image.Rect(0, 0, w*scale, h*scale))

	palette := make(map[TileCode]color.NRGBA, len(DefaultTileColors))
	for code, hex := range DefaultTileColors {
		if col, ok := parseHexColor(hex); ok {
			palette[code] = col
		}
	}

	for y := bounds.Min.Y; y <= bounds.Max.Y; y++ {
		py := (bounds.Max.Y - y) * scale
		for x := bounds.Min.X; x <= bounds.Max.X; x++ {
			col := previewSky
			if code, _ := reader.Tile(Foreground, x, y); code != Air {
				col = tileColor(palette, code)
			} else if code, _ := reader.Tile(Background, x, y); code != Air {
				col = tileColor(palette, code)
			}
			px := (x - bounds.Min.X) * scale
			for dy := 0; dy < scale; dy++ {
				for dx := 0; dx < scale; dx++ {
					img.SetNRGBA(px+dx, py+dy, col)
				}
			}
		}
	}
	return img
}

func tileColor(palette map[TileCode]color.NRGBA, code TileCode) color.NRGBA {
	if col, ok := palette[code]; ok {
		return col
	}
	return color.NRGBA{R: 128, G: 128, B: 128, A: 255}
}

// SaveRegionPreview renders bounds into a PNG file at path.
func SaveRegionPreview(reader TileReader, bounds Bounds, scale int, path string) error {
	if bounds.Width() <= 0 || bounds.Height() <= 0 {
		return fmt.Errorf("invalid preview bounds: %+v", bounds)
	}
	if err := ensurePreviewDir(filepath.Dir(path)); err != nil {
		return err
	}
	img := RenderRegion(reader, bounds, scale)

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create preview: %w", err)
	}
	defer file.Close()
	if err := png.Encode(file, img); err != nil {
		return fmt.Errorf("encode preview: %w", err)
	}
	return nil
}

// SaveChunkPreview writes chunk_<x>_<y>.png for a generated chunk into outputDir.
func SaveChunkPreview(chunk *Chunk, outputDir string, scale int) error {
	if chunk == nil {
		return fmt.Errorf("chunk is nil")
	}
	if outputDir == "" {
		return fmt.Errorf("output directory is empty")
	}
	path := filepath.Join(outputDir, fmt.Sprintf("chunk_%d_%d.png", chunk.Key.X, chunk.Key.Y))
	return SaveRegionPreview(chunkReader{chunk}, chunk.Bounds, scale, path)
}

// ChunkReader exposes a generated chunk as a TileReader. Every cell inside
// the chunk reads as rendered.
func ChunkReader(chunk *Chunk) TileReader {
	return chunkReader{chunk}
}

type chunkReader struct {
	chunk *Chunk
}

func (r chunkReader) Tile(layer Layer, x, y int) (TileCode, bool) {
	return r.chunk.Tile(layer, x, y)
}

func parseHexColor(value string) (color.NRGBA, bool) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(value), "#")
	if len(trimmed) != 6 {
		return color.NRGBA{}, false
	}
	var rgb [3]uint8
	for i := range rgb {
		v, err := strconv.ParseUint(trimmed[i*2:i*2+2], 16, 8)
		if err != nil {
			return color.NRGBA{}, false
		}
		rgb[i] = uint8(v)
	}
	return color.NRGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: 255}, true
}

func ensurePreviewDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("output directory is empty")
	}
	return os.MkdirAll(dir, 0o755)
}

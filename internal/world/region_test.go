package world

import "testing"

func TestFloorDiv(t *testing.T) {
	tests := []struct {
		value, size, want int
	}{
		{0, 64, 0},
		{63, 64, 0},
		{64, 64, 1},
		{-1, 64, -1},
		{-64, 64, -1},
		{-65, 64, -2},
		{5, 0, 0},
	}
	for _, tc := range tests {
		if got := FloorDiv(tc.value, tc.size); got != tc.want {
			t.Fatalf("FloorDiv(%d, %d) = %d, want %d", tc.value, tc.size, got, tc.want)
		}
	}
}

func TestGridChunkBoundsRoundTrip(t *testing.T) {
	grid := Grid{ChunkSize: 64}
	for _, coord := range []ChunkCoord{{0, 0}, {1, 0}, {-1, -1}, {7, -3}} {
		b := grid.ChunkBounds(coord)
		if b.Width() != 64 || b.Height() != 64 {
			t.Fatalf("chunk %v has bounds %+v", coord, b)
		}
		for _, cell := range []Cell{b.Min, b.Max} {
			if got := grid.ChunkOf(cell.X, cell.Y); got != coord {
				t.Fatalf("cell %v maps to %v, want %v", cell, got, coord)
			}
		}
	}
	if got := grid.ChunkAtPosition(-0.5, 63.9); got != (ChunkCoord{X: -1, Y: 0}) {
		t.Fatalf("unexpected chunk for continuous position: %v", got)
	}
}

func TestGridAroundOrdersNearestFirst(t *testing.T) {
	grid := Grid{ChunkSize: 16}
	center := ChunkCoord{X: 3, Y: -2}
	coords := grid.Around(center, 2)
	if len(coords) != 25 {
		t.Fatalf("expected 25 chunks, got %d", len(coords))
	}
	if coords[0] != center {
		t.Fatalf("expected centre first, got %v", coords[0])
	}
	seen := make(map[ChunkCoord]bool)
	last := 0
	for _, c := range coords {
		if seen[c] {
			t.Fatalf("duplicate chunk %v", c)
		}
		seen[c] = true
		d := chebyshev(center, c)
		if d > 2 {
			t.Fatalf("chunk %v outside radius", c)
		}
		if d < last {
			t.Fatalf("chunk %v out of distance order", c)
		}
		last = d
	}
	if grid.Around(center, -1) != nil {
		t.Fatalf("negative radius should yield no chunks")
	}
}

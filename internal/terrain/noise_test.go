package terrain

import (
	"math"
	"testing"
)

func TestSamplerIsDeterministic(t *testing.T) {
	a := NewSampler(12345)
	b := NewSampler(12345)

	for x := -50; x <= 50; x += 7 {
		for y := -50; y <= 50; y += 11 {
			if a.Hash(x, y, SaltTree) != b.Hash(x, y, SaltTree) {
				t.Fatalf("hash differs at (%d,%d)", x, y)
			}
			fx, fy := float64(x)*0.13, float64(y)*0.07
			if a.Noise2D(StreamIsland, fx, fy) != b.Noise2D(StreamIsland, fx, fy) {
				t.Fatalf("Noise2D differs at (%g,%g)", fx, fy)
			}
			if a.Noise1D(StreamSurface, fx) != b.Noise1D(StreamSurface, fx) {
				t.Fatalf("Noise1D differs at %g", fx)
			}
		}
	}
}

func TestSamplerSeedsAreUncorrelated(t *testing.T) {
	a := NewSampler(1)
	b := NewSampler(2)
	same := 0
	for x := 0; x < 200; x++ {
		if a.Hash(x, 0, SaltTree) == b.Hash(x, 0, SaltTree) {
			same++
		}
	}
	if same > 0 {
		t.Fatalf("different seeds produced %d identical hashes", same)
	}
	if a.Hash(1, 2, SaltTree) == a.Hash(1, 2, SaltGiant) {
		t.Fatalf("salts must separate hashes")
	}
	if a.Hash(1, 2, SaltTree) == a.Hash(2, 1, SaltTree) {
		t.Fatalf("hash must not be symmetric in x and y")
	}
}

func TestSamplerRanges(t *testing.T) {
	s := NewSampler(99)
	for i := -300; i <= 300; i++ {
		x := float64(i) * 1.37
		y := float64(i) * -0.91
		checks := map[string]float64{
			"Noise2D":    s.Noise2D(StreamChamber, x, y),
			"Noise1D":    s.Noise1D(StreamSurface, x),
			"Periodic1D": s.Periodic1D(StreamWormWiggle, x),
			"Fractal2D":  s.Fractal2D(StreamBlob, x*0.1, y*0.1, 4),
		}
		for name, v := range checks {
			if v < 0 || v > 1 || math.IsNaN(v) {
				t.Fatalf("%s out of range at %d: %g", name, i, v)
			}
		}
		if u := s.Sample(i, -i, SaltFlower); u < 0 || u >= 1 {
			t.Fatalf("Sample out of range: %g", u)
		}
	}
}

func TestNoise1DIsContinuousForNegativeInputs(t *testing.T) {
	s := NewSampler(7)
	for _, x := range []float64{-1e6, -4096.3, -256, -0.0005, 0, 255.9995} {
		a := s.Noise1D(StreamSurface, x)
		b := s.Noise1D(StreamSurface, x+0.001)
		if math.Abs(a-b) > 0.01 {
			t.Fatalf("Noise1D jumps near %g: %g vs %g", x, a, b)
		}
		a = s.Periodic1D(StreamWormWiggle, x)
		b = s.Periodic1D(StreamWormWiggle, x+0.001)
		if math.Abs(a-b) > 0.01 {
			t.Fatalf("Periodic1D jumps near %g: %g vs %g", x, a, b)
		}
	}
}

func TestPeriodic1DRepeatsAndNoise1DDoesNot(t *testing.T) {
	s := NewSampler(7)
	repeats := 0
	for i := 0; i < 200; i++ {
		x := float64(i)*0.731 - 40
		if math.Abs(s.Periodic1D(StreamWormWiggle, x)-s.Periodic1D(StreamWormWiggle, x+perlinPeriod)) > 1e-9 {
			t.Fatalf("Periodic1D should repeat every %d units at %g", perlinPeriod, x)
		}
		if math.Abs(s.Noise1D(StreamSurface, x)-s.Noise1D(StreamSurface, x+perlinPeriod)) < 1e-9 {
			repeats++
		}
	}
	if repeats > 10 {
		t.Fatalf("Noise1D repeated at %d of 200 points one lattice period apart", repeats)
	}
}

func TestRidged(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{0.25, 0.5},
		{0.5, 1},
		{1, 0},
	}
	for _, tc := range tests {
		if got := Ridged(tc.in); math.Abs(got-tc.want) > 1e-12 {
			t.Fatalf("Ridged(%g) = %g, want %g", tc.in, got, tc.want)
		}
	}
}

func TestRangeInt(t *testing.T) {
	if got := rangeInt(0, 8, 18); got != 8 {
		t.Fatalf("rangeInt(0) = %d", got)
	}
	if got := rangeInt(0.999999, 8, 18); got != 18 {
		t.Fatalf("rangeInt(~1) = %d", got)
	}
	if got := rangeInt(0.5, 5, 5); got != 5 {
		t.Fatalf("degenerate range = %d", got)
	}
}

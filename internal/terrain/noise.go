package terrain

import (
	"math"

	"github.com/aquilax/go-perlin"
	"github.com/ojrac/opensimplex-go"
)

// Stream names an independent continuous noise field.
type Stream int

const (
	StreamSurface Stream = iota
	StreamSurfaceDetail
	StreamSurfaceFine
	StreamChamber
	StreamIsland
	StreamBlob
	StreamBlobDetail
	StreamWormWiggle
	StreamEntranceWobble
	StreamBranchWiggle
	StreamCanopyEdge

	streamCount
)

// Salt separates hashed decisions that share coordinates.
type Salt uint64

const (
	SaltTree Salt = iota + 1
	SaltTreeShape
	SaltGiant
	SaltGiantShape
	SaltBranch
	SaltCanopy
	SaltWorm
	SaltEntrance
	SaltEntranceJitter
	SaltFlower
	SaltSurfaceStone
	SaltCaveStone
	SaltFeatureKey
)

const golden = 0x9e3779b97f4a7c15

// perlinPeriod is the lattice period of the 1D gradient table; inputs are
// wrapped into it so negative coordinates stay continuous.
const perlinPeriod = 256

// noise1DRow keeps 1D lines off the simplex lattice axis.
const noise1DRow = 0.5

// Sampler is the deterministic randomness source of a world. Every method is
// a pure function of its arguments and the seed and is safe for concurrent use.
type Sampler struct {
	seed    int64
	simplex [streamCount]opensimplex.Noise
	perlin  [streamCount]*perlin.Perlin
}

func NewSampler(seed int64) *Sampler {
	s := &Sampler{seed: seed}
	for i := Stream(0); i < streamCount; i++ {
		streamSeed := int64(mix64(uint64(seed) ^ mix64(uint64(i)+golden)))
		s.simplex[i] = opensimplex.NewNormalized(streamSeed)
		s.perlin[i] = perlin.NewPerlin(2, 2, 1, streamSeed)
	}
	return s
}

func (s *Sampler) Seed() int64 {
	return s.seed
}

// mix64 is the splitmix64 finalizer.
func mix64(z uint64) uint64 {
	z ^= z >> 30
	z *= 0xbf58476d1ce4e5b9
	z ^= z >> 27
	z *= 0x94d049bb133111eb
	z ^= z >> 31
	return z
}

// Hash mixes integer coordinates, a salt and the seed into 64 uniformly
// distributed bits.
func (s *Sampler) Hash(x, y int, salt Salt) uint64 {
	h := mix64(uint64(s.seed) + golden)
	h = mix64(h ^ uint64(int64(x)))
	h = mix64(h ^ (uint64(int64(y)) + golden))
	return mix64(h ^ (uint64(salt) * golden))
}

// Sample returns a hashed uniform value in [0,1).
func (s *Sampler) Sample(x, y int, salt Salt) float64 {
	return unit(s.Hash(x, y, salt))
}

// unit maps the top 53 bits of h onto [0,1).
func unit(h uint64) float64 {
	return float64(h>>11) / (1 << 53)
}

// sub derives the k-th independent value from a hash.
func sub(h uint64, k int) uint64 {
	return mix64(h + uint64(k)*golden)
}

// subUnit is unit(sub(h, k)).
func subUnit(h uint64, k int) float64 {
	return unit(sub(h, k))
}

// Noise2D is smooth gradient noise in [0,1].
func (s *Sampler) Noise2D(stream Stream, x, y float64) float64 {
	return clamp01(s.simplex[stream].Eval2(x, y))
}

// Noise1D is smooth gradient noise in [0,1] along one axis. It samples a
// line through the stream's simplex field, so it never repeats.
func (s *Sampler) Noise1D(stream Stream, x float64) float64 {
	return clamp01(s.simplex[stream].Eval2(x, noise1DRow))
}

// Periodic1D is Perlin gradient noise in [0,1] that repeats every
// perlinPeriod units. Callers keep their inputs local, e.g. the distance
// along one worm.
func (s *Sampler) Periodic1D(stream Stream, x float64) float64 {
	x = math.Mod(x, perlinPeriod)
	if x < 0 {
		x += perlinPeriod
	}
	return clamp01(0.5 + s.perlin[stream].Noise1D(x))
}

// Fractal2D sums octaves of Noise2D with halving amplitude and doubling
// frequency, normalised back to [0,1].
func (s *Sampler) Fractal2D(stream Stream, x, y float64, octaves int) float64 {
	if octaves < 1 {
		octaves = 1
	}
	sum, norm, amp, freq := 0.0, 0.0, 1.0, 1.0
	for i := 0; i < octaves; i++ {
		sum += s.Noise2D(stream, x*freq+float64(i)*17.3, y*freq-float64(i)*9.1) * amp
		norm += amp
		amp *= 0.5
		freq *= 2
	}
	return sum / norm
}

// Ridged folds v in [0,1] so values near 0.5 become ridges at 1.
func Ridged(v float64) float64 {
	return 1 - math.Abs(2*v-1)
}

func lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampFloat(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// rangeInt picks an inclusive integer in [min, max] from u in [0,1).
func rangeInt(u float64, min, max int) int {
	if max <= min {
		return min
	}
	v := min + int(u*float64(max-min+1))
	if v > max {
		v = max
	}
	return v
}

func rangeFloat(u, min, max float64) float64 {
	return min + u*(max-min)
}

func floorDiv(value, size int) int {
	if size <= 0 {
		return 0
	}
	if value >= 0 {
		return value / size
	}
	return -((-value + size - 1) / size)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

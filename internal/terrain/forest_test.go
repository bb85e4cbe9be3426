package terrain

import (
	"testing"

	"tileworld/internal/config"
	"tileworld/internal/world"
)

func TestTreeDrawsTrunkAndCanopy(t *testing.T) {
	cfg := plainConfig()
	g := NewGenerator(cfg)
	s := g.SurfaceHeight(100)
	tree := Tree{X: 100, Surface: s, Height: 10, TrunkWidth: 1}

	bounds := world.Bounds{
		Min: world.Cell{X: 80, Y: s - 4},
		Max: world.Cell{X: 120, Y: s + 30},
	}
	buf := world.NewChunk(world.ChunkCoord{}, bounds)
	for y := bounds.Min.Y; y <= bounds.Max.Y; y++ {
		for x := bounds.Min.X; x <= bounds.Max.X; x++ {
			buf.SetTile(world.Foreground, x, y, g.SampleBase(x, y))
		}
	}
	g.drawTrunk(buf, tree)

	for y := s; y < s+10; y++ {
		if code, _ := buf.Tile(world.Foreground, 100, y); code != world.Wood {
			t.Fatalf("expected wood at y=%d, got %v", y, code)
		}
	}
	if code, _ := buf.Tile(world.Foreground, 100, s+10); code != world.Air {
		t.Fatalf("trunk must stop below the crown, got %v", code)
	}
	if code, _ := buf.Tile(world.Foreground, 100, s-1); code != world.Grass {
		t.Fatalf("trunk must not replace the ground, got %v", code)
	}

	g.drawCanopy(buf, tree)
	cx, cy := tree.Crown()
	if code, _ := buf.Tile(world.Background, cx, cy); code != world.Leaf {
		t.Fatalf("expected leaf at the crown, got %v", code)
	}
	if code, _ := buf.Tile(world.Background, cx, s-1); code != world.Air {
		t.Fatalf("canopy must not cover solid ground, got %v", code)
	}
}

func TestNoTreesWhenMagmaCoversTheSurface(t *testing.T) {
	cfg := plainConfig()
	cfg.Trees.NormalChance = 1
	cfg.World.MagmaPlaneY = cfg.World.GroundLevel + 200
	g := NewGenerator(cfg)
	if trees := g.TreesInRange(-200, 200); len(trees) != 0 {
		t.Fatalf("expected no trees under a magma sea, got %d", len(trees))
	}
}

func TestGiantTreeSuppressesNeighbours(t *testing.T) {
	cfg := plainConfig()
	cfg.Trees.NormalChance = 1
	cfg.Trees.GiantChance = 1
	g := NewGenerator(cfg)

	size := cfg.Trees.GiantClusterSize
	giants := 0
	for x := 0; x < size*4; x++ {
		tree, ok := g.TreeAt(x)
		if !ok || !tree.Giant {
			continue
		}
		giants++
		if tree.Height < cfg.Trees.GiantHeight.Min || tree.Height > cfg.Trees.GiantHeight.Max {
			t.Fatalf("giant height %d out of range", tree.Height)
		}
		for _, nx := range []int{x - 1, x + 1} {
			if _, ok := g.TreeAt(nx); ok {
				t.Fatalf("tree next to the giant at %d", nx)
			}
		}
	}
	if giants == 0 {
		t.Fatalf("expected giant trees with chance 1")
	}
}

func TestFeatureKeyIsStable(t *testing.T) {
	a := NewGenerator(testConfig())
	b := NewGenerator(testConfig())
	tree := Tree{X: -321, Surface: 140, Height: 12, TrunkWidth: 1}
	if a.FeatureKey(tree) != b.FeatureKey(tree) {
		t.Fatalf("feature key differs between generators")
	}
	other := tree
	other.X++
	if a.FeatureKey(tree) == a.FeatureKey(other) {
		t.Fatalf("neighbouring trees share a key")
	}
}

func TestFeatureMarginCoversBranchesAndCanopy(t *testing.T) {
	cfg := testConfig()
	margin := featureMargin(cfg)
	if margin < cfg.Canopy.GiantRadius.Max+2 {
		t.Fatalf("margin %d does not cover the widest canopy", margin)
	}
	if margin < cfg.Trees.GiantBranchLength.Max {
		t.Fatalf("margin %d does not cover the longest branch", margin)
	}

	cfg.Canopy.Mode = config.CanopyProps
	cfg.Trees.BranchMargin = 0
	if got := featureMargin(cfg); got >= margin {
		t.Fatalf("prop canopies should not widen the margin: %d >= %d", got, margin)
	}
}

func TestCanopyPropsAreUniqueAcrossChunks(t *testing.T) {
	cfg := testConfig()
	cfg.Canopy.Mode = config.CanopyProps
	cfg.Trees.NormalChance = 0.3
	g := NewGenerator(cfg)
	grid := world.Grid{ChunkSize: 64}

	seen := make(map[world.FeatureKey]world.ChunkCoord)
	for cx := 0; cx <= 3; cx++ {
		for cy := 1; cy <= 5; cy++ {
			coord := world.ChunkCoord{X: cx, Y: cy}
			chunk, props := g.GenerateChunk(grid, coord, nil)
			if n := chunk.Count(world.Background, world.Leaf); n != 0 {
				t.Fatalf("prop mode painted %d leaf tiles in %v", n, coord)
			}
			for _, p := range props {
				if prev, dup := seen[p.Key]; dup {
					t.Fatalf("prop %d requested by %v and %v", p.Key, prev, coord)
				}
				seen[p.Key] = coord
				if p.Prefab != cfg.Canopy.Prefab {
					t.Fatalf("unexpected prefab %q", p.Prefab)
				}
				if !chunk.Bounds.Contains(int(p.X), int(p.Y)) {
					t.Fatalf("prop at (%g,%g) outside %v", p.X, p.Y, coord)
				}
			}
		}
	}
	if len(seen) == 0 {
		t.Fatalf("expected canopy props")
	}
}

func TestBranchesOnlyFillAir(t *testing.T) {
	cfg := testConfig()
	cfg.Trees.NormalChance = 0.5
	g := NewGenerator(cfg)
	region := g.GenerateRegion(0, 100, 200, 128)
	b := region.Bounds

	branches := 0
	for y := b.Min.Y; y <= b.Max.Y; y++ {
		for x := b.Min.X; x <= b.Max.X; x++ {
			if code, _ := region.Tile(world.Foreground, x, y); code != world.Branch {
				continue
			}
			branches++
			if g.SampleBase(x, y) != world.Air {
				t.Fatalf("branch at (%d,%d) replaced terrain", x, y)
			}
		}
	}
	if branches == 0 {
		t.Fatalf("expected branches in a dense forest")
	}
}

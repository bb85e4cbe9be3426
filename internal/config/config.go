package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a JSON and YAML friendly wrapper around time.Duration that
// accepts human readable strings such as "16ms" in configuration files while
// still allowing numeric representations when necessary.
type Duration time.Duration

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// MarshalJSON encodes the duration using the canonical string representation.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON decodes a duration from either a string (e.g. "250ms") or a
// numeric value representing nanoseconds. Empty strings and null values decode
// to zero.
func (d *Duration) UnmarshalJSON(b []byte) error {
	if len(b) == 0 {
		return fmt.Errorf("duration: empty value")
	}
	if string(b) == "null" {
		*d = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("duration: decode string: %w", err)
		}
		return d.parse(s)
	}
	var n int64
	if err := json.Unmarshal(b, &n); err == nil {
		*d = Duration(time.Duration(n))
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		*d = Duration(time.Duration(f))
		return nil
	}
	return fmt.Errorf("duration: invalid value %s", string(b))
}

// MarshalYAML encodes the duration as its string form.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML accepts the same forms as UnmarshalJSON.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("duration: expected scalar at line %d", node.Line)
	}
	if node.Tag == "!!int" {
		var n int64
		if err := node.Decode(&n); err != nil {
			return fmt.Errorf("duration: decode int: %w", err)
		}
		*d = Duration(time.Duration(n))
		return nil
	}
	return d.parse(node.Value)
}

func (d *Duration) parse(s string) error {
	if s == "" || s == "null" {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("duration: parse %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// IntRange is an inclusive integer range. Inverted ranges are repaired by
// Normalize rather than rejected.
type IntRange struct {
	Min int `json:"min" yaml:"min"`
	Max int `json:"max" yaml:"max"`
}

// FloatRange is an inclusive float range.
type FloatRange struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// Config captures every tunable of the world generator and the streaming
// runtime around it. All values are read-only once the generator is built.
type Config struct {
	World       WorldConfig       `json:"world" yaml:"world"`
	Terrain     TerrainConfig     `json:"terrain" yaml:"terrain"`
	Caves       CaveConfig        `json:"caves" yaml:"caves"`
	Entrances   EntranceConfig    `json:"entrances" yaml:"entrances"`
	Islands     IslandConfig      `json:"islands" yaml:"islands"`
	Trees       TreeConfig        `json:"trees" yaml:"trees"`
	Canopy      CanopyConfig      `json:"canopy" yaml:"canopy"`
	Decorations DecorationConfig  `json:"decorations" yaml:"decorations"`
	Streaming   StreamingConfig   `json:"streaming" yaml:"streaming"`
	Palette     map[string]string `json:"palette" yaml:"palette"`
	Storage     StorageConfig     `json:"storage" yaml:"storage"`
	Network     NetworkConfig     `json:"network" yaml:"network"`
}

type WorldConfig struct {
	Seed        int64 `json:"seed" yaml:"seed"`
	GroundLevel int   `json:"groundLevel" yaml:"ground_level"`
	MagmaPlaneY int   `json:"magmaPlaneY" yaml:"magma_plane_y"` // cells below are always lava
	ChunkSize   int   `json:"chunkSize" yaml:"chunk_size"`
}

type TerrainConfig struct {
	HeightVariation float64 `json:"heightVariation" yaml:"height_variation"`
	Frequency       float64 `json:"frequency" yaml:"frequency"`
	ClampSurface    bool    `json:"clampSurface" yaml:"clamp_surface"`
	MinSurfaceY     int     `json:"minSurfaceY" yaml:"min_surface_y"`
	MaxSurfaceY     int     `json:"maxSurfaceY" yaml:"max_surface_y"`
}

type CaveConfig struct {
	Worms              bool       `json:"worms" yaml:"worms"`
	WormRegionSize     int        `json:"wormRegionSize" yaml:"worm_region_size"`
	WormsHorizontal    int        `json:"wormsHorizontal" yaml:"worms_horizontal"`
	WormsVertical      int        `json:"wormsVertical" yaml:"worms_vertical"`
	WormBaseRadius     float64    `json:"wormBaseRadius" yaml:"worm_base_radius"`
	WormCurveFrequency float64    `json:"wormCurveFrequency" yaml:"worm_curve_frequency"`
	WormAmplitude      FloatRange `json:"wormAmplitude" yaml:"worm_amplitude"`

	Chambers         bool    `json:"chambers" yaml:"chambers"`
	LavaCarveHeight  int     `json:"lavaCarveHeight" yaml:"lava_carve_height"` // chamber band above the magma plane
	ChamberFrequency float64 `json:"chamberFrequency" yaml:"chamber_frequency"`
	ChamberThreshold float64 `json:"chamberThreshold" yaml:"chamber_threshold"`

	Blobs         bool    `json:"blobs" yaml:"blobs"`
	BlobFrequency float64 `json:"blobFrequency" yaml:"blob_frequency"`
	BlobThreshold float64 `json:"blobThreshold" yaml:"blob_threshold"`

	RoofPadding  int `json:"roofPadding" yaml:"roof_padding"`
	FloorPadding int `json:"floorPadding" yaml:"floor_padding"`
}

type EntranceConfig struct {
	Enabled         bool     `json:"enabled" yaml:"enabled"`
	ClusterSize     int      `json:"clusterSize" yaml:"cluster_size"`
	Chance          float64  `json:"chance" yaml:"chance"`
	Depth           IntRange `json:"depth" yaml:"depth"`
	BaseRadius      float64  `json:"baseRadius" yaml:"base_radius"`
	TopWiden        float64  `json:"topWiden" yaml:"top_widen"`
	Taper           float64  `json:"taper" yaml:"taper"` // radius lost per cell of depth
	WobbleFrequency float64  `json:"wobbleFrequency" yaml:"wobble_frequency"`
	WobbleAmplitude float64  `json:"wobbleAmplitude" yaml:"wobble_amplitude"`
}

type IslandConfig struct {
	Enabled   bool    `json:"enabled" yaml:"enabled"`
	MinY      int     `json:"minY" yaml:"min_y"`
	MaxY      int     `json:"maxY" yaml:"max_y"`
	Frequency float64 `json:"frequency" yaml:"frequency"`
	Threshold float64 `json:"threshold" yaml:"threshold"`
	Core      string  `json:"core" yaml:"core"` // "cloud" or "stone"
}

type TreeConfig struct {
	Enabled      bool     `json:"enabled" yaml:"enabled"`
	NormalChance float64  `json:"normalChance" yaml:"normal_chance"` // per column
	NormalHeight IntRange `json:"normalHeight" yaml:"normal_height"`
	TrunkWidth   int      `json:"trunkWidth" yaml:"trunk_width"`

	Giant            bool     `json:"giant" yaml:"giant"`
	GiantChance      float64  `json:"giantChance" yaml:"giant_chance"` // per cluster
	GiantClusterSize int      `json:"giantClusterSize" yaml:"giant_cluster_size"`
	GiantHeight      IntRange `json:"giantHeight" yaml:"giant_height"`
	GiantTrunkWidth  IntRange `json:"giantTrunkWidth" yaml:"giant_trunk_width"`

	BranchThickness    int      `json:"branchThickness" yaml:"branch_thickness"`
	NormalBranches     IntRange `json:"normalBranches" yaml:"normal_branches"`
	GiantBranches      IntRange `json:"giantBranches" yaml:"giant_branches"`
	NormalBranchLength IntRange `json:"normalBranchLength" yaml:"normal_branch_length"`
	GiantBranchLength  IntRange `json:"giantBranchLength" yaml:"giant_branch_length"`
	BranchSlope        float64  `json:"branchSlope" yaml:"branch_slope"`
	BranchWiggle       float64  `json:"branchWiggle" yaml:"branch_wiggle"`
	BranchMargin       int      `json:"branchMargin" yaml:"branch_margin"` // lower bound for the feature search margin
}

// Canopy modes. Exactly one is active per world.
const (
	CanopyTiles = "tiles"
	CanopyProps = "props"
	CanopyNone  = "none"
)

type CanopyConfig struct {
	Mode         string   `json:"mode" yaml:"mode"`
	Prefab       string   `json:"prefab" yaml:"prefab"`
	NormalRadius IntRange `json:"normalRadius" yaml:"normal_radius"`
	GiantRadius  IntRange `json:"giantRadius" yaml:"giant_radius"`
	EdgeNoise    float64  `json:"edgeNoise" yaml:"edge_noise"`
}

type DecorationConfig struct {
	Enabled            bool    `json:"enabled" yaml:"enabled"`
	FlowerChance       float64 `json:"flowerChance" yaml:"flower_chance"`
	FlowerBPortion     float64 `json:"flowerBPortion" yaml:"flower_b_portion"`
	SurfaceStoneChance float64 `json:"surfaceStoneChance" yaml:"surface_stone_chance"`
	CaveStoneChance    float64 `json:"caveStoneChance" yaml:"cave_stone_chance"`
}

type StreamingConfig struct {
	ViewRadius      int      `json:"viewRadius" yaml:"view_radius"`       // chunks, Chebyshev
	ChunksPerTick   int      `json:"chunksPerTick" yaml:"chunks_per_tick"` // generated chunks completed per tick
	ClearsPerTick   int      `json:"clearsPerTick" yaml:"clears_per_tick"`
	RowsPerTick     int      `json:"rowsPerTick" yaml:"rows_per_tick"` // generation work units per tick, 0 = unbounded
	CompactEvery    int      `json:"compactEvery" yaml:"compact_every"`
	CancelUndesired bool     `json:"cancelUndesired" yaml:"cancel_undesired"`
	TickRate        Duration `json:"tickRate" yaml:"tick_rate"`
}

type StorageConfig struct {
	EditsPath string `json:"editsPath" yaml:"edits_path"` // LevelDB directory, empty keeps edits in memory
}

type NetworkConfig struct {
	Listen       string   `json:"listen" yaml:"listen"` // empty disables the tile stream
	SendBuffer   int      `json:"sendBuffer" yaml:"send_buffer"`
	WriteTimeout Duration `json:"writeTimeout" yaml:"write_timeout"`
}

// Load reads configuration from a JSON or YAML file if provided. An empty path
// returns defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := Decode(data, filepath.Ext(path), cfg); err != nil {
		return nil, err
	}

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Decode unmarshals data into cfg, choosing YAML for .yaml/.yml extensions and
// JSON otherwise. Fields absent from data keep their current values.
func Decode(data []byte, ext string, cfg *Config) error {
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse config yaml: %w", err)
		}
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse config: %w", err)
		}
	}
	return nil
}

func Default() *Config {
	return &Config{
		World: WorldConfig{
			Seed:        12345,
			GroundLevel: 150,
			MagmaPlaneY: -200,
			ChunkSize:   64,
		},
		Terrain: TerrainConfig{
			HeightVariation: 40,
			Frequency:       0.01,
		},
		Caves: CaveConfig{
			Worms:              true,
			WormRegionSize:     128,
			WormsHorizontal:    1,
			WormsVertical:      1,
			WormBaseRadius:     3.5,
			WormCurveFrequency: 0.015,
			WormAmplitude:      FloatRange{Min: 6, Max: 18},
			Chambers:           true,
			LavaCarveHeight:    80,
			ChamberFrequency:   0.01,
			ChamberThreshold:   0.62,
			Blobs:              false,
			BlobFrequency:      0.05,
			BlobThreshold:      0.4,
			RoofPadding:        8,
			FloorPadding:       3,
		},
		Entrances: EntranceConfig{
			Enabled:         true,
			ClusterSize:     48,
			Chance:          0.45,
			Depth:           IntRange{Min: 20, Max: 60},
			BaseRadius:      2.0,
			TopWiden:        1.35,
			Taper:           0.035,
			WobbleFrequency: 0.15,
			WobbleAmplitude: 0.8,
		},
		Islands: IslandConfig{
			Enabled:   true,
			MinY:      200,
			MaxY:      360,
			Frequency: 0.01,
			Threshold: 0.72,
			Core:      "cloud",
		},
		Trees: TreeConfig{
			Enabled:            true,
			NormalChance:       0.10,
			NormalHeight:       IntRange{Min: 8, Max: 18},
			TrunkWidth:         1,
			Giant:              true,
			GiantChance:        0.02,
			GiantClusterSize:   96,
			GiantHeight:        IntRange{Min: 40, Max: 90},
			GiantTrunkWidth:    IntRange{Min: 3, Max: 7},
			BranchThickness:    1,
			NormalBranches:     IntRange{Min: 2, Max: 4},
			GiantBranches:      IntRange{Min: 3, Max: 6},
			NormalBranchLength: IntRange{Min: 5, Max: 12},
			GiantBranchLength:  IntRange{Min: 8, Max: 16},
			BranchSlope:        0.15,
			BranchWiggle:       0.12,
			BranchMargin:       20,
		},
		Canopy: CanopyConfig{
			Mode:         CanopyTiles,
			Prefab:       "canopy",
			NormalRadius: IntRange{Min: 6, Max: 10},
			GiantRadius:  IntRange{Min: 12, Max: 22},
			EdgeNoise:    0.25,
		},
		Decorations: DecorationConfig{
			Enabled:            true,
			FlowerChance:       0.14,
			FlowerBPortion:     0.45,
			SurfaceStoneChance: 0.10,
			CaveStoneChance:    0.02,
		},
		Streaming: StreamingConfig{
			ViewRadius:    6,
			ChunksPerTick: 2,
			ClearsPerTick: 4,
			RowsPerTick:   256,
			TickRate:      Duration(16 * time.Millisecond),
		},
		Palette: map[string]string{
			"dirt":          "tiles/dirt",
			"grass":         "tiles/grass",
			"stone":         "tiles/stone",
			"lava":          "tiles/lava",
			"wood":          "tiles/wood",
			"branch":        "tiles/branch",
			"cloud":         "tiles/cloud",
			"leaf":          "tiles/leaf_background",
			"flower_a":      "tiles/flower_a",
			"flower_b":      "tiles/flower_b",
			"surface_stone": "tiles/small_stone_surface",
			"cave_stone":    "tiles/small_stone_cave",
		},
		Network: NetworkConfig{
			SendBuffer:   256,
			WriteTimeout: Duration(5 * time.Second),
		},
	}
}

// Normalize repairs inverted ranges and blank enumerations in place, logging
// each repair. Generation prefers a slightly wrong world to a refusal to run.
func (c *Config) Normalize() {
	fixInt := func(name string, r *IntRange) {
		if r.Min > r.Max {
			log.Printf("config: %s min %d > max %d, swapping", name, r.Min, r.Max)
			r.Min, r.Max = r.Max, r.Min
		}
	}
	fixFloat := func(name string, r *FloatRange) {
		if r.Min > r.Max {
			log.Printf("config: %s min %g > max %g, swapping", name, r.Min, r.Max)
			r.Min, r.Max = r.Max, r.Min
		}
	}

	fixFloat("caves.wormAmplitude", &c.Caves.WormAmplitude)
	fixInt("entrances.depth", &c.Entrances.Depth)
	fixInt("trees.normalHeight", &c.Trees.NormalHeight)
	fixInt("trees.giantHeight", &c.Trees.GiantHeight)
	fixInt("trees.giantTrunkWidth", &c.Trees.GiantTrunkWidth)
	fixInt("trees.normalBranches", &c.Trees.NormalBranches)
	fixInt("trees.giantBranches", &c.Trees.GiantBranches)
	fixInt("trees.normalBranchLength", &c.Trees.NormalBranchLength)
	fixInt("trees.giantBranchLength", &c.Trees.GiantBranchLength)
	fixInt("canopy.normalRadius", &c.Canopy.NormalRadius)
	fixInt("canopy.giantRadius", &c.Canopy.GiantRadius)

	if c.Islands.MinY > c.Islands.MaxY {
		log.Printf("config: islands.minY %d > maxY %d, swapping", c.Islands.MinY, c.Islands.MaxY)
		c.Islands.MinY, c.Islands.MaxY = c.Islands.MaxY, c.Islands.MinY
	}
	if c.Terrain.ClampSurface && c.Terrain.MinSurfaceY > c.Terrain.MaxSurfaceY {
		log.Printf("config: terrain surface clamp inverted, swapping")
		c.Terrain.MinSurfaceY, c.Terrain.MaxSurfaceY = c.Terrain.MaxSurfaceY, c.Terrain.MinSurfaceY
	}

	switch c.Canopy.Mode {
	case CanopyTiles, CanopyProps, CanopyNone:
	case "":
		c.Canopy.Mode = CanopyTiles
	default:
		log.Printf("config: unknown canopy.mode %q, using %q", c.Canopy.Mode, CanopyTiles)
		c.Canopy.Mode = CanopyTiles
	}
	switch c.Islands.Core {
	case "cloud", "stone":
	default:
		c.Islands.Core = "stone"
	}
	if c.Trees.TrunkWidth < 1 {
		c.Trees.TrunkWidth = 1
	}
	if c.Trees.BranchThickness < 1 {
		c.Trees.BranchThickness = 1
	}
}

func (c *Config) Validate() error {
	if c.World.ChunkSize <= 0 {
		return errors.New("world.chunkSize must be positive")
	}
	if c.World.MagmaPlaneY >= c.World.GroundLevel {
		return errors.New("world.magmaPlaneY must be below world.groundLevel")
	}
	if c.Caves.Worms && c.Caves.WormRegionSize <= 0 {
		return errors.New("caves.wormRegionSize must be positive")
	}
	if c.Caves.WormsHorizontal < 0 || c.Caves.WormsVertical < 0 {
		return errors.New("caves worm counts cannot be negative")
	}
	if c.Caves.RoofPadding < 0 || c.Caves.FloorPadding < 0 {
		return errors.New("caves paddings cannot be negative")
	}
	if c.Entrances.Enabled && c.Entrances.ClusterSize <= 6 {
		return errors.New("entrances.clusterSize must be greater than 6")
	}
	if c.Trees.Giant && c.Trees.GiantClusterSize <= 8 {
		return errors.New("trees.giantClusterSize must be greater than 8")
	}
	if c.Streaming.ViewRadius < 0 {
		return errors.New("streaming.viewRadius cannot be negative")
	}
	if c.Streaming.ChunksPerTick <= 0 || c.Streaming.ClearsPerTick <= 0 {
		return errors.New("streaming per-tick caps must be positive")
	}
	if c.Streaming.RowsPerTick < 0 {
		return errors.New("streaming.rowsPerTick cannot be negative")
	}
	if c.Network.SendBuffer < 0 {
		return errors.New("network.sendBuffer cannot be negative")
	}

	chances := []struct {
		name  string
		value float64
	}{
		{"entrances.chance", c.Entrances.Chance},
		{"trees.normalChance", c.Trees.NormalChance},
		{"trees.giantChance", c.Trees.GiantChance},
		{"decorations.flowerChance", c.Decorations.FlowerChance},
		{"decorations.flowerBPortion", c.Decorations.FlowerBPortion},
		{"decorations.surfaceStoneChance", c.Decorations.SurfaceStoneChance},
		{"decorations.caveStoneChance", c.Decorations.CaveStoneChance},
		{"islands.threshold", c.Islands.Threshold},
		{"caves.chamberThreshold", c.Caves.ChamberThreshold},
	}
	for _, ch := range chances {
		if ch.value < 0 || ch.value > 1 {
			return fmt.Errorf("%s must be within [0,1]", ch.name)
		}
	}
	return nil
}

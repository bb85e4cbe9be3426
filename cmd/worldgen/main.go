package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"tileworld/internal/config"
	"tileworld/internal/server"
	"tileworld/internal/terrain"
	"tileworld/internal/world"
)

func main() {
	var (
		cfgPath  string
		listen   string
		preview  string
		region   string
		snapshot string
		chunkDir string
		scale    int
		viewX    float64
		viewY    float64
	)
	flag.StringVar(&cfgPath, "config", "", "path to world configuration file (json or yaml)")
	flag.StringVar(&listen, "listen", "", "override network.listen for the tile stream")
	flag.StringVar(&preview, "preview", "", "render -region straight from the generator into this png and exit")
	flag.StringVar(&region, "region", "-128,60,256,192", "preview region as x,y,width,height")
	flag.StringVar(&snapshot, "snapshot", "", "stream chunks around -x,-y and render the loaded area into this png")
	flag.StringVar(&chunkDir, "chunk-dir", "", "stream chunks around -x,-y and write one png per chunk into this directory")
	flag.IntVar(&scale, "scale", 2, "preview pixels per tile")
	flag.Float64Var(&viewX, "x", 0, "viewer x for -snapshot and -chunk-dir")
	flag.Float64Var(&viewY, "y", -1, "viewer y for -snapshot and -chunk-dir, defaults to the surface")
	flag.Parse()

	if _, err := writeConfigFromEnv(cfgPath); err != nil {
		log.Fatalf("sync config from environment: %v", err)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if listen != "" {
		cfg.Network.Listen = listen
	}

	if preview != "" {
		bounds, err := parseRegion(region)
		if err != nil {
			log.Fatalf("parse -region: %v", err)
		}
		if err := renderPreview(cfg, bounds, scale, preview); err != nil {
			log.Fatalf("render preview: %v", err)
		}
		log.Printf("wrote %s", preview)
		return
	}

	if snapshot != "" || chunkDir != "" {
		cfg.Network.Listen = ""
		if err := renderStream(cfg, viewX, viewY, scale, snapshot, chunkDir); err != nil {
			log.Fatalf("render stream: %v", err)
		}
		return
	}

	srv, err := server.New(cfg)
	if err != nil {
		log.Fatalf("initialise world server: %v", err)
	}
	defer srv.Close()

	ctx, cancel := signalContext()
	defer cancel()

	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("server exited with error: %v", err)
	}
}

func parseRegion(value string) (world.Bounds, error) {
	parts := strings.Split(value, ",")
	if len(parts) != 4 {
		return world.Bounds{}, fmt.Errorf("expected x,y,width,height, got %q", value)
	}
	var nums [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return world.Bounds{}, fmt.Errorf("field %d: %w", i+1, err)
		}
		nums[i] = n
	}
	if nums[2] <= 0 || nums[3] <= 0 {
		return world.Bounds{}, fmt.Errorf("width and height must be positive")
	}
	return world.Bounds{
		Min: world.Cell{X: nums[0], Y: nums[1]},
		Max: world.Cell{X: nums[0] + nums[2] - 1, Y: nums[1] + nums[3] - 1},
	}, nil
}

func renderPreview(cfg *config.Config, bounds world.Bounds, scale int, path string) error {
	gen := terrain.NewGenerator(cfg)
	chunk := gen.GenerateRegion(bounds.Min.X, bounds.Min.Y, bounds.Width(), bounds.Height())
	return world.SaveRegionPreview(world.ChunkReader(chunk), bounds, scale, path)
}

// renderStream drives the streaming manager headless until it settles, then
// writes what it loaded.
func renderStream(cfg *config.Config, x, y float64, scale int, snapshot, chunkDir string) error {
	srv, err := server.New(cfg)
	if err != nil {
		return err
	}
	defer srv.Close()

	if y < 0 {
		y = float64(srv.Generator().SurfaceHeight(int(x))) + 0.5
	}
	srv.Hub().SetPosition(x, y)

	start := time.Now()
	ticks := 0
	for ; ticks < 100000; ticks++ {
		srv.Step()
		st := srv.Manager().Stats()
		if st.GenQueued == 0 && st.ClearQueued == 0 && !st.InFlight {
			break
		}
	}
	loaded := srv.Manager().Loaded()
	log.Printf("streamed %d chunks in %d ticks (%s)", len(loaded), ticks+1, time.Since(start).Round(time.Millisecond))
	if len(loaded) == 0 {
		return errors.New("nothing was loaded")
	}

	if snapshot != "" {
		grid := srv.Manager().Grid()
		bounds := grid.ChunkBounds(loaded[0])
		for _, coord := range loaded[1:] {
			b := grid.ChunkBounds(coord)
			bounds.Min.X = min(bounds.Min.X, b.Min.X)
			bounds.Min.Y = min(bounds.Min.Y, b.Min.Y)
			bounds.Max.X = max(bounds.Max.X, b.Max.X)
			bounds.Max.Y = max(bounds.Max.Y, b.Max.Y)
		}
		if err := world.SaveRegionPreview(srv.Hub(), bounds, scale, snapshot); err != nil {
			return err
		}
		log.Printf("wrote %s", snapshot)
	}

	if chunkDir != "" {
		grid := srv.Manager().Grid()
		for _, coord := range loaded {
			chunk, _ := srv.Generator().GenerateChunk(grid, coord, srv.Hub())
			if err := world.SaveChunkPreview(chunk, chunkDir, scale); err != nil {
				return err
			}
		}
		log.Printf("wrote %d chunk previews to %s", len(loaded), chunkDir)
	}
	return nil
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(signals)
		select {
		case <-signals:
			cancel()
		case <-ctx.Done():
		}

		time.AfterFunc(10*time.Second, func() {
			log.Printf("forced shutdown after timeout")
			os.Exit(1)
		})
	}()

	return ctx, cancel
}

package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"tileworld/internal/config"
	"tileworld/internal/network"
	"tileworld/internal/props"
	"tileworld/internal/terrain"
	"tileworld/internal/world"
)

const statsInterval = 10 * time.Second

// Server owns one world: the generator, the streaming manager, the tile
// mirror clients connect to and the edit store.
type Server struct {
	cfg       *config.Config
	generator *terrain.Generator
	manager   *world.Manager
	sink      *world.MemorySink
	hub       *network.Hub
	props     *props.Registry
	logger    *log.Logger

	listener net.Listener
	http     *http.Server
}

func New(cfg *config.Config) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	logger := log.New(log.Writer(), "worldgen ", log.LstdFlags|log.Lmicroseconds)
	gen := terrain.NewGenerator(cfg)

	store, err := world.OpenEditStore(cfg.Storage.EditsPath)
	if err != nil {
		return nil, err
	}
	edits, err := world.NewEditOverlay(gen.MagmaPlane(), store)
	if err != nil {
		store.Close()
		return nil, err
	}

	opts := world.NewOptions(cfg)
	sink := world.NewMemorySink(opts.Grid.ChunkSize)
	hub := network.NewHub(cfg, sink, logger)
	hub.SetPosition(0.5, float64(gen.SurfaceHeight(0))+0.5)

	registry := props.NewRegistry(opts.Grid)
	registry.SetListener(hub)
	hub.SetPropSource(registry)

	srv := &Server{
		cfg:       cfg,
		generator: gen,
		manager:   world.NewManager(opts, gen, hub, hub, edits, registry),
		sink:      sink,
		hub:       hub,
		props:     registry,
		logger:    logger,
	}

	if cfg.Network.Listen != "" {
		ln, err := net.Listen("tcp", cfg.Network.Listen)
		if err != nil {
			srv.manager.Close()
			return nil, fmt.Errorf("listen %s: %w", cfg.Network.Listen, err)
		}
		srv.listener = ln
		srv.http = &http.Server{Handler: hub.Handler(), ReadHeaderTimeout: 5 * time.Second}
	}
	logger.Printf("world seed %d, %d edits loaded", cfg.World.Seed, edits.Len())
	return srv, nil
}

// Addr returns the tile stream address, or nil when streaming is disabled.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *Server) Manager() *world.Manager {
	return s.manager
}

func (s *Server) Generator() *terrain.Generator {
	return s.generator
}

func (s *Server) Hub() *network.Hub {
	return s.hub
}

// Run streams chunks at the configured tick rate until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if s.http != nil {
		go func() {
			if err := s.http.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.logger.Printf("tile stream stopped: %v", err)
				cancel()
			}
		}()
		s.logger.Printf("tile stream listening on %s", s.listener.Addr())
		defer s.shutdownHTTP()
	}
	defer s.hub.Close()

	rate := s.cfg.Streaming.TickRate.Duration()
	if rate <= 0 {
		rate = 16 * time.Millisecond
	}
	tick := time.NewTicker(rate)
	defer tick.Stop()

	statsTicker := time.NewTicker(statsInterval)
	defer statsTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e := <-s.hub.Edits():
			s.applyEdit(e)
		case <-tick.C:
			s.Step()
		case <-statsTicker.C:
			st := s.manager.Stats()
			s.logger.Printf("chunks loaded=%d queued=%d clearing=%d generated=%d cleared=%d props=%d edits=%d clients=%d",
				st.Loaded, st.GenQueued, st.ClearQueued, st.Generated, st.Cleared, st.Props, st.Edits, s.hub.ClientCount())
		}
	}
}

// Step runs one streaming tick.
func (s *Server) Step() world.TickResult {
	return s.manager.Tick()
}

func (s *Server) applyEdit(e network.Edit) {
	var err error
	switch {
	case e.Clear:
		err = s.manager.ClearEdit(e.X, e.Y)
	case e.Dig:
		err = s.manager.Dig(e.X, e.Y)
	default:
		err = s.manager.SetEdit(e.X, e.Y, e.Code)
	}
	if err != nil {
		s.logger.Printf("edit from %s at %d,%d rejected: %v", e.Client, e.X, e.Y, err)
	}
}

func (s *Server) shutdownHTTP() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.http.Shutdown(ctx); err != nil {
		s.logger.Printf("shutdown tile stream: %v", err)
	}
}

// Close releases the edit store. Call it after Run returns.
func (s *Server) Close() error {
	if s.listener != nil {
		s.listener.Close()
	}
	return s.manager.Close()
}

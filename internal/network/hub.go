package network

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"tileworld/internal/config"
	"tileworld/internal/props"
	"tileworld/internal/world"
)

const maxMessageSize = 64 * 1024

// Edit is a tile override requested by a client. Clear removes the override
// and Dig empties the cell; otherwise Code is stored.
type Edit struct {
	Client string
	X      int
	Y      int
	Code   world.TileCode
	Clear  bool
	Dig    bool
}

// PropSource lists live props for replay to new clients.
type PropSource interface {
	All() []props.Prop
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Hub mirrors a tile sink to websocket clients. It is itself a world.Sink and
// world.LayerBlitter, so every blit and clear the streaming manager performs
// is broadcast, and a world.Viewer that follows the most recent client
// position.
type Hub struct {
	sink         *world.MemorySink
	logger       *log.Logger
	upgrader     websocket.Upgrader
	seed         int64
	chunkSize    int
	palette      map[string]string
	sendBuffer   int
	writeTimeout time.Duration
	seq          atomic.Uint64

	mu      sync.Mutex
	clients map[string]*client
	props   PropSource

	posMu sync.Mutex
	x, y  float64

	edits chan Edit
}

func NewHub(cfg *config.Config, sink *world.MemorySink, logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.New(log.Writer(), "network ", log.LstdFlags|log.Lmicroseconds)
	}
	timeout := cfg.Network.WriteTimeout.Duration()
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Hub{
		sink:   sink,
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		seed:         cfg.World.Seed,
		chunkSize:    cfg.World.ChunkSize,
		palette:      world.NewPalette(cfg.Palette).Entries(),
		sendBuffer:   max(cfg.Network.SendBuffer, 1),
		writeTimeout: timeout,
		clients:      make(map[string]*client),
		y:            float64(cfg.World.GroundLevel),
		edits:        make(chan Edit, 64),
	}
}

// SetPropSource enables prop replay for clients that connect later.
func (h *Hub) SetPropSource(src PropSource) {
	h.mu.Lock()
	h.props = src
	h.mu.Unlock()
}

// Edits delivers client edit requests. The owner applies them on its own
// goroutine.
func (h *Hub) Edits() <-chan Edit {
	return h.edits
}

func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.HandleWebSocket)
	return mux
}

func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Position implements world.Viewer.
func (h *Hub) Position() (float64, float64) {
	h.posMu.Lock()
	defer h.posMu.Unlock()
	return h.x, h.y
}

// SetPosition moves the viewer, e.g. to a spawn point before any client
// reports one.
func (h *Hub) SetPosition(x, y float64) {
	h.posMu.Lock()
	h.x, h.y = x, y
	h.posMu.Unlock()
}

func (h *Hub) Tile(layer world.Layer, x, y int) (world.TileCode, bool) {
	return h.sink.Tile(layer, x, y)
}

func (h *Hub) BlitRegion(layer world.Layer, originX, originY, w, height int, tiles []world.TileCode) {
	h.sink.BlitRegion(layer, originX, originY, w, height, tiles)
	h.Broadcast(MessageBlit, newBlit(layer, originX, originY, w, height, tiles))
}

func (h *Hub) ClearRegion(layer world.Layer, originX, originY, w, height int) {
	h.sink.ClearRegion(layer, originX, originY, w, height)
	h.Broadcast(MessageClear, Clear{Layer: layer.String(), OriginX: originX, OriginY: originY, Width: w, Height: height})
}

// BlitLayers implements world.LayerBlitter with a single broadcast.
func (h *Hub) BlitLayers(originX, originY, w, height int, fg, bg []world.TileCode) {
	h.sink.BlitLayers(originX, originY, w, height, fg, bg)
	h.Broadcast(MessageBlitLayers, newLayerBlit(originX, originY, w, height, fg, bg))
}

// ClearLayers implements world.LayerBlitter with a single broadcast.
func (h *Hub) ClearLayers(originX, originY, w, height int) {
	h.sink.ClearLayers(originX, originY, w, height)
	h.Broadcast(MessageClear, Clear{OriginX: originX, OriginY: originY, Width: w, Height: height})
}

// Compact implements world.Compacter.
func (h *Hub) Compact() {
	h.sink.Compact()
}

// PropSpawned implements props.Listener.
func (h *Hub) PropSpawned(p props.Prop) {
	h.Broadcast(MessagePropSpawn, propSpawn(p))
}

// PropDestroyed implements props.Listener.
func (h *Hub) PropDestroyed(p props.Prop) {
	h.Broadcast(MessagePropDestroy, PropDestroy{Handle: string(p.Handle)})
}

func propSpawn(p props.Prop) PropSpawn {
	return PropSpawn{Handle: string(p.Handle), Prefab: p.Prefab, X: p.X, Y: p.Y}
}

// Broadcast sends one message to every client. Clients whose send buffer is
// full are disconnected.
func (h *Hub) Broadcast(msgType MessageType, payload any) {
	data, err := h.prepare(msgType, payload)
	if err != nil {
		h.logger.Printf("encode %s: %v", msgType, err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.logger.Printf("client %s too slow, dropping", id)
			delete(h.clients, id)
			close(c.send)
		}
	}
}

func (h *Hub) prepare(msgType MessageType, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return Encode(Envelope{
		Type:      msgType,
		Timestamp: time.Now().UTC(),
		Seq:       h.seq.Add(1),
		Payload:   raw,
	})
}

// HandleWebSocket upgrades the request, sends the hello and a replay of the
// current sink and props, then starts the client pumps.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("upgrade: %v", err)
		return
	}
	c := &client{id: uuid.NewString(), conn: conn}

	h.mu.Lock()
	replay, err := h.replay(c.id)
	if err != nil {
		h.mu.Unlock()
		h.logger.Printf("replay for %s: %v", c.id, err)
		conn.Close()
		return
	}
	c.send = make(chan []byte, len(replay)+h.sendBuffer)
	for _, msg := range replay {
		c.send <- msg
	}
	h.clients[c.id] = c
	h.mu.Unlock()

	h.logger.Printf("client %s connected from %s", c.id, r.RemoteAddr)
	go h.writePump(c)
	go h.readPump(c)
}

// replay must be called with h.mu held so no broadcast interleaves.
func (h *Hub) replay(clientID string) ([][]byte, error) {
	var names []string
	for code := world.Air; code.Valid(); code++ {
		names = append(names, code.String())
	}
	hello, err := h.prepare(MessageHello, Hello{
		ClientID:  clientID,
		Seed:      h.seed,
		ChunkSize: h.chunkSize,
		Tiles:     names,
		Palette:   h.palette,
	})
	if err != nil {
		return nil, err
	}
	out := [][]byte{hello}

	var blitErr error
	h.sink.ForEachBlock(func(origin world.Cell, size int, fg, bg []world.TileCode) bool {
		msg, err := h.prepare(MessageBlitLayers, newLayerBlit(origin.X, origin.Y, size, size, fg, bg))
		if err != nil {
			blitErr = err
			return false
		}
		out = append(out, msg)
		return true
	})
	if blitErr != nil {
		return nil, blitErr
	}

	if h.props != nil {
		for _, p := range h.props.All() {
			msg, err := h.prepare(MessagePropSpawn, propSpawn(p))
			if err != nil {
				return nil, err
			}
			out = append(out, msg)
		}
	}
	return out, nil
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if cur, ok := h.clients[c.id]; ok && cur == c {
		delete(h.clients, c.id)
		close(c.send)
		h.logger.Printf("client %s disconnected", c.id)
	}
}

func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Printf("read from %s: %v", c.id, err)
			}
			return
		}
		env, err := Decode(data)
		if err != nil {
			h.logger.Printf("decode message from %s: %v", c.id, err)
			continue
		}
		if err := h.handle(c, env); err != nil {
			h.reply(c, MessageError, ErrorReply{Message: err.Error()})
		}
	}
}

func (h *Hub) handle(c *client, env Envelope) error {
	switch env.Type {
	case MessageViewer:
		var v ViewerUpdate
		if err := DecodePayload(env, &v); err != nil {
			return err
		}
		h.SetPosition(v.X, v.Y)
	case MessageEdit:
		var req EditRequest
		if err := DecodePayload(env, &req); err != nil {
			return err
		}
		code, ok := world.ParseTileCode(req.Tile)
		if !ok {
			return fmt.Errorf("unknown tile %q", req.Tile)
		}
		return h.queueEdit(Edit{Client: c.id, X: req.X, Y: req.Y, Code: code})
	case MessageClearEdit:
		var req EditRequest
		if err := DecodePayload(env, &req); err != nil {
			return err
		}
		return h.queueEdit(Edit{Client: c.id, X: req.X, Y: req.Y, Clear: true})
	case MessageDig:
		var req EditRequest
		if err := DecodePayload(env, &req); err != nil {
			return err
		}
		return h.queueEdit(Edit{Client: c.id, X: req.X, Y: req.Y, Dig: true})
	default:
		return fmt.Errorf("unsupported message type %q", env.Type)
	}
	return nil
}

func (h *Hub) queueEdit(e Edit) error {
	select {
	case h.edits <- e:
		return nil
	default:
		return fmt.Errorf("edit queue full, dropped edit at %d,%d", e.X, e.Y)
	}
}

// reply sends a message to one client without blocking.
func (h *Hub) reply(c *client, msgType MessageType, payload any) {
	data, err := h.prepare(msgType, payload)
	if err != nil {
		h.logger.Printf("encode %s: %v", msgType, err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if cur, ok := h.clients[c.id]; !ok || cur != c {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func (h *Hub) writePump(c *client) {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.logger.Printf("write to %s: %v", c.id, err)
			return
		}
	}
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		delete(h.clients, id)
		close(c.send)
	}
}

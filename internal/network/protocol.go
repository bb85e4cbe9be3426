package network

import (
	"encoding/json"
	"fmt"
	"time"

	"tileworld/internal/world"
)

type MessageType string

const (
	MessageHello       MessageType = "hello"
	MessageBlit        MessageType = "blit"
	MessageBlitLayers  MessageType = "blitLayers"
	MessageClear       MessageType = "clear"
	MessageViewer      MessageType = "viewer"
	MessageEdit        MessageType = "edit"
	MessageClearEdit   MessageType = "clearEdit"
	MessageDig         MessageType = "dig"
	MessagePropSpawn   MessageType = "propSpawn"
	MessagePropDestroy MessageType = "propDestroy"
	MessageError       MessageType = "error"
)

type Envelope struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Seq       uint64          `json:"seq"`
	Payload   json.RawMessage `json:"payload"`
}

// Hello is the first message on every connection. Tiles lists tile names by
// code so blits can be decoded without a shared table.
type Hello struct {
	ClientID  string            `json:"clientId"`
	Seed      int64             `json:"seed"`
	ChunkSize int               `json:"chunkSize"`
	Tiles     []string          `json:"tiles"`
	Palette   map[string]string `json:"palette"`
}

// Blit carries a row-major, bottom-up rectangle of tile codes. Tiles is
// base64 encoded on the wire.
type Blit struct {
	Layer   string `json:"layer"`
	OriginX int    `json:"originX"`
	OriginY int    `json:"originY"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Tiles   []byte `json:"tiles"`
}

// LayerBlit carries both layers of one rectangle. A missing layer is all Air.
type LayerBlit struct {
	OriginX    int    `json:"originX"`
	OriginY    int    `json:"originY"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Foreground []byte `json:"foreground,omitempty"`
	Background []byte `json:"background,omitempty"`
}

// Clear empties a rectangle. An empty Layer clears both layers.
type Clear struct {
	Layer   string `json:"layer,omitempty"`
	OriginX int    `json:"originX"`
	OriginY int    `json:"originY"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
}

type ViewerUpdate struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type EditRequest struct {
	X    int    `json:"x"`
	Y    int    `json:"y"`
	Tile string `json:"tile,omitempty"`
}

type PropSpawn struct {
	Handle string  `json:"handle"`
	Prefab string  `json:"prefab"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

type PropDestroy struct {
	Handle string `json:"handle"`
}

type ErrorReply struct {
	Message string `json:"message"`
}

func Encode(msg Envelope) ([]byte, error) {
	return json.Marshal(msg)
}

func Decode(data []byte) (Envelope, error) {
	var env Envelope
	err := json.Unmarshal(data, &env)
	return env, err
}

// DecodePayload unmarshals the payload of env into v.
func DecodePayload(env Envelope, v any) error {
	if len(env.Payload) == 0 {
		return fmt.Errorf("%s: empty payload", env.Type)
	}
	if err := json.Unmarshal(env.Payload, v); err != nil {
		return fmt.Errorf("%s: decode payload: %w", env.Type, err)
	}
	return nil
}

// ParseLayer resolves the wire name of a tile layer.
func ParseLayer(name string) (world.Layer, error) {
	switch name {
	case world.Foreground.String():
		return world.Foreground, nil
	case world.Background.String():
		return world.Background, nil
	default:
		return 0, fmt.Errorf("unknown layer %q", name)
	}
}

func newBlit(layer world.Layer, originX, originY, w, h int, tiles []world.TileCode) Blit {
	return Blit{Layer: layer.String(), OriginX: originX, OriginY: originY, Width: w, Height: h, Tiles: tileBytes(tiles)}
}

func newLayerBlit(originX, originY, w, h int, fg, bg []world.TileCode) LayerBlit {
	return LayerBlit{
		OriginX:    originX,
		OriginY:    originY,
		Width:      w,
		Height:     h,
		Foreground: tileBytes(fg),
		Background: tileBytes(bg),
	}
}

func tileBytes(tiles []world.TileCode) []byte {
	if tiles == nil {
		return nil
	}
	raw := make([]byte, len(tiles))
	for i, code := range tiles {
		raw[i] = byte(code)
	}
	return raw
}

func tileCodes(raw []byte) []world.TileCode {
	out := make([]world.TileCode, len(raw))
	for i, v := range raw {
		out[i] = world.TileCode(v)
	}
	return out
}

// Codes returns the blit contents as tile codes.
func (b Blit) Codes() []world.TileCode {
	return tileCodes(b.Tiles)
}

// Codes returns one layer of the blit as tile codes.
func (b LayerBlit) Codes(layer world.Layer) []world.TileCode {
	raw := b.Foreground
	if layer == world.Background {
		raw = b.Background
	}
	if raw == nil {
		return make([]world.TileCode, b.Width*b.Height)
	}
	return tileCodes(raw)
}

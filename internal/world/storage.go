package world

import (
	"encoding/binary"
	"fmt"
)

// EditStore persists player edits so they survive restarts.
type EditStore interface {
	Save(cell Cell, code TileCode) error
	Delete(cell Cell) error
	ForEach(fn func(cell Cell, code TileCode) bool) error
	Close() error
}

// OpenEditStore returns a LevelDB backed store rooted at path, or an in-memory
// store when path is empty.
func OpenEditStore(path string) (EditStore, error) {
	if path == "" {
		return NewMemoryEditStore(), nil
	}
	return OpenLevelDBEditStore(path)
}

const editKeyPrefix = 'e'

func encodeEditKey(cell Cell) []byte {
	key := make([]byte, 17)
	key[0] = editKeyPrefix
	binary.BigEndian.PutUint64(key[1:9], uint64(int64(cell.X)))
	binary.BigEndian.PutUint64(key[9:17], uint64(int64(cell.Y)))
	return key
}

func decodeEditKey(key []byte) (Cell, error) {
	if len(key) != 17 || key[0] != editKeyPrefix {
		return Cell{}, fmt.Errorf("malformed edit key %x", key)
	}
	return Cell{
		X: int(int64(binary.BigEndian.Uint64(key[1:9]))),
		Y: int(int64(binary.BigEndian.Uint64(key[9:17]))),
	}, nil
}

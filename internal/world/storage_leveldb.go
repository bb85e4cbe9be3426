package world

import (
	"fmt"
	"log"
	"os"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

type levelDBEditStore struct {
	db *leveldb.DB
}

// OpenLevelDBEditStore opens (or creates) an edit database at path.
func OpenLevelDBEditStore(path string) (EditStore, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("create edit store directory: %w", err)
	}
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open edit store: %w", err)
	}
	return &levelDBEditStore{db: db}, nil
}

func (s *levelDBEditStore) Save(cell Cell, code TileCode) error {
	if err := s.db.Put(encodeEditKey(cell), []byte{byte(code)}, nil); err != nil {
		return fmt.Errorf("save edit %v: %w", cell, err)
	}
	return nil
}

func (s *levelDBEditStore) Delete(cell Cell) error {
	if err := s.db.Delete(encodeEditKey(cell), nil); err != nil && err != leveldb.ErrNotFound {
		return fmt.Errorf("delete edit %v: %w", cell, err)
	}
	return nil
}

func (s *levelDBEditStore) ForEach(fn func(cell Cell, code TileCode) bool) error {
	iter := s.db.NewIterator(util.BytesPrefix([]byte{editKeyPrefix}), nil)
	defer iter.Release()

	for iter.Next() {
		cell, err := decodeEditKey(iter.Key())
		if err != nil {
			log.Printf("edit store: skipping record: %v", err)
			continue
		}
		value := iter.Value()
		if len(value) != 1 || !TileCode(value[0]).Valid() {
			log.Printf("edit store: skipping invalid tile for %v", cell)
			continue
		}
		if !fn(cell, TileCode(value[0])) {
			break
		}
	}
	if err := iter.Error(); err != nil {
		return fmt.Errorf("iterate edits: %w", err)
	}
	return nil
}

func (s *levelDBEditStore) Close() error {
	return s.db.Close()
}

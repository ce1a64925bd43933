package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/solekta/cartsync/internal/cart"
)

// FileStore keeps one JSON file per key under a data directory.
type FileStore struct {
	dir string
	log *zap.Logger
}

func NewFileStore(dir string, log *zap.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &FileStore{dir: dir, log: log}, nil
}

func (f *FileStore) Load(key string) cart.Items {
	data, err := os.ReadFile(f.path(key))
	if err != nil {
		if !os.IsNotExist(err) {
			f.log.Warn("failed to read cart blob", zap.String("key", key), zap.Error(err))
		}
		return cart.Items{}
	}

	var items cart.Items
	if err := json.Unmarshal(data, &items); err != nil {
		// Corrupt blob is treated as an empty cart.
		f.log.Warn("discarding corrupt cart blob", zap.String("key", key), zap.Error(err))
		return cart.Items{}
	}
	return items
}

func (f *FileStore) Save(key string, items cart.Items) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}

	// Write-then-rename so a crash mid-save never leaves a torn blob.
	tmp := f.path(key) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write cart blob failed: %w", err)
	}
	if err := os.Rename(tmp, f.path(key)); err != nil {
		return fmt.Errorf("rename cart blob failed: %w", err)
	}
	return nil
}

func (f *FileStore) Delete(key string) error {
	if err := os.Remove(f.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete cart blob failed: %w", err)
	}
	return nil
}

func (f *FileStore) path(key string) string {
	return filepath.Join(f.dir, key+".json")
}

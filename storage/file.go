package storage

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileKV stores each key as one file under a data directory. Keys are
// encoded to stay filesystem-safe regardless of the characters they contain.
type FileKV struct {
	dir string
}

// NewFileKV creates the backing directory if needed (0700 - user-only
// access, values contain conversation history).
func NewFileKV(dataDir string) (*FileKV, error) {
	dir := filepath.Join(dataDir, "store")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &FileKV{dir: dir}, nil
}

func encodeKey(key string) string {
	return base64.URLEncoding.EncodeToString([]byte(key)) + ".json"
}

func decodeKey(name string) (string, bool) {
	if !strings.HasSuffix(name, ".json") {
		return "", false
	}
	raw, err := base64.URLEncoding.DecodeString(strings.TrimSuffix(name, ".json"))
	if err != nil {
		return "", false
	}
	return string(raw), true
}

func (f *FileKV) Get(key string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(f.dir, encodeKey(key)))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", key, err)
	}
	return data, nil
}

func (f *FileKV) Set(key string, value []byte) error {
	if err := os.WriteFile(filepath.Join(f.dir, encodeKey(key)), value, 0600); err != nil {
		return fmt.Errorf("failed to write %q: %w", key, err)
	}
	return nil
}

func (f *FileKV) Remove(key string) error {
	err := os.Remove(filepath.Join(f.dir, encodeKey(key)))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to remove %q: %w", key, err)
	}
	return nil
}

func (f *FileKV) Keys(prefix string) ([]string, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read store directory: %w", err)
	}
	var keys []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		key, ok := decodeKey(entry.Name())
		if !ok {
			continue // skip foreign files
		}
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

package docstore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
)

// FileStore is a MemoryStore persisted as one JSON file per collection under
// a data directory. Files are rewritten atomically after every write.
type FileStore struct {
	*MemoryStore
	dir string
}

// OpenFileStore loads every <collection>.json file in dir, creating dir when
// it does not exist yet.
func OpenFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, unavailable("open file store", err)
	}

	mem := NewMemoryStore()
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, unavailable("open file store", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, unavailable("read collection", err)
		}
		var docs []Document
		if err := json.Unmarshal(raw, &docs); err != nil {
			return nil, fmt.Errorf("parse %s: %w", e.Name(), err)
		}
		mem.collections[strings.TrimSuffix(e.Name(), ".json")] = docs
	}

	fs := &FileStore{MemoryStore: mem, dir: dir}
	mem.onWrite = fs.persist
	return fs, nil
}

// Dir returns the data directory.
func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) persist(collection string, docs []Document) error {
	if docs == nil {
		docs = []Document{}
	}
	raw, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return fmt.Errorf("persist %s: %w", collection, err)
	}

	path := filepath.Join(s.dir, collection+".json")
	tmp, err := os.CreateTemp(s.dir, collection+".*.tmp")
	if err != nil {
		return unavailable("persist "+collection, err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return unavailable("persist "+collection, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return unavailable("persist "+collection, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return unavailable("persist "+collection, err)
	}
	return nil
}

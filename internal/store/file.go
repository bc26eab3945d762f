package store

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// FileBackend stores each artifact as a JSON file under a data directory.
// Writes go through a temp file and rename so readers never observe a
// half-written artifact.
type FileBackend struct {
	dir string
}

// NewFile creates the data directory if needed and returns a file backend.
func NewFile(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "store: create data dir %s", dir)
	}
	return &FileBackend{dir: dir}, nil
}

func (f *FileBackend) path(key string) string {
	return filepath.Join(f.dir, key+".json")
}

func (f *FileBackend) Load(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(f.path(key))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "store: read %s", key)
	}
	return data, nil
}

func (f *FileBackend) Save(_ context.Context, key string, data []byte) error {
	tmp, err := os.CreateTemp(f.dir, key+"-*.tmp")
	if err != nil {
		return eris.Wrapf(err, "store: temp file for %s", key)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return eris.Wrapf(err, "store: write %s", key)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return eris.Wrapf(err, "store: close %s", key)
	}
	if err := os.Rename(tmpName, f.path(key)); err != nil {
		os.Remove(tmpName)
		return eris.Wrapf(err, "store: rename %s", key)
	}
	return nil
}

func (f *FileBackend) Close() error { return nil }

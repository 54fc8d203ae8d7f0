package gobdb

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

/* GobFile is a simple atomic-write single-file-database
 * which stores a Go object encoded with encoding/gob.
 *
 * Usage:
 *  gf := gobdb.NewGobFile[YourTypeHere]("yourDB.gob")
 *  err := gf.Save(YourObj)
 *  obj, err := gf.Load()
 *
 * Load on a missing file returns an error matching os.ErrNotExist.
 */
type GobFile[T any] struct {
	filename string
	mu       sync.Mutex
}

func NewGobFile[T any](filename string) *GobFile[T] {
	return &GobFile[T]{filename: filename}
}

func (gf *GobFile[T]) Path() string {
	return gf.filename
}

func (gf *GobFile[T]) Save(obj T) error {
	gf.mu.Lock()
	defer gf.mu.Unlock()

	dir := filepath.Dir(gf.filename)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create directory %q: %w", dir, err)
	}

	// same directory, so the rename below stays on one filesystem
	tempFile, err := os.CreateTemp(dir, ".gob-*")
	if err != nil {
		return fmt.Errorf("cannot create temporary file: %w", err)
	}
	defer os.Remove(tempFile.Name())

	encoder := gob.NewEncoder(tempFile)
	if err := encoder.Encode(obj); err != nil {
		tempFile.Close()
		return fmt.Errorf("cannot encode object: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("cannot close temporary file: %w", err)
	}

	if err := os.Rename(tempFile.Name(), gf.filename); err != nil {
		return fmt.Errorf("cannot rename temporary file to %q: %w", gf.filename, err)
	}

	return nil
}

func (gf *GobFile[T]) Load() (T, error) {
	gf.mu.Lock()
	defer gf.mu.Unlock()

	file, err := os.Open(gf.filename)
	if err != nil {
		return *new(T), fmt.Errorf("cannot open file %q: %w", gf.filename, err)
	}
	defer file.Close()

	decoder := gob.NewDecoder(file)
	var obj T
	if err := decoder.Decode(&obj); err != nil {
		if errors.Is(err, io.EOF) {
			return *new(T), fmt.Errorf("file %q is empty", gf.filename)
		}
		return *new(T), fmt.Errorf("cannot decode object from file %q: %w", gf.filename, err)
	}

	return obj, nil
}

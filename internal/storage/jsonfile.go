package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	// fileMode restricts persisted files to the owner (tokens are secrets).
	fileMode os.FileMode = 0600
	// dirMode restricts the data directory to the owner.
	dirMode os.FileMode = 0700
)

// JSONFile is a single JSON document on disk that is always replaced
// wholesale. Writes go to a temporary file in the same directory which is
// then renamed over the target, so readers never observe a truncated file.
//
// The mutex only serialises access within this process; concurrent writers
// in other processes still race and the last rename wins.
type JSONFile struct {
	mu   sync.Mutex
	path string
}

// NewJSONFile returns a JSONFile for path. The file does not need to exist.
func NewJSONFile(path string) *JSONFile {
	return &JSONFile{path: path}
}

// Path returns the location of the file on disk.
func (f *JSONFile) Path() string {
	return f.path
}

// Read decodes the file into v. It returns found=false and no error when
// the file does not exist.
func (f *JSONFile) Read(v interface{}) (found bool, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.readLocked(v)
}

// Write encodes v as indented JSON and atomically replaces the file.
func (f *JSONFile) Write(v interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writeLocked(v)
}

// Update performs a read-modify-write cycle under the file lock. fn receives
// found=false when the file does not exist yet and returns the value to write;
// a nil value leaves the file untouched.
func (f *JSONFile) Update(v interface{}, fn func(found bool) (interface{}, error)) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	found, err := f.readLocked(v)
	if err != nil {
		return err
	}
	next, err := fn(found)
	if err != nil {
		return err
	}
	if next == nil {
		return nil
	}
	return f.writeLocked(next)
}

// Remove deletes the file. A missing file is not an error.
func (f *JSONFile) Remove() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", f.path, err)
	}
	return nil
}

func (f *JSONFile) readLocked(v interface{}) (bool, error) {
	// #nosec G304 -- path comes from configuration, not from request input
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read %s: %w", f.path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to parse %s: %w", f.path, err)
	}
	return true, nil
}

func (f *JSONFile) writeLocked(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(f.path), err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if err := tmp.Chmod(fileMode); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set permissions on %s: %w", tmpName, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", f.path, err)
	}
	committed = true
	return nil
}

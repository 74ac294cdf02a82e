// Package dirty tracks file contents by hash so that change notifications
// which leave a file's contents as they were can be ignored.
package dirty

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// Tracker remembers the last seen content hash per file.
type Tracker struct {
	mu     sync.RWMutex
	hashes map[string]string
}

// New creates an empty Tracker.
func New() *Tracker {
	return &Tracker{hashes: make(map[string]string)}
}

// computeHash computes SHA256 hash of file contents.
func computeHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func key(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

// Seed records the file's current contents without reporting a change.
func (t *Tracker) Seed(path string) error {
	hash, err := computeHash(path)
	if err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.hashes[key(path)] = hash
	return nil
}

// CheckAndMark hashes the file and records the hash. It returns true when
// the contents differ from the last recorded hash, including the first time
// a file is seen.
func (t *Tracker) CheckAndMark(path string) (bool, error) {
	hash, err := computeHash(path)
	if err != nil {
		return false, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	k := key(path)
	if prev, ok := t.hashes[k]; ok && prev == hash {
		return false, nil
	}
	t.hashes[k] = hash
	return true, nil
}

// GetHash returns the recorded hash for a tracked file.
func (t *Tracker) GetHash(path string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	hash, ok := t.hashes[key(path)]
	return hash, ok
}

// Remove removes a file from tracking.
func (t *Tracker) Remove(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.hashes, key(path))
}

// TotalCount returns the number of tracked files.
func (t *Tracker) TotalCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.hashes)
}

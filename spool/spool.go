// Package spool stages attachment payloads that could not be uploaded.
// Payloads are stored content-addressed so a retried upload of the same
// bytes lands on the same path and repeated failures stay idempotent.
package spool

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

// Spool is a local staging directory for attachment payloads.
type Spool struct {
	basePath string
}

// New creates a spool rooted at basePath.
func New(basePath string) (*Spool, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create spool directory: %w", err)
	}
	return &Spool{basePath: basePath}, nil
}

// Address returns the content address of a payload.
func Address(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Put stores a payload and returns its content-addressed URL
// ("spool://<hex>"). Storing the same bytes twice is a no-op.
func (s *Spool) Put(data []byte) (string, error) {
	addr := Address(data)
	dir := filepath.Join(s.basePath, addr[:2])
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create spool bucket: %w", err)
	}

	path := filepath.Join(dir, addr)
	if _, err := os.Stat(path); err == nil {
		return "spool://" + addr, nil
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write spooled payload: %w", err)
	}
	return "spool://" + addr, nil
}

// Get reads a spooled payload by its content address.
func (s *Spool) Get(addr string) ([]byte, error) {
	if len(addr) < 2 {
		return nil, fmt.Errorf("invalid spool address: %s", addr)
	}
	data, err := os.ReadFile(filepath.Join(s.basePath, addr[:2], addr))
	if err != nil {
		return nil, fmt.Errorf("failed to read spooled payload: %w", err)
	}
	return data, nil
}

// Delete removes a spooled payload. Removing a missing payload is not an
// error.
func (s *Spool) Delete(addr string) error {
	if len(addr) < 2 {
		return fmt.Errorf("invalid spool address: %s", addr)
	}
	if err := os.Remove(filepath.Join(s.basePath, addr[:2], addr)); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to delete spooled payload: %w", err)
	}
	return nil
}

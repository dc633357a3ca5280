package vault

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"sync"

	"gitsnap/internal/snap"
)

// MemoryVault keeps archives in memory. Use in tests.
type MemoryVault struct {
	name string

	mu       sync.Mutex
	archives map[string][]byte
}

var _ snap.Vault = (*MemoryVault)(nil)

func NewMemoryVault(name string) *MemoryVault {
	return &MemoryVault{
		name:     name,
		archives: make(map[string][]byte),
	}
}

func (v *MemoryVault) PutArchive(name string, r io.Reader, size int64) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("reading archive: %w", err)
	}
	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.archives[name]; !ok {
		v.archives[name] = data
	}
	return nil
}

func (v *MemoryVault) GetArchive(name string, w io.Writer) error {
	v.mu.Lock()
	data, ok := v.archives[name]
	v.mu.Unlock()
	if !ok {
		return fmt.Errorf("archive not found: %s", name)
	}
	_, err := io.Copy(w, bytes.NewReader(data))
	return err
}

func (v *MemoryVault) List() ([]string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	names := make([]string, 0, len(v.archives))
	for name := range v.archives {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (v *MemoryVault) ValidateSetup() error { return nil }

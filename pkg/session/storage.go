package session

import (
	"encoding/json"
	"os"
	"sync"
)

// Storage is the minimal persisted key-value surface the store needs.
// Implementations must tolerate Remove of absent keys.
type Storage interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Remove(key string) error
}

// MemoryStorage is a non-persistent Storage for tests and ephemeral use.
type MemoryStorage struct {
	mu   sync.Mutex
	data map[string]string
}

// NewMemoryStorage creates an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: make(map[string]string)}
}

func (m *MemoryStorage) Get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok
}

func (m *MemoryStorage) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MemoryStorage) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// FileStorage persists keys as a single JSON document, the desktop
// equivalent of browser local storage. Writes go through a temp file
// and rename so a crash never leaves a half-written document.
type FileStorage struct {
	mu   sync.Mutex
	path string
	data map[string]string
}

// NewFileStorage loads (or lazily creates) the JSON document at path.
// An unreadable or corrupt document starts empty.
func NewFileStorage(path string) *FileStorage {
	fs := &FileStorage{path: path, data: make(map[string]string)}
	if raw, err := os.ReadFile(path); err == nil {
		_ = json.Unmarshal(raw, &fs.data)
		if fs.data == nil {
			fs.data = make(map[string]string)
		}
	}
	return fs
}

func (f *FileStorage) Get(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	return v, ok
}

func (f *FileStorage) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value
	return f.save()
}

func (f *FileStorage) Remove(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, key)
	return f.save()
}

func (f *FileStorage) save() error {
	raw, err := json.Marshal(f.data)
	if err != nil {
		return err
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}

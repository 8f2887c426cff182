package namecache

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"unicode/utf8"

	"github.com/raphi011/shelf/internal/storage"
)

// FormatVersion is the version written to new cache files.
const FormatVersion = 1

// FileName is the default cache file name inside ~/.shelf/
const FileName = "names.json"

// ErrUnsupportedVersion is recorded by Load when a cache file was written
// by a newer shelf.
var ErrUnsupportedVersion = errors.New("unsupported cache format version")

// record is one persisted key/name pair.
// Strings that are not valid UTF-8 would be mangled by encoding/json, so
// they go into the *_raw fields (base64 via []byte) instead.
type record struct {
	Key     string `json:"key,omitempty"`
	KeyRaw  []byte `json:"key_raw,omitempty"`
	Name    string `json:"name,omitempty"`
	NameRaw []byte `json:"name_raw,omitempty"`
}

type file struct {
	Version int      `json:"version"`
	Entries []record `json:"entries"`
}

func encodeField(s string) (string, []byte) {
	if utf8.ValidString(s) {
		return s, nil
	}
	return "", []byte(s)
}

func decodeField(s string, raw []byte) string {
	if raw != nil {
		return string(raw)
	}
	return s
}

// Store is the in-memory view of a cache file.
type Store struct {
	path    string
	names   map[string]string
	loadErr error
}

// DefaultPath returns ~/.shelf/names.json
func DefaultPath() (string, error) {
	dir, err := storage.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// New returns an empty store that persists to path.
func New(path string) *Store {
	return &Store{path: path, names: make(map[string]string)}
}

// Load reads the cache at path. It never fails: a missing file yields an
// empty store, and an unreadable or corrupt file yields an empty store with
// the cause available from LoadErr.
func Load(path string) *Store {
	s := New(path)

	var f file
	if err := storage.LoadJSON(path, &f); err != nil {
		// Corrupted or unreadable - start fresh
		if !errors.Is(err, os.ErrNotExist) {
			s.loadErr = fmt.Errorf("load name cache: %w", err)
		}
		return s
	}
	if f.Version > FormatVersion {
		s.loadErr = fmt.Errorf("%w: %d", ErrUnsupportedVersion, f.Version)
		return s
	}

	// Later duplicates win
	for _, r := range f.Entries {
		s.names[decodeField(r.Key, r.KeyRaw)] = decodeField(r.Name, r.NameRaw)
	}

	return s
}

// Save writes names to path atomically, replacing any previous content.
func Save(path string, names map[string]string) error {
	f := file{Version: FormatVersion, Entries: make([]record, 0, len(names))}

	// Sorted for stable diffs
	for _, key := range slices.Sorted(maps.Keys(names)) {
		var r record
		r.Key, r.KeyRaw = encodeField(key)
		r.Name, r.NameRaw = encodeField(names[key])
		f.Entries = append(f.Entries, r)
	}

	if err := storage.SaveJSON(path, f); err != nil {
		return fmt.Errorf("save name cache %s: %w", path, err)
	}
	return nil
}

// LoadErr returns the error that made Load fall back to an empty store,
// or nil if the file was missing or loaded cleanly.
func (s *Store) LoadErr() error {
	return s.loadErr
}

// Path returns the file the store persists to.
func (s *Store) Path() string {
	return s.path
}

// Get returns the cached name for key.
func (s *Store) Get(key string) (string, bool) {
	name, ok := s.names[key]
	return name, ok
}

// Put sets the name for key in memory. Call Persist to write it out.
func (s *Store) Put(key, name string) {
	s.names[key] = name
}

// Persist writes the full current mapping to disk.
func (s *Store) Persist() error {
	return Save(s.path, s.names)
}

// Names returns a copy of the mapping.
func (s *Store) Names() map[string]string {
	return maps.Clone(s.names)
}

// Len returns the number of cached names.
func (s *Store) Len() int {
	return len(s.names)
}

// Reset clears all cached names in memory.
func (s *Store) Reset() {
	s.names = make(map[string]string)
}

package lockfile

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/matzehuels/uptix/pkg/errors"
)

// DefaultPath is the lock file name used when none is configured.
const DefaultPath = "uptix.lock"

var errMissingFields = stderrors.New("entry needs metadata.dep_type and lock")

// File is an in-memory lock file. It is safe for concurrent use.
type File struct {
	mu      sync.RWMutex
	entries map[string]json.RawMessage
}

// New returns an empty lock file.
func New() *File {
	return &File{entries: make(map[string]json.RawMessage)}
}

// Load reads the lock file at path. A missing file yields an empty File;
// any other read failure or malformed content is an error, never an empty
// result.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return New(), nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "read %s", path)
	}
	return Parse(path, data)
}

// Parse decodes lock file content. name is only used in error messages.
func Parse(name string, data []byte) (*File, error) {
	f := New()
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New(errors.ErrCodeLockCorrupt, "%s is empty", name)
	}
	if err := json.Unmarshal(data, &f.entries); err != nil {
		return nil, errors.Wrap(errors.ErrCodeLockCorrupt, err, "%s is not a JSON object of entries", name)
	}
	if f.entries == nil {
		// "null"
		return nil, errors.New(errors.ErrCodeLockCorrupt, "%s is not a JSON object of entries", name)
	}
	for key, raw := range f.entries {
		if _, err := decodeEntry(raw); err != nil {
			return nil, errors.Wrap(errors.ErrCodeLockCorrupt, err, "%s: malformed entry %q", name, key)
		}
	}
	return f, nil
}

// Exists reports whether a lock file is present at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Get returns the entry stored under key.
func (f *File) Get(key string) (Entry, bool) {
	f.mu.RLock()
	raw, ok := f.entries[key]
	f.mu.RUnlock()
	if !ok {
		return Entry{}, false
	}
	e, err := decodeEntry(raw)
	if err != nil {
		return Entry{}, false
	}
	return e, true
}

// Raw returns the stored JSON for key as it will be written.
func (f *File) Raw(key string) (json.RawMessage, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	raw, ok := f.entries[key]
	return raw, ok
}

// Merge inserts or replaces the entry for key. The last write wins.
func (f *File) Merge(key string, e Entry) error {
	raw, err := encodeEntry(e)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode lock entry %q", key)
	}
	f.mu.Lock()
	f.entries[key] = raw
	f.mu.Unlock()
	return nil
}

// Keys returns all keys in sorted order.
func (f *File) Keys() []string {
	f.mu.RLock()
	keys := make([]string, 0, len(f.entries))
	for k := range f.entries {
		keys = append(keys, k)
	}
	f.mu.RUnlock()
	sort.Strings(keys)
	return keys
}

// Len returns the number of entries.
func (f *File) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.entries)
}

// Marshal renders the lock file: sorted keys, two-space indent, no
// trailing newline. Entries loaded from disk are written back byte for byte.
func (f *File) Marshal() ([]byte, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if len(f.entries) == 0 {
		return []byte("{}"), nil
	}
	keys := make([]string, 0, len(f.entries))
	for k := range f.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteString("{\n")
	for i, key := range keys {
		name, err := marshalNoEscape(key)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode lock key %q", key)
		}
		buf.WriteString("  ")
		buf.Write(name)
		buf.WriteString(": ")
		buf.Write(f.entries[key])
		if i < len(keys)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Save writes the lock file to path atomically: content goes to a temp
// file in the same directory which then replaces path.
func (f *File) Save(path string) error {
	data, err := f.Marshal()
	if err != nil {
		return err
	}
	return writeAtomic(path, data)
}

// Init writes an empty lock file at path. It fails with ErrCodeUsage when
// the file already exists.
func Init(path string) error {
	if Exists(path) {
		return errors.New(errors.ErrCodeUsage, "%s already exists", filepath.Base(path))
	}
	return New().Save(path)
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "create temp file in %s", dir)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return errors.Wrap(errors.ErrCodeIO, err, "write %s", tmpName)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return errors.Wrap(errors.ErrCodeIO, err, "close %s", tmpName)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return errors.Wrap(errors.ErrCodeIO, err, "chmod %s", tmpName)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return errors.Wrap(errors.ErrCodeIO, fmt.Errorf("rename: %w", err), "replace %s", path)
	}
	return nil
}

package quota

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/fiquant/taxpro-bulk/pkg/utils"
)

// DefaultNamespace prefixes the two persisted keys.
const DefaultNamespace = "paye_bulk_quota"

// FileStore persists State as two string keys in a flat YAML document:
//
//	paye_bulk_quota.month_key: "2026-10"
//	paye_bulk_quota.counter: "2"
//
// Other keys in the file are preserved, so several namespaces can share it.
type FileStore struct {
	path      string
	namespace string
}

// NewFileStore creates a FileStore. An empty namespace uses DefaultNamespace.
func NewFileStore(path, namespace string) *FileStore {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &FileStore{path: path, namespace: namespace}
}

func (f *FileStore) monthKey() string { return f.namespace + ".month_key" }
func (f *FileStore) counterKey() string { return f.namespace + ".counter" }

func (f *FileStore) load() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read quota file: %w", err)
	}

	kv := map[string]string{}
	if err := yaml.Unmarshal(data, &kv); err != nil {
		return nil, fmt.Errorf("failed to parse quota file: %w", err)
	}
	return kv, nil
}

// Read returns the stored state. A missing file reads as the zero State, and
// an unreadable counter reads as 0.
func (f *FileStore) Read(ctx context.Context) (State, error) {
	kv, err := f.load()
	if err != nil {
		return State{}, err
	}
	counter, err := strconv.Atoi(kv[f.counterKey()])
	if err != nil {
		counter = 0
	}
	return State{MonthKey: kv[f.monthKey()], Counter: counter}, nil
}

// Write stores s, replacing the file atomically.
func (f *FileStore) Write(ctx context.Context, s State) error {
	kv, err := f.load()
	if err != nil {
		return err
	}
	kv[f.monthKey()] = s.MonthKey
	kv[f.counterKey()] = strconv.Itoa(s.Counter)

	data, err := yaml.Marshal(kv)
	if err != nil {
		return fmt.Errorf("failed to encode quota file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return fmt.Errorf("failed to create quota directory: %w", err)
	}
	return utils.WriteFileAtomic(f.path, data)
}

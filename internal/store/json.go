package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nao1215/netspider/internal/model"
)

// JSONStore keeps each document in its own "<name>.json" file.
//
// Writes go to a temporary file in the same directory which is synced and
// then renamed over the document. A rename within one directory is atomic
// on POSIX file systems, so a reader sees the old or the new file, never a
// truncated one.
//
// Checkpoint writes documents one by one in the order given. The crawler
// passes visited sets before the frontier so that an interruption between
// two writes can only leave an entry in both documents (which loading
// reconciles), never in neither.
type JSONStore struct {
	// dir is the directory holding the document files.
	dir string
}

// NewJSONStore creates the state directory if needed and returns a store
// rooted at it.
func NewJSONStore(dir string) (*JSONStore, error) {
	if dir == "" {
		return nil, errors.New("json store requires a state directory")
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	return &JSONStore{dir: dir}, nil
}

// Path returns the file path of the named document.
func (s *JSONStore) Path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

// Load reads the named document, creating an empty one if it is missing.
func (s *JSONStore) Load(ctx context.Context, name string) (*model.Batch, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.Path(name))
	if errors.Is(err, os.ErrNotExist) {
		empty := model.NewBatch()
		if err := s.Save(ctx, name, empty); err != nil {
			return nil, fmt.Errorf("failed to initialize document %q: %w", name, err)
		}
		return empty, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: document %q: %w", ErrCorruptDocument, name, err)
	}

	batch := model.NewBatch()
	if err := json.Unmarshal(data, batch); err != nil {
		return nil, fmt.Errorf("%w: document %q: %w", ErrCorruptDocument, name, err)
	}
	return batch, nil
}

// Save atomically replaces the named document.
func (s *JSONStore) Save(ctx context.Context, name string, batch *model.Batch) error {
	if err := validateName(name); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("failed to encode document %q: %w", name, err)
	}
	if err := writeFileAtomic(s.Path(name), data); err != nil {
		return fmt.Errorf("failed to save document %q: %w", name, err)
	}
	return nil
}

// Checkpoint saves the documents in order.
func (s *JSONStore) Checkpoint(ctx context.Context, docs ...Document) error {
	for _, doc := range docs {
		if err := s.Save(ctx, doc.Name, doc.Batch); err != nil {
			return err
		}
	}
	return nil
}

// Close is a no-op; the JSON store holds no open handles.
func (s *JSONStore) Close() error {
	return nil
}

// writeFileAtomic writes data to a temporary sibling of path and renames it
// into place after an fsync.
func writeFileAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpPath) //nolint:errcheck // Best effort cleanup
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close() //nolint:errcheck // Write error takes precedence
		return err
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close() //nolint:errcheck // Sync error takes precedence
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmpPath, 0600); err != nil {
		return err
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return err
	}

	// Persist the rename itself. Not every platform allows syncing a
	// directory, so failures here are ignored.
	if d, derr := os.Open(dir); derr == nil { //nolint:gosec // Directory of our own state file
		_ = d.Sync()  //nolint:errcheck // Best effort
		_ = d.Close() //nolint:errcheck // Best effort
	}
	return nil
}

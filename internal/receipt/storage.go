package receipt

import (
	"fmt"
	"os"
	"path/filepath"
)

// Storage persists the original uploads. A receipt only references the name
// returned by Save; the bytes live here, not in the database.
type Storage interface {
	// Save writes an upload and returns the name it is stored under
	Save(filename string, data []byte) (string, error)

	// Get returns the stored bytes for a name returned by Save
	Get(name string) ([]byte, error)

	// Delete removes a stored upload
	Delete(name string) error
}

// LocalStorage keeps uploads as plain files in a single directory.
type LocalStorage struct {
	dir string
}

// NewLocalStorage returns a store rooted at dir, creating the directory if
// needed.
func NewLocalStorage(dir string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}
	return &LocalStorage{dir: dir}, nil
}

func (l *LocalStorage) resolve(name string) string {
	return filepath.Join(l.dir, name)
}

// Save writes the upload under the given name.
func (l *LocalStorage) Save(filename string, data []byte) (string, error) {
	if err := os.WriteFile(l.resolve(filename), data, 0644); err != nil {
		return "", fmt.Errorf("writing upload %s: %w", filename, err)
	}
	return filename, nil
}

// Get reads a stored upload back.
func (l *LocalStorage) Get(name string) ([]byte, error) {
	data, err := os.ReadFile(l.resolve(name))
	if err != nil {
		return nil, fmt.Errorf("reading upload %s: %w", name, err)
	}
	return data, nil
}

// Delete removes a stored upload.
func (l *LocalStorage) Delete(name string) error {
	if err := os.Remove(l.resolve(name)); err != nil {
		return fmt.Errorf("deleting upload %s: %w", name, err)
	}
	return nil
}

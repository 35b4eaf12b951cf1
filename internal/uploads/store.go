package uploads

import (
	"errors"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ErrEmptyFileName is returned when sanitizing leaves nothing usable.
var ErrEmptyFileName = errors.New("empty file name")

// Store writes product images into a fixed local directory and hands back the
// public relative path clients use to fetch them. A second upload with the
// same name overwrites the earlier file in place.
type Store struct {
	dir        string
	publicPath string
}

// NewStore builds a store rooted at dir, served under publicPath.
func NewStore(dir, publicPath string) *Store {
	return &Store{dir: dir, publicPath: publicPath}
}

// Save persists the reader's content under a sanitized version of fileName
// and returns the public relative path for the product record.
func (s *Store) Save(fileName string, r io.Reader) (string, error) {
	name, err := SanitizeFileName(fileName)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", err
	}

	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}

	return path.Join(s.publicPath, name), nil
}

// Remove deletes a previously stored image given its public relative path.
// Missing files are not an error.
func (s *Store) Remove(publicRel string) error {
	name := path.Base(publicRel)
	if name == "." || name == "/" {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Dir returns the backing directory, for static file serving.
func (s *Store) Dir() string {
	return s.dir
}

// SanitizeFileName strips directory components and path-traversal segments
// from a client-supplied file name.
func SanitizeFileName(fileName string) (string, error) {
	name := strings.ReplaceAll(fileName, "\\", "/")
	name = path.Base(path.Clean("/" + name))
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == "/" {
		return "", ErrEmptyFileName
	}
	return name, nil
}

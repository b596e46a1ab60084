package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"
)

// File is an on-disk Storage keeping one JSON envelope file per key under a
// root directory. Writes go through a temp file and rename.
type File struct {
	root string
}

type fileEnvelope struct {
	ExpiresAt time.Time `json:"expires_at,omitzero"`
	Payload   []byte    `json:"payload"`
}

func NewFile(root string) (*File, error) {
	if err := os.MkdirAll(root, 0o700); err != nil {
		return nil, fmt.Errorf("cache: creating %s: %w", root, err)
	}
	return &File{root: root}, nil
}

var unsafePathChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

func (f *File) path(key string) string {
	return filepath.Join(f.root, unsafePathChars.ReplaceAllString(key, "-")+".json")
}

func (f *File) Get(key string) ([]byte, error) {
	path := f.path(key)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var env fileEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("cache: corrupt entry %s: %w", path, err)
	}
	if !env.ExpiresAt.IsZero() && time.Now().After(env.ExpiresAt) {
		os.Remove(path)
		return nil, nil
	}
	return env.Payload, nil
}

func (f *File) Set(key string, val []byte, exp time.Duration) error {
	env := fileEnvelope{Payload: append([]byte(nil), val...)}
	if exp > 0 {
		env.ExpiresAt = time.Now().Add(exp)
	}
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}

	path := f.path(key)
	tmp, err := os.CreateTemp(f.root, ".entry-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

func (f *File) Delete(key string) error {
	if err := os.Remove(f.path(key)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (f *File) Reset() error {
	if err := os.RemoveAll(f.root); err != nil {
		return err
	}
	return os.MkdirAll(f.root, 0o700)
}

func (f *File) Close() error { return nil }

package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Disk stores objects as flat files under a single root directory.
// Every key is resolved and checked for containment before any I/O, so
// a hostile key can never reach outside the root.
type Disk struct {
	root string
}

// NewDisk creates the root directory if needed and returns a store
// rooted at its absolute path.
func NewDisk(root string) (*Disk, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o700); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &Disk{root: abs}, nil
}

// Root returns the absolute storage root path.
func (d *Disk) Root() string { return d.root }

// path resolves key under the root and rejects anything that escapes it.
func (d *Disk) path(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("empty key: %w", ErrPathViolation)
	}
	p := filepath.Join(d.root, key)
	if p != d.root && !strings.HasPrefix(p, d.root+string(filepath.Separator)) {
		return "", fmt.Errorf("key %q: %w", key, ErrPathViolation)
	}
	// Joined path must stay a direct child; keys are flat by contract.
	if filepath.Dir(p) != d.root {
		return "", fmt.Errorf("key %q: %w", key, ErrPathViolation)
	}
	return p, nil
}

func (d *Disk) Create(_ context.Context, key string) (io.WriteCloser, error) {
	p, err := d.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, fmt.Errorf("create object %q: %w", key, err)
	}
	return f, nil
}

func (d *Disk) Open(_ context.Context, key string) (io.ReadCloser, int64, error) {
	p, err := d.path(key)
	if err != nil {
		return nil, 0, err
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, 0, fmt.Errorf("open object %q: %w", key, err)
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, fmt.Errorf("stat object %q: %w", key, err)
	}
	return f, st.Size(), nil
}

func (d *Disk) Remove(_ context.Context, key string) error {
	p, err := d.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		return fmt.Errorf("remove object %q: %w", key, err)
	}
	return nil
}

func (d *Disk) Exists(_ context.Context, key string) (bool, error) {
	p, err := d.path(key)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(p); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat object %q: %w", key, err)
	}
	return true, nil
}

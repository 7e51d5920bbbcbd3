package drop

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"sync"
)

// Delivery is an open stream for exactly one file. Closing it, on any
// exit path, runs the one-time cleanup that deletes the backing object
// and removes the entry from the session: once a delivery starts, the
// file is gone regardless of how the transfer ends.
type Delivery struct {
	Name string // display name for the receiver
	Size int64

	code   string
	fileID string
	key    string
	rc     io.ReadCloser
	reg    *Registry
	once   sync.Once
}

func (d *Delivery) Read(p []byte) (int, error) { return d.rc.Read(p) }

// Close releases the stream and runs the consume step exactly once.
// Storage failures during cleanup are logged and swallowed; the entry
// is removed regardless, since retrying a broken backing object serves
// no purpose.
func (d *Delivery) Close() error {
	d.once.Do(func() {
		_ = d.rc.Close()
		if err := d.reg.store.Remove(context.Background(), d.key); err != nil {
			log.Printf("service=delivery msg=%q session=%s file=%s err=%v",
				"object_remove_failed", d.code, d.fileID, err)
		}
		d.reg.Remove(d.code, d.fileID)
	})
	return nil
}

// BeginDelivery implements the read-then-delete contract. It atomically
// moves the entry from Available to Delivering, touches the session so
// a long transfer cannot expire it mid-download, and opens the backing
// object. Any entry that is absent or not Available fails with
// ErrNotFound; a concurrent second attempt on the same file loses the
// Available->Delivering race and fails fast without blocking on the
// winner's transfer.
func (r *Registry) BeginDelivery(ctx context.Context, code, fileID string) (*Delivery, error) {
	r.mu.Lock()
	s, ok := r.sessions[code]
	if !ok {
		r.mu.Unlock()
		return nil, ErrNotFound
	}
	e := s.entry(fileID)
	if e == nil || e.state != StateAvailable {
		r.mu.Unlock()
		return nil, ErrNotFound
	}
	e.state = StateDelivering
	s.lastActivity = r.clock.Now()
	name, size, key := e.Name, e.Size, e.StorageKey
	r.mu.Unlock()

	rc, openSize, err := r.store.Open(ctx, key)
	if err != nil {
		// The entry pointed at nothing usable; drop it so listings
		// stop advertising it.
		r.Remove(code, fileID)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("open backing object: %w", err)
	}
	if openSize > 0 {
		size = openSize
	}

	return &Delivery{
		Name:   name,
		Size:   size,
		code:   code,
		fileID: fileID,
		key:    key,
		rc:     rc,
		reg:    r,
	}, nil
}

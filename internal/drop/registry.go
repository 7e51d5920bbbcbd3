package drop

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"lan-drop/internal/storage"
)

// FileState tracks where a file entry is in its delivery lifecycle.
type FileState int

const (
	// StateAvailable means the entry can be delivered.
	StateAvailable FileState = iota
	// StateDelivering means a delivery holds the entry exclusively.
	StateDelivering
	// StateConsumed is terminal; the entry is removed on reaching it.
	StateConsumed
)

func (s FileState) String() string {
	switch s {
	case StateAvailable:
		return "available"
	case StateDelivering:
		return "delivering"
	case StateConsumed:
		return "consumed"
	default:
		return "unknown"
	}
}

// FileEntry is the registry's record of one uploaded, not-yet-delivered
// file.
type FileEntry struct {
	ID         string
	Name       string // display name, labeling only
	StorageKey string
	Size       int64

	state FileState
}

// State returns the entry's lifecycle state.
func (e FileEntry) State() FileState { return e.state }

// FileInfo is the receiver-facing summary of an available entry.
type FileInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// SessionInfo is a read-only snapshot of a session's metadata.
type SessionInfo struct {
	ID           string
	CreatedAt    time.Time
	LastActivity time.Time
	FileCount    int
}

// session is the registry-owned mutable state. Only the registry holds
// a reference; callers get snapshots.
type session struct {
	id           string
	createdAt    time.Time
	lastActivity time.Time
	files        []*FileEntry
}

func (s *session) info() SessionInfo {
	return SessionInfo{
		ID:           s.id,
		CreatedAt:    s.createdAt,
		LastActivity: s.lastActivity,
		FileCount:    len(s.files),
	}
}

func (s *session) entry(fileID string) *FileEntry {
	for _, e := range s.files {
		if e.ID == fileID {
			return e
		}
	}
	return nil
}

// Registry is the concurrency-safe map from drop code to session
// state. It exclusively owns all sessions and file entries; a single
// coarse mutex guards every read and mutation, and no I/O happens
// under the lock.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*session

	clock clockwork.Clock
	store storage.Store
}

// NewRegistry returns an empty registry using the given store for
// backing objects and clock for activity timestamps.
func NewRegistry(store storage.Store, clock clockwork.Clock) *Registry {
	return &Registry{
		sessions: make(map[string]*session),
		clock:    clock,
		store:    store,
	}
}

// NewCode draws codes until one does not collide with a live session.
// It has no side effect beyond the existence check; the caller
// typically follows up with Ensure.
func (r *Registry) NewCode() string {
	for {
		code := randomCode()
		r.mu.Lock()
		_, taken := r.sessions[code]
		r.mu.Unlock()
		if !taken {
			return code
		}
	}
}

// Ensure returns the session for code, creating it if absent.
// Concurrent callers for the same code all observe the same session.
func (r *Registry) Ensure(code string) SessionInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[code]
	if !ok {
		now := r.clock.Now()
		s = &session{id: code, createdAt: now, lastActivity: now}
		r.sessions[code] = s
	}
	return s.info()
}

// Get looks a session up without creating it.
func (r *Registry) Get(code string) (SessionInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[code]
	if !ok {
		return SessionInfo{}, false
	}
	return s.info(), true
}

// Touch refreshes the session's activity timestamp. A session may
// legitimately vanish between a caller's lookup and this call, so a
// missing code is a no-op, not an error.
func (r *Registry) Touch(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[code]; ok {
		s.lastActivity = r.clock.Now()
	}
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// AddFiles appends completed uploads to the session in order and
// touches it. It reports ErrSessionGone if the session no longer
// exists; callers racing expiry can re-create via Ensure and retry.
func (r *Registry) AddFiles(code string, entries []FileEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[code]
	if !ok {
		return ErrSessionGone
	}
	for _, e := range entries {
		e.state = StateAvailable
		added := e
		s.files = append(s.files, &added)
	}
	s.lastActivity = r.clock.Now()
	return nil
}

// ListAvailable returns the session's available entries whose backing
// object is confirmed present, in upload order, and touches the
// session. Entries whose object is missing are pruned, not reported.
// An unknown code yields an empty list.
func (r *Registry) ListAvailable(ctx context.Context, code string) []FileInfo {
	r.mu.Lock()
	s, ok := r.sessions[code]
	if !ok {
		r.mu.Unlock()
		return nil
	}
	s.lastActivity = r.clock.Now()
	candidates := make([]FileEntry, 0, len(s.files))
	for _, e := range s.files {
		if e.state == StateAvailable {
			candidates = append(candidates, *e)
		}
	}
	r.mu.Unlock()

	// Existence reconciliation happens outside the lock; the store is
	// best-effort confirmation, the registry stays authoritative.
	infos := make([]FileInfo, 0, len(candidates))
	for _, e := range candidates {
		ok, err := r.store.Exists(ctx, e.StorageKey)
		if err != nil {
			log.Printf("service=registry msg=%q session=%s file=%s err=%v",
				"exists_check_failed", code, e.ID, err)
			continue
		}
		if !ok {
			r.Remove(code, e.ID)
			continue
		}
		infos = append(infos, FileInfo{ID: e.ID, Name: e.Name, Size: e.Size})
	}
	return infos
}

// Remove drops one file entry from the session. Removing an absent
// entry or an absent session is a no-op.
func (r *Registry) Remove(code, fileID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[code]
	if !ok {
		return
	}
	for i, e := range s.files {
		if e.ID == fileID {
			e.state = StateConsumed
			s.files = append(s.files[:i], s.files[i+1:]...)
			s.lastActivity = r.clock.Now()
			return
		}
	}
}

// Delete removes the whole session and returns its remaining entries
// for backing-object cleanup by the caller. Deleting an unknown code
// returns nil.
func (r *Registry) Delete(code string) []FileEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[code]
	if !ok {
		return nil
	}
	delete(r.sessions, code)
	removed := make([]FileEntry, 0, len(s.files))
	for _, e := range s.files {
		removed = append(removed, *e)
	}
	s.files = nil
	return removed
}

// EndSession deletes the session and best-effort removes every
// remaining backing object. Storage failures are logged and do not
// stop the remaining removals.
func (r *Registry) EndSession(ctx context.Context, code string) {
	for _, e := range r.Delete(code) {
		if err := r.store.Remove(ctx, e.StorageKey); err != nil {
			log.Printf("service=registry msg=%q session=%s file=%s err=%v",
				"object_remove_failed", code, e.ID, err)
		}
	}
}

// Expired snapshots the codes of sessions whose last activity is older
// than ttl.
func (r *Registry) Expired(ttl time.Duration) []string {
	cutoff := r.clock.Now().Add(-ttl)
	r.mu.Lock()
	defer r.mu.Unlock()
	var codes []string
	for code, s := range r.sessions {
		if s.lastActivity.Before(cutoff) {
			codes = append(codes, code)
		}
	}
	return codes
}

package server

import (
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"log"
	"mime/multipart"
	"net/http"

	"lan-drop/internal/drop"
)

// uploadedFile echoes one accepted file back to the sender.
type uploadedFile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Size int64  `json:"size"`
}

type uploadResp struct {
	OK       bool           `json:"ok"`
	Uploaded []uploadedFile `json:"uploaded"`
}

// uploadHandler handles POST /api/upload/{code}: multipart form data
// with one or more "files" parts. Each part is streamed to storage
// under a reserved key; entries are registered only after their bytes
// are fully written, so an aborted part leaves nothing behind.
func (cfg Config) uploadHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		code := r.PathValue("code")
		rid := RequestIDFromContext(r.Context())

		if cfg.MaxUploadBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, cfg.MaxUploadBytes)
		}

		// Lazy creation: uploading to a not-yet-seen code opens it.
		cfg.Registry.Ensure(code)

		mr, err := r.MultipartReader()
		if err != nil {
			http.Error(w, "bad multipart", http.StatusBadRequest)
			return
		}

		var entries []drop.FileEntry
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				GetMetrics().RecordUploadError()
				discardEntries(r, cfg, entries)
				var maxErr *http.MaxBytesError
				if errors.As(err, &maxErr) {
					http.Error(w, "file too large", http.StatusRequestEntityTooLarge)
					return
				}
				http.Error(w, "bad multipart", http.StatusBadRequest)
				return
			}

			if part.FormName() != "files" || part.FileName() == "" {
				_ = part.Close()
				continue
			}

			entry, err := cfg.saveUpload(r, part, code)
			_ = part.Close()
			if err != nil {
				GetMetrics().RecordUploadError()
				discardEntries(r, cfg, entries)
				if errors.Is(err, drop.ErrInvalidName) {
					http.Error(w, "invalid filename", http.StatusBadRequest)
					return
				}
				var maxErr *http.MaxBytesError
				if errors.As(err, &maxErr) {
					http.Error(w, "file too large", http.StatusRequestEntityTooLarge)
					return
				}
				log.Printf("rid=%s msg=%q session=%s err=%v", rid, "upload_failed", code, err)
				http.Error(w, "upload failed", http.StatusBadGateway)
				return
			}
			entries = append(entries, entry)
		}

		if len(entries) == 0 {
			http.Error(w, "no files selected", http.StatusBadRequest)
			return
		}

		if err := cfg.Registry.AddFiles(code, entries); err != nil {
			// The session expired while we were streaming. Re-create
			// and retry once rather than losing a completed upload.
			if errors.Is(err, drop.ErrSessionGone) {
				cfg.Registry.Ensure(code)
				err = cfg.Registry.AddFiles(code, entries)
			}
			if err != nil {
				discardEntries(r, cfg, entries)
				http.Error(w, "session gone", http.StatusConflict)
				return
			}
		}

		resp := uploadResp{OK: true}
		for _, e := range entries {
			GetMetrics().RecordUpload(e.Size)
			resp.Uploaded = append(resp.Uploaded, uploadedFile{ID: e.ID, Name: e.Name, Size: e.Size})
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(resp)
	})
}

// saveUpload streams one multipart part into a reserved storage key
// and returns the entry to register. On any failure the partial object
// is removed before the error is reported.
func (cfg Config) saveUpload(r *http.Request, part *multipart.Part, code string) (drop.FileEntry, error) {
	res, err := drop.NewReservation(part.FileName())
	if err != nil {
		return drop.FileEntry{}, err
	}

	wc, err := cfg.Store.Create(r.Context(), res.StorageKey)
	if err != nil {
		return drop.FileEntry{}, err
	}

	n, err := io.Copy(wc, part)
	if cerr := wc.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		if rerr := cfg.Store.Remove(r.Context(), res.StorageKey); rerr != nil && !errors.Is(rerr, fs.ErrNotExist) {
			log.Printf("service=upload msg=%q session=%s key=%s err=%v",
				"partial_object_remove_failed", code, res.StorageKey, rerr)
		}
		return drop.FileEntry{}, err
	}

	return drop.FileEntry{
		ID:         res.FileID,
		Name:       res.Name,
		StorageKey: res.StorageKey,
		Size:       n,
	}, nil
}

// discardEntries removes objects already written in a request whose
// later parts failed, so a rejected upload registers nothing.
func discardEntries(r *http.Request, cfg Config, entries []drop.FileEntry) {
	for _, e := range entries {
		if err := cfg.Store.Remove(r.Context(), e.StorageKey); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Printf("service=upload msg=%q key=%s err=%v", "discard_failed", e.StorageKey, err)
		}
	}
}

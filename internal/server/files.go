package server

import (
	"encoding/json"
	"net/http"

	"lan-drop/internal/drop"
)

type listFilesResp struct {
	OK    bool            `json:"ok"`
	Files []drop.FileInfo `json:"files"`
}

// listFilesHandler returns the session's currently available files.
// An unknown code yields an empty list; reads never create sessions
// and never distinguish "never existed" from "already gone".
func (cfg Config) listFilesHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		code := r.PathValue("code")

		files := cfg.Registry.ListAvailable(r.Context(), code)
		if files == nil {
			files = []drop.FileInfo{}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(listFilesResp{OK: true, Files: files})
	})
}

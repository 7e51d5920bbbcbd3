package server

import (
	"encoding/json"
	"net/http"
)

// newSessionResp is the JSON response for a freshly created drop.
type newSessionResp struct {
	OK        bool     `json:"ok"`
	SessionID string   `json:"session_id"`
	IPs       []string `json:"ips"`
}

// newSessionHandler mints a fresh drop code, creates the session and
// returns the LAN addresses the sender can share.
func (cfg Config) newSessionHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost && r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		code := cfg.Registry.NewCode()
		cfg.Registry.Ensure(code)
		GetMetrics().RecordSessionCreated()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(newSessionResp{
			OK:        true,
			SessionID: code,
			IPs:       LocalIPCandidates(),
		})
	})
}

// endSessionHandler removes the session and its remaining backing
// objects. Ending an unknown session is a success; there is nothing
// left either way.
func (cfg Config) endSessionHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		code := r.PathValue("code")
		cfg.Registry.EndSession(r.Context(), code)
		GetMetrics().RecordSessionEnded()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	})
}

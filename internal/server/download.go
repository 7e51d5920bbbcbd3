package server

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"lan-drop/internal/drop"
)

// downloadHandler streams one file to the receiver. Beginning the
// delivery consumes the file: the deferred Close deletes the backing
// object and the entry whether the transfer completes, errors out, or
// the receiver disconnects mid-stream.
func (cfg Config) downloadHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		code := r.PathValue("code")
		fileID := r.PathValue("file")
		rid := RequestIDFromContext(r.Context())

		d, err := cfg.Registry.BeginDelivery(r.Context(), code, fileID)
		if err != nil {
			if errors.Is(err, drop.ErrNotFound) {
				// Consumed, mid-delivery elsewhere, or never existed:
				// one uniform answer, nothing to enumerate.
				GetMetrics().RecordDeliveryConflict()
				http.Error(w, "not found", http.StatusNotFound)
				return
			}
			log.Printf("rid=%s msg=%q session=%s file=%s err=%v", rid, "delivery_open_failed", code, fileID, err)
			http.Error(w, "storage error", http.StatusBadGateway)
			return
		}
		defer func() { _ = d.Close() }()

		w.Header().Set("Content-Type", "application/octet-stream")
		if d.Size > 0 {
			w.Header().Set("Content-Length", strconv.FormatInt(d.Size, 10))
		}
		// Encourage safe download behavior in browsers.
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, quoteName(d.Name)))
		w.WriteHeader(http.StatusOK)

		n, err := io.Copy(w, d)
		if err != nil {
			// Receiver went away; the deferred Close still consumes
			// the file.
			log.Printf("rid=%s msg=%q session=%s file=%s sent=%d err=%v",
				rid, "download_aborted", code, fileID, n, err)
			return
		}
		GetMetrics().RecordDownload(n)
	})
}

// quoteName makes a display name safe inside a quoted header value.
func quoteName(name string) string {
	name = strings.NewReplacer(`"`, "_", "\r", "_", "\n", "_", `\`, "_").Replace(name)
	if name == "" {
		name = "download"
	}
	return name
}

package server

import (
	"net/http"
	"strconv"

	qrcode "github.com/skip2/go-qrcode"
)

const (
	qrMinSize     = 128
	qrMaxSize     = 1024
	qrDefaultSize = 256
)

// qrHandler renders a QR PNG for arbitrary text, typically the
// receiver URL for a drop code.
func (cfg Config) qrHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		text := r.URL.Query().Get("text")
		if text == "" {
			http.Error(w, "missing text", http.StatusBadRequest)
			return
		}

		size := qrDefaultSize
		if raw := r.URL.Query().Get("size"); raw != "" {
			if v, err := strconv.Atoi(raw); err == nil {
				size = v
			}
		}
		if size < qrMinSize {
			size = qrMinSize
		}
		if size > qrMaxSize {
			size = qrMaxSize
		}

		png, err := qrcode.Encode(text, qrcode.Medium, size)
		if err != nil {
			http.Error(w, "qr encoding failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(png)
	})
}

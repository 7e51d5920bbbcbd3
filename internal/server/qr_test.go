package server

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func TestQRHandler_MissingText(t *testing.T) {
	cfg, _ := newTestConfig()
	h := Handler(cfg)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/qr.png", nil))

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rr.Code)
	}
}

func TestQRHandler_RendersPNG(t *testing.T) {
	cfg, _ := newTestConfig()
	h := Handler(cfg)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/qr.png?text=http://192.168.1.10:8080/receiver?session=AB12CD", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("expected image/png, got %q", ct)
	}
	if !bytes.HasPrefix(rr.Body.Bytes(), pngMagic) {
		t.Error("response is not a PNG")
	}
}

func TestQRHandler_SizeClamped(t *testing.T) {
	cfg, _ := newTestConfig()
	h := Handler(cfg)

	for _, raw := range []string{"1", "99999", "notanumber", ""} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/qr.png?text=hello&size="+raw, nil))
		if rr.Code != http.StatusOK {
			t.Errorf("size=%q: expected 200, got %d", raw, rr.Code)
		}
	}
}

//
// LAN Drop - End-to-End Test
//
// Purpose:
//   Validates the drop lifecycle against a real MinIO instance using
//   dockertest: it starts an ephemeral MinIO container, creates the
//   bucket, wires the MinIO-backed store into the registry, uploads a
//   payload through the HTTP API, and verifies the read-then-delete
//   delivery contract end to end.
//
// Usage:
//   Requires Docker available to the test runner. Run:
//     go test -v ./tests/e2e -run TestDropOverMinio
//   Optional env:
//     DROP_MINIO_TEST_TAG  override MinIO image tag for compatibility.
//
// Notes:
//   - Network ports are dynamically mapped by dockertest; the test
//     queries the assigned host port and points the store at it.
//   - The suite is self-contained and does not require a local stack
//     to be running.

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"lan-drop/internal/drop"
	"lan-drop/internal/server"
	"lan-drop/internal/storage"
)

func TestDropOverMinio(t *testing.T) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("could not connect to docker: %v", err)
	}
	if err := pool.Client.Ping(); err != nil {
		t.Skipf("docker not available: %v", err)
	}

	// MinIO (tag can be overridden by DROP_MINIO_TEST_TAG env var)
	tag := os.Getenv("DROP_MINIO_TEST_TAG")
	if tag == "" {
		tag = "RELEASE.2024-01-31T20-20-33Z"
	}
	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "minio/minio",
		Tag:        tag,
		Cmd:        []string{"server", "/data"},
		Env: []string{
			"MINIO_ROOT_USER=minio",
			"MINIO_ROOT_PASSWORD=minio123",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
	})
	if err != nil {
		t.Fatalf("could not start minio: %v", err)
	}
	defer func() { _ = pool.Purge(resource) }()
	port := resource.GetPort("9000/tcp")

	// Wait for minio to be fully ready
	if err := pool.Retry(func() error {
		resp, err := http.Get("http://localhost:" + port + "/minio/health/live")
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != 200 {
			return fmt.Errorf("minio not ready: %d", resp.StatusCode)
		}
		return nil
	}); err != nil {
		t.Fatalf("minio not ready: %v", err)
	}

	// Create bucket using minio-go client (avoids relying on external `mc` binary)
	mc, err := minio.New("localhost:"+port, &minio.Options{
		Creds:  credentials.NewStaticV4("minio", "minio123", ""),
		Secure: false,
	})
	if err != nil {
		t.Fatalf("failed to create minio client: %v", err)
	}
	bucket := "drops"
	if err := mc.MakeBucket(context.Background(), bucket, minio.MakeBucketOptions{}); err != nil {
		exists, err2 := mc.BucketExists(context.Background(), bucket)
		if err2 != nil || !exists {
			t.Fatalf("could not create or verify bucket: %v / %v", err, err2)
		}
	}

	store, err := storage.NewMinio(context.Background(), storage.MinioConfig{
		Endpoint:  "localhost:" + port,
		AccessKey: "minio",
		SecretKey: "minio123",
		Bucket:    bucket,
	})
	if err != nil {
		t.Fatalf("minio store: %v", err)
	}

	registry := drop.NewRegistry(store, clockwork.NewRealClock())
	srv := httptest.NewServer(server.Handler(server.Config{
		Build:    server.BuildInfo{Version: "e2e", Commit: "none"},
		Registry: registry,
		Store:    store,
	}))
	defer srv.Close()

	client := &http.Client{Timeout: 60 * time.Second}

	// Upload through the HTTP API; the payload lands in MinIO.
	payload := bytes.Repeat([]byte("drop-payload-"), 4096)
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("files", "payload.bin")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	if _, err := fw.Write(payload); err != nil {
		t.Fatalf("write payload: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	resp, err := client.Post(srv.URL+"/api/upload/MINIO1", mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	var upBody struct {
		OK       bool `json:"ok"`
		Uploaded []struct {
			ID   string `json:"id"`
			Size int64  `json:"size"`
		} `json:"uploaded"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&upBody); err != nil {
		t.Fatalf("decode upload: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || len(upBody.Uploaded) != 1 {
		t.Fatalf("unexpected upload result: status=%d body=%+v", resp.StatusCode, upBody)
	}
	if upBody.Uploaded[0].Size != int64(len(payload)) {
		t.Fatalf("size mismatch: got %d want %d", upBody.Uploaded[0].Size, len(payload))
	}

	// Download and verify the bytes round-tripped through MinIO.
	fileID := upBody.Uploaded[0].ID
	resp, err = client.Get(srv.URL + "/download/MINIO1/" + fileID)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	got, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("read download: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("payload mismatch: got %d bytes, want %d", len(got), len(payload))
	}

	// The object is gone from the bucket and a repeat download is 404.
	resp, err = client.Get(srv.URL + "/download/MINIO1/" + fileID)
	if err != nil {
		t.Fatalf("repeat download: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	objects := 0
	for range mc.ListObjects(context.Background(), bucket, minio.ListObjectsOptions{}) {
		objects++
	}
	if objects != 0 {
		t.Fatalf("expected empty bucket after delivery, found %d objects", objects)
	}
}

package images

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/use-agent/mediumdl/config"
)

func testMediaConfig(dir string) config.MediaConfig {
	return config.MediaConfig{Dir: dir, RequestDelay: time.Millisecond}
}

func TestDownload_WritesImage(t *testing.T) {
	payload := []byte{0x89, 'P', 'N', 'G', 0, 1, 2, 3}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(payload)
	}))
	defer srv.Close()

	dir := t.TempDir()
	d := NewDownloader(testMediaConfig(dir), "curl", 5*time.Second)

	if !d.Download(context.Background(), srv.URL+"/pic.png", "pic.png", "https://medium.com/") {
		t.Fatal("Download() = false, want true")
	}

	data, err := os.ReadFile(filepath.Join(dir, "pic.png"))
	if err != nil {
		t.Fatalf("image not written: %v", err)
	}
	if string(data) != string(payload) {
		t.Errorf("written %q, want %q", data, payload)
	}
}

func TestDownload_RejectsNonImageContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html>block page</html>"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	d := NewDownloader(testMediaConfig(dir), "curl", 5*time.Second)

	if d.Download(context.Background(), srv.URL+"/pic.png", "pic.png", "https://medium.com/") {
		t.Fatal("Download() = true for an HTML response, want false")
	}
	if _, err := os.Stat(filepath.Join(dir, "pic.png")); err == nil {
		t.Error("block page was saved as an image")
	}
}

func TestDownload_HTTPErrorIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	d := NewDownloader(testMediaConfig(t.TempDir()), "curl", 5*time.Second)
	if d.Download(context.Background(), srv.URL+"/gone.png", "gone.png", "https://medium.com/") {
		t.Error("Download() = true for a 404, want false")
	}
}

func TestDownload_ForbiddenWithoutExternalClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	// A bogus binary name forces the fallback path to miss.
	d := NewDownloader(testMediaConfig(t.TempDir()), "definitely-not-a-real-binary", 5*time.Second)
	if d.Download(context.Background(), srv.URL+"/pic.png", "pic.png", "https://medium.com/") {
		t.Error("Download() = true with 403 and no external client, want false")
	}
}

func TestDownload_SlowServerHonorsTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte{0x89, 'P', 'N', 'G'})
	}))
	defer srv.Close()

	d := NewDownloader(testMediaConfig(t.TempDir()), "curl", 50*time.Millisecond)
	start := time.Now()
	if d.Download(context.Background(), srv.URL+"/pic.png", "pic.png", "https://medium.com/") {
		t.Error("Download() = true from a server slower than the timeout, want false")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("download was not bounded by the timeout: took %v", elapsed)
	}
}

func TestDownload_StalledExternalClientIsBounded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	// A stand-in external client that never finishes: the 403 fallback
	// must kill it once the timeout elapses instead of waiting forever.
	bin := filepath.Join(t.TempDir(), "stalled-client")
	if err := os.WriteFile(bin, []byte("#!/bin/sh\nsleep 30\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	d := NewDownloader(testMediaConfig(dir), bin, 100*time.Millisecond)
	start := time.Now()
	if d.Download(context.Background(), srv.URL+"/pic.png", "pic.png", "https://medium.com/") {
		t.Error("Download() = true from a stalled external client, want false")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("fallback was not bounded by the timeout: took %v", elapsed)
	}
	if _, err := os.Stat(filepath.Join(dir, "pic.png")); err == nil {
		t.Error("partial file survived a killed external client")
	}
}

func TestDownload_ConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	d := NewDownloader(testMediaConfig(t.TempDir()), "curl", 5*time.Second)
	if d.Download(context.Background(), srv.URL+"/pic.png", "pic.png", "https://medium.com/") {
		t.Error("Download() = true for a refused connection, want false")
	}
}

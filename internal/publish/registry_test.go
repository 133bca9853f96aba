package publish

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestRegistryPublisherUploads(t *testing.T) {
	var (
		gotPath  string
		gotAuth  string
		gotBody  []byte
		gotError error
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotBody, gotError = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	pub, err := NewRegistryPublisher(RegistryOptions{
		BaseURL: srv.URL,
		Token:   "sekret",
		Timeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer pub.Close()

	pkg := testPackage(t, "core", "1.0.0")
	if err := os.WriteFile(filepath.Join(pkg.Dir, "main.go"), []byte("package core\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := pub.Publish(context.Background(), pkg); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if gotError != nil {
		t.Fatalf("reading upload body: %v", gotError)
	}
	if gotPath != "/packages/core/1.0.0" {
		t.Errorf("expected upload path /packages/core/1.0.0, got %s", gotPath)
	}
	if gotAuth != "Bearer sekret" {
		t.Errorf("expected bearer token, got %q", gotAuth)
	}

	names := tarballNames(t, gotBody)
	if _, ok := names["main.go"]; !ok {
		t.Errorf("expected main.go in the tarball, got %v", names)
	}
	if _, ok := names["package.yaml"]; !ok {
		t.Errorf("expected package.yaml in the tarball, got %v", names)
	}
}

func TestRegistryPublisherRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "version already exists", http.StatusConflict)
	}))
	defer srv.Close()

	pub, err := NewRegistryPublisher(RegistryOptions{BaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	defer pub.Close()

	if err := pub.Publish(context.Background(), testPackage(t, "core", "1.0.0")); err == nil {
		t.Error("expected an error for a 409 response")
	}
}

func TestNewRegistryPublisherRejectsBadURL(t *testing.T) {
	if _, err := NewRegistryPublisher(RegistryOptions{BaseURL: "not-a-url"}); err == nil {
		t.Error("expected an error for a relative URL")
	}
}

func TestPackDirExcludesBookkeeping(t *testing.T) {
	dir := t.TempDir()
	for _, sub := range []string{".git", ".shipyard", "src"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	files := map[string]string{
		filepath.Join(dir, ".git", "HEAD"):   "ref",
		filepath.Join(dir, ".shipyard", "x"): "state",
		filepath.Join(dir, "src", "lib.go"):  "package lib\n",
		filepath.Join(dir, "package.yaml"):   "name: core\nversion: 1.0.0\n",
	}
	for path, content := range files {
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	data, err := packDir(dir)
	if err != nil {
		t.Fatal(err)
	}

	names := tarballNames(t, data)
	if _, ok := names["src/lib.go"]; !ok {
		t.Errorf("expected src/lib.go, got %v", names)
	}
	for name := range names {
		if name == ".git/HEAD" || name == ".shipyard/x" {
			t.Errorf("bookkeeping file %s must be excluded", name)
		}
	}
}

// tarballNames extracts the entry names of a gzipped tarball.
func tarballNames(t *testing.T, data []byte) map[string]struct{} {
	t.Helper()
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("not a gzip stream: %v", err)
	}
	tr := tar.NewReader(gz)
	names := make(map[string]struct{})
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("reading tarball: %v", err)
		}
		names[hdr.Name] = struct{}{}
	}
	return names
}

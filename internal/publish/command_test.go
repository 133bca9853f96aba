package publish

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestCommandPublisherRunsInPackageDir(t *testing.T) {
	pkg := testPackage(t, "core", "1.2.3")
	pub := NewCommandPublisher("pwd > out.txt")

	if err := pub.Publish(context.Background(), pkg); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(pkg.Dir, "out.txt"))
	if err != nil {
		t.Fatal(err)
	}
	got := strings.TrimSpace(string(data))
	want, _ := filepath.EvalSymlinks(pkg.Dir)
	if got != pkg.Dir && got != want {
		t.Errorf("expected command to run in %s, ran in %s", pkg.Dir, got)
	}
}

func TestCommandPublisherExportsPackageEnv(t *testing.T) {
	pkg := testPackage(t, "core", "1.2.3")
	pub := NewCommandPublisher(`echo "$SHIPYARD_PACKAGE@$SHIPYARD_VERSION" > env.txt`)

	if err := pub.Publish(context.Background(), pkg); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(pkg.Dir, "env.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(string(data)); got != "core@1.2.3" {
		t.Errorf("expected core@1.2.3, got %q", got)
	}
}

func TestCommandPublisherSurfacesOutputOnFailure(t *testing.T) {
	pkg := testPackage(t, "core", "1.0.0")
	pub := NewCommandPublisher("echo upload refused >&2; exit 3")

	err := pub.Publish(context.Background(), pkg)
	if err == nil {
		t.Fatal("expected an error for a failing command")
	}
	if !strings.Contains(err.Error(), "upload refused") {
		t.Errorf("expected command output in the error, got: %v", err)
	}
}

func TestCommandPublisherReturnsContextErrorOnCancel(t *testing.T) {
	pkg := testPackage(t, "core", "1.0.0")
	pub := NewCommandPublisher("sleep 30")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := pub.Publish(ctx, pkg)
	if err == nil {
		t.Fatal("expected an error after cancellation")
	}
	if err != context.DeadlineExceeded {
		t.Errorf("expected the context error, got: %v", err)
	}
}

func TestLastLines(t *testing.T) {
	in := "a\nb\nc\nd"
	if got := lastLines(in, 2); got != "c\nd" {
		t.Errorf("lastLines = %q", got)
	}
	if got := lastLines(in, 10); got != in {
		t.Errorf("lastLines should return everything when short: %q", got)
	}
}

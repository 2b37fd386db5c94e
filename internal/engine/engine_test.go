package engine

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"jellyflow/internal/jelly/jellytest"
	"jellyflow/internal/stream"
)

func freePort(t *testing.T) int {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer lis.Close()
	return lis.Addr().(*net.TCPAddr).Port
}

// writeManifest writes a two-frame input and a manifest reading it.
func writeManifest(t *testing.T) (string, int) {
	t.Helper()
	dir := t.TempDir()
	data, want, _ := jellytest.Sample(2, 3)
	if err := os.WriteFile(filepath.Join(dir, "in.jelly"), data, 0o644); err != nil {
		t.Fatal(err)
	}
	manifest := fmt.Sprintf(`schema_version: v1
inputs: [%q]
sinks: [stdout]
pipeline:
  progress_interval: 10ms
`, filepath.Join(dir, "in.jelly"))
	path := filepath.Join(dir, "pipeline.yml")
	if err := os.WriteFile(path, []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}
	return path, len(want)
}

func TestEngine_RunsManifestAndExits(t *testing.T) {
	path, want := writeManifest(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	e, err := Bootstrap(ctx, Config{
		GRPCPort:    freePort(t),
		MetricsPort: freePort(t),
		Manifest:    path,
		ExitOnDone:  true,
	})
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if err := e.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	snaps := e.Board().Snapshots()
	if len(snaps) != 1 || snaps[0].Records != int64(want) || snaps[0].Frames != 2 {
		t.Fatalf("unexpected progress %+v", snaps)
	}
	if res := e.Runner().Results(); len(res) != 1 || res[0].Err != nil {
		t.Fatalf("unexpected results %+v", res)
	}
}

func TestBootstrap_BadManifest(t *testing.T) {
	_, err := Bootstrap(context.Background(), Config{Manifest: filepath.Join(t.TempDir(), "absent.yml")})
	if err == nil {
		t.Fatal("want error for missing manifest")
	}
}

func TestBootstrap_CancelledBindsNothing(t *testing.T) {
	path, _ := writeManifest(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e, err := Bootstrap(ctx, Config{GRPCPort: freePort(t), MetricsPort: freePort(t), Manifest: path})
	if e != nil || !errors.Is(err, stream.ErrCancelled) {
		t.Fatalf("want cancellation, got %v", err)
	}
}

package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"jellyflow/internal/jelly/jellytest"
	"jellyflow/internal/stream"
)

func runCmd(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := NewRootCmd(&out, &errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestDecode_PrintsRecordsAndSummary(t *testing.T) {
	data, want, _ := jellytest.Sample(2, 3)
	path := filepath.Join(t.TempDir(), "in.jelly")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	out, summary, err := runCmd(t, "decode", "--plain", path)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != len(want) {
		t.Fatalf("want %d lines, got %d:\n%s", len(want), len(lines), out)
	}
	if !strings.Contains(summary, "| "+path+" | 2 | 6 |") || !strings.Contains(summary, "0 failed") {
		t.Fatalf("unexpected summary:\n%s", summary)
	}
}

func TestDecode_FailureIsReported(t *testing.T) {
	data, _, sizes := jellytest.Sample(1, 2)
	path := filepath.Join(t.TempDir(), "bad.jelly")
	if err := os.WriteFile(path, append(data[:sizes[0]:sizes[0]], 0xff, 0xff), 0o644); err != nil {
		t.Fatal(err)
	}

	out, summary, err := runCmd(t, "decode", "--plain", "--print-frames", "--print=false", path)
	var de *stream.DecodeError
	if !errors.As(err, &de) || de.Offset != int64(sizes[0]) {
		t.Fatalf("want DecodeError at %d, got %v", sizes[0], err)
	}
	if !strings.HasPrefix(out, "[frame 0] "+path+" records=2") {
		t.Fatalf("want one frame line, got %q", out)
	}
	if !strings.Contains(summary, "failed (decode)") {
		t.Fatalf("unexpected summary:\n%s", summary)
	}
}

func TestDecode_BadFactory(t *testing.T) {
	if _, _, err := runCmd(t, "decode", "--factory", "xml", "x.jelly"); err == nil {
		t.Fatal("want factory error")
	}
}

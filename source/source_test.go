package source_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"jellyflow/internal/stream"
	"jellyflow/source"
	_ "jellyflow/source/file"
)

func drain(t *testing.T, src source.ChunkSource) ([][]byte, error) {
	t.Helper()
	var out [][]byte
	for {
		b, err := src.Next(context.Background())
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, b)
	}
}

func TestReader_ChunkSizes(t *testing.T) {
	data := bytes.Repeat([]byte("abcdefghij"), 10)
	src := source.NewReader("mem", bytes.NewReader(data), 32)

	chunks, err := drain(t, src)
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(chunks) != 4 || len(chunks[3]) != 4 {
		t.Fatalf("want 32/32/32/4 chunks, got %d chunks", len(chunks))
	}
	if got := bytes.Join(chunks, nil); !bytes.Equal(got, data) {
		t.Fatal("reassembled bytes differ")
	}
	if _, err := src.Next(context.Background()); err != io.EOF {
		t.Fatalf("want io.EOF after exhaustion, got %v", err)
	}
}

func TestReader_FailureIsIOError(t *testing.T) {
	boom := errors.New("disk gone")
	r := io.MultiReader(strings.NewReader("ok"), iotest.ErrReader(boom))
	src := source.NewReader("flaky", r, 8)

	chunks, err := drain(t, src)
	if len(chunks) != 1 || string(chunks[0]) != "ok" {
		t.Fatalf("want the bytes before the failure, got %q", chunks)
	}
	var ioErr *stream.IOError
	if !errors.As(err, &ioErr) || !errors.Is(err, boom) || ioErr.Source != "flaky" {
		t.Fatalf("want IOError wrapping boom, got %v", err)
	}
}

func TestReader_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := source.NewReader("mem", strings.NewReader("x"), 8).Next(ctx)
	if !errors.Is(err, stream.ErrCancelled) {
		t.Fatalf("want ErrCancelled, got %v", err)
	}
}

func TestReader_CancelAbortsBlockedRead(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	src, err := source.Select(context.Background(), io.Reader(pr), source.DefaultConfig())
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	errc := make(chan error, 1)
	go func() {
		_, err := src.Next(ctx)
		errc <- err
	}()
	select {
	case err := <-errc:
		if !errors.Is(err, stream.ErrCancelled) {
			t.Fatalf("want ErrCancelled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Next stayed blocked after cancel")
	}
}

func TestSelect_ByValueType(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "in.jelly")
	if err := os.WriteFile(path, []byte("0123456789"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := source.DefaultConfig()
	ctx := context.Background()

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	cases := []struct {
		name  string
		input any
		want  string
	}{
		{"handle", f, path},
		{"path", path, path},
		{"file url", "file://" + path, path},
		{"reader", strings.NewReader("0123456789"), "*strings.Reader"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			src, err := source.Select(ctx, tc.input, cfg)
			if err != nil {
				t.Fatalf("select: %v", err)
			}
			defer src.Close()
			if src.Name() != tc.want {
				t.Fatalf("name: want %q, got %q", tc.want, src.Name())
			}
			chunks, err := drain(t, src)
			if err != nil || string(bytes.Join(chunks, nil)) != "0123456789" {
				t.Fatalf("unexpected content %q err=%v", chunks, err)
			}
		})
	}
}

func TestSelect_Errors(t *testing.T) {
	ctx := context.Background()
	cfg := source.DefaultConfig()
	if _, err := source.Select(ctx, 42, cfg); err == nil {
		t.Fatal("want error for unsupported input type")
	}
	_, err := source.Select(ctx, "gopher://example.org/x", cfg)
	if err == nil || !strings.Contains(err.Error(), "supported: file") {
		t.Fatalf("want unsupported scheme error listing file, got %v", err)
	}
	_, err = source.Select(ctx, filepath.Join(t.TempDir(), "missing"), cfg)
	var ioErr *stream.IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("want IOError for missing file, got %v", err)
	}
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "source.yml")
	yml := `schema_version: v1
chunk_size: 1024
http:
  user_agent: test-agent
kafka:
  version: 2.8.0
`
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("JELLYFLOW_SOURCE__HTTP__TIMEOUT", "5s")
	t.Setenv("JELLYFLOW_SOURCE__KAFKA__CLIENT_ID", "from-env")

	cfg, err := source.LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ChunkSize != 1024 || cfg.HTTP.UserAgent != "test-agent" || cfg.Kafka.Version != "2.8.0" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.HTTP.Timeout != 5*time.Second || cfg.Kafka.ClientID != "from-env" {
		t.Fatalf("env values not applied: %+v", cfg)
	}
}

func TestLoadConfig_DefaultsAndSchema(t *testing.T) {
	cfg, err := source.LoadConfig(filepath.Join(t.TempDir(), "absent.yml"))
	if err != nil {
		t.Fatalf("missing file should fall back to defaults: %v", err)
	}
	if cfg != source.DefaultConfig() || cfg.ChunkSize != source.DefaultChunkSize {
		t.Fatalf("unexpected defaults %+v", cfg)
	}

	path := filepath.Join(t.TempDir(), "v2.yml")
	if err := os.WriteFile(path, []byte("schema_version: v2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := source.LoadConfig(path); err == nil {
		t.Fatal("want schema_version error")
	}
}

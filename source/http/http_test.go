package http

import (
	"bytes"
	"context"
	"errors"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"testing"

	"jellyflow/internal/stream"
	"jellyflow/source"
)

func readAll(t *testing.T, src source.ChunkSource) ([]byte, error) {
	t.Helper()
	var buf bytes.Buffer
	for {
		b, err := src.Next(context.Background())
		if err == io.EOF {
			return buf.Bytes(), nil
		}
		if err != nil {
			return buf.Bytes(), err
		}
		buf.Write(b)
	}
}

func TestHTTPSource_StreamsBody(t *testing.T) {
	body := bytes.Repeat([]byte{0x0a, 0x01, 0x02}, 1000)
	agents := make(chan string, 1)
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		agents <- r.Header.Get("User-Agent")
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	cfg := source.DefaultConfig()
	cfg.ChunkSize = 512
	src, err := source.Open(context.Background(), srv.URL+"/data.jelly", cfg)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer src.Close()

	got, err := readAll(t, src)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(got, body) {
		t.Fatalf("want %d bytes, got %d", len(body), len(got))
	}
	if agent := <-agents; agent != cfg.HTTP.UserAgent {
		t.Fatalf("user agent: want %q, got %q", cfg.HTTP.UserAgent, agent)
	}
	if s := src.(*Source); s.StatusCode() != nethttp.StatusOK {
		t.Fatalf("status: %d", s.StatusCode())
	}
}

func TestHTTPSource_NonSuccessIsTransportError(t *testing.T) {
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		nethttp.Error(w, "nope", nethttp.StatusNotFound)
	}))
	defer srv.Close()

	_, err := Open(context.Background(), srv.Client(), srv.URL, source.DefaultConfig())
	var trErr *stream.TransportError
	if !errors.As(err, &trErr) || trErr.StatusCode != nethttp.StatusNotFound {
		t.Fatalf("want TransportError 404, got %v", err)
	}
	if stream.Kind(err) != "transport" {
		t.Fatalf("kind: %q", stream.Kind(err))
	}
}

func TestHTTPSource_MidStreamFailureIsIOError(t *testing.T) {
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Length", "100")
		_, _ = w.Write([]byte("0123456789"))
		w.(nethttp.Flusher).Flush()
		panic(nethttp.ErrAbortHandler)
	}))
	defer srv.Close()

	src, err := Open(context.Background(), srv.Client(), srv.URL, source.DefaultConfig())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer src.Close()

	got, err := readAll(t, src)
	var ioErr *stream.IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("want IOError, got %v", err)
	}
	if string(got) != "0123456789" {
		t.Fatalf("want the bytes received before the failure, got %q", got)
	}
}

func TestHTTPSource_ConnectionRefusedIsIOError(t *testing.T) {
	srv := httptest.NewServer(nethttp.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := Open(context.Background(), &nethttp.Client{}, url, source.DefaultConfig())
	var ioErr *stream.IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("want IOError, got %v", err)
	}
}

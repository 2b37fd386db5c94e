// Package http registers the http:// and https:// schemes: one GET, then
// the response body is read chunk by chunk. No retries.
package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	nethttp "net/http"
	"net/url"

	"jellyflow/internal/logging"
	"jellyflow/internal/stream"
	"jellyflow/source"
)

type Source struct {
	url    string
	resp   *nethttp.Response
	cancel context.CancelFunc
	*source.Reader
}

// Open issues the request and checks the status. Transport failures before
// a response arrives are IOErrors; a non-2xx status is a TransportError.
func Open(ctx context.Context, client *nethttp.Client, rawURL string, cfg source.Config) (*Source, error) {
	reqCtx, cancel := context.WithCancel(ctx)
	req, err := nethttp.NewRequestWithContext(reqCtx, nethttp.MethodGet, rawURL, nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("http-source: %w", err)
	}
	if cfg.HTTP.UserAgent != "" {
		req.Header.Set("User-Agent", cfg.HTTP.UserAgent)
	}
	resp, err := client.Do(req)
	if err != nil {
		cancel()
		if ctx.Err() != nil {
			return nil, stream.Cancelled(ctx)
		}
		return nil, &stream.IOError{Source: rawURL, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		_ = resp.Body.Close()
		cancel()
		return nil, &stream.TransportError{URL: rawURL, StatusCode: resp.StatusCode, Status: resp.Status}
	}
	logging.L().Debug("http-source: response", "url", rawURL, "status", resp.StatusCode, "length", resp.ContentLength)
	return &Source{
		url:    rawURL,
		resp:   resp,
		cancel: cancel,
		Reader: source.NewReader(rawURL, resp.Body, cfg.ChunkSize),
	}, nil
}

// Next aborts a blocked body read when ctx ends and reports that as
// cancellation rather than IO.
func (s *Source) Next(ctx context.Context) ([]byte, error) {
	stop := context.AfterFunc(ctx, s.cancel)
	defer stop()
	b, err := s.Reader.Next(ctx)
	var ioErr *stream.IOError
	if errors.As(err, &ioErr) && ctx.Err() != nil {
		return nil, stream.Cancelled(ctx)
	}
	return b, err
}

func (s *Source) Close() error {
	defer s.cancel()
	return s.Reader.Close()
}

// StatusCode of the initial response.
func (s *Source) StatusCode() int { return s.resp.StatusCode }

// newClient bounds the wait for response headers only; the body of a long
// stream may take arbitrarily long.
func newClient(cfg source.Config) *nethttp.Client {
	tr := nethttp.DefaultTransport.(*nethttp.Transport).Clone()
	tr.ResponseHeaderTimeout = cfg.HTTP.Timeout
	return &nethttp.Client{Transport: tr}
}

func init() {
	open := func(ctx context.Context, u *url.URL, cfg source.Config) (source.ChunkSource, error) {
		return Open(ctx, newClient(cfg), u.String(), cfg)
	}
	source.Register("http", open)
	source.Register("https", open)
}

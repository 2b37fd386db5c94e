// Package source turns a local resource or a remote locator into a lazy,
// finite sequence of byte chunks.
package source

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// ChunkSource yields the chunks of one input in order. Next returns io.EOF
// once the input is exhausted; any other error terminates the sequence.
// A source is not resumable: a new input needs a new source.
type ChunkSource interface {
	Name() string
	Next(ctx context.Context) ([]byte, error)
	Close() error
}

// Factory opens the resource named by u.
type Factory func(ctx context.Context, u *url.URL, cfg Config) (ChunkSource, error)

var (
	regMu    sync.RWMutex
	registry = map[string]Factory{}
)

// Register is called from each driver's init().
func Register(scheme string, f Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	registry[strings.ToLower(scheme)] = f
}

// Schemes lists the registered schemes, sorted.
func Schemes() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	out := make([]string, 0, len(registry))
	for s := range registry {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Open resolves locator through the scheme registry. A locator without a
// scheme is a local path and is opened as file://.
func Open(ctx context.Context, locator string, cfg Config) (ChunkSource, error) {
	u, err := parseLocator(locator)
	if err != nil {
		return nil, err
	}
	regMu.RLock()
	f, ok := registry[u.Scheme]
	regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("source: unsupported scheme %q in %q (supported: %s)",
			u.Scheme, locator, strings.Join(Schemes(), ", "))
	}
	return f(ctx, u, cfg)
}

// Select picks the source variant from the type of input: an *os.File or
// any io.Reader is read locally, a string is a locator, and a ChunkSource
// is used as is.
func Select(ctx context.Context, input any, cfg Config) (ChunkSource, error) {
	switch in := input.(type) {
	case ChunkSource:
		return in, nil
	case *os.File:
		return NewReader(in.Name(), in, cfg.ChunkSize), nil
	case io.Reader:
		return NewReader(fmt.Sprintf("%T", in), in, cfg.ChunkSize), nil
	case string:
		return Open(ctx, in, cfg)
	case *url.URL:
		return Open(ctx, in.String(), cfg)
	default:
		return nil, fmt.Errorf("source: cannot select a source for %T", input)
	}
}

func parseLocator(locator string) (*url.URL, error) {
	if locator == "" {
		return nil, fmt.Errorf("source: empty locator")
	}
	// Windows drive letters parse as a one-letter scheme.
	if filepath.VolumeName(locator) != "" || !strings.Contains(locator, "://") {
		return &url.URL{Scheme: "file", Path: locator}, nil
	}
	u, err := url.Parse(locator)
	if err != nil {
		return nil, fmt.Errorf("source: parse %q: %w", locator, err)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	return u, nil
}

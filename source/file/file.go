// Package file registers the file:// scheme.
package file

import (
	"context"
	"net/url"
	"os"

	"jellyflow/internal/logging"
	"jellyflow/internal/stream"
	"jellyflow/source"
)

// Open reads path in chunks of cfg.ChunkSize bytes.
func Open(path string, cfg source.Config) (*source.Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &stream.IOError{Source: path, Err: err}
	}
	if st, err := f.Stat(); err == nil {
		logging.L().Debug("file-source: opened", "path", path, "size", st.Size())
	}
	return source.NewReader(path, f, cfg.ChunkSize), nil
}

func pathOf(u *url.URL) string {
	if u.Opaque != "" {
		return u.Opaque
	}
	return u.Host + u.Path
}

func init() {
	source.Register("file", func(_ context.Context, u *url.URL, cfg source.Config) (source.ChunkSource, error) {
		return Open(pathOf(u), cfg)
	})
}

package stdout

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"unicode/utf8"

	"jellyflow/internal/telemetry"
	"jellyflow/sink"
)

/* ────────── public config ────────── */
type Config struct {
	PrintCounter  bool `yaml:"print_counter" toml:"print_counter"`     // prepend seq#
	PrintValue    bool `yaml:"print_value" toml:"print_value"`         // one line per record
	PrintFrames   bool `yaml:"print_frames" toml:"print_frames"`       // one line per frame
	ValueMaxBytes int  `yaml:"value_max_bytes" toml:"value_max_bytes"` // 0 = no limit
}

/* ────────── driver ────────── */
type driver struct {
	cfg Config
	out io.Writer

	mu   sync.Mutex // serialises writes
	seq  atomic.Uint64
	done bool
}

// New returns a stdout sink writing to w.
func New(w io.Writer, cfg Config) sink.Adapter {
	return &driver{cfg: cfg, out: w}
}

/* ────────── sink.Adapter ────────── */
func (d *driver) Configure(raw any) error {
	c, ok := raw.(Config)
	if !ok {
		return fmt.Errorf("stdout-sink: expected Config, got %T", raw)
	}
	d.cfg = c
	return nil
}

func (d *driver) OnRecord(rec any) {
	n := d.seq.Add(1)
	if !d.cfg.PrintValue && !d.cfg.PrintCounter {
		return
	}
	line := ""
	if d.cfg.PrintValue {
		line = d.clip(fmt.Sprint(rec))
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cfg.PrintCounter {
		fmt.Fprintf(d.out, "[sink %06d] %s\n", n, line)
		return
	}
	fmt.Fprintln(d.out, line)
}

/* ────────── sink.FrameAware ────────── */
func (d *driver) OnFrame(r telemetry.FrameReport) {
	if !d.cfg.PrintFrames {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintf(d.out, "[frame %d] %s records=%d took=%s\n", r.Index, r.Input, r.Records, r.Duration)
	for _, t := range r.Text {
		fmt.Fprintf(d.out, "  %s\n", d.clip(t))
	}
}

func (d *driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.done {
		return nil
	}
	d.done = true
	if f, ok := d.out.(interface{ Sync() error }); ok && d.out != os.Stdout {
		return f.Sync()
	}
	return nil
}

// Count is the number of records seen so far.
func (d *driver) Count() uint64 { return d.seq.Load() }

func (d *driver) clip(s string) string {
	if d.cfg.ValueMaxBytes <= 0 || len(s) <= d.cfg.ValueMaxBytes {
		return s
	}
	n := d.cfg.ValueMaxBytes
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "…"
}

/* ────────── auto-register ────────── */
func init() {
	sink.Register("stdout", func() sink.Adapter { return &driver{out: os.Stdout} })
}

// Package report renders the end-of-run summary of every input.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/cli/go-gh/v2/pkg/markdown"

	"jellyflow/internal/telemetry"
)

// Markdown builds the summary table.
func Markdown(snaps []telemetry.Snapshot) string {
	var b strings.Builder
	b.WriteString("| Input | Frames | Records | Bytes | Decode time | Records/s | Status |\n")
	b.WriteString("|---|---:|---:|---:|---:|---:|---|\n")
	var frames, records, bytes int64
	var decode time.Duration
	for _, s := range snaps {
		fmt.Fprintf(&b, "| %s | %d | %d | %d | %s | %s | %s |\n",
			escape(s.Input), s.Frames, s.Records, s.Bytes, s.DecodeTime.Round(time.Microsecond), rate(s), status(s))
		frames += s.Frames
		records += s.Records
		bytes += s.Bytes
		decode += s.DecodeTime
	}
	total := telemetry.Snapshot{Records: records, DecodeTime: decode}
	fmt.Fprintf(&b, "| **total** | %d | %d | %d | %s | %s | %d failed |\n",
		frames, records, bytes, decode.Round(time.Microsecond), rate(total), failed(snaps))
	return b.String()
}

// Render writes the table to w, styled unless plain is set.
func Render(w io.Writer, snaps []telemetry.Snapshot, plain bool) error {
	md := Markdown(snaps)
	if plain {
		_, err := io.WriteString(w, md)
		return err
	}
	r, err := glamour.NewTermRenderer(
		markdown.WithWrap(120),
		glamour.WithAutoStyle(),
	)
	if err != nil {
		_, err = io.WriteString(w, md)
		return err
	}
	out, err := r.Render(md)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

// UsePlain reports whether styling should be skipped for out.
func UsePlain(out *os.File) bool {
	if fi, _ := out.Stat(); fi != nil && fi.Mode()&os.ModeCharDevice == 0 {
		return true
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return true
	}
	return os.Getenv("TERM") == "dumb"
}

func rate(s telemetry.Snapshot) string {
	tp, ok := s.Throughput()
	if !ok {
		return "n/a"
	}
	return fmt.Sprintf("%.0f", tp)
}

func status(s telemetry.Snapshot) string {
	switch {
	case s.ErrKind != "":
		return "failed (" + s.ErrKind + ")"
	case s.Done:
		return "ok"
	default:
		return "running"
	}
}

func failed(snaps []telemetry.Snapshot) int {
	n := 0
	for _, s := range snaps {
		if s.ErrKind != "" {
			n++
		}
	}
	return n
}

func escape(s string) string { return strings.ReplaceAll(s, "|", `\|`) }

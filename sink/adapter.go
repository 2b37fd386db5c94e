package sink

import (
	"fmt"
	"sort"
	"strings"

	"jellyflow/internal/telemetry"
)

// Adapter is the common behaviour every sink exposes.
type Adapter interface {
	Configure(any) error // driver-specific config block => struct
	OnRecord(any)        // one decoded record, in decode order
	Close() error        // idempotent
}

// FrameAware is optional; sinks that want per-frame reports implement it.
type FrameAware interface {
	OnFrame(telemetry.FrameReport)
}

/*──────── registry ───────*/

type factory = func() Adapter

var reg = map[string]factory{}

func Register(name string, f factory) { reg[name] = f }

func NewAdapter(name string) (Adapter, error) {
	if f, ok := reg[name]; ok {
		return f(), nil
	}
	return nil, fmt.Errorf("unknown sink %q (registered: %s)", name, strings.Join(Names(), ", "))
}

// Names lists the registered sinks, sorted.
func Names() []string {
	out := make([]string, 0, len(reg))
	for n := range reg {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// control/debug.go
// Author: momentics <momentics@gmail.com>
//
// Named state probes for transports and the host platform.

package control

import (
	"sort"
	"strings"
	"sync"
)

// DebugProbes maps dotted names such as "udp.<id>.state" to functions
// reporting live values. Probes that read transport state must be dumped
// from the goroutine that owns the transport.
type DebugProbes struct {
	mu     sync.RWMutex
	probes map[string]func() any
}

// NewDebugProbes creates an empty probe set.
func NewDebugProbes() *DebugProbes {
	return &DebugProbes{probes: make(map[string]func() any)}
}

// RegisterProbe adds or replaces the probe called name.
func (dp *DebugProbes) RegisterProbe(name string, fn func() any) {
	dp.mu.Lock()
	dp.probes[name] = fn
	dp.mu.Unlock()
}

// UnregisterProbe removes the probe called name.
func (dp *DebugProbes) UnregisterProbe(name string) {
	dp.mu.Lock()
	delete(dp.probes, name)
	dp.mu.Unlock()
}

// UnregisterPrefix removes every probe whose name starts with prefix and
// returns how many were removed.
func (dp *DebugProbes) UnregisterPrefix(prefix string) int {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	n := 0
	for name := range dp.probes {
		if strings.HasPrefix(name, prefix) {
			delete(dp.probes, name)
			n++
		}
	}
	return n
}

// Names returns the probe names in sorted order.
func (dp *DebugProbes) Names() []string {
	dp.mu.RLock()
	names := make([]string, 0, len(dp.probes))
	for name := range dp.probes {
		names = append(names, name)
	}
	dp.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Dump evaluates the probes whose names start with prefix.
func (dp *DebugProbes) Dump(prefix string) map[string]any {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	out := make(map[string]any)
	for name, fn := range dp.probes {
		if strings.HasPrefix(name, prefix) {
			out[name] = fn()
		}
	}
	return out
}

// DumpState evaluates every probe.
func (dp *DebugProbes) DumpState() map[string]any { return dp.Dump("") }

// Package registry implements the in-memory Person/Machine/URL graph of
// the fleet registry: the GUID utility, URL intern table, machine and
// person registries, the four graph-mutating primitives, and the running
// counters. Everything here runs under a single coarse-grained lock; the
// only I/O is whatever the configured journal.Writer does when called.
package registry

import (
	"sync"
	"time"

	"github.com/relabs-tech/fleet-registry/journal"
)

// clockSlack is how far into the future a caller-supplied "when" may be
// before it gets clamped to "now".
const clockSlack = 5 * time.Minute

// Registry is the process-wide Person/Machine/URL graph. It is safe for
// concurrent use: every exported method acquires the registry's single
// mutex for its entire duration, including result assembly, so the value
// it returns always reflects one atomic instant of the graph.
//
// Callers construct one Registry at startup and pass it to every HTTP
// handler; there is deliberately no package-level global state.
type Registry struct {
	mu sync.Mutex

	urls     *urlTable
	machines *machineRegistry
	persons  *personRegistry

	usagesCount uint64

	journal journal.Writer
	now     func() time.Time

	// Enabled is the global enabled flag. Handlers in package httpapi
	// read it directly; it needs no lock because it is only ever read,
	// never mutated, by request handling (toggling it is an operational
	// action outside the HTTP request path).
	Enabled bool
}

// New creates an empty Registry. A nil journal.Writer is replaced with
// journal.NoopWriter.
func New(j journal.Writer) *Registry {
	if j == nil {
		j = journal.NoopWriter{}
	}
	return &Registry{
		urls:     newURLTable(),
		machines: newMachineRegistry(),
		persons:  newPersonRegistry(),
		journal:  j,
		now:      time.Now,
		Enabled:  true,
	}
}

// resolveWhen applies the timestamp policy: zero, negative, or too-far-future
// values are replaced with "now".
func (r *Registry) resolveWhen(when int64) int64 {
	now := r.now().Unix()
	if when <= 0 {
		return now
	}
	if when > now+int64(clockSlack/time.Second) {
		return now
	}
	return when
}

func (r *Registry) record(action, personGUID, machineGUID, u string, extra map[string]interface{}) {
	_ = r.journal.Write(journal.Record{
		At:          r.now(),
		Action:      action,
		PersonGUID:  personGUID,
		MachineGUID: machineGUID,
		URL:         u,
		Extra:       extra,
	})
}

// Snapshot returns the current counters.
func (r *Registry) Snapshot() Counters {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot()
}

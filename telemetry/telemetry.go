// Package telemetry periodically reads registry.Counters and publishes
// them to a collaborator. The registry core's only obligation is
// Registry.Snapshot(); everything here is glue.
package telemetry

import (
	"context"
	"time"

	"github.com/relabs-tech/fleet-registry/registry"
)

// Snapshot is the wire shape published to a telemetry collaborator: the
// registry's counters plus the time they were taken.
type Snapshot struct {
	At       time.Time          `json:"at"`
	Counters registry.Counters `json:"counters"`
}

// Publisher receives periodic counter snapshots.
type Publisher interface {
	Publish(Snapshot) error
}

// Run polls reg.Snapshot() every interval and publishes it to pub until ctx
// is done. It is meant to be started as its own goroutine by the binary
// wiring everything together (cmd/registry-server).
func Run(ctx context.Context, reg *registry.Registry, pub Publisher, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = pub.Publish(Snapshot{At: time.Now(), Counters: reg.Snapshot()})
		}
	}
}

// internal/collector/interface.go
package collector

import (
	"context"

	"github.com/rusenback/hostmon/internal/model"
)

// SnapshotSource produces one host-wide Sample per call
type SnapshotSource interface {
	TakeSnapshot(ctx context.Context) (model.Sample, error)
}

// ProcessManager lists, inspects and terminates OS processes
type ProcessManager interface {
	List(ctx context.Context, limit int) ([]model.ProcessInfo, error)
	Terminate(ctx context.Context, pid int32) error
	Inspect(ctx context.Context, pid int32) (model.ProcessDetail, error)
}

// Make sure the gopsutil-backed types satisfy the interfaces
var (
	_ SnapshotSource = (*SystemSource)(nil)
	_ ProcessManager = (*ProcessTable)(nil)
)

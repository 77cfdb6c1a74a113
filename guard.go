package gantry

import (
	"sync/atomic"

	"go.uber.org/zap"
)

// columnGuard tracks the aliasing state of one column in one chunk: how
// many read permits are outstanding, whether a write permit is held, and
// the generation of the column's buffer contents. Many readers or one
// writer may hold permits at a time; conflicting acquisition fails fast
// instead of racing. Rejection can be spuriously mutual when two callers
// collide in flight, which is still a correct outcome: any collision is
// the structural bug the guard exists to expose.
type columnGuard struct {
	readers    atomic.Int32
	writer     atomic.Int32
	contentGen atomic.Uint32
}

func (g *columnGuard) acquire(ct ComponentType, access Access) error {
	if !Config.accessChecks {
		return nil
	}
	if access == ReadWrite {
		if !g.writer.CompareAndSwap(0, 1) {
			return g.reject(ct, access)
		}
		if g.readers.Load() != 0 {
			g.writer.Store(0)
			return g.reject(ct, access)
		}
		return nil
	}
	g.readers.Add(1)
	if g.writer.Load() != 0 {
		g.readers.Add(-1)
		return g.reject(ct, access)
	}
	return nil
}

func (g *columnGuard) release(access Access) {
	if !Config.accessChecks {
		return
	}
	if access == ReadWrite {
		g.writer.Store(0)
		return
	}
	g.readers.Add(-1)
}

func (g *columnGuard) reject(ct ComponentType, access Access) error {
	stats.accessRejects.Add(1)
	Logger().Warn("conflicting column access",
		zap.String("component", ct.name),
		zap.String("access", access.String()),
	)
	return ConcurrentAccessError{Type: ct.name, Mode: access}
}

// generation returns the column's buffer content generation. Views over
// buffer contents record it at issuance; any later bump marks them stale.
func (g *columnGuard) generation() uint32 {
	return g.contentGen.Load()
}

// bumpGeneration invalidates every outstanding content view over the
// column. Invalidation is deliberately column-wide rather than per-row,
// matching the guard's coarse granularity.
func (g *columnGuard) bumpGeneration() {
	g.contentGen.Add(1)
}

package gantry

import "sync/atomic"

// StatCounters is a snapshot of the package's access counters.
type StatCounters struct {
	// ColumnSearches counts linear scans of a layout's type list.
	ColumnSearches uint64
	// CacheHits counts column resolutions served from a handle's cache.
	CacheHits uint64
	// AccessRejects counts permit acquisitions refused by the guard.
	AccessRejects uint64
	// BufferSpills counts buffer growths past their inline capacity.
	BufferSpills uint64
}

var stats struct {
	columnSearches atomic.Uint64
	cacheHits      atomic.Uint64
	accessRejects  atomic.Uint64
	bufferSpills   atomic.Uint64
}

// Stats returns a snapshot of the package counters.
func Stats() StatCounters {
	return StatCounters{
		ColumnSearches: stats.columnSearches.Load(),
		CacheHits:      stats.cacheHits.Load(),
		AccessRejects:  stats.accessRejects.Load(),
		BufferSpills:   stats.bufferSpills.Load(),
	}
}

// ResetStats zeroes the package counters.
func ResetStats() {
	stats.columnSearches.Store(0)
	stats.cacheHits.Store(0)
	stats.accessRejects.Store(0)
	stats.bufferSpills.Store(0)
}

package gantry

import "fmt"

// InvalidUseError reports caller misuse that is detectable independent of
// data, such as requesting raw bytes for a zero-sized component.
type InvalidUseError struct {
	Op     string
	Reason string
}

func (e InvalidUseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

// IndexOutOfRangeError reports a row index outside an accessor's bound
// range. Indices are never clamped.
type IndexOutOfRangeError struct {
	Index int
	Count int
}

func (e IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("row index %d out of range [0, %d)", e.Index, e.Count)
}

// ConcurrentAccessError reports an access that conflicts with permits
// already outstanding on the same column. It indicates a structural bug in
// the caller's access pattern, not transient contention: restructure the
// accesses instead of retrying.
type ConcurrentAccessError struct {
	Type string
	Mode Access
}

func (e ConcurrentAccessError) Error() string {
	return fmt.Sprintf("conflicting %s access on column %s", e.Mode, e.Type)
}

// StaleViewError reports use of a buffer content view issued before a
// later resize of a buffer in the same column.
type StaleViewError struct {
	Type string
}

func (e StaleViewError) Error() string {
	return fmt.Sprintf("buffer view over %s invalidated by a later resize", e.Type)
}

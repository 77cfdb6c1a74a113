package gantry

// ByteView is a non-owning window onto column or buffer bytes. Views
// borrow: they must not outlive the chunk they came from, and a view
// carrying an access permit returns it through Release. Views over
// buffer content additionally carry the column's content generation and
// go stale when any buffer in the column is resized.
type ByteView struct {
	data     []byte
	typ      string
	access   Access
	guard    *columnGuard
	gen      uint32
	genned   bool
	permit   bool
	released bool
}

// Len returns the window size in bytes. Length is metadata and stays
// readable on a stale view.
func (v *ByteView) Len() int {
	return len(v.data)
}

// ReadOnly reports whether the view was opened for reading only.
func (v *ByteView) ReadOnly() bool {
	return v.access == Read
}

// Stale reports whether the viewed storage was resized out from under
// the view.
func (v *ByteView) Stale() bool {
	return v.genned && v.guard.generation() != v.gen
}

// Bytes returns the viewed window. The slice aliases chunk storage
// directly; writes through it are writes to the store and require a
// read-write view.
func (v *ByteView) Bytes() ([]byte, error) {
	if err := v.check(); err != nil {
		return nil, err
	}
	return v.data, nil
}

// CopyTo copies the window into dst and returns the byte count copied.
func (v *ByteView) CopyTo(dst []byte) (int, error) {
	if err := v.check(); err != nil {
		return 0, err
	}
	return copy(dst, v.data), nil
}

// CopyFrom copies src into the window and returns the byte count copied.
func (v *ByteView) CopyFrom(src []byte) (int, error) {
	if err := v.check(); err != nil {
		return 0, err
	}
	if v.access != ReadWrite {
		return 0, InvalidUseError{Op: "byte view", Reason: "cannot write through a read-only view"}
	}
	return copy(v.data, src), nil
}

// Release returns the view's access permit, if it holds one. Further
// reads and writes through the view fail. Release is idempotent.
func (v *ByteView) Release() {
	if v.released {
		return
	}
	v.released = true
	if v.permit {
		v.guard.release(v.access)
	}
}

func (v *ByteView) check() error {
	if v.released {
		return InvalidUseError{Op: "byte view", Reason: "view has been released"}
	}
	if v.Stale() {
		return StaleViewError{Type: v.typ}
	}
	return nil
}

package gantry

import (
	"fmt"
	"io"

	"github.com/TheBitDrifter/mask"
	iter_util "github.com/TheBitDrifter/util/iter"
	"go.uber.org/zap"

	"github.com/gantryio/gantry/internal/arena"
)

var _ Allocator = &arena.Arena{}

// Store owns the layouts and chunks of one columnar component store.
// Layouts are deduplicated by component set, so structurally equal
// requests share one Layout value. Stores are not safe for concurrent
// structural mutation; the per-column guards cover data access only.
type Store struct {
	alloc      Allocator
	ownsAlloc  bool
	chunkBytes int
	layouts    *layouts
	chunks     []*Chunk
}

type layouts struct {
	nextID           uint32
	asSlice          []*Layout
	idsGroupedByMask map[mask.Mask]uint32
}

func newStore() *Store {
	alloc := Config.allocator
	owns := false
	if alloc == nil {
		alloc = arena.New()
		owns = true
	}
	return &Store{
		alloc:      alloc,
		ownsAlloc:  owns,
		chunkBytes: Config.chunkBytes,
		layouts: &layouts{
			nextID:           1,
			idsGroupedByMask: make(map[mask.Mask]uint32),
		},
	}
}

// NewLayout returns the layout for the given component set, creating it
// on first request.
func (s *Store) NewLayout(types ...ComponentType) (*Layout, error) {
	var set mask.Mask
	for _, ct := range types {
		if !ct.valid() {
			return nil, InvalidUseError{Op: "layout", Reason: "unregistered component type"}
		}
		if set.ContainsAll(ct.bit) {
			return nil, InvalidUseError{Op: "layout", Reason: fmt.Sprintf("duplicate component type %s", ct.name)}
		}
		set.Mark(uint32(ct.id))
	}

	if id, found := s.layouts.idsGroupedByMask[set]; found {
		return s.layouts.asSlice[id-1], nil
	}

	created, err := newLayout(s.layouts.nextID, s.chunkBytes, types...)
	if err != nil {
		return nil, err
	}
	s.layouts.asSlice = append(s.layouts.asSlice, created)
	s.layouts.idsGroupedByMask[set] = s.layouts.nextID
	s.layouts.nextID++

	Logger().Debug("layout created",
		zap.Uint32("id", created.id),
		zap.Int("columns", created.Columns()),
		zap.Int("capacity", created.capacity),
	)
	return created, nil
}

// ExtendLayout returns the layout for base's component set plus add.
func (s *Store) ExtendLayout(base *Layout, add ...ComponentType) (*Layout, error) {
	if base == nil {
		return nil, InvalidUseError{Op: "layout", Reason: "nil base layout"}
	}
	current := iter_util.Collect(base.ComponentTypes())
	combined := make([]ComponentType, 0, len(current)+len(add))
	combined = append(combined, current...)
	combined = append(combined, add...)
	return s.NewLayout(combined...)
}

// ReduceLayout returns the layout for base's component set minus remove.
// Every removed type must be present in base.
func (s *Store) ReduceLayout(base *Layout, remove ...ComponentType) (*Layout, error) {
	if base == nil {
		return nil, InvalidUseError{Op: "layout", Reason: "nil base layout"}
	}
	for _, ct := range remove {
		if !base.Contains(ct) {
			return nil, InvalidUseError{Op: "layout", Reason: fmt.Sprintf("cannot remove %s, not in base layout", ct.name)}
		}
	}
	current := iter_util.Collect(base.ComponentTypes())
	kept := make([]ComponentType, 0, len(current))
	for _, ct := range current {
		dropped := false
		for _, r := range remove {
			if r.id == ct.id {
				dropped = true
				break
			}
		}
		if !dropped {
			kept = append(kept, ct)
		}
	}
	return s.NewLayout(kept...)
}

// NewChunk allocates a chunk block for the layout and registers the
// chunk with the store. The chunk starts with zero live rows.
func (s *Store) NewChunk(l *Layout) (*Chunk, error) {
	if l == nil {
		return nil, InvalidUseError{Op: "chunk", Reason: "nil layout"}
	}
	c, err := newChunk(s, l)
	if err != nil {
		return nil, err
	}
	s.chunks = append(s.chunks, c)

	Logger().Debug("chunk allocated",
		zap.Uint32("layout", l.id),
		zap.Int("capacity", l.capacity),
		zap.Int("blockBytes", s.chunkBytes),
	)
	return c, nil
}

// ReleaseChunk retires every row (freeing spilled buffer storage), frees
// the chunk's block, and unregisters the chunk. Outstanding views over
// the chunk must have been released first.
func (s *Store) ReleaseChunk(c *Chunk) error {
	if c == nil || c.block == nil {
		return InvalidUseError{Op: "chunk", Reason: "chunk already released"}
	}
	if err := c.Truncate(0); err != nil {
		return fmt.Errorf("failed to retire chunk rows: %w", err)
	}
	if err := s.alloc.Free(c.block); err != nil {
		return fmt.Errorf("failed to free chunk block: %w", err)
	}
	c.block = nil
	c.base = nil

	for i, registered := range s.chunks {
		if registered == c {
			s.chunks[i] = s.chunks[len(s.chunks)-1]
			s.chunks = s.chunks[:len(s.chunks)-1]
			break
		}
	}
	return nil
}

// ChunkCount returns the number of live chunks the store owns.
func (s *Store) ChunkCount() int {
	return len(s.chunks)
}

// LayoutCount returns the number of distinct layouts created so far.
func (s *Store) LayoutCount() int {
	return len(s.layouts.asSlice)
}

// Close releases every chunk and, when the store owns its allocator,
// the allocator itself. The first error encountered is returned, but
// teardown continues regardless.
func (s *Store) Close() error {
	var firstErr error
	for len(s.chunks) > 0 {
		if err := s.ReleaseChunk(s.chunks[0]); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			s.chunks = s.chunks[1:]
		}
	}
	if s.ownsAlloc {
		if closer, ok := s.alloc.(io.Closer); ok {
			if err := closer.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

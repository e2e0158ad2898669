package alloc

// arenaDirectIndexSize is the direct-index table size for scope ids;
// scope ids at or above this fall into the linked-map fallback.
const arenaDirectIndexSize = 2048

// arenaRegion is one scope's bump-allocated region. Arena memory is
// never individually freed; Reset releases the whole region at once by
// rewinding the bump cursor, so per-allocation bookkeeping beyond size
// is unnecessary.
type arenaRegion struct {
	buf  []byte
	bump uint32
}

func newArenaRegion() *arenaRegion { return &arenaRegion{} }

func (r *arenaRegion) alloc(size, alignment uint32) uint32 {
	start := alignUp(r.bump, alignment)
	needed := start + size
	if needed > uint32(len(r.buf)) {
		grown := make([]byte, needed)
		copy(grown, r.buf)
		r.buf = grown
	}
	r.bump = needed
	return start
}

func (r *arenaRegion) reset() { r.bump = 0 }

// arenaPtr records where a token returned by Alloc actually lives, so
// Bytes can locate the right region and offset without the caller ever
// needing to know a scope's internal layout.
type arenaPtr struct {
	scopeID uint32
	offset  uint32
	size    uint32
}

// ArenaAllocator serves scope-indexed bump allocations. Scope ids below
// arenaDirectIndexSize are served from a dense slice; larger ids fall
// back to a map, the same direct-index-plus-fallback shape the slab
// allocator uses.
type ArenaAllocator struct {
	direct   [arenaDirectIndexSize]*arenaRegion
	fallback map[uint32]*arenaRegion
	ptrs     map[uint32]arenaPtr
	nextBase uint32
}

// NewArenaAllocator returns an empty arena allocator.
func NewArenaAllocator() *ArenaAllocator {
	return &ArenaAllocator{fallback: make(map[uint32]*arenaRegion), ptrs: make(map[uint32]arenaPtr), nextBase: 1}
}

func (a *ArenaAllocator) region(scopeID uint32) *arenaRegion {
	if scopeID < arenaDirectIndexSize {
		if a.direct[scopeID] == nil {
			a.direct[scopeID] = newArenaRegion()
		}
		return a.direct[scopeID]
	}
	r, ok := a.fallback[scopeID]
	if !ok {
		r = newArenaRegion()
		a.fallback[scopeID] = r
	}
	return r
}

// Alloc returns a pointer unique across the lifetime of this allocator
// (until the owning scope is reset and its region reused), encoding
// neither the scope id nor the in-region offset directly so callers
// cannot forge one from arithmetic.
func (a *ArenaAllocator) Alloc(size, alignment uint64, scopeID uint32) uint32 {
	if alignment == 0 {
		alignment = 8
	}
	r := a.region(scopeID)
	offset := r.alloc(uint32(size), uint32(alignment))
	token := a.nextBase
	a.nextBase++
	a.ptrs[token] = arenaPtr{scopeID: scopeID, offset: offset, size: uint32(size)}
	return token
}

// Bytes returns the backing slice a prior Alloc token refers to. A
// region's buffer never shrinks, so after the token's scope has been
// Reset the slice stays in range but may overlap memory handed out by
// later allocations in that scope; Bytes does not detect this.
func (a *ArenaAllocator) Bytes(token uint32) []byte {
	p := a.ptrs[token]
	r := a.region(p.scopeID)
	return r.buf[p.offset : p.offset+p.size]
}

// Reset releases every allocation a scope has made at once by rewinding
// its region's bump cursor; the region's backing buffer is retained and
// reused for the scope's next lifetime.
func (a *ArenaAllocator) Reset(scopeID uint32) {
	if scopeID < arenaDirectIndexSize {
		if r := a.direct[scopeID]; r != nil {
			r.reset()
		}
		return
	}
	if r, ok := a.fallback[scopeID]; ok {
		r.reset()
	}
}

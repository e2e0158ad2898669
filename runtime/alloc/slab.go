package alloc

// slabDirectIndexSize is the direct-index table size for type hashes;
// hashes at or above this fall into the linked-map fallback.
const slabDirectIndexSize = 32

// slabObjectsPerSlab is how many equally-sized objects one slab
// pre-carves.
const slabObjectsPerSlab = 64

// slab is one fixed-size-object pool. freeList holds indices [0,64) of
// objects available for reuse, served LIFO.
type slab struct {
	objectSize uint32
	buf        []byte
	freeList   []uint32
	nextVirgin uint32 // first never-yet-handed-out object index
}

func newSlab(objectSize uint32) *slab {
	return &slab{objectSize: objectSize, buf: make([]byte, objectSize*slabObjectsPerSlab)}
}

func (s *slab) alloc() (uint32, bool) {
	if n := len(s.freeList); n > 0 {
		idx := s.freeList[n-1]
		s.freeList = s.freeList[:n-1]
		return idx, true
	}
	if s.nextVirgin >= slabObjectsPerSlab {
		return 0, false
	}
	idx := s.nextVirgin
	s.nextVirgin++
	return idx, true
}

func (s *slab) free(idx uint32) {
	s.freeList = append(s.freeList, idx)
}

func (s *slab) bytes(idx uint32) []byte {
	off := idx * s.objectSize
	return s.buf[off : off+s.objectSize]
}

// slabClass is every slab allocated for one type hash, in the order they
// were opened; slabs are never released. A new slab opens only once
// every existing one is full.
type slabClass struct {
	objectSize uint32
	slabs      []*slab
}

func (c *slabClass) alloc() (slabIdx int, objIdx uint32) {
	for i, s := range c.slabs {
		if idx, ok := s.alloc(); ok {
			return i, idx
		}
	}
	s := newSlab(c.objectSize)
	idx, _ := s.alloc()
	c.slabs = append(c.slabs, s)
	return len(c.slabs) - 1, idx
}

// SlabAllocator serves type-hash-keyed fixed-size-object pools. Type
// hashes below slabDirectIndexSize are served from a dense slice;
// larger hashes fall back to a map.
type SlabAllocator struct {
	direct   [slabDirectIndexSize]*slabClass
	fallback map[uint32]*slabClass
	ptrs     map[uint32]slabPtr
	nextBase uint32
}

type slabPtr struct {
	typeHash uint32
	slabIdx  int
	objIdx   uint32
}

// NewSlabAllocator returns an empty slab allocator.
func NewSlabAllocator() *SlabAllocator {
	return &SlabAllocator{fallback: make(map[uint32]*slabClass), ptrs: make(map[uint32]slabPtr), nextBase: 1}
}

func (a *SlabAllocator) class(typeHash uint32, objectSize uint32) *slabClass {
	if typeHash < slabDirectIndexSize {
		if a.direct[typeHash] == nil {
			a.direct[typeHash] = &slabClass{objectSize: objectSize}
		}
		return a.direct[typeHash]
	}
	c, ok := a.fallback[typeHash]
	if !ok {
		c = &slabClass{objectSize: objectSize}
		a.fallback[typeHash] = c
	}
	return c
}

// Alloc returns a pointer to a freshly served object of size bytes from
// the type hash's slab class.
func (a *SlabAllocator) Alloc(size uint64, typeHash uint32) uint32 {
	c := a.class(typeHash, uint32(size))
	slabIdx, objIdx := c.alloc()
	token := a.nextBase
	a.nextBase++
	a.ptrs[token] = slabPtr{typeHash: typeHash, slabIdx: slabIdx, objIdx: objIdx}
	return token
}

// Free returns the object at ptr to its slab's LIFO free list. A Free of
// an unknown ptr, or with a typeHash other than the one ptr was
// allocated with, is ignored.
func (a *SlabAllocator) Free(ptr uint32, typeHash uint32) {
	p, ok := a.ptrs[ptr]
	if !ok || p.typeHash != typeHash {
		return
	}
	c := a.class(typeHash, 0)
	c.slabs[p.slabIdx].free(p.objIdx)
	delete(a.ptrs, ptr)
}

// Bytes returns the backing slice a prior Alloc token refers to.
func (a *SlabAllocator) Bytes(ptr uint32) []byte {
	p := a.ptrs[ptr]
	c := a.class(p.typeHash, 0)
	return c.slabs[p.slabIdx].bytes(p.objIdx)
}

package alloc

import "testing"

func TestSlabAllocServesDistinctObjects(t *testing.T) {
	s := NewSlabAllocator()
	p1 := s.Alloc(24, 7)
	p2 := s.Alloc(24, 7)
	if p1 == p2 {
		t.Fatal("distinct slab allocations must not alias")
	}
	copy(s.Bytes(p1), []byte("object-one-payload"))
	copy(s.Bytes(p2), []byte("object-two-payload"))
	if string(s.Bytes(p1)) == string(s.Bytes(p2)) {
		t.Fatal("writes to one object must not be visible through another")
	}
}

func TestSlabFreeIsLIFOReused(t *testing.T) {
	s := NewSlabAllocator()
	p := s.Alloc(16, 3)
	pObj := s.Bytes(p)
	s.Free(p, 3)
	q := s.Alloc(16, 3)
	if qObj := s.Bytes(q); &qObj[0] != &pObj[0] {
		t.Fatalf("freeing the only live object should make the very next alloc reuse its storage: token %d got a different object than token %d", q, p)
	}
}

func TestSlabOpensNewSlabOncePriorOneIsFull(t *testing.T) {
	s := NewSlabAllocator()
	var ptrs []uint32
	for i := 0; i < slabObjectsPerSlab+1; i++ {
		p := s.Alloc(8, 11)
		if p == 0 {
			t.Fatalf("allocation %d returned NullPtr-like zero token", i)
		}
		ptrs = append(ptrs, p)
	}
	seen := make(map[uint32]bool)
	for _, p := range ptrs {
		if seen[p] {
			t.Fatalf("pointer %d handed out twice across a slab boundary", p)
		}
		seen[p] = true
	}
}

func TestSlabDirectIndexAndFallbackBothWork(t *testing.T) {
	s := NewSlabAllocator()
	direct := s.Alloc(8, 10)   // inside direct index range
	fallback := s.Alloc(8, 999) // beyond direct index range
	copy(s.Bytes(direct), []byte("DIRECTOB"))
	copy(s.Bytes(fallback), []byte("FALLBACK"))
	if string(s.Bytes(direct)) != "DIRECTOB" || string(s.Bytes(fallback)) != "FALLBACK" {
		t.Fatal("direct and fallback slab classes must hold independent data")
	}
}

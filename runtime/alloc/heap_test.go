package alloc

import "testing"

func TestAllocReturnsDistinctAlignedPointers(t *testing.T) {
	h := NewHeap()
	a := h.Alloc(32, 16)
	b := h.Alloc(32, 16)
	if a == NullPtr || b == NullPtr {
		t.Fatalf("unexpected NullPtr: a=%d b=%d", a, b)
	}
	if a == b {
		t.Fatal("distinct allocations must not alias")
	}
	if a%16 != 0 || b%16 != 0 {
		t.Fatalf("pointers not aligned: a=%d b=%d", a, b)
	}
}

func TestAllocRejectsBadAlignment(t *testing.T) {
	h := NewHeap()
	if p := h.Alloc(8, 0); p != NullPtr {
		t.Fatal("zero alignment must fail")
	}
	if p := h.Alloc(8, 3); p != NullPtr {
		t.Fatal("non-power-of-two alignment must fail")
	}
	if p := h.Alloc(8, 8192); p != NullPtr {
		t.Fatal("alignment over 4096 must fail")
	}
}

func TestFreeIsIdempotentOnNull(t *testing.T) {
	h := NewHeap()
	if err := h.Free(NullPtr); err != nil {
		t.Fatalf("Free(NullPtr) must be a no-op, got %v", err)
	}
}

func TestDoubleFreeDetected(t *testing.T) {
	h := NewHeap()
	p := h.Alloc(16, 8)
	if err := h.Free(p); err != nil {
		t.Fatalf("first free failed: %v", err)
	}
	if err := h.Free(p); err == nil {
		t.Fatal("expected double-free to be detected")
	}
}

func TestFreeOfNeverAllocatedDetected(t *testing.T) {
	h := NewHeap()
	if err := h.Free(9999); err == nil {
		t.Fatal("expected free of an unknown pointer to be detected")
	}
}

func TestFreedBlockIsReusedByLaterAlloc(t *testing.T) {
	h := NewHeap()
	p := h.Alloc(64, 8)
	if err := h.Free(p); err != nil {
		t.Fatalf("free: %v", err)
	}
	q := h.Alloc(64, 8)
	if q != p {
		t.Fatalf("expected the freed block to be reused, got new offset %d vs original %d", q, p)
	}
}

func TestCoalescingMergesAdjacentFreedBlocks(t *testing.T) {
	h := NewHeap()
	a := h.Alloc(32, 8)
	b := h.Alloc(32, 8)
	if err := h.Free(a); err != nil {
		t.Fatalf("free a: %v", err)
	}
	if err := h.Free(b); err != nil {
		t.Fatalf("free b: %v", err)
	}
	big := h.Alloc(60, 8)
	if big != a {
		t.Fatalf("coalesced free space should satisfy a 60-byte request at the first block's offset without growing the buffer: got %d want %d", big, a)
	}
}

func TestReallocGrowsAndPreservesContents(t *testing.T) {
	h := NewHeap()
	p := h.Alloc(8, 8)
	copy(h.Bytes(p, 8), []byte("ABCDEFGH"))
	q := h.Realloc(p, 64)
	if q == NullPtr {
		t.Fatal("realloc should succeed")
	}
	if string(h.Bytes(q, 8)) != "ABCDEFGH" {
		t.Fatalf("realloc did not preserve contents: got %q", h.Bytes(q, 8))
	}
}

func TestReallocToZeroFreesAndReturnsNull(t *testing.T) {
	h := NewHeap()
	p := h.Alloc(16, 8)
	if got := h.Realloc(p, 0); got != NullPtr {
		t.Fatalf("realloc to zero should return NullPtr, got %d", got)
	}
	if err := h.Free(p); err == nil {
		t.Fatal("pointer should already be freed by realloc(0)")
	}
}

func TestFreeListClassIsMonotonic(t *testing.T) {
	prev := -1
	for _, size := range []uint32{1, 2, 4, 8, 16, 1024, 1 << 20} {
		c := freeListClass(size)
		if c < prev {
			t.Fatalf("class must not decrease as size grows: size=%d class=%d prev=%d", size, c, prev)
		}
		if c < 0 || c >= numFreeListClasses {
			t.Fatalf("class %d out of range for size %d", c, size)
		}
		prev = c
	}
}

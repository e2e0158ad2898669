package hmso

import (
	"bytes"
	"encoding/binary"
	"hash/fnv"
	"log/slog"
)

// cacheMagic is the build-cache index file's four-byte tag.
var cacheMagic = [4]byte{'F', 'C', 'X', 'C'}

// CacheEntry is one build-cache index record.
type CacheEntry struct {
	SourcePath     string
	SourceHash     uint64
	DependencyHash uint64
	Timestamp      uint64
	CachedObjectPath string

	summary *FunctionSummary // lazy-loaded; never serialized by WriteIndex
}

// Index is the in-memory form of the build cache's index file.
type Index struct {
	Entries []CacheEntry
	byPath  map[string]int
}

func NewIndex() *Index { return &Index{byPath: make(map[string]int)} }

func (idx *Index) Put(e CacheEntry) {
	if i, ok := idx.byPath[e.SourcePath]; ok {
		idx.Entries[i] = e
		return
	}
	idx.byPath[e.SourcePath] = len(idx.Entries)
	idx.Entries = append(idx.Entries, e)
}

func (idx *Index) Lookup(sourcePath string) (CacheEntry, bool) {
	i, ok := idx.byPath[sourcePath]
	if !ok {
		return CacheEntry{}, false
	}
	return idx.Entries[i], true
}

// NeedsRecompile reports whether sourcePath requires recompilation given
// its current content hash, dependency-closure hash, and whether its
// cached object file is still present.
func (idx *Index) NeedsRecompile(sourcePath string, sourceHash, dependencyHash uint64, objectExists bool) bool {
	e, ok := idx.Lookup(sourcePath)
	if !ok {
		return true
	}
	if e.SourceHash != sourceHash || e.DependencyHash != dependencyHash {
		return true
	}
	return !objectExists
}

// NeedsRecompileLogged wraps NeedsRecompile, logging the cache hit/miss
// at Debug. logger may be nil.
func (idx *Index) NeedsRecompileLogged(sourcePath string, sourceHash, dependencyHash uint64, objectExists bool, logger *slog.Logger) bool {
	logger = logOrDefault(logger)
	needs := idx.NeedsRecompile(sourcePath, sourceHash, dependencyHash, objectExists)
	if needs {
		logger.Debug("hmso: cache miss", "source", sourcePath)
	} else {
		logger.Debug("hmso: cache hit", "source", sourcePath)
	}
	return needs
}

// WriteIndex serializes idx to the FCXC binary format.
func WriteIndex(idx *Index) []byte {
	var buf bytes.Buffer
	buf.Write(cacheMagic[:])
	writeU32(&buf, uint32(len(idx.Entries)))
	for _, e := range idx.Entries {
		writeString(&buf, e.SourcePath)
		writeU64(&buf, e.SourceHash)
		writeU64(&buf, e.DependencyHash)
		writeU64(&buf, e.Timestamp)
		writeString(&buf, e.CachedObjectPath)
	}
	return buf.Bytes()
}

// ReadIndex parses the FCXC binary format. A truncated or malformed
// index (less than the full header, or a record cut short) is treated
// as empty rather than an error: concurrent writers may leave a
// partially-written index, and the build driver must tolerate that by
// forcing a full recompile rather than crashing.
func ReadIndex(data []byte) *Index {
	idx := NewIndex()
	r := bytes.NewReader(data)
	var magic [4]byte
	if _, err := r.Read(magic[:]); err != nil || magic != cacheMagic {
		return idx
	}
	count, ok := readU32(r)
	if !ok {
		return idx
	}
	for i := uint32(0); i < count; i++ {
		path, ok := readString(r)
		if !ok {
			return NewIndex()
		}
		sourceHash, ok := readU64(r)
		if !ok {
			return NewIndex()
		}
		depHash, ok := readU64(r)
		if !ok {
			return NewIndex()
		}
		ts, ok := readU64(r)
		if !ok {
			return NewIndex()
		}
		objPath, ok := readString(r)
		if !ok {
			return NewIndex()
		}
		idx.Put(CacheEntry{SourcePath: path, SourceHash: sourceHash, DependencyHash: depHash, Timestamp: ts, CachedObjectPath: objPath})
	}
	return idx
}

// DependencyHash computes a conservative dependency-closure hash: the
// FNV-1a hash of the concatenated per-file hashes the caller supplies
// for every file in the closure, taken in the order supplied: the hashes
// are not sorted, so the same hashes in a different order give a
// different result. This under-approximates a
// real build-dependency tracker (it has no notion of which symbols a
// file actually uses from an include, so a no-op edit inside an unused
// branch of a dependency still invalidates the cache) but per the
// open build-cache question, under-approximating (over-invalidating) is
// the safe direction; over-approximating (a stale hit) is not
// acceptable and this function never does that as long as the caller
// passes the true transitive closure.
func DependencyHash(fileHashes []uint64) uint64 {
	h := fnv.New64a()
	for _, fh := range fileHashes {
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], fh)
		h.Write(b[:])
	}
	return h.Sum64()
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeU64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

func writeString(buf *bytes.Buffer, s string) {
	writeU32(buf, uint32(len(s)))
	buf.WriteString(s)
}

func readU32(r *bytes.Reader) (uint32, bool) {
	var b [4]byte
	if m, err := r.Read(b[:]); err != nil || m != len(b) {
		return 0, false
	}
	return binary.LittleEndian.Uint32(b[:]), true
}

func readU64(r *bytes.Reader) (uint64, bool) {
	var b [8]byte
	if m, err := r.Read(b[:]); err != nil || m != len(b) {
		return 0, false
	}
	return binary.LittleEndian.Uint64(b[:]), true
}

// DirtyChunks marks every chunk containing one of changedFunctions dirty,
// then expands the dirty set transitively along caller edges: any
// function that (directly or indirectly) calls a changed function is
// also dirty, since inlining or intraprocedural optimization of the
// callee may have shaped the caller's own re-optimization opportunities.
// The walk follows incoming edges rather than outgoing ones and is
// iterative for the same reason the call-graph SCC pass is: a long
// caller chain must not recurse the Go stack.
func DirtyChunks(idx *GlobalIndex, chunks []*Chunk, changedFunctions []string) []*Chunk {
	changed := make(map[NodeID]bool)
	for _, name := range changedFunctions {
		for _, id := range idx.Symbols[name] {
			changed[id] = true
		}
	}

	incoming := make(map[NodeID][]NodeID)
	for _, e := range idx.Graph.Edges {
		incoming[e.Callee] = append(incoming[e.Callee], e.Caller)
	}

	stack := make([]NodeID, 0, len(changed))
	for id := range changed {
		stack = append(stack, id)
	}
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, caller := range incoming[v] {
			if !changed[caller] {
				changed[caller] = true
				stack = append(stack, caller)
			}
		}
	}

	var dirty []*Chunk
	for _, c := range chunks {
		for _, n := range c.Nodes {
			if changed[n] {
				dirty = append(dirty, c)
				break
			}
		}
	}
	return dirty
}

func readString(r *bytes.Reader) (string, bool) {
	n, ok := readU32(r)
	if !ok {
		return "", false
	}
	b := make([]byte, n)
	if m, err := r.Read(b); err != nil || m != len(b) {
		return "", false
	}
	return string(b), true
}

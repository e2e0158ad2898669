// Package objfile reads and writes the .fcx.o object file format: a
// fixed little-endian header followed by four optional sections (code,
// IR, summary, profile). The summary section is the only one this
// package interprets structurally, since the global index needs it
// without ever touching the code or IR bytes; code, IR, and profile
// sections are carried as opaque byte ranges for their owning packages
// to decode.
package objfile

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Magic is the four-byte tag "FCXO" read as a little-endian u32.
const Magic uint32 = 0x4F584346

// Version is the only object-file version this package writes or
// accepts.
const Version uint32 = 1

// headerSize is magic(4) + version(4) + four (offset,size) u64 pairs(64).
const headerSize = 4 + 4 + 4*2*8

// File is the decoded form of one .fcx.o object file.
type File struct {
	Code    []byte
	IR      []byte
	Summary []FunctionSummary
	Profile []byte
}

// FunctionSummary is the on-disk shape of one function's summary
// record. It mirrors hmso.FunctionSummary's fields but is declared
// independently so the wire format does not shift whenever the
// in-memory summarizer gains a field; callers in package hmso convert
// between the two explicitly.
type FunctionSummary struct {
	Name                 string
	ContentHash          uint64
	InstructionCount     uint32
	BasicBlockCount      uint32
	CyclomaticComplexity uint32
	Flags                uint32
	MemoryAccess         uint32
	InlineCost           uint32
	CallSites            []CallSite
}

// CallSite is the on-disk shape of one call site in a function summary.
type CallSite struct {
	CalleeName string
	CallCount  uint32
}

// Write serializes f to the .fcx.o binary format.
func Write(f *File) []byte {
	var summaryBuf bytes.Buffer
	writeU32(&summaryBuf, uint32(len(f.Summary)))
	for _, s := range f.Summary {
		writeString(&summaryBuf, s.Name)
		writeU64(&summaryBuf, s.ContentHash)
		writeU32(&summaryBuf, s.InstructionCount)
		writeU32(&summaryBuf, s.BasicBlockCount)
		writeU32(&summaryBuf, s.CyclomaticComplexity)
		writeU32(&summaryBuf, s.Flags)
		writeU32(&summaryBuf, s.MemoryAccess)
		writeU32(&summaryBuf, s.InlineCost)
		writeU32(&summaryBuf, uint32(len(s.CallSites)))
		for _, cs := range s.CallSites {
			writeString(&summaryBuf, cs.CalleeName)
			writeU32(&summaryBuf, cs.CallCount)
		}
	}
	summaryBytes := summaryBuf.Bytes()
	if len(f.Summary) == 0 {
		summaryBytes = nil
	}

	var (
		codeOff, irOff, summaryOff, profileOff             uint64
		codeSize, irSize, summarySize, profileSize         uint64
		offset                                             = uint64(headerSize)
	)
	if len(f.Code) > 0 {
		codeOff, codeSize = offset, uint64(len(f.Code))
		offset += codeSize
	}
	if len(f.IR) > 0 {
		irOff, irSize = offset, uint64(len(f.IR))
		offset += irSize
	}
	if len(summaryBytes) > 0 {
		summaryOff, summarySize = offset, uint64(len(summaryBytes))
		offset += summarySize
	}
	if len(f.Profile) > 0 {
		profileOff, profileSize = offset, uint64(len(f.Profile))
		offset += profileSize
	}

	var buf bytes.Buffer
	writeU32(&buf, Magic)
	writeU32(&buf, Version)
	writeU64(&buf, codeOff)
	writeU64(&buf, codeSize)
	writeU64(&buf, irOff)
	writeU64(&buf, irSize)
	writeU64(&buf, summaryOff)
	writeU64(&buf, summarySize)
	writeU64(&buf, profileOff)
	writeU64(&buf, profileSize)
	buf.Write(f.Code)
	buf.Write(f.IR)
	buf.Write(summaryBytes)
	buf.Write(f.Profile)
	return buf.Bytes()
}

// Read parses the .fcx.o binary format, rejecting a magic mismatch or
// unsupported version outright: unlike the build cache's index, an
// object file with a bad header is a hard compile error, never a
// silent "needs recompilation" signal, since code/IR sections can't be
// safely reinterpreted under a different layout.
func Read(data []byte) (*File, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("objfile: truncated header: got %d bytes, want at least %d", len(data), headerSize)
	}
	r := bytes.NewReader(data)
	magic, _ := readU32(r)
	if magic != Magic {
		return nil, fmt.Errorf("objfile: bad magic %#x, want %#x", magic, Magic)
	}
	version, _ := readU32(r)
	if version != Version {
		return nil, fmt.Errorf("objfile: unsupported version %d, want %d", version, Version)
	}
	codeOff, _ := readU64(r)
	codeSize, _ := readU64(r)
	irOff, _ := readU64(r)
	irSize, _ := readU64(r)
	summaryOff, _ := readU64(r)
	summarySize, _ := readU64(r)
	profileOff, _ := readU64(r)
	profileSize, _ := readU64(r)

	f := &File{}
	var err error
	if f.Code, err = slice(data, codeOff, codeSize); err != nil {
		return nil, fmt.Errorf("objfile: code section: %w", err)
	}
	if f.IR, err = slice(data, irOff, irSize); err != nil {
		return nil, fmt.Errorf("objfile: ir section: %w", err)
	}
	var summaryBytes []byte
	if summaryBytes, err = slice(data, summaryOff, summarySize); err != nil {
		return nil, fmt.Errorf("objfile: summary section: %w", err)
	}
	if f.Profile, err = slice(data, profileOff, profileSize); err != nil {
		return nil, fmt.Errorf("objfile: profile section: %w", err)
	}

	if len(summaryBytes) > 0 {
		if f.Summary, err = decodeSummary(summaryBytes); err != nil {
			return nil, fmt.Errorf("objfile: summary section: %w", err)
		}
	}
	return f, nil
}

func slice(data []byte, off, size uint64) ([]byte, error) {
	if size == 0 {
		return nil, nil
	}
	if off > uint64(len(data)) || size > uint64(len(data))-off {
		return nil, fmt.Errorf("section at offset %d with size %d exceeds file length %d", off, size, len(data))
	}
	return data[off : off+size], nil
}

func decodeSummary(data []byte) ([]FunctionSummary, error) {
	r := bytes.NewReader(data)
	count, ok := readU32(r)
	if !ok {
		return nil, fmt.Errorf("truncated function count")
	}
	out := make([]FunctionSummary, 0, count)
	for i := uint32(0); i < count; i++ {
		var s FunctionSummary
		var ok bool
		if s.Name, ok = readString(r); !ok {
			return nil, fmt.Errorf("function %d: truncated name", i)
		}
		if s.ContentHash, ok = readU64(r); !ok {
			return nil, fmt.Errorf("function %d: truncated content hash", i)
		}
		if s.InstructionCount, ok = readU32(r); !ok {
			return nil, fmt.Errorf("function %d: truncated instruction count", i)
		}
		if s.BasicBlockCount, ok = readU32(r); !ok {
			return nil, fmt.Errorf("function %d: truncated basic block count", i)
		}
		if s.CyclomaticComplexity, ok = readU32(r); !ok {
			return nil, fmt.Errorf("function %d: truncated cyclomatic complexity", i)
		}
		if s.Flags, ok = readU32(r); !ok {
			return nil, fmt.Errorf("function %d: truncated flags", i)
		}
		if s.MemoryAccess, ok = readU32(r); !ok {
			return nil, fmt.Errorf("function %d: truncated memory access", i)
		}
		if s.InlineCost, ok = readU32(r); !ok {
			return nil, fmt.Errorf("function %d: truncated inline cost", i)
		}
		numCallSites, ok := readU32(r)
		if !ok {
			return nil, fmt.Errorf("function %d: truncated call site count", i)
		}
		for j := uint32(0); j < numCallSites; j++ {
			var cs CallSite
			if cs.CalleeName, ok = readString(r); !ok {
				return nil, fmt.Errorf("function %d callsite %d: truncated callee name", i, j)
			}
			if cs.CallCount, ok = readU32(r); !ok {
				return nil, fmt.Errorf("function %d callsite %d: truncated call count", i, j)
			}
			s.CallSites = append(s.CallSites, cs)
		}
		out = append(out, s)
	}
	return out, nil
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
	if _, err := r.Read(b[:]); err != nil {
		return 0, false
	}
	return binary.LittleEndian.Uint32(b[:]), true
}

func readU64(r *bytes.Reader) (uint64, bool) {
	var b [8]byte
	if _, err := r.Read(b[:]); err != nil {
		return 0, false
	}
	return binary.LittleEndian.Uint64(b[:]), true
}

func readString(r *bytes.Reader) (string, bool) {
	n, ok := readU32(r)
	if !ok {
		return "", false
	}
	b := make([]byte, n)
	if _, err := r.Read(b); err != nil {
		return "", false
	}
	return string(b), true
}

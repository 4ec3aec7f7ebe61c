package coff

import (
	"encoding/binary"
	"fmt"
	"sort"
)

// strtabStart is the offset of the first string. The table begins with its
// own total size.
const strtabStart = 4

// A StringTable interns names too long to be stored inline. Offsets are
// relative to the start of the table, including the size field.
type StringTable struct {
	offsets map[string]uint32
	size    uint32
}

// NewStringTable returns an empty string table.
func NewStringTable() *StringTable {
	return &StringTable{
		offsets: make(map[string]uint32),
		size:    strtabStart,
	}
}

// Add interns name and returns its offset. Adding a name twice returns the
// same offset.
func (t *StringTable) Add(name string) uint32 {
	if off, ok := t.offsets[name]; ok {
		return off
	}
	off := t.size
	t.offsets[name] = off
	t.size += uint32(len(name)) + 1
	return off
}

// Lookup returns the offset of an interned name.
func (t *StringTable) Lookup(name string) (uint32, error) {
	off, ok := t.offsets[name]
	if !ok {
		return 0, fmt.Errorf("string %q: %w", name, ErrNotFound)
	}
	return off, nil
}

// Resolve returns the name interned at exactly the given offset.
func (t *StringTable) Resolve(off uint32) (string, error) {
	for name, o := range t.offsets {
		if o == off {
			return name, nil
		}
	}
	return "", fmt.Errorf("string table offset %d: %w", off, ErrNotFound)
}

// Len returns the size of the table in bytes, which is also the offset the
// next new string will get.
func (t *StringTable) Len() uint32 {
	return t.size
}

// Strings returns the interned names in offset order.
func (t *StringTable) Strings() []string {
	names := make([]string, 0, len(t.offsets))
	for name := range t.offsets {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return t.offsets[names[i]] < t.offsets[names[j]]
	})
	return names
}

// Bytes returns the serialized table: the total size as a little-endian
// uint32, then each string with a NUL terminator.
func (t *StringTable) Bytes() []byte {
	b := make([]byte, strtabStart, t.size)
	binary.LittleEndian.PutUint32(b, t.size)
	for _, name := range t.Strings() {
		b = append(b, name...)
		b = append(b, 0)
	}
	return b
}

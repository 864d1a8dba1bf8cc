// Package jsstring implements the engine's immutable string
// representation, shared by pointer and reclaimed by the Go garbage
// collector (no reference count is kept): a Latin-1 fast path for the common case of
// all-ASCII-or-Latin1 source text, falling back to UCS-2 (16-bit code
// units, matching ECMAScript's definition of String as a sequence of
// UTF-16 code units) when a string contains characters outside Latin-1.
package jsstring

import (
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// kind discriminates a String's internal storage.
type kind uint8

const (
	kindLatin1 kind = iota
	kindUCS2
)

// String is an immutable, shareable sequence of UTF-16 code units. The
// zero value is the empty string. Strings compare by value via Equal;
// pointer identity is not semantically meaningful except for the static
// pool (see Static).
type String struct {
	kind   kind
	latin1 []byte   // valid iff kind == kindLatin1: one byte per code unit
	ucs2   []uint16 // valid iff kind == kindUCS2
}

// Empty is the canonical empty string.
var Empty = &String{kind: kindLatin1}

// New builds a String from a UTF-8 Go string, choosing Latin-1 storage
// when every code point fits in a byte and UCS-2 otherwise.
func New(s string) *String {
	if s == "" {
		return Empty
	}
	units := utf16Encode(s)
	if isLatin1(units) {
		b := make([]byte, len(units))
		for i, u := range units {
			b[i] = byte(u)
		}
		return &String{kind: kindLatin1, latin1: b}
	}
	return &String{kind: kindUCS2, ucs2: units}
}

// FromUTF16 builds a String directly from UTF-16 code units, as produced
// by a host embedding that hands the engine UTF-16 source text.
func FromUTF16(units []uint16) *String {
	if len(units) == 0 {
		return Empty
	}
	if isLatin1(units) {
		b := make([]byte, len(units))
		for i, u := range units {
			b[i] = byte(u)
		}
		return &String{kind: kindLatin1, latin1: b}
	}
	cp := make([]uint16, len(units))
	copy(cp, units)
	return &String{kind: kindUCS2, ucs2: cp}
}

// Length returns the number of UTF-16 code units, matching ECMAScript's
// String.prototype.length semantics (not code points: surrogate pairs
// count as two).
func (s *String) Length() int {
	if s.kind == kindLatin1 {
		return len(s.latin1)
	}
	return len(s.ucs2)
}

// CharAt returns the UTF-16 code unit at index i.
func (s *String) CharAt(i int) uint16 {
	if s.kind == kindLatin1 {
		return uint16(s.latin1[i])
	}
	return s.ucs2[i]
}

// Concat returns a new String holding the concatenation of s and other.
// Neither operand is mutated, preserving the immutability invariant.
func (s *String) Concat(other *String) *String {
	if s.Length() == 0 {
		return other
	}
	if other.Length() == 0 {
		return s
	}
	if s.kind == kindLatin1 && other.kind == kindLatin1 {
		b := make([]byte, 0, len(s.latin1)+len(other.latin1))
		b = append(b, s.latin1...)
		b = append(b, other.latin1...)
		return &String{kind: kindLatin1, latin1: b}
	}
	units := make([]uint16, 0, s.Length()+other.Length())
	units = append(units, s.units()...)
	units = append(units, other.units()...)
	return &String{kind: kindUCS2, ucs2: units}
}

// units returns a read view of the code units regardless of storage kind.
func (s *String) units() []uint16 {
	if s.kind == kindUCS2 {
		return s.ucs2
	}
	out := make([]uint16, len(s.latin1))
	for i, b := range s.latin1 {
		out[i] = uint16(b)
	}
	return out
}

// Equal reports whether s and other hold the same sequence of code units.
func (s *String) Equal(other *String) bool {
	if s == other {
		return true
	}
	if s.Length() != other.Length() {
		return false
	}
	if s.kind == kindLatin1 && other.kind == kindLatin1 {
		for i := range s.latin1 {
			if s.latin1[i] != other.latin1[i] {
				return false
			}
		}
		return true
	}
	a, b := s.units(), other.units()
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// String renders the value as a Go UTF-8 string, for host interop,
// printing, and use as a Go map key where appropriate.
func (s *String) String() string {
	if s.kind == kindLatin1 {
		// Latin-1 code units below 0x80 are ASCII and self-describing in
		// UTF-8; the full Latin-1 range still round-trips through
		// utf16Decode below, so route through the same decoder for
		// correctness at the cost of the fast path's main benefit (memory
		// density), not correctness.
		return utf16Decode(s.units())
	}
	return utf16Decode(s.ucs2)
}

// isLatin1 reports whether every code unit fits in a byte (U+0000-U+00FF).
func isLatin1(units []uint16) bool {
	for _, u := range units {
		if u > 0xFF {
			return false
		}
	}
	return true
}

// utf16Encode converts a Go (UTF-8) string to UTF-16 code units using
// golang.org/x/text's UTF-16 transform, matching the engine's contract
// (§6 of the spec) that source text may be UTF-8 or UTF-16.
func utf16Encode(s string) []uint16 {
	enc := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder()
	out, _, err := transform.String(enc, s)
	if err != nil {
		// Transform only fails on malformed UTF-8 input from the host;
		// fall back to a lossy rune-by-rune encoding rather than panic.
		return lossyEncode(s)
	}
	units := make([]uint16, len(out)/2)
	for i := range units {
		units[i] = uint16(out[2*i]) | uint16(out[2*i+1])<<8
	}
	return units
}

func lossyEncode(s string) []uint16 {
	var units []uint16
	for _, r := range s {
		if r > 0xFFFF {
			r -= 0x10000
			units = append(units, uint16(0xD800+(r>>10)), uint16(0xDC00+(r&0x3FF)))
			continue
		}
		units = append(units, uint16(r))
	}
	return units
}

// utf16Decode converts UTF-16 code units back to a Go UTF-8 string.
func utf16Decode(units []uint16) string {
	buf := make([]byte, len(units)*2)
	for i, u := range units {
		buf[2*i] = byte(u)
		buf[2*i+1] = byte(u >> 8)
	}
	dec := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
	out, _, err := transform.Bytes(dec, buf)
	if err != nil {
		return string(out)
	}
	return string(out)
}

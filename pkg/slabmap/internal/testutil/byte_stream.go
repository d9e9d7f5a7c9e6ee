package testutil

import "encoding/binary"

// ByteStream reads bytes sequentially from a byte slice.
//
// Used by fuzz tests to deterministically derive values from fuzz input.
// When the stream is exhausted, all reads return zero values. The same input
// always produces the same sequence of values, which Go's fuzzer needs to
// minimize failing inputs.
type ByteStream struct {
	bytes []byte
	pos   int
}

// NewByteStream creates a stream over the given bytes.
func NewByteStream(b []byte) *ByteStream {
	return &ByteStream{bytes: b}
}

// HasMore reports whether unread bytes remain.
func (s *ByteStream) HasMore() bool {
	return s.pos < len(s.bytes)
}

// NextByte returns the next byte, or 0 if exhausted.
func (s *ByteStream) NextByte() byte {
	if s.pos >= len(s.bytes) {
		return 0
	}

	v := s.bytes[s.pos]
	s.pos++

	return v
}

// NextUint16 reads 2 bytes as a little-endian uint16.
func (s *ByteStream) NextUint16() uint16 {
	var raw [2]byte
	for i := range raw {
		raw[i] = s.NextByte()
	}

	return binary.LittleEndian.Uint16(raw[:])
}

// NextUint32 reads 4 bytes as a little-endian uint32.
func (s *ByteStream) NextUint32() uint32 {
	var raw [4]byte
	for i := range raw {
		raw[i] = s.NextByte()
	}

	return binary.LittleEndian.Uint32(raw[:])
}

// NextIntn returns a value in [0, n) derived from the next byte(s). n must be
// positive; values up to 256 consume one byte, larger ones two.
func (s *ByteStream) NextIntn(n int) int {
	if n <= 256 {
		return int(s.NextByte()) % n
	}

	return int(s.NextUint16()) % n
}

// Rest returns the remaining unread bytes (nil if exhausted).
func (s *ByteStream) Rest() []byte {
	if s.pos >= len(s.bytes) {
		return nil
	}

	return s.bytes[s.pos:]
}

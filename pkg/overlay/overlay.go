// Package overlay reinterprets byte buffers as fixed-layout header structs without copying.
//
// A type is eligible when every field is built from bytes (uint8, [N]byte and named
// types over them, such as endian.U16 or bitfield.Unit2). Such a struct has alignment 1,
// no padding, and unsafe.Sizeof equal to the sum of its fields, which is what makes the
// memory layout identical to the wire layout.
//
// The returned pointer aliases the caller's buffer. It must not outlive the buffer, and
// the buffer must not be written through another path while a view is being read.
package overlay

import (
	"errors"
	"fmt"
	"unsafe"
)

// ErrShortBuffer is returned when a buffer is smaller than the struct to overlay.
var ErrShortBuffer = errors.New("overlay: buffer too short")

// View returns a *T backed by the first Size[T]() bytes of buf.
// It panics if T is not byte-aligned.
func View[T any](buf []byte) (*T, error) {
	size := Size[T]()
	if len(buf) < size {
		return nil, fmt.Errorf("%w: %T needs %d bytes, have %d", ErrShortBuffer, (*T)(nil), size, len(buf))
	}
	return (*T)(unsafe.Pointer(unsafe.SliceData(buf))), nil
}

// Size returns the overlay size of T in bytes.
func Size[T any]() int {
	var zero T
	if a := unsafe.Alignof(zero); a != 1 {
		panic(fmt.Sprintf("overlay: %T has alignment %d, only byte-aligned types can overlay a buffer", zero, a))
	}
	return int(unsafe.Sizeof(zero))
}

// Bytes returns the memory behind p as a byte slice of length Size[T]().
func Bytes[T any](p *T) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(p)), Size[T]())
}

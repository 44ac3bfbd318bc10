// Package bitfield reads and writes arbitrary bit ranges packed across a byte sequence.
//
// Two addressing orders are supported. LSB0 numbers bit 0 as the least-significant
// bit of byte 0, bit 8 as the least-significant bit of byte 1 and so on. Network
// numbers bits the way a big-endian integer stored in the same bytes would: bit 0 is
// the least-significant bit of the last byte. Both are independent of the host's
// native byte order.
package bitfield

import "fmt"

// MaxWidth is the widest range a single Get or Set can address.
const MaxWidth = 64

// Order selects how bit positions map onto bytes.
type Order uint8

const (
	// LSB0 addresses bit 0 at the least-significant bit of the first byte.
	LSB0 Order = iota
	// Network addresses bit 0 at the least-significant bit of the last byte.
	Network
)

func (o Order) String() string {
	switch o {
	case LSB0:
		return "lsb0"
	case Network:
		return "network"
	default:
		return fmt.Sprintf("Order(%d)", uint8(o))
	}
}

// RangeError reports a bit range that does not fit the backing storage.
type RangeError struct {
	Start uint
	Width uint
	Bits  uint // storage size in bits
}

func (e *RangeError) Error() string {
	if e.Width == 0 || e.Width > MaxWidth {
		return fmt.Sprintf("bitfield: width %d out of range [1, %d]", e.Width, MaxWidth)
	}
	return fmt.Sprintf("bitfield: range [%d, %d) exceeds %d-bit storage", e.Start, e.Start+e.Width, e.Bits)
}

// CheckRange returns a *RangeError if [start, start+width) does not fit in n bytes
// or width is outside [1, MaxWidth].
func CheckRange(n int, start, width uint) error {
	bits := uint(n) * 8
	if width == 0 || width > MaxWidth || start > bits || width > bits-start {
		return &RangeError{Start: start, Width: width, Bits: bits}
	}
	return nil
}

// byteIndex maps the i-th byte counted from the low end of the bit numbering
// to an index into storage of length n.
func (o Order) byteIndex(n int, i uint) int {
	if o == Network {
		return n - 1 - int(i)
	}
	return int(i)
}

// Get returns the width bits starting at start, assembled low to high into the
// low-order bits of the result. It panics with a *RangeError if the range does not
// fit in storage.
func (o Order) Get(storage []byte, start, width uint) uint64 {
	if err := CheckRange(len(storage), start, width); err != nil {
		panic(err)
	}
	return o.get(storage, start, width)
}

// TryGet is Get returning the range violation as an error instead of panicking.
func (o Order) TryGet(storage []byte, start, width uint) (uint64, error) {
	if err := CheckRange(len(storage), start, width); err != nil {
		return 0, err
	}
	return o.get(storage, start, width), nil
}

// Set writes the low-order width bits of value into the range starting at start.
// Bits outside the range are left untouched. It panics with a *RangeError if the
// range does not fit in storage.
func (o Order) Set(storage []byte, start, width uint, value uint64) {
	if err := CheckRange(len(storage), start, width); err != nil {
		panic(err)
	}
	o.set(storage, start, width, value)
}

// TrySet is Set returning the range violation as an error instead of panicking.
func (o Order) TrySet(storage []byte, start, width uint, value uint64) error {
	if err := CheckRange(len(storage), start, width); err != nil {
		return err
	}
	o.set(storage, start, width, value)
	return nil
}

// Bit reports whether the bit at index is set.
func (o Order) Bit(storage []byte, index uint) bool {
	return o.Get(storage, index, 1) == 1
}

// SetBit sets or clears the bit at index.
func (o Order) SetBit(storage []byte, index uint, v bool) {
	var b uint64
	if v {
		b = 1
	}
	o.Set(storage, index, 1, b)
}

func (o Order) get(storage []byte, start, width uint) uint64 {
	var v uint64
	pos, done := start, uint(0)
	for done < width {
		idx := o.byteIndex(len(storage), pos/8)
		shift := pos % 8
		n := 8 - shift
		if n > width-done {
			n = width - done
		}
		mask := uint64(1)<<n - 1
		v |= (uint64(storage[idx]) >> shift & mask) << done
		pos += n
		done += n
	}
	return v
}

func (o Order) set(storage []byte, start, width uint, value uint64) {
	pos, done := start, uint(0)
	for done < width {
		idx := o.byteIndex(len(storage), pos/8)
		shift := pos % 8
		n := 8 - shift
		if n > width-done {
			n = width - done
		}
		mask := uint64(1)<<n - 1
		chunk := byte((value >> done & mask) << shift)
		storage[idx] = storage[idx]&^byte(mask<<shift) | chunk
		pos += n
		done += n
	}
}

// Get is LSB0.Get.
func Get(storage []byte, start, width uint) uint64 { return LSB0.Get(storage, start, width) }

// Set is LSB0.Set.
func Set(storage []byte, start, width uint, value uint64) { LSB0.Set(storage, start, width, value) }

package ip

import (
	"errors"
	"fmt"

	"github.com/lijingwei9060/ether-packet/pkg/bitfield"
)

var (
	// ErrBadHeaderLen is returned when IHL is below 5 or points past the buffer.
	ErrBadHeaderLen = errors.New("ip: bad header length")
	// ErrMalformedOption is returned for an option whose length octet is
	// missing, below 2, or runs past the options area.
	ErrMalformedOption = errors.New("ip: malformed option")
)

// IPv4OptionType is the option-type octet of an IPv4 option:
//
//	  7   6   5   4                 0
//	+---+-------+---------------------+
//	| C | class |       number        |
//	+---+-------+---------------------+
type IPv4OptionType struct {
	octet bitfield.Unit1
}

// Option types as full octets.
const (
	IPv4OptEndOfList         = 0x00
	IPv4OptNoOperation       = 0x01
	IPv4OptSecurity          = 0x82
	IPv4OptLooseSourceRoute  = 0x83
	IPv4OptInternetTimestamp = 0x44
	IPv4OptRecordRoute       = 0x07
	IPv4OptStreamID          = 0x88
	IPv4OptStrictSourceRoute = 0x89
)

const (
	optClassControl      = 0
	optClassDebugMeasure = 2
)

func NewIPv4OptionType(v uint8) IPv4OptionType {
	return IPv4OptionType{octet: bitfield.Unit1{v}}
}

// Value returns the raw octet.
func (t IPv4OptionType) Value() uint8 { return t.octet[0] }

// Copied reports whether the option is copied into every fragment.
func (t IPv4OptionType) Copied() bool { return t.octet.Bit(7) }

// Class returns the option class: 0 control, 2 debugging and measurement.
func (t IPv4OptionType) Class() uint8 { return uint8(t.octet.Get(5, 2)) }

// Number returns the option number within its class.
func (t IPv4OptionType) Number() uint8 { return uint8(t.octet.Get(0, 5)) }

func (t IPv4OptionType) is(class, number uint8) bool {
	return t.Class() == class && t.Number() == number
}

func (t IPv4OptionType) IsEndOfList() bool         { return t.is(optClassControl, 0) }
func (t IPv4OptionType) IsNoOperation() bool       { return t.is(optClassControl, 1) }
func (t IPv4OptionType) IsSecurity() bool          { return t.is(optClassControl, 2) }
func (t IPv4OptionType) IsLooseSourceRoute() bool  { return t.is(optClassControl, 3) }
func (t IPv4OptionType) IsRecordRoute() bool       { return t.is(optClassControl, 7) }
func (t IPv4OptionType) IsStreamID() bool          { return t.is(optClassControl, 8) }
func (t IPv4OptionType) IsStrictSourceRoute() bool { return t.is(optClassControl, 9) }
func (t IPv4OptionType) IsInternetTimestamp() bool { return t.is(optClassDebugMeasure, 4) }

func (t IPv4OptionType) String() string {
	return fmt.Sprintf("opt(copied=%t class=%d number=%d)", t.Copied(), t.Class(), t.Number())
}

// IPv4Option is a single option. Data aliases the header and excludes the type
// and length octets.
type IPv4Option struct {
	Type IPv4OptionType
	Data []byte
}

// IPv4OptionReader iterates over the options of an IPv4 header without
// allocating.
//
//	r, err := ip.NewIPv4OptionReader(buf)
//	for r.Next() {
//		opt := r.Option()
//	}
//	err = r.Err()
type IPv4OptionReader struct {
	buf []byte
	cur IPv4Option
	err error
}

// NewIPv4OptionReader returns a reader over the options area of the IPv4
// header at the start of buf, as bounded by IHL.
func NewIPv4OptionReader(buf []byte) (*IPv4OptionReader, error) {
	h, err := IPv4HdrFrom(buf)
	if err != nil {
		return nil, err
	}
	n := h.HeaderLen()
	if n < IPv4HdrLen || n > len(buf) {
		return nil, fmt.Errorf("%w: ihl=%d, have %d bytes", ErrBadHeaderLen, h.IHL(), len(buf))
	}
	return &IPv4OptionReader{buf: buf[IPv4HdrLen:n]}, nil
}

// Next advances to the next option. It returns false at end of list, when the
// options area is exhausted, or on a malformed option.
func (r *IPv4OptionReader) Next() bool {
	if r.err != nil || len(r.buf) == 0 {
		return false
	}
	t := NewIPv4OptionType(r.buf[0])
	switch {
	case t.IsEndOfList():
		r.buf = nil
		return false
	case t.IsNoOperation():
		r.cur = IPv4Option{Type: t}
		r.buf = r.buf[1:]
		return true
	}
	if len(r.buf) < 2 {
		r.err = fmt.Errorf("%w: %s has no length octet", ErrMalformedOption, t)
		return false
	}
	l := int(r.buf[1])
	if l < 2 || l > len(r.buf) {
		r.err = fmt.Errorf("%w: %s length %d, %d bytes left", ErrMalformedOption, t, l, len(r.buf))
		return false
	}
	r.cur = IPv4Option{Type: t, Data: r.buf[2:l]}
	r.buf = r.buf[l:]
	return true
}

// Option returns the option read by the last call to Next.
func (r *IPv4OptionReader) Option() IPv4Option { return r.cur }

// Err returns the first error encountered.
func (r *IPv4OptionReader) Err() error { return r.err }

// Package core defines sentinel errors.
package core

import "errors"

// Sentinel errors. Callers match them with errors.Is; the wrapped cause is the
// overlay or registry error from pkg/.
var (
	// Packet decoding errors
	ErrPacketTooShort   = errors.New("etherpkt: packet too short")
	ErrUnsupportedProto = errors.New("etherpkt: unsupported protocol")
	ErrMalformedHeader  = errors.New("etherpkt: malformed header")
	ErrTooManyVLANTags  = errors.New("etherpkt: too many vlan tags")

	// Source errors
	ErrSourceNotStarted = errors.New("etherpkt: source not started")
	ErrUnsupportedLink  = errors.New("etherpkt: unsupported link type")

	// Configuration errors
	ErrConfigInvalid = errors.New("etherpkt: invalid configuration")
)

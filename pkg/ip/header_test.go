package ip

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lijingwei9060/ether-packet/pkg/overlay"
)

func TestParseHeader(t *testing.T) {
	h, err := ParseHeader(ipv4Sample())
	require.NoError(t, err)
	v4, ok := h.(*IPv4Hdr)
	require.True(t, ok)
	assert.Equal(t, uint8(4), v4.Version())
	assert.Equal(t, "10.0.0.2", h.DstAddr().String())

	h, err = ParseHeader(ipv6Sample())
	require.NoError(t, err)
	_, ok = h.(*IPv6Hdr)
	require.True(t, ok)
	assert.Equal(t, 40, h.HeaderLen())
	p, err := h.Protocol()
	require.NoError(t, err)
	assert.Equal(t, IPProtoUDP, p)
}

func TestParseHeaderErrors(t *testing.T) {
	h, err := ParseHeader([]byte{0x50, 0x00})
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
	assert.Nil(t, h)

	h, err = ParseHeader(ipv6Sample()[:30])
	assert.ErrorIs(t, err, overlay.ErrShortBuffer)
	assert.Nil(t, h)

	_, err = ParseHeader(nil)
	assert.ErrorIs(t, err, overlay.ErrShortBuffer)
}

// Package file reads frames from pcap and pcapng capture files.
package file

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"github.com/lijingwei9060/ether-packet/internal/core"
	"github.com/lijingwei9060/ether-packet/internal/log"
	"github.com/lijingwei9060/ether-packet/internal/metrics"
)

const Name = "file"

// pcapng section header block type, identical in both byte orders
var ngMagic = []byte{0x0A, 0x0D, 0x0D, 0x0A}

type packetReader interface {
	ReadPacketData() ([]byte, gopacket.CaptureInfo, error)
	LinkType() layers.LinkType
}

// Source reads Ethernet frames from a capture file.
type Source struct {
	path   string
	file   *os.File
	reader packetReader
	format string
}

// NewSource creates a source for path. The file is opened by Start.
func NewSource(path string) (*Source, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: capture file path is required", core.ErrConfigInvalid)
	}
	return &Source{path: path}, nil
}

// Start opens the capture file and checks that it carries Ethernet frames.
func (s *Source) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("failed to open capture file %s: %w", s.path, err)
	}

	br := bufio.NewReader(f)
	magic, err := br.Peek(len(ngMagic))
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to read capture file header %s: %w", s.path, err)
	}

	var reader packetReader
	if bytes.Equal(magic, ngMagic) {
		reader, err = pcapgo.NewNgReader(br, pcapgo.DefaultNgReaderOptions)
		s.format = "pcapng"
	} else {
		reader, err = pcapgo.NewReader(br)
		s.format = "pcap"
	}
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to parse %s header %s: %w", s.format, s.path, err)
	}

	if lt := reader.LinkType(); lt != layers.LinkTypeEthernet {
		f.Close()
		return fmt.Errorf("%w: %s has link type %s", core.ErrUnsupportedLink, s.path, lt)
	}

	s.file = f
	s.reader = reader
	log.GetLogger().WithFields(map[string]interface{}{
		"path":   s.path,
		"format": s.format,
	}).Debug("capture file opened")
	return nil
}

// ReadPacket returns the next frame. It returns io.EOF at the end of the file.
// The frame data is owned by the caller.
func (s *Source) ReadPacket() (core.RawPacket, error) {
	if s.reader == nil {
		return core.RawPacket{}, core.ErrSourceNotStarted
	}

	data, ci, err := s.reader.ReadPacketData()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return core.RawPacket{}, io.EOF
		}
		return core.RawPacket{}, fmt.Errorf("failed to read packet: %w", err)
	}

	metrics.FramesTotal.WithLabelValues(Name).Inc()
	metrics.FrameBytes.Observe(float64(ci.CaptureLength))

	return core.RawPacket{
		Data:           data,
		Timestamp:      ci.Timestamp,
		CaptureLen:     uint32(ci.CaptureLength),
		OrigLen:        uint32(ci.Length),
		InterfaceIndex: ci.InterfaceIndex,
	}, nil
}

// Format returns "pcap" or "pcapng" once started.
func (s *Source) Format() string { return s.format }

// Stop closes the capture file.
func (s *Source) Stop() error {
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	s.reader = nil
	return err
}

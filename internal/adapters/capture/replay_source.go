// Package capture implements frame sources that feed raw buffers to the
// frame parser: a pcap-file replay source for tests and offline analysis,
// and (on platforms with libpcap) a live interface source.
package capture

import (
	"fmt"
	"io"
	"time"

	"github.com/google/gopacket/pcapgo"
)

// RawFrame is one captured buffer together with the capture metadata the
// recognizer and dumper need.
type RawFrame struct {
	Timestamp time.Time
	OrigLen   int
	Data      []byte
}

// Source yields raw captured frames until exhausted or ctx-equivalent
// cancellation closes the underlying transport.
type Source interface {
	// Next returns the next frame, or io.EOF once the source is exhausted
	// (end of file for a replay source; never, in practice, for a live
	// one until it is closed).
	Next() (RawFrame, error)
	Close() error
}

// ReplaySource reads frames back out of a previously captured pcap file.
// It requires the file's link type to be DLT_IEEE802_11_RADIO, matching
// what PcapDumper writes.
type ReplaySource struct {
	r      *pcapgo.Reader
	closer io.Closer
}

// NewReplaySource wraps r, reading and validating the pcap file header.
func NewReplaySource(r io.Reader) (*ReplaySource, error) {
	reader, err := pcapgo.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("replay source: %w", err)
	}
	src := &ReplaySource{r: reader}
	if c, ok := r.(io.Closer); ok {
		src.closer = c
	}
	return src, nil
}

// Next implements Source.
func (s *ReplaySource) Next() (RawFrame, error) {
	data, ci, err := s.r.ReadPacketData()
	if err != nil {
		return RawFrame{}, err
	}
	return RawFrame{Timestamp: ci.Timestamp, OrigLen: ci.Length, Data: data}, nil
}

// Close implements Source.
func (s *ReplaySource) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

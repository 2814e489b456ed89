//go:build linux || darwin

package capture

import (
	"fmt"
	"time"

	"github.com/google/gopacket/pcap"
)

// LiveSource captures frames from a monitor-mode interface via libpcap.
// Building this file requires libpcap headers (cgo). The build tag limits it
// to linux and darwin; elsewhere the capture package provides only
// ReplaySource, and internal/app, which calls NewLiveSource, does not build.
type LiveSource struct {
	handle *pcap.Handle
}

// NewLiveSource opens iface in monitor-capable promiscuous mode with the
// given snapshot length. Callers typically set a BPF filter afterwards via
// SetBPFFilter to restrict capture to EAPOL and management traffic.
func NewLiveSource(iface string, snaplen int32) (*LiveSource, error) {
	handle, err := pcap.OpenLive(iface, snaplen, true, pcap.BlockForever)
	if err != nil {
		return nil, fmt.Errorf("live source: opening %s: %w", iface, err)
	}
	return &LiveSource{handle: handle}, nil
}

// SetBPFFilter installs a BPF filter on the underlying handle.
func (s *LiveSource) SetBPFFilter(expr string) error {
	return s.handle.SetBPFFilter(expr)
}

// Next implements Source.
func (s *LiveSource) Next() (RawFrame, error) {
	data, ci, err := s.handle.ReadPacketData()
	if err != nil {
		return RawFrame{}, err
	}
	return RawFrame{Timestamp: ci.Timestamp, OrigLen: ci.Length, Data: data}, nil
}

// Close implements Source.
func (s *LiveSource) Close() error {
	s.handle.Close()
	return nil
}

// Package dumper implements ports.Dumper by writing frames verbatim to a
// pcap capture file, the way a capture tool feeding aircrack-ng or a
// similar cracker would expect to find them.
package dumper

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// snapLen is generous enough for any 802.11 management or data frame this
// system dumps, radiotap header included.
const snapLen = 65536

// PcapDumper appends frames to a single pcap file opened for the lifetime
// of a run. Frames carry a radiotap header, so the file header declares
// DLT_IEEE802_11_RADIO.
type PcapDumper struct {
	mu     sync.Mutex
	w      *pcapgo.Writer
	closer io.Closer
}

// NewPcapDumper writes a pcap file header to w and returns a dumper ready
// to accept frames. If w also implements io.Closer, Close will close it.
func NewPcapDumper(w io.Writer) (*PcapDumper, error) {
	writer := pcapgo.NewWriter(w)
	if err := writer.WriteFileHeader(snapLen, layers.LinkTypeIEEE80211Radio); err != nil {
		return nil, fmt.Errorf("pcap dumper: writing file header: %w", err)
	}
	d := &PcapDumper{w: writer}
	if c, ok := w.(io.Closer); ok {
		d.closer = c
	}
	return d, nil
}

// Dump implements ports.Dumper.
func (d *PcapDumper) Dump(timestamp time.Time, origLen int, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	ci := gopacket.CaptureInfo{
		Timestamp:     timestamp,
		CaptureLength: len(data),
		Length:        origLen,
	}
	if err := d.w.WritePacket(ci, data); err != nil {
		return fmt.Errorf("pcap dumper: %w", err)
	}
	return nil
}

// Close releases the underlying writer, if it is closeable.
func (d *PcapDumper) Close() error {
	if d.closer == nil {
		return nil
	}
	return d.closer.Close()
}

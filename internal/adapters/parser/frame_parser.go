// Package parser turns a raw captured buffer (radiotap header included)
// into a domain.Frame, or reports that the buffer is not of interest. It
// does its own bounds-checked byte parsing rather than building on
// gopacket's layer decoders: the classification rules need exact control
// over a handful of fixed offsets, and gopacket's Dot11/EAPOL layers apply
// their own (different) heuristics that would fight the ones implemented
// here.
package parser

import "github.com/zizzania-go/zizzaniad/internal/core/domain"

const (
	radiotapLengthOffset = 2 // bytes 2-3 of the radiotap header, little-endian
	radiotapMinLen       = 4

	macHeaderLen = 24 // frame control, duration, 3 addresses, sequence control
	qosHeaderLen = 2  // extra control field present on QoS data frames

	llcSNAPHeaderLen = 8 // DSAP, SSAP, control, 3-byte OUI, 2-byte type

	llcDSAPOffset    = 0
	llcSSAPOffset    = 1
	llcControlOffset = 2
	llcTypeOffset    = 6

	llcDSAPSNAP    = 0xaa
	llcSSAPSNAP    = 0xaa
	llcControlSNAP = 0x03

	// dot1XHeaderLen is the 802.1X header (version, type, body length)
	// that precedes the EAPOL-Key body itself.
	dot1XHeaderLen = 4

	// Offsets below are relative to the start of the EAPOL-Key body, i.e.
	// after dot1XHeaderLen: descriptor type (1 byte), key information (2
	// bytes), key length (2 bytes), replay counter (8 bytes), ...
	eapolKeyInfoOffset       = 1
	eapolReplayCounterOffset = 5
	eapolKeyBodyMinLen       = 13 // through the end of the replay counter
)

// Parse decodes a single captured buffer. ok is false when the frame should
// be skipped outright: wrong direction, broadcast/multicast destination, or
// too short to safely parse. frame.Raw always aliases buf when ok is true.
func Parse(buf []byte) (frame domain.Frame, ok bool) {
	if len(buf) < radiotapMinLen {
		return domain.Frame{}, false
	}
	radiotapLen := int(buf[radiotapLengthOffset]) | int(buf[radiotapLengthOffset+1])<<8
	if radiotapLen < radiotapMinLen || len(buf) < radiotapLen+macHeaderLen {
		return domain.Frame{}, false
	}

	mac := buf[radiotapLen:]
	frameControl1 := mac[0]
	flagsByte := mac[1]
	toDS := flagsByte&0x01 != 0
	fromDS := flagsByte&0x02 != 0

	if toDS == fromDS {
		// ad-hoc, or a WDS/other-direction combination this system does not
		// track.
		return domain.Frame{}, false
	}

	addr1 := domain.AddressFromBytes(mac[4:10])
	addr2 := domain.AddressFromBytes(mac[10:16])
	addr3 := domain.AddressFromBytes(mac[16:22])

	var bssid, source, destination, clientAddr domain.Address
	if toDS {
		bssid, source, destination = addr1, addr2, addr3
		clientAddr = source
	} else {
		destination, bssid, source = addr1, addr2, addr3
		clientAddr = destination
	}

	if destination.IsBroadcast() || destination.IsMulticast() {
		return domain.Frame{}, false
	}

	headerLen := macHeaderLen
	if frameControl1 == 0x88 {
		// QoS data frame: an extra 2-byte QoS control field follows the
		// fixed MAC header before the LLC/SNAP header begins.
		headerLen += qosHeaderLen
	}

	frame = domain.Frame{
		BSSID:       bssid,
		Source:      source,
		Destination: destination,
		ClientAddr:  clientAddr,
		Raw:         buf,
	}

	if len(mac) < headerLen+llcSNAPHeaderLen {
		return frame, true
	}
	llc := mac[headerLen:]

	if llc[llcDSAPOffset] != llcDSAPSNAP ||
		llc[llcSSAPOffset] != llcSSAPSNAP ||
		llc[llcControlOffset] != llcControlSNAP ||
		uint16(llc[llcTypeOffset])<<8|uint16(llc[llcTypeOffset+1]) != domain.EAPOLEthertype {
		return frame, true
	}

	afterSNAP := llc[llcSNAPHeaderLen:]
	if len(afterSNAP) < dot1XHeaderLen+eapolKeyBodyMinLen {
		return frame, true
	}
	keyBody := afterSNAP[dot1XHeaderLen:]

	var replayCounter uint64
	for i := 0; i < 8; i++ {
		replayCounter = replayCounter<<8 | uint64(keyBody[eapolReplayCounterOffset+i])
	}
	flags := uint16(keyBody[eapolKeyInfoOffset])<<8 | uint16(keyBody[eapolKeyInfoOffset+1])

	frame.EAPOL = &domain.EAPOLKeyView{ReplayCounter: replayCounter, Flags: flags}
	return frame, true
}

package domain

// EAPOLKeyView is a derived record per candidate EAPOL-Key frame, decoded
// big-endian from the key-descriptor header.
type EAPOLKeyView struct {
	ReplayCounter uint64
	Flags         uint16
}

// EAPOLFlagMask isolates the key-information bits used to classify which of
// the four 4-way-handshake messages a frame carries.
const EAPOLFlagMask uint16 = 0x0dc8

const (
	// EAPOLFlags1 is the masked key-information value for message #1.
	EAPOLFlags1 uint16 = 0x0088
	// EAPOLFlags24 is the masked key-information value shared by messages
	// #2 and #4; disambiguated via the replay counter.
	EAPOLFlags24 uint16 = 0x0108
	// EAPOLFlags3 is the masked key-information value for message #3.
	EAPOLFlags3 uint16 = 0x01c8
)

// EAPOLEthertype is the LLC/SNAP ethertype identifying 802.1X/EAPOL traffic.
const EAPOLEthertype uint16 = 0x888e

// Frame is the frame parser's output for a single captured buffer that
// passed the direction/broadcast filters. Raw holds the original,
// unmodified captured bytes (radiotap included) for dumping.
type Frame struct {
	BSSID       Address
	Source      Address
	Destination Address
	ClientAddr  Address

	// EAPOL is non-nil when the frame carries an EAPOL-Key payload.
	EAPOL *EAPOLKeyView

	Raw []byte
}

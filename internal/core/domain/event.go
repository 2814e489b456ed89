package domain

// DispatcherAction identifies the kind of lifecycle event the recognizer
// reports to the dispatcher.
type DispatcherAction uint8

const (
	// ActionNewClient reports first observation of a client, or a
	// reconnection-triggered reset of a previously completed one.
	ActionNewClient DispatcherAction = 0

	// ActionHandshake reports that a client's NeedSet has just become empty.
	ActionHandshake DispatcherAction = 1
)

func (a DispatcherAction) String() string {
	switch a {
	case ActionNewClient:
		return "NEW_CLIENT"
	case ActionHandshake:
		return "HANDSHAKE"
	default:
		return "UNKNOWN"
	}
}

// DispatcherMessageSize is the fixed on-wire size of a DispatcherMessage:
// 1 byte action + 6 bytes client MAC + 6 bytes BSSID.
const DispatcherMessageSize = 1 + AddressLen + AddressLen

// DispatcherMessage is the fixed-layout record written to the dispatcher
// pipe.
type DispatcherMessage struct {
	Action DispatcherAction
	Client Address
	BSSID  Address
}

// Encode renders the message into its 13-byte wire form.
func (m DispatcherMessage) Encode() [DispatcherMessageSize]byte {
	var buf [DispatcherMessageSize]byte
	buf[0] = byte(m.Action)
	copy(buf[1:1+AddressLen], m.Client[:])
	copy(buf[1+AddressLen:], m.BSSID[:])
	return buf
}

// DecodeDispatcherMessage parses a 13-byte wire record. It is provided for
// dispatcher-side (reader) implementations and tests; the recognizer itself
// only ever encodes.
func DecodeDispatcherMessage(buf []byte) (DispatcherMessage, bool) {
	if len(buf) != DispatcherMessageSize {
		return DispatcherMessage{}, false
	}
	return DispatcherMessage{
		Action: DispatcherAction(buf[0]),
		Client: AddressFromBytes(buf[1 : 1+AddressLen]),
		BSSID:  AddressFromBytes(buf[1+AddressLen:]),
	}, true
}

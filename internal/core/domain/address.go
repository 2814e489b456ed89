package domain

import "fmt"

// AddressLen is the length in bytes of an IEEE 802.11 MAC address.
const AddressLen = 6

// Address is a 6-byte 802.11 MAC address, compared by value.
type Address [AddressLen]byte

// BroadcastAddress is the all-ones destination used by broadcast frames.
var BroadcastAddress = Address{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

// IsMulticast reports whether the address has the multicast bit set (the
// least significant bit of the first octet).
func (a Address) IsMulticast() bool {
	return a[0]&0x01 == 1
}

// IsBroadcast reports whether the address is the all-ones broadcast address.
func (a Address) IsBroadcast() bool {
	return a == BroadcastAddress
}

// String renders the address as colon-separated hex, e.g. "aa:bb:cc:dd:ee:ff".
func (a Address) String() string {
	return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x",
		a[0], a[1], a[2], a[3], a[4], a[5])
}

// AddressFromBytes copies a 6-byte slice into an Address. The caller must
// have already verified len(b) >= AddressLen.
func AddressFromBytes(b []byte) Address {
	var a Address
	copy(a[:], b[:AddressLen])
	return a
}

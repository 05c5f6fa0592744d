package link

// Checksum computes the 8-bit additive checksum over command, payload
// length and payload bytes. The sum wraps at a byte; no carry is kept.
// Inbound validation and outbound encoding share this function, which
// keeps the two directions round-trip compatible.
func Checksum(cmd byte, payload []byte) byte {
	s := cmd + byte(len(payload))
	for _, b := range payload {
		s += b
	}
	return s
}

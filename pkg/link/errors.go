package link

import "errors"

var (
	// ErrPayloadTooLarge indicates a payload exceeding MaxPayload.
	// Nothing is written to the transport in this case.
	ErrPayloadTooLarge = errors.New("payload too large")
	// ErrBadRecordLen indicates a typed payload record of the wrong size.
	ErrBadRecordLen = errors.New("bad record length")
	// ErrNACK indicates the device rejected a command.
	ErrNACK = errors.New("rejected by device")
	// ErrNoReply indicates no reply was received for a command.
	// This happens when a reply arrives for a later command, and all
	// earlier pending commands fail with this error.
	ErrNoReply = errors.New("no reply")
)

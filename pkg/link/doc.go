// Package link implements the framed command/telemetry protocol spoken
// between the rover firmware and a host over a byte-oriented channel.
package link

// The link protocol is a stateless, single-frame-at-a-time exchange.
// Each frame carries a command code, a length-prefixed payload and an
// additive 8-bit checksum between fixed start/end markers. There is no
// session, no retransmission and no multi-frame reassembly; the host
// owns any retry policy and must re-send on timeout or NACK.
//
// Producer: host controller
// Consumer: rover firmware (or the simulated rover in pkg/sim)

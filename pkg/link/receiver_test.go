package link

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

type feedStep struct {
	in    []byte
	final Result
}

type feedSequenceBuilder struct {
	steps []feedStep
}

func feedSequence() *feedSequenceBuilder {
	return &feedSequenceBuilder{}
}

// feed appends bytes expecting no outcome on any of them; a following
// frame/badChecksum call amends the expectation for the last byte.
func (b *feedSequenceBuilder) feed(in ...byte) *feedSequenceBuilder {
	b.steps = append(b.steps, feedStep{in: in})
	return b
}

func (b *feedSequenceBuilder) frame(cmd byte, payload ...byte) *feedSequenceBuilder {
	b.steps[len(b.steps)-1].final = Result{Frame: &Frame{Command: cmd, Payload: payload}}
	return b
}

func (b *feedSequenceBuilder) badChecksum() *feedSequenceBuilder {
	b.steps[len(b.steps)-1].final = Result{BadChecksum: true}
	return b
}

func (b *feedSequenceBuilder) build() []feedStep {
	return b.steps
}

func TestReceiver(t *testing.T) {
	testCases := []struct {
		name string
		seq  []feedStep
	}{
		{
			name: "zero length command",
			seq: feedSequence().
				feed(0xaa, 0x02, 0x00, 0x02).frame(0x02).
				feed(0x55).
				build(),
		},
		{
			name: "command with payload",
			seq: feedSequence().
				feed(0xaa, 0x01, 0x02, 50, 0xce, 0x03).frame(0x01, 50, 0xce).
				feed(0x55).
				build(),
		},
		{
			name: "noise before start",
			seq: feedSequence().
				feed(0x00, 0x55, 0x13, 0x37).
				feed(0xaa, 0x02, 0x00, 0x02).frame(0x02).
				build(),
		},
		{
			name: "back to back frames without end markers",
			seq: feedSequence().
				feed(0xaa, 0x02, 0x00, 0x02).frame(0x02).
				feed(0xaa, 0x03, 0x00, 0x03).frame(0x03).
				build(),
		},
		{
			name: "start marker allowed inside payload",
			seq: feedSequence().
				feed(0xaa, 0x20, 0x01, 0xaa, 0xcb).frame(0x20, 0xaa).
				build(),
		},
		{
			name: "checksum mismatch",
			seq: feedSequence().
				feed(0xaa, 0x02, 0x00, 0xff).badChecksum().
				feed(0x55).
				feed(0xaa, 0x02, 0x00, 0x02).frame(0x02).
				build(),
		},
		{
			name: "oversized length silently dropped",
			seq: feedSequence().
				feed(0xaa, 0x01, 0x41, 0x00, 0x00).
				feed(0xaa, 0x02, 0x00, 0x02).frame(0x02).
				build(),
		},
		{
			name: "max payload accepted",
			seq: func() []feedStep {
				payload := make([]byte, MaxPayload)
				in := append([]byte{0xaa, 0x10, MaxPayload}, payload...)
				in = append(in, Checksum(0x10, payload))
				return feedSequence().feed(in...).frame(0x10, payload...).build()
			}(),
		},
		{
			name: "well formed unknown command",
			seq: feedSequence().
				feed(0xaa, 0xff, 0x00, 0xff).frame(0xff).
				build(),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var recv Receiver
			for n, s := range tc.seq {
				var res Result
				for i, b := range s.in {
					res = recv.Feed(b)
					if i+1 < len(s.in) {
						require.Equalf(t, Result{}, res, "seq[%d][%d] unexpected outcome", n, i)
					}
				}
				require.Equalf(t, s.final, res, "seq[%d] final mismatch", n)
			}
		})
	}
}

func TestReceiverReset(t *testing.T) {
	var recv Receiver
	recv.Feed(0xaa)
	recv.Feed(0x01)
	require.False(t, recv.Idle())
	recv.Reset()
	require.True(t, recv.Idle())
	res := recv.Feed(0xaa)
	require.Equal(t, Result{}, res)
	require.False(t, recv.Idle())
}

// Arbitrary byte streams never trap the state machine, and every
// accepted start marker resolves within the bytes of one maximal frame.
func TestReceiverRandomStream(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	var recv Receiver
	sinceStart := -1
	for i := 0; i < 100000; i++ {
		wasIdle := recv.Idle()
		recv.Feed(byte(rnd.Intn(256)))
		if recv.Idle() {
			sinceStart = -1
		} else {
			if wasIdle {
				sinceStart = 0
			} else {
				sinceStart++
			}
			// cmd + length + payload + checksum after the start marker
			require.True(t, sinceStart < MaxPayload+3, "receiver stuck after %d bytes", sinceStart)
		}
	}
}

package link

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFrame(t *testing.T) {
	testCases := []struct {
		name   string
		frame  Frame
		expect []byte
	}{
		{"ack", Frame{Command: RespACK}, []byte{0xaa, 0xa0, 0x00, 0xa0, 0x55}},
		{"nack", Frame{Command: RespNACK}, []byte{0xaa, 0xa1, 0x00, 0xa1, 0x55}},
		{"motor stop", Frame{Command: CmdMotorStop}, []byte{0xaa, 0x02, 0x00, 0x02, 0x55}},
		{
			"motor speed",
			Frame{Command: CmdMotorSetSpeed, Payload: []byte{50, 0xce}},
			[]byte{0xaa, 0x01, 0x02, 50, 0xce, 0x03, 0x55},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expect, tc.frame.Bytes())
			var buf bytes.Buffer
			n, err := tc.frame.WriteTo(&buf)
			require.NoError(t, err)
			require.Equal(t, tc.expect, buf.Bytes())
			require.Equal(t, len(tc.expect), n)
		})
	}
}

func TestFrameRoundTrip(t *testing.T) {
	payload := make([]byte, MaxPayload)
	for i := range payload {
		payload[i] = byte(0xff - i)
	}
	for l := 0; l <= MaxPayload; l += 16 {
		f := Frame{Command: CmdMotorSetSpeed, Payload: payload[:l]}
		var recv Receiver
		var decoded *Frame
		for _, b := range f.Bytes() {
			res := recv.Feed(b)
			require.False(t, res.BadChecksum)
			if res.Frame != nil {
				require.Nil(t, decoded, "more than one frame decoded")
				decoded = res.Frame
			}
		}
		require.NotNil(t, decoded, "len %d", l)
		require.Equal(t, f.Command, decoded.Command)
		if l == 0 {
			require.Empty(t, decoded.Payload)
		} else {
			require.Equal(t, payload[:l], decoded.Payload)
		}
	}
}

package mqtt

import (
	"context"
	"io"
)

// ReadWriter exposes a pair of topics as an io.ReadWriter carrying raw
// link bytes. Ordering within a topic is preserved by the broker, which
// satisfies the link's transport contract.
type ReadWriter struct {
	Queue    *Queue
	SubTopic string
	PubTopic string

	buf      []byte
	packetCh chan []byte
}

// NewReadWriter creates the ReadWriter.
func NewReadWriter(q *Queue) *ReadWriter {
	return &ReadWriter{Queue: q, packetCh: make(chan []byte, 16)}
}

// WithTopics specifies the topics.
func (p *ReadWriter) WithTopics(sub, pub string) *ReadWriter {
	p.SubTopic, p.PubTopic = sub, pub
	return p
}

// ForDevice sets topics using the default convention for the device:
// commands arrive on name/cmd, telemetry leaves on name/tele.
func (p *ReadWriter) ForDevice(name string) *ReadWriter {
	return p.WithTopics(name+"/cmd", name+"/tele")
}

// ForHost sets topics using the default convention for the host.
func (p *ReadWriter) ForHost(name string) *ReadWriter {
	return p.WithTopics(name+"/tele", name+"/cmd")
}

// Read implements io.Reader.
func (p *ReadWriter) Read(b []byte) (int, error) {
	for len(p.buf) == 0 {
		chunk, ok := <-p.packetCh
		if !ok {
			return 0, io.EOF
		}
		p.buf = chunk
	}
	n := copy(b, p.buf)
	p.buf = p.buf[n:]
	return n, nil
}

// Write implements io.Writer.
func (p *ReadWriter) Write(b []byte) (int, error) {
	token := p.Queue.Pub(p.PubTopic, b)
	token.Wait()
	return len(b), token.Error()
}

// Run subscribes and pumps inbound messages until the context is done.
func (p *ReadWriter) Run(ctx context.Context) error {
	if err := p.Queue.Sub(p.SubTopic, p.handleMsg); err != nil {
		return err
	}
	defer p.Queue.Unsub(p.SubTopic)
	defer close(p.packetCh)
	<-ctx.Done()
	return ctx.Err()
}

func (p *ReadWriter) handleMsg(_ string, payload []byte) {
	p.packetCh <- payload
}

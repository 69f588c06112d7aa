//go:build !tinygo

package protocol

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

// ErrLinkClosed is returned by Link operations after Close.
var ErrLinkClosed = errors.New("link closed")

// Received is a decoded message plus its frame metadata.
type Received struct {
	Seq     uint8
	Message Message
	Err     error  // decode error; Message is nil when set
	Raw     []byte // payload copy
}

// Link is the host side of the serial link. A background goroutine
// decodes frames from the port and queues them for Receive.
type Link struct {
	port io.ReadWriteCloser

	writeMu sync.Mutex
	enc     *Encoder

	dec      *Decoder
	statsMu  sync.Mutex
	received chan Received

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// NewLink starts reading from port. queue bounds the number of
// undelivered messages; when it is full the oldest is dropped.
func NewLink(port io.ReadWriteCloser, queue int) *Link {
	if queue <= 0 {
		queue = 16
	}
	l := &Link{
		port:     port,
		enc:      NewEncoder(port),
		dec:      NewDecoder(),
		received: make(chan Received, queue),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go l.readLoop()
	return l
}

// Send frames m and writes it to the port.
func (l *Link) Send(m Message) error {
	select {
	case <-l.stop:
		return ErrLinkClosed
	default:
	}
	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	if err := l.enc.Send(m); err != nil {
		return fmt.Errorf("send %s: %w", Name(m.ID()), err)
	}
	return nil
}

// Messages exposes the receive queue for select loops.
func (l *Link) Messages() <-chan Received {
	return l.received
}

// Receive waits up to timeout for the next message.
func (l *Link) Receive(timeout time.Duration) (Received, error) {
	select {
	case r := <-l.received:
		return r, nil
	case <-time.After(timeout):
		return Received{}, fmt.Errorf("no message after %v", timeout)
	case <-l.stop:
		return Received{}, ErrLinkClosed
	}
}

// Stats returns the decoder's resync and sequence-gap counters.
func (l *Link) Stats() (dropped, missed int) {
	l.statsMu.Lock()
	defer l.statsMu.Unlock()
	return l.dec.Dropped, l.dec.Missed
}

func (l *Link) readLoop() {
	defer close(l.done)
	buf := make([]byte, 256)
	for {
		select {
		case <-l.stop:
			return
		default:
		}
		n, err := l.port.Read(buf)
		if n > 0 {
			l.statsMu.Lock()
			l.dec.FeedAll(buf[:n], l.deliver)
			l.statsMu.Unlock()
		}
		if err == io.EOF {
			return
		}
		if err != nil {
			time.Sleep(10 * time.Millisecond)
		}
	}
}

func (l *Link) deliver(f Frame) {
	raw := append([]byte(nil), f.Payload...)
	m, err := Decode(raw)
	r := Received{Seq: f.Seq, Message: m, Err: err, Raw: raw}
	select {
	case l.received <- r:
		return
	default:
	}
	select {
	case <-l.received:
	default:
	}
	select {
	case l.received <- r:
	default:
	}
}

// Close stops the reader and closes the port.
func (l *Link) Close() error {
	var err error
	l.once.Do(func() {
		close(l.stop)
		err = l.port.Close()
		<-l.done
	})
	return err
}

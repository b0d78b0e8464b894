package telnet

import "io"

// Reader bridges a raw byte-oriented io.Reader through a Codec, exposing
// cooked Events one at a time. It is the blocking counterpart to Codec's
// pure Feed/Drain pair, used by anything that wants "read me the next key"
// rather than "cook this buffer".
type Reader struct {
	r     io.Reader
	codec *Codec
	buf   []byte
	queue []Event
	err   error
}

// NewReader creates a Reader that pulls from r and cooks through codec.
func NewReader(r io.Reader, codec *Codec) *Reader {
	return &Reader{r: r, codec: codec, buf: make([]byte, 4096)}
}

// Next blocks until a cooked Event is available, or returns the error that
// ended the stream (io.EOF or a read error) once the queue is exhausted.
func (rd *Reader) Next() (Event, error) {
	for len(rd.queue) == 0 {
		if rd.err != nil {
			return Event{}, rd.err
		}
		n, err := rd.r.Read(rd.buf)
		if n > 0 {
			rd.codec.Feed(rd.buf[:n])
			rd.queue = append(rd.queue, rd.codec.Drain()...)
		}
		if err != nil {
			rd.codec.Close()
			rd.queue = append(rd.queue, rd.codec.Drain()...)
			rd.err = err
		}
	}
	ev := rd.queue[0]
	rd.queue = rd.queue[1:]
	return ev, nil
}

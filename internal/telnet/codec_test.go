package telnet

import (
	"reflect"
	"testing"
)

type nullHandler struct {
	commands []byte
	negs     [][2]byte
	subs     [][]byte
}

func (h *nullHandler) HandleCommand(cmd byte)               { h.commands = append(h.commands, cmd) }
func (h *nullHandler) HandleNegotiation(cmd, opt byte)       { h.negs = append(h.negs, [2]byte{cmd, opt}) }
func (h *nullHandler) HandleSubnegotiation(data []byte) {
	cp := append([]byte(nil), data...)
	h.subs = append(h.subs, cp)
}

func bytesOf(events []Event) []byte {
	out := make([]byte, 0, len(events))
	for _, e := range events {
		if e.Key == KeyNone {
			out = append(out, e.Byte)
		}
	}
	return out
}

func TestCodecChunkingInvariant(t *testing.T) {
	input := []byte("ls -la\r\nwget http://1.2.3.4/x\r\x00echo " + string([]byte{0x1b, '[', 'A'}) + "done\r")

	whole := NewCodec(&nullHandler{})
	whole.Feed(input)
	whole.Close()
	wantEvents := whole.Drain()

	byteAtATime := NewCodec(&nullHandler{})
	for i := range input {
		byteAtATime.Feed(input[i : i+1])
	}
	byteAtATime.Close()
	gotEvents := byteAtATime.Drain()

	if !reflect.DeepEqual(wantEvents, gotEvents) {
		t.Fatalf("chunking invariant violated:\nall-at-once: %#v\nbyte-at-a-time: %#v", wantEvents, gotEvents)
	}
}

func TestCRCooking(t *testing.T) {
	cases := []struct {
		name  string
		input []byte
		want  []byte
	}{
		{"cr-lf", []byte("a\r\nb"), []byte("a\nb")},
		{"cr-nul", []byte("a\r\x00b"), []byte("a\nb")},
		{"cr-other", []byte("a\rb"), []byte("a\nb")},
		{"cr-eof", []byte("a\r"), []byte("a\n")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := NewCodec(&nullHandler{})
			c.Feed(tc.input)
			c.Close()
			got := bytesOf(c.Drain())
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

func TestEscapeSequenceCursorKeys(t *testing.T) {
	c := NewCodec(&nullHandler{})
	c.Feed([]byte{0x1b, '[', 'A', 0x1b, '[', 'B', 0x1b, '[', 'C', 0x1b, '[', 'D'})
	c.Close()
	events := c.Drain()
	want := []KeyCode{KeyUp, KeyDown, KeyRight, KeyLeft}
	if len(events) != len(want) {
		t.Fatalf("got %d events, want %d: %#v", len(events), len(want), events)
	}
	for i, k := range want {
		if events[i].Key != k {
			t.Fatalf("event %d: got %v want %v", i, events[i].Key, k)
		}
	}
}

func TestEscapeSequenceDeleteKey(t *testing.T) {
	c := NewCodec(&nullHandler{})
	c.Feed([]byte{0x1b, '[', '3', '~'})
	c.Close()
	events := c.Drain()
	if len(events) != 1 || events[0].Key != KeyDelete {
		t.Fatalf("got %#v, want single KeyDelete event", events)
	}
}

func TestEscapeSequenceMismatchReplaysLiterally(t *testing.T) {
	c := NewCodec(&nullHandler{})
	c.Feed([]byte{0x1b, 'x'})
	c.Close()
	got := bytesOf(c.Drain())
	want := []byte{0x1b, 'x'}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestIACEscapingOfLiteral0xFF(t *testing.T) {
	c := NewCodec(&nullHandler{})
	c.Feed([]byte{'a', IAC, IAC, 'b'})
	c.Close()
	got := bytesOf(c.Drain())
	want := []byte{'a', IAC, 'b'}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestSubnegotiationRouting(t *testing.T) {
	h := &nullHandler{}
	c := NewCodec(h)
	// IAC SB TTYPE IS "xterm" IAC SE
	payload := append([]byte{IAC, SB, OptTType, TTypeIS}, []byte("xterm")...)
	payload = append(payload, IAC, SE)
	c.Feed(payload)
	c.Close()
	if len(h.subs) != 1 {
		t.Fatalf("expected exactly one subnegotiation, got %d", len(h.subs))
	}
	got := h.subs[0]
	want := append([]byte{OptTType, TTypeIS}, []byte("xterm")...)
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestOptionNegotiationRouting(t *testing.T) {
	h := &nullHandler{}
	c := NewCodec(h)
	c.Feed([]byte{IAC, WILL, OptTType, IAC, DO, OptSGA})
	c.Close()
	want := [][2]byte{{WILL, OptTType}, {DO, OptSGA}}
	if !reflect.DeepEqual(h.negs, want) {
		t.Fatalf("got %v want %v", h.negs, want)
	}
}

func TestMixedDataAndOptionsDoesNotLeakFramingBytes(t *testing.T) {
	h := &nullHandler{}
	c := NewCodec(h)
	c.Feed([]byte("ls"))
	c.Feed([]byte{IAC, WILL, OptSGA})
	c.Feed([]byte("\r\n"))
	c.Close()
	got := bytesOf(c.Drain())
	want := []byte("ls\n")
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q want %q", got, want)
	}
}

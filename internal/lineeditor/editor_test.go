package lineeditor

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stamparm/hontel/internal/telnet"
)

// fakeSource replays a fixed sequence of events, then returns io.EOF.
type fakeSource struct {
	events []telnet.Event
	i      int
}

func (f *fakeSource) Next() (telnet.Event, error) {
	if f.i >= len(f.events) {
		return telnet.Event{}, io.EOF
	}
	ev := f.events[f.i]
	f.i++
	return ev, nil
}

func byteEvents(s string) []telnet.Event {
	out := make([]telnet.Event, 0, len(s))
	for i := 0; i < len(s); i++ {
		out = append(out, telnet.Event{Byte: s[i]})
	}
	return out
}

func TestReadLineBasic(t *testing.T) {
	var out bytes.Buffer
	src := &fakeSource{events: byteEvents("ls -la\n")}
	e := New(src, &out, 10)
	line, res, err := e.ReadLine("$ ", true, true)
	if err != nil {
		t.Fatal(err)
	}
	if res != ResultLine || line != "ls -la" {
		t.Fatalf("got %q, %v", line, res)
	}
	if !strings.HasPrefix(out.String(), "$ ") {
		t.Fatalf("prompt missing: %q", out.String())
	}
}

func TestReadLineBackspace(t *testing.T) {
	var out bytes.Buffer
	events := byteEvents("lsz")
	events = append(events, telnet.Event{Byte: 127})
	events = append(events, byteEvents("\n")...)
	src := &fakeSource{events: events}
	e := New(src, &out, 10)
	line, _, err := e.ReadLine("", true, true)
	if err != nil {
		t.Fatal(err)
	}
	if line != "ls" {
		t.Fatalf("got %q want %q", line, "ls")
	}
}

func TestReadLineCtrlCAborts(t *testing.T) {
	var out bytes.Buffer
	events := byteEvents("foo")
	events = append(events, telnet.Event{Byte: 3})
	src := &fakeSource{events: events}
	e := New(src, &out, 10)
	line, res, err := e.ReadLine("", true, true)
	if err != nil {
		t.Fatal(err)
	}
	if res != ResultAbort || line != "" {
		t.Fatalf("got %q, %v", line, res)
	}
}

func TestReadLineCtrlDOnEmptyQuits(t *testing.T) {
	var out bytes.Buffer
	src := &fakeSource{events: []telnet.Event{{Byte: 4}}}
	e := New(src, &out, 10)
	_, res, err := e.ReadLine("", true, true)
	if err != nil {
		t.Fatal(err)
	}
	if res != ResultQuit {
		t.Fatalf("got %v want ResultQuit", res)
	}
}

func TestReadLineHiddenEchoSuppressesCharactersNotPromptOrNewline(t *testing.T) {
	var out bytes.Buffer
	src := &fakeSource{events: byteEvents("secret\n")}
	e := New(src, &out, 10)
	line, res, err := e.ReadLine("Password: ", false, false)
	if err != nil {
		t.Fatal(err)
	}
	if res != ResultLine || line != "secret" {
		t.Fatalf("got %q, %v", line, res)
	}
	got := out.String()
	if !strings.Contains(got, "Password: ") {
		t.Fatalf("prompt missing: %q", got)
	}
	if strings.Contains(got, "secret") {
		t.Fatalf("password leaked into echoed output: %q", got)
	}
	if !strings.HasSuffix(got, "\n") {
		t.Fatalf("trailing newline missing: %q", got)
	}
}

func TestReadLineHistoryRecall(t *testing.T) {
	var out bytes.Buffer
	src := &fakeSource{}
	e := New(src, &out, 10)

	src.events = byteEvents("first\n")
	if _, _, err := e.ReadLine("", true, true); err != nil {
		t.Fatal(err)
	}
	src.events = byteEvents("second\n")
	src.i = 0
	if _, _, err := e.ReadLine("", true, true); err != nil {
		t.Fatal(err)
	}

	src.events = []telnet.Event{{Key: telnet.KeyUp}}
	src.events = append(src.events, byteEvents("\n")...)
	src.i = 0
	line, _, err := e.ReadLine("", true, true)
	if err != nil {
		t.Fatal(err)
	}
	if line != "second" {
		t.Fatalf("got %q want %q (most recent history entry)", line, "second")
	}
}

func TestHistoryLimitBounded(t *testing.T) {
	var out bytes.Buffer
	src := &fakeSource{}
	e := New(src, &out, 2)
	for _, cmd := range []string{"a", "b", "c"} {
		src.events = byteEvents(cmd + "\n")
		src.i = 0
		if _, _, err := e.ReadLine("", true, true); err != nil {
			t.Fatal(err)
		}
	}
	hist := e.History()
	if len(hist) != 2 || hist[0] != "b" || hist[1] != "c" {
		t.Fatalf("got %v, want [b c]", hist)
	}
}

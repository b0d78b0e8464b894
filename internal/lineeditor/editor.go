// Package lineeditor implements the cooked, in-process line discipline the
// honeypot presents in place of a real pty line driver: insert-mode
// editing, cursor movement, bounded command history, and the Ctrl-C/Ctrl-D
// abort conventions of an interactive shell.
package lineeditor

import (
	"io"
	"strings"

	"github.com/stamparm/hontel/internal/telnet"
)

// Fixed ANSI control sequences, used whatever terminal type the peer
// reports; there is no terminfo lookup here: these are the literal
// cub1/cuf1/dch1/el capabilities of a plain ANSI terminal.
const (
	ansiCursorLeft  = "\x1b[D"
	ansiCursorRight = "\x1b[C"
	ansiDeleteChar  = "\x1b[P"
	ansiEraseToEOL  = "\x1b[K"
	bell            = "\a"
)

// Result classifies how a ReadLine call ended.
type Result int

const (
	// ResultLine means Enter was pressed; the returned string is the line.
	ResultLine Result = iota
	// ResultAbort means Ctrl-C was pressed, or Ctrl-D on a non-empty line.
	ResultAbort
	// ResultQuit means Ctrl-D was pressed on an empty line, or the
	// underlying connection closed.
	ResultQuit
)

// EventSource is anything that can produce the next cooked key event,
// blocking until one is available. *telnet.Reader satisfies this.
type EventSource interface {
	Next() (telnet.Event, error)
}

// Editor is a single connection's line editor. It is not safe for
// concurrent use; one Editor belongs to one session.
type Editor struct {
	src          EventSource
	out          io.Writer
	history      []string
	historyLimit int
}

// New creates an Editor reading events from src and writing echo/control
// sequences to out. historyLimit bounds the retained command history; 0
// disables history regardless of the useHistory argument to ReadLine.
func New(src EventSource, out io.Writer, historyLimit int) *Editor {
	return &Editor{src: src, out: out, historyLimit: historyLimit}
}

// History returns a copy of the retained command history, oldest first.
func (e *Editor) History() []string {
	cp := make([]string, len(e.history))
	copy(cp, e.history)
	return cp
}

func (e *Editor) write(s string) {
	io.WriteString(e.out, s)
}

// writeEchoed writes s only when echo is true; used for everything that
// reflects keystrokes (insert, delete, cursor movement, bell), as opposed
// to the prompt and the trailing newline, which are always shown.
func (e *Editor) writeEchoed(s string, echo bool) {
	if echo {
		e.write(s)
	}
}

func (e *Editor) pushHistory(line string) {
	if e.historyLimit <= 0 {
		return
	}
	e.history = append(e.history, line)
	if over := len(e.history) - e.historyLimit; over > 0 {
		e.history = e.history[over:]
	}
}

// controlRepr renders a sub-0x20 control byte in caret notation (^C, ^D,
// etc.), matching how a real terminal driver would show an unprintable
// byte typed into a cooked line.
func controlRepr(b byte) string {
	if b < 0x20 {
		return string([]byte{'^', b + 64})
	}
	return string([]byte{b})
}

// ReadLine reads one line from src, echoing it to out if echo is true. The
// prompt and the final newline are always written regardless of echo, so a
// "Password: " prompt is visible even though the password itself is not.
// useHistory controls both recall (Up/Down) and whether the completed line
// is appended to history.
func (e *Editor) ReadLine(prompt string, echo bool, useHistory bool) (string, Result, error) {
	e.write(prompt)

	var line []rune
	insptr := 0
	histptr := len(e.history)

	for {
		ev, err := e.src.Next()
		if err != nil {
			return "", ResultQuit, err
		}

		if ev.Key != telnet.KeyNone {
			switch ev.Key {
			case telnet.KeyLeft:
				if insptr > 0 {
					insptr--
					e.writeEchoed(ansiCursorLeft, echo)
				} else {
					e.writeEchoed(bell, echo)
				}
			case telnet.KeyRight:
				if insptr < len(line) {
					insptr++
					e.writeEchoed(ansiCursorRight, echo)
				} else {
					e.writeEchoed(bell, echo)
				}
			case telnet.KeyUp, telnet.KeyDown:
				if !useHistory {
					e.writeEchoed(bell, echo)
					continue
				}
				if ev.Key == telnet.KeyUp {
					if histptr > 0 {
						histptr--
					} else {
						e.writeEchoed(bell, echo)
						continue
					}
				} else {
					if histptr < len(e.history) {
						histptr++
					} else {
						e.writeEchoed(bell, echo)
						continue
					}
				}
				var recalled []rune
				if histptr < len(e.history) {
					recalled = []rune(e.history[histptr])
				}
				e.writeEchoed(strings.Repeat(ansiCursorLeft, insptr), echo)
				e.writeEchoed(ansiEraseToEOL, echo)
				e.writeEchoed(string(recalled), echo)
				line = recalled
				insptr = len(line)
			case telnet.KeyDelete:
				if insptr < len(line) {
					e.writeEchoed(ansiDeleteChar, echo)
					line = append(line[:insptr], line[insptr+1:]...)
				} else {
					e.writeEchoed(bell, echo)
				}
			}
			continue
		}

		b := ev.Byte
		switch b {
		case 3: // Ctrl-C
			e.write("\n^C ABORT\n")
			return "", ResultAbort, nil
		case 4: // Ctrl-D
			if len(line) > 0 {
				e.write("\n^D ABORT (QUIT)\n")
				return "", ResultAbort, nil
			}
			e.write("\n^D QUIT\n")
			return "", ResultQuit, nil
		case 10, 13:
			e.write("\n")
			result := string(line)
			if useHistory && result != "" {
				e.pushHistory(result)
			}
			return result, ResultLine, nil
		case 127, 8:
			if insptr > 0 {
				e.writeEchoed(ansiCursorLeft+ansiDeleteChar, echo)
				insptr--
				line = append(line[:insptr], line[insptr+1:]...)
			} else {
				e.writeEchoed(bell, echo)
			}
		default:
			repr := controlRepr(b)
			if insptr < len(line) {
				e.writeEchoed(repr+string(line[insptr:]), echo)
				e.writeEchoed(strings.Repeat(ansiCursorLeft, len(line)-insptr), echo)
			} else {
				e.writeEchoed(repr, echo)
			}
			chars := []rune(repr)
			newLine := make([]rune, 0, len(line)+len(chars))
			newLine = append(newLine, line[:insptr]...)
			newLine = append(newLine, chars...)
			newLine = append(newLine, line[insptr:]...)
			line = newLine
			insptr += len(chars)
		}
	}
}

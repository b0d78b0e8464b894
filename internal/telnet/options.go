package telnet

import (
	"sync"

	"github.com/gliderlabs/ssh"
)

// tristate records whether we have already asserted a given sense of an
// option, so re-asserting the same sense can be suppressed: telnetd peers
// that re-announce WILL/WONT unprompted are common and must not trigger an
// infinite negotiation ping-pong.
type tristate int

const (
	unset tristate = iota
	asTrue
	asFalse
)

func triOf(b bool) tristate {
	if b {
		return asTrue
	}
	return asFalse
}

// optPolicy pairs an option with the command we use to assert it. Policy
// tables are ordered slices, not maps: the unsolicited offer Setup sends on
// connect must come out in a fixed, reproducible byte order.
type optPolicy struct {
	opt byte
	cmd byte
}

// defaultDoAck governs how we react when the peer says DO/DONT <opt>: we
// reply with the paired WILL/WONT. It is also replayed verbatim, in order,
// as part of the unsolicited offer Setup sends at connect time.
var defaultDoAck = []optPolicy{
	{OptEcho, WILL},
	{OptSGA, WILL},
	{OptNewEnviron, WONT},
}

// defaultWillAck governs how we react when the peer says WILL/WONT <opt>:
// we reply with the paired DO/DONT. Also replayed by Setup, after doAck.
var defaultWillAck = []optPolicy{
	{OptEcho, DONT},
	{OptSGA, DO},
	{OptNAWS, DONT},
	{OptTType, DO},
	{OptLinemode, DONT},
	{OptNewEnviron, DO},
}

// Negotiator implements OptionHandler: it answers the peer's option
// negotiation per a fixed policy, requests the peer's terminal type, and
// tracks the negotiated window size and echo state.
type Negotiator struct {
	w *Writer

	doAck   map[byte]byte
	willAck map[byte]byte

	mu       sync.Mutex
	doState   map[byte]tristate // options we've sent DO/DONT about
	willState map[byte]tristate // options we've sent WILL/WONT about

	localEcho bool

	termType   string
	onTermType func(string)

	window   ssh.Window
	onWindow func(ssh.Window)
}

// NewNegotiator creates a Negotiator that writes its replies through w.
func NewNegotiator(w *Writer) *Negotiator {
	n := &Negotiator{
		w:         w,
		doAck:     map[byte]byte{},
		willAck:   map[byte]byte{},
		doState:   map[byte]tristate{},
		willState: map[byte]tristate{},
		window:    ssh.Window{Width: 80, Height: 25},
	}
	for _, p := range defaultDoAck {
		n.doAck[p.opt] = p.cmd
	}
	for _, p := range defaultWillAck {
		n.willAck[p.opt] = p.cmd
	}
	return n
}

// OnTermType registers a callback invoked once the peer's terminal type
// (from an IAC SB TTYPE IS ... IAC SE reply) is known.
func (n *Negotiator) OnTermType(fn func(string)) { n.onTermType = fn }

// OnWindowChange registers a callback invoked whenever NAWS reports a new
// window size, including the first report.
func (n *Negotiator) OnWindowChange(fn func(ssh.Window)) { n.onWindow = fn }

// Window returns the most recently negotiated terminal size, defaulting to
// 80x25 if the peer never sent NAWS.
func (n *Negotiator) Window() ssh.Window {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.window
}

// TermType returns the peer-reported terminal type, or "" if unknown.
func (n *Negotiator) TermType() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.termType
}

// Setup sends the unsolicited initial offer: every entry of doAck then
// every entry of willAck, in their fixed declaration order.
func (n *Negotiator) Setup() {
	for _, p := range defaultDoAck {
		n.send(p.cmd, p.opt)
	}
	for _, p := range defaultWillAck {
		n.send(p.cmd, p.opt)
	}
}

func (n *Negotiator) send(cmd, opt byte) {
	switch cmd {
	case DO, DONT:
		want := triOf(cmd == DO)
		if n.doState[opt] == want {
			return
		}
		n.doState[opt] = want
		_ = n.w.WriteCommand(IAC, cmd, opt)
	case WILL, WONT:
		want := triOf(cmd == WILL)
		if n.willState[opt] == want {
			return
		}
		n.willState[opt] = want
		_ = n.w.WriteCommand(IAC, cmd, opt)
		if cmd == WILL && opt == OptEcho {
			n.localEcho = true
		} else if cmd == WONT && opt == OptEcho {
			n.localEcho = false
		}
	default:
		_ = n.w.WriteCommand(IAC, cmd)
	}
}

// HandleCommand answers bare (non-option) commands. Only NOP is echoed
// back; everything else (AYT, IP, etc.) is swallowed silently.
func (n *Negotiator) HandleCommand(cmd byte) {
	if cmd == NOP {
		_ = n.w.WriteCommand(IAC, NOP)
	}
}

// HandleNegotiation reacts to a peer DO/DONT/WILL/WONT <opt>.
func (n *Negotiator) HandleNegotiation(cmd, opt byte) {
	switch cmd {
	case DO, DONT:
		if reply, ok := n.doAck[opt]; ok {
			n.send(reply, opt)
		} else {
			n.send(WONT, opt)
		}
	case WILL, WONT:
		if reply, ok := n.willAck[opt]; ok {
			n.send(reply, opt)
		} else {
			n.send(DONT, opt)
		}
		if cmd == WILL && opt == OptTType {
			_ = n.w.WriteCommand(IAC, SB, OptTType, TTypeSEND, IAC, SE)
		}
	}
}

// HandleSubnegotiation parses a completed IAC SB ... IAC SE payload.
func (n *Negotiator) HandleSubnegotiation(data []byte) {
	if len(data) == 0 {
		return
	}
	switch data[0] {
	case OptTType:
		if len(data) >= 2 && data[1] == TTypeIS {
			tt := string(data[2:])
			n.mu.Lock()
			n.termType = tt
			n.mu.Unlock()
			if n.onTermType != nil {
				n.onTermType(tt)
			}
		}
	case OptNAWS:
		if len(data) >= 5 {
			width := int(data[1])<<8 | int(data[2])
			height := int(data[3])<<8 | int(data[4])
			if width <= 0 || width > 1000 {
				width = 80
			}
			if height <= 0 || height > 1000 {
				height = 25
			}
			win := ssh.Window{Width: width, Height: height}
			n.mu.Lock()
			n.window = win
			n.mu.Unlock()
			if n.onWindow != nil {
				n.onWindow(win)
			}
		}
	}
}

// LocalEcho reports whether we have last asserted WILL ECHO (i.e. we are
// echoing the peer's input ourselves, so the peer should suppress its own
// local echo).
func (n *Negotiator) LocalEcho() bool {
	return n.localEcho
}

package telnet

// parseState is the coarse IAC parser state. It mirrors the option
// negotiator's own DO/DONT/WILL/WONT bookkeeping: the codec only needs to
// know enough to find subnegotiation boundaries and hand option bytes off.
type parseState int

const (
	stateIdle parseState = iota
	stateGotIAC
	stateGotIACVerb
	stateInSB
	stateInSBAfterIAC
)

// escState tracks in-progress ANSI escape sequence decoding. It runs
// independent of parseState and only applies to bytes that would otherwise
// be ordinary data bytes (stateIdle, outside of a subnegotiation).
type escState int

const (
	escNone escState = iota
	escSawESC
	escSawBracket
	escSawBracket3
)

// OptionHandler receives the option-level events the Codec's IAC parser
// extracts from the byte stream. Negotiator implements this interface.
type OptionHandler interface {
	HandleCommand(cmd byte)
	HandleNegotiation(cmd, opt byte)
	HandleSubnegotiation(data []byte)
}

// Codec turns a raw, possibly fragmented, inbound Telnet byte stream into a
// queue of cooked Events, stripping IAC framing and performing RFC 854 CR
// cooking (CR NUL and CR LF both collapse to a single LF; a bare CR at the
// end of a chunk is held until the next byte arrives). It is a pure
// transducer: Feed can be called with any chunking of the same underlying
// byte stream and produces an identical Event sequence, because all of its
// state lives in the struct rather than in call-stack lookahead.
type Codec struct {
	state   parseState
	verb    byte
	sbBuf   []byte

	pendingCR bool

	esc    escState
	escBuf []byte

	handler OptionHandler
	events  []Event
}

// NewCodec creates a Codec that reports option-level traffic to handler.
func NewCodec(handler OptionHandler) *Codec {
	return &Codec{handler: handler}
}

// Feed processes p and appends any newly cooked Events to the Codec's
// internal queue. Call Drain to retrieve and clear them.
func (c *Codec) Feed(p []byte) {
	for _, b := range p {
		c.feedByte(b)
	}
}

// Drain returns and clears all Events cooked so far.
func (c *Codec) Drain() []Event {
	if len(c.events) == 0 {
		return nil
	}
	ev := c.events
	c.events = nil
	return ev
}

// Close flushes any byte held back awaiting CR-cooking lookahead (a bare CR
// at end of stream cooks to a single LF).
func (c *Codec) Close() {
	if c.pendingCR {
		c.pendingCR = false
		c.emitByte(LF)
	}
}

func (c *Codec) feedByte(b byte) {
	// A pending CR always gets first refusal at the next byte, regardless
	// of parser state: it is resolved before anything else happens.
	if c.pendingCR {
		c.pendingCR = false
		switch b {
		case NUL, LF:
			c.emitByte(LF)
			return
		default:
			c.emitByte(LF)
			// fall through: b was not consumed by the CR rule, reprocess it
		}
	}

	switch c.state {
	case stateIdle:
		c.feedIdle(b)
	case stateInSB:
		c.feedInSB(b)
	case stateGotIAC:
		c.feedGotIAC(b, false)
	case stateInSBAfterIAC:
		c.feedGotIAC(b, true)
	case stateGotIACVerb:
		c.handler.HandleNegotiation(c.verb, b)
		c.state = stateIdle
	}
}

func (c *Codec) feedIdle(b byte) {
	if c.esc != escNone {
		c.feedEscape(b)
		return
	}
	switch b {
	case IAC:
		c.state = stateGotIAC
	case CR:
		c.pendingCR = true
	case 0x1b: // ESC
		c.esc = escSawESC
		c.escBuf = c.escBuf[:0]
	default:
		c.emitByte(b)
	}
}

func (c *Codec) feedInSB(b byte) {
	if b == IAC {
		c.state = stateInSBAfterIAC
		return
	}
	c.sbBuf = append(c.sbBuf, b)
}

// feedGotIAC handles the byte following a bare IAC, whether that IAC was
// seen at top level (inSB == false) or while collecting subnegotiation data
// (inSB == true, i.e. state was stateInSBAfterIAC).
func (c *Codec) feedGotIAC(b byte, inSB bool) {
	switch b {
	case DO, DONT, WILL, WONT:
		c.verb = b
		c.state = stateGotIACVerb
	case SB:
		c.sbBuf = c.sbBuf[:0]
		c.state = stateInSB
	case SE:
		data := c.sbBuf
		c.sbBuf = nil
		c.state = stateIdle
		c.handler.HandleSubnegotiation(data)
	case IAC:
		// Escaped literal 0xFF byte.
		if inSB {
			c.sbBuf = append(c.sbBuf, IAC)
			c.state = stateInSB
		} else {
			c.emitByte(IAC)
			c.state = stateIdle
		}
	default:
		if inSB {
			// Unexpected command inside a subnegotiation; resume collecting.
			c.state = stateInSB
		} else {
			c.state = stateIdle
		}
		c.handler.HandleCommand(b)
	}
}

// feedEscape advances the small ANSI cursor-key/delete-key escape matcher.
// On a mismatch it pushes back every buffered byte and replays it through
// the ordinary idle path, emitting the literal ESC first.
func (c *Codec) feedEscape(b byte) {
	switch c.esc {
	case escSawESC:
		if b == '[' {
			c.esc = escSawBracket
			return
		}
		c.esc = escNone
		c.emitByte(0x1b)
		c.feedIdle(b)
	case escSawBracket:
		switch b {
		case 'A':
			c.emitKey(KeyUp)
			c.esc = escNone
		case 'B':
			c.emitKey(KeyDown)
			c.esc = escNone
		case 'C':
			c.emitKey(KeyRight)
			c.esc = escNone
		case 'D':
			c.emitKey(KeyLeft)
			c.esc = escNone
		case '3':
			c.esc = escSawBracket3
		default:
			c.esc = escNone
			c.emitByte(0x1b)
			c.feedIdle('[')
			c.feedIdle(b)
		}
	case escSawBracket3:
		c.esc = escNone
		if b == '~' {
			c.emitKey(KeyDelete)
			return
		}
		c.emitByte(0x1b)
		c.feedIdle('[')
		c.feedIdle('3')
		c.feedIdle(b)
	}
}

func (c *Codec) emitByte(b byte) {
	c.events = append(c.events, Event{Key: KeyNone, Byte: b})
}

func (c *Codec) emitKey(k KeyCode) {
	c.events = append(c.events, Event{Key: k})
}

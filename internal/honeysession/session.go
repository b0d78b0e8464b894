// Package honeysession implements the honeypot's per-connection state
// machine: Telnet negotiation, login, and the command loop that forwards
// attacker input to a shell child and rewrites its output before it ever
// reaches the wire.
package honeysession

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stamparm/hontel/internal/auth"
	"github.com/stamparm/hontel/internal/deception"
	"github.com/stamparm/hontel/internal/honeylog"
	"github.com/stamparm/hontel/internal/lineeditor"
	"github.com/stamparm/hontel/internal/sampler"
	"github.com/stamparm/hontel/internal/telnet"
)

// settleDelay is how long the session waits after writing a command before
// it drains the shell's response, giving a simple blocking shell time to
// produce output. Matches the original's fixed time.sleep(0.1).
const settleDelay = 100 * time.Millisecond

// Config holds everything shared across every accepted connection:
// built once by the server at startup, read-only from a Session's point
// of view.
type Config struct {
	ShellCommand string
	ShellName    string
	Prompt       string
	Welcome      string
	HistoryLimit int

	AuthNeedUser    bool
	AuthNeedPass    bool
	MaxAuthAttempts int
	Verify          auth.Callback

	Table   *deception.Table
	Sampler *sampler.Sampler
	Logger  *honeylog.Logger
}

// Session is one accepted Telnet connection, from negotiation through
// shell teardown.
type Session struct {
	ID         uuid.UUID
	RemoteAddr string
	Username   string

	cfg  Config
	conn net.Conn

	writer     *telnet.Writer
	negotiator *telnet.Negotiator
	editor     *lineeditor.Editor
	log        *honeylog.SessionLogger

	running bool
	child   *shellChild
}

// New wires the Telnet codec/negotiator/editor stack around conn.
func New(conn net.Conn, cfg Config) *Session {
	s := &Session{
		ID:         uuid.New(),
		RemoteAddr: conn.RemoteAddr().String(),
		cfg:        cfg,
		conn:       conn,
		running:    true,
	}
	s.writer = telnet.NewWriter(conn)
	s.negotiator = telnet.NewNegotiator(s.writer)
	codec := telnet.NewCodec(s.negotiator)
	reader := telnet.NewReader(conn, codec)
	s.editor = lineeditor.New(reader, deceivedWriter{s}, cfg.HistoryLimit)
	s.log = cfg.Logger.ForSession(s.RemoteAddr)
	return s
}

// writeDeceived applies the deception table to data before writing it to
// the client. Every user-visible byte that reaches the wire — welcome
// banner, prompts and echo included — passes through the table exactly
// once; only the negotiator's raw Telnet commands bypass it.
func (s *Session) writeDeceived(data []byte) {
	if s.cfg.Table != nil {
		data = s.cfg.Table.Apply(data)
	}
	s.writer.Write(data)
}

// deceivedWriter is the line editor's output: it sends prompts and echo
// through writeDeceived.
type deceivedWriter struct{ s *Session }

func (d deceivedWriter) Write(p []byte) (int, error) {
	d.s.writeDeceived(p)
	return len(p), nil
}

// Run drives the connection end to end: negotiation, login, command loop,
// teardown. It always closes conn before returning.
func (s *Session) Run() {
	defer func() {
		if r := recover(); r != nil {
			s.log.Log("ERROR", fmt.Sprintf("panic: %v", r))
		}
		s.conn.Close()
	}()

	s.negotiator.Setup()

	authenticator := &auth.Authenticator{
		NeedUser:    s.cfg.AuthNeedUser,
		NeedPass:    s.cfg.AuthNeedPass,
		PromptUser:  "Username: ",
		PromptPass:  "Password: ",
		MaxAttempts: s.cfg.MaxAuthAttempts,
		Verify:      s.cfg.Verify,
		Logger:      s.log,
	}
	username, ok, err := authenticator.Authenticate(s.editor)
	if err != nil || !ok {
		return
	}
	s.Username = username

	s.log.SessionStart()
	defer s.log.SessionEnd()

	if s.cfg.Welcome != "" {
		s.writeDeceived([]byte(s.cfg.Welcome))
	}

	child, err := spawnShell(s.cfg.ShellCommand)
	if err != nil {
		s.log.Log("ERROR", fmt.Sprintf("shell spawn failed: %v", err))
		return
	}
	s.child = child
	defer s.child.Close()

	s.loop()
}

// loop implements the main command cycle: read a line, handle it as a
// built-in or forward it to the shell, rewrite and relay the response.
func (s *Session) loop() {
	for s.running && s.child.Alive() {
		line, res, err := s.editor.ReadLine(s.cfg.Prompt, true, true)
		if err != nil {
			return
		}

		switch res {
		case lineeditor.ResultAbort:
			s.child.Interrupt()
			continue
		case lineeditor.ResultQuit:
			return
		}

		cmd := strings.TrimSpace(line)
		if cmd == "" {
			continue
		}
		s.log.Cmd(cmd)

		if fn, isBuiltin := builtins[strings.ToUpper(cmd)]; isBuiltin {
			fn(s)
			continue
		}

		if s.cfg.Sampler != nil {
			if dest, captured := s.cfg.Sampler.Capture(cmd); captured {
				s.log.Sample(dest)
			}
		}

		if err := s.child.WriteLine(cmd); err != nil {
			return
		}
		time.Sleep(settleDelay)

		out := s.child.Drain()
		if s.cfg.ShellName != "" {
			out = deception.StripShellLinePrefix(s.cfg.ShellName, out)
		}
		s.writeDeceived(out)
	}
}

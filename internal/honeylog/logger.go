// Package honeylog implements the honeypot's append-only, per-connection
// event log: fixed record format, O_APPEND|O_CREAT|O_WRONLY semantics, and
// single-syscall writes so concurrent sessions never interleave mid-line.
package honeylog

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

const timeFormat = "2006-01-02 15:04:05"

// Logger is a single log file shared by every session in the process. The
// original kept one file handle per thread-local; Go has no thread-local
// storage, so a mutex-guarded shared handle stands in for it per spec.md
// §9's note that either a global mutex or per-unit handles are acceptable.
type Logger struct {
	mu   sync.Mutex
	path string
	f    *os.File
}

// New creates a Logger for path. The file itself is opened lazily on first
// write, not here.
func New(path string) *Logger {
	return &Logger{path: path}
}

// ensureOpen opens the log file if it isn't already open, or reopens it if
// it has disappeared out from under us since the last write.
func (l *Logger) ensureOpen() error {
	if l.f != nil {
		if _, err := os.Stat(l.path); err != nil {
			l.f.Close()
			l.f = nil
		}
	}
	if l.f != nil {
		return nil
	}

	_, statErr := os.Stat(l.path)
	existed := statErr == nil

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("honeylog: opening %s: %w", l.path, err)
	}
	if !existed {
		if err := os.Chmod(l.path, 0644); err != nil {
			f.Close()
			return fmt.Errorf("honeylog: chmod %s: %w", l.path, err)
		}
	}
	l.f = f
	return nil
}

// Log writes one record: "[time] [remoteAddr] TAG" or, if detail is
// non-empty, "[time] [remoteAddr] TAG: detail". Exactly one write(2) call
// per record.
func (l *Logger) Log(remoteAddr, tag, detail string) error {
	line := formatRecord(time.Now(), remoteAddr, tag, detail)

	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.ensureOpen(); err != nil {
		return err
	}
	_, err := l.f.Write([]byte(line))
	return err
}

func formatRecord(t time.Time, remoteAddr, tag, detail string) string {
	ts := t.Format(timeFormat)
	if detail == "" {
		return fmt.Sprintf("[%s] [%s] %s\n", ts, remoteAddr, tag)
	}
	return fmt.Sprintf("[%s] [%s] %s: %s\n", ts, remoteAddr, tag, escape(detail))
}

// escape collapses any embedded newline or carriage return in detail to a
// literal backslash escape, so every record stays exactly one physical
// line regardless of what an attacker types.
func escape(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\r", "\\r")
	return s
}

// ForSession returns a SessionLogger bound to one connection's remote
// address, so callers don't have to repeat it on every call.
func (l *Logger) ForSession(remoteAddr string) *SessionLogger {
	return &SessionLogger{logger: l, remoteAddr: remoteAddr}
}

// SessionLogger is a Logger pinned to one connection's "ip:port" address.
type SessionLogger struct {
	logger     *Logger
	remoteAddr string
}

// Log writes a record for this session with the given tag and detail.
func (s *SessionLogger) Log(tag, detail string) error {
	return s.logger.Log(s.remoteAddr, tag, detail)
}

// LogAuthAttempt satisfies auth.AttemptLogger.
func (s *SessionLogger) LogAuthAttempt(username, password string) {
	s.Log("AUTH", fmt.Sprintf("%s:%s", username, password))
}

// SessionStart logs the SESSION_START record.
func (s *SessionLogger) SessionStart() { s.Log("SESSION_START", "") }

// SessionEnd logs the SESSION_END record.
func (s *SessionLogger) SessionEnd() { s.Log("SESSION_END", "") }

// Cmd logs one CMD record for a raw line forwarded to the shell child.
func (s *SessionLogger) Cmd(raw string) { s.Log("CMD", raw) }

// Sample logs one SAMPLE record for a captured download.
func (s *SessionLogger) Sample(detail string) { s.Log("SAMPLE", detail) }

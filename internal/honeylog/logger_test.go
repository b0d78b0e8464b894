package honeylog

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

var recordPattern = regexp.MustCompile(`^\[[^\]]+\] \[[^\]]+:\d+\] [A-Z_]+(: .*)?\n$`)

func TestLogRecordsMatchInvariantRegex(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hontel.log")
	l := New(path)

	if err := l.Log("1.2.3.4:5555", "SESSION_START", ""); err != nil {
		t.Fatal(err)
	}
	if err := l.Log("1.2.3.4:5555", "CMD", "uname -a"); err != nil {
		t.Fatal(err)
	}
	if err := l.Log("1.2.3.4:5555", "AUTH", "root:123456"); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.SplitAfter(string(data), "\n")
	count := 0
	for _, line := range lines {
		if line == "" {
			continue
		}
		count++
		if !recordPattern.MatchString(line) {
			t.Fatalf("line %q does not match invariant regex", line)
		}
	}
	if count != 3 {
		t.Fatalf("expected 3 records, got %d", count)
	}
}

func TestLogFileCreatedWithMode0644(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hontel.log")
	l := New(path)
	if err := l.Log("1.2.3.4:1", "SESSION_START", ""); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0644 {
		t.Fatalf("got mode %v, want 0644", info.Mode().Perm())
	}
}

func TestEmbeddedNewlineInDetailStaysOnOnePhysicalLine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hontel.log")
	l := New(path)
	if err := l.Log("1.2.3.4:1", "CMD", "echo a\nrm -rf /\r\n"); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected exactly one physical line, got %d: %q", len(lines), data)
	}
	if !recordPattern.MatchString(string(data)) {
		t.Fatalf("record %q does not match invariant regex", data)
	}
}

func TestLogRecreatesFileIfDeletedBetweenWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hontel.log")
	l := New(path)
	if err := l.Log("1.2.3.4:1", "SESSION_START", ""); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if err := l.Log("1.2.3.4:1", "SESSION_END", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected file to be recreated: %v", err)
	}
}

func TestSessionLoggerBindsRemoteAddr(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hontel.log")
	l := New(path)
	sl := l.ForSession("9.9.9.9:4444")
	sl.LogAuthAttempt("root", "123456")
	sl.Cmd("ls -la")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "[9.9.9.9:4444] AUTH: root:123456") {
		t.Fatalf("missing AUTH record: %q", data)
	}
	if !strings.Contains(string(data), "[9.9.9.9:4444] CMD: ls -la") {
		t.Fatalf("missing CMD record: %q", data)
	}
}

// Package deception implements the honeypot's output rewriter: an ordered,
// deterministic substring replacement table plus BusyBox banner capture and
// synthesis, so every byte the attacker sees describes a fake device rather
// than the sandbox actually running the shell.
package deception

import (
	"bytes"
	"sync"
)

// Replacement is one literal old->new substring pair. Table deliberately
// does not use a map: replacement order must be reproducible across runs,
// and Go map iteration order is not.
type Replacement struct {
	Old []byte
	New []byte
}

// Table holds an ordered list of literal byte-string replacements, applied
// in sequence to every outbound chunk. Safe for concurrent use; Replace
// swaps the whole entry list atomically so a config hot-reload never
// exposes a half-updated table to a concurrent Apply.
type Table struct {
	mu      sync.RWMutex
	entries []Replacement
}

// NewTable returns an empty Table.
func NewTable() *Table {
	return &Table{}
}

// Append adds one entry to the end of the table.
func (t *Table) Append(old, new string) {
	if old == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, Replacement{Old: []byte(old), New: []byte(new)})
}

// Replace atomically swaps the entire entry list, preserving the order of
// entries as given.
func (t *Table) Replace(entries []Replacement) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = entries
}

// Entries returns a copy of the current ordered entry list.
func (t *Table) Entries() []Replacement {
	t.mu.RLock()
	defer t.mu.RUnlock()
	cp := make([]Replacement, len(t.entries))
	copy(cp, t.entries)
	return cp
}

// Apply runs every entry, in order, exactly once over data and returns the
// rewritten bytes. Each entry's substitutions see the output of the
// previous entry, so order is observable and must stay deterministic.
func (t *Table) Apply(data []byte) []byte {
	t.mu.RLock()
	entries := t.entries
	t.mu.RUnlock()
	for _, e := range entries {
		if len(e.Old) == 0 {
			continue
		}
		data = bytes.ReplaceAll(data, e.Old, e.New)
	}
	return data
}

// archTokens lists the real-architecture substrings rewritten to the fake
// architecture token. The x86_64 runs are listed longest (the repeated
// uname -a triplet) before shortest, so a triple x86_64 run is replaced
// whole rather than token by token by the single-token rule.
var archTokens = []string{
	"i386",
	"i686",
	"x86_64 x86_64 x86_64",
	"x86_64 x86_64",
	"x86_64",
	"amd64",
}

// DefaultTable builds the honeypot's standard deception table: real
// hostname, Ubuntu->Debian, architecture tokens, and the captured BusyBox
// banner (both as captured, and with its trailing date parenthetical
// stripped, since shell output sometimes echoes only the short form).
func DefaultTable(realHostname, fakeHostname, fakeArch, realBanner, fakeBanner string) *Table {
	t := NewTable()
	t.Append(realHostname, fakeHostname)
	t.Append("Ubuntu", "Debian")
	for _, tok := range archTokens {
		t.Append(tok, fakeArch)
	}
	if realBanner != "" {
		t.Append(realBanner, fakeBanner)
		if strippedReal, strippedFake := stripParenthetical(realBanner), stripParenthetical(fakeBanner); strippedReal != "" && strippedReal != realBanner {
			t.Append(strippedReal, strippedFake)
		}
	}
	return t
}

// stripParenthetical removes a trailing " (...)" segment, used to derive
// the date-less variant of a BusyBox banner line.
func stripParenthetical(s string) string {
	i := bytes.IndexByte([]byte(s), '(')
	if i <= 0 {
		return ""
	}
	for i > 0 && s[i-1] == ' ' {
		i--
	}
	if i == 0 {
		return ""
	}
	return s[:i]
}

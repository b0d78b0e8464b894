package honeysession

// builtinFunc handles a command the honeypot intercepts itself instead of
// forwarding to the shell.
type builtinFunc func(s *Session)

// builtins is an explicit table of commands the
// session recognizes before ever touching the shell child. Kept as a flat
// map rather than a registry/decorator chain: there are exactly two
// entries and neither needs priority or wildcard matching.
var builtins = map[string]builtinFunc{
	"QUIT": func(s *Session) { s.running = false },
	"EXIT": func(s *Session) { s.running = false },
}

// Command hontel-monitor is a live terminal dashboard over a running
// hontel instance's log file: it tails new records as they are appended
// and renders recent session activity.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
)

var recordPattern = regexp.MustCompile(`^\[([^\]]+)\] \[([^\]]+):(\d+)\] ([A-Z_]+)(?:: (.*))?$`)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("4")).Padding(0, 1)
	tagStyles   = map[string]lipgloss.Style{
		"SESSION_START": lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		"SESSION_END":   lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		"AUTH":          lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		"CMD":           lipgloss.NewStyle().Foreground(lipgloss.Color("7")),
		"SAMPLE":        lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		"ERROR":         lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
	}
	defaultTagStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
)

// record is one parsed log line.
type record struct {
	id     uuid.UUID
	time   string
	addr   string
	port   string
	tag    string
	detail string
}

func parseRecord(line string) (record, bool) {
	m := recordPattern.FindStringSubmatch(line)
	if m == nil {
		return record{}, false
	}
	return record{
		id:     uuid.New(),
		time:   m[1],
		addr:   m[2],
		port:   m[3],
		tag:    m[4],
		detail: m[5],
	}, true
}

func styleFor(tag string) lipgloss.Style {
	if s, ok := tagStyles[tag]; ok {
		return s
	}
	return defaultTagStyle
}

// model is the bubbletea model for the dashboard.
type model struct {
	logPath  string
	lines    chan string
	vp       viewport.Model
	records  []record
	width    int
	height   int
	sessions map[string]int // "addr:port" -> active session count, approximate
}

func newModel(logPath string) model {
	return model{
		logPath:  logPath,
		lines:    make(chan string, 256),
		width:    80,
		height:   24,
		sessions: make(map[string]int),
	}
}

type tailLineMsg string

// waitForLine turns the next value off m.lines into a tea.Msg, re-armed
// by Update after every delivery so the channel keeps draining.
func waitForLine(lines chan string) tea.Cmd {
	return func() tea.Msg {
		line, ok := <-lines
		if !ok {
			return nil
		}
		return tailLineMsg(line)
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(tea.SetWindowTitle("hontel-monitor"), waitForLine(m.lines))
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.vp = viewport.New(m.width, m.height-1)
		m.vp.SetContent(m.render())
		m.vp.GotoBottom()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.vp, cmd = m.vp.Update(msg)
		return m, cmd

	case tailLineMsg:
		if rec, ok := parseRecord(string(msg)); ok {
			m.records = append(m.records, rec)
			if len(m.records) > 2000 {
				m.records = m.records[len(m.records)-2000:]
			}
			switch rec.tag {
			case "SESSION_START":
				m.sessions[rec.addr+":"+rec.port]++
			case "SESSION_END":
				delete(m.sessions, rec.addr+":"+rec.port)
			}
			m.vp.SetContent(m.render())
			m.vp.GotoBottom()
		}
		return m, waitForLine(m.lines)
	}
	return m, nil
}

func (m model) render() string {
	var b strings.Builder
	for _, r := range m.records {
		style := styleFor(r.tag)
		line := fmt.Sprintf("%s  %-21s %-14s", r.time, r.addr+":"+r.port, r.tag)
		if r.detail != "" {
			line += "  " + r.detail
		}
		b.WriteString(style.Render(line))
		b.WriteByte('\n')
	}
	return b.String()
}

func (m model) View() string {
	title := headerStyle.Render(fmt.Sprintf("hontel-monitor — %s — %d active session(s)", m.logPath, len(m.sessions)))
	return title + "\n" + m.vp.View()
}

// tailFile streams newly appended lines of path into out, following
// truncation and recreation the same way honeylog.Logger writes it: a
// directory watch survives the log file being rotated out from under it.
func tailFile(path string, out chan<- string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("hontel-monitor: creating watcher: %w", err)
	}

	dir := dirOf(path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("hontel-monitor: watching %s: %w", dir, err)
	}

	f, offset := openAtEnd(path)

	go func() {
		defer watcher.Close()
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Name != path {
					continue
				}
				if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
					if f != nil {
						f.Close()
						f = nil
					}
					continue
				}
				if f == nil {
					// The file appeared since the last open: tail it from its start.
					if f, _ = openAtEnd(path); f == nil {
						continue
					}
					offset = 0
				}
				offset = readNewLines(f, offset, out)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("WARN: hontel-monitor: watcher error: %v", err)
			}
		}
	}()
	return nil
}

func dirOf(path string) string {
	idx := strings.LastIndexByte(path, '/')
	if idx < 0 {
		return "."
	}
	return path[:idx]
}

func openAtEnd(path string) (*os.File, int64) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0
	}
	return f, info.Size()
}

func readNewLines(f *os.File, offset int64, out chan<- string) int64 {
	info, err := f.Stat()
	if err != nil {
		return offset
	}
	if info.Size() < offset {
		offset = 0 // file was truncated
	}
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return offset
	}

	scanner := bufio.NewScanner(f)
	var last int64
	for scanner.Scan() {
		out <- scanner.Text()
		last = offset + int64(len(scanner.Bytes())) + 1
		offset = last
	}
	return offset
}

func main() {
	logPath := flag.String("log", "/var/log/hontel.log", "path to the honeypot's log file to tail")
	flag.Parse()

	m := newModel(*logPath)
	if err := tailFile(*logPath, m.lines); err != nil {
		fmt.Fprintf(os.Stderr, "[!] %v\n", err)
		os.Exit(1)
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "[!] %v\n", err)
		os.Exit(1)
	}
}

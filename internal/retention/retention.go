// Package retention implements a cron-scheduled sweep that deletes captured
// samples past a configurable age. The honeypot's log file is deliberately
// exempt: spec.md §4.G mandates "no rotation" for it.
package retention

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
)

// Sweeper deletes sample files under SamplesDir older than MaxAge.
type Sweeper struct {
	SamplesDir string
	MaxAge     time.Duration
}

// New creates a Sweeper for samplesDir with the given retention window. A
// zero maxAge disables sweeping (Sweep becomes a no-op).
func New(samplesDir string, maxAge time.Duration) *Sweeper {
	return &Sweeper{SamplesDir: samplesDir, MaxAge: maxAge}
}

// Schedule starts a cron job that runs Sweep on spec, a 6-field cron
// expression whose first field is seconds (or a descriptor such as
// @hourly), grounded on the teacher's cron.New(cron.WithSeconds())
// scheduler construction.
func (s *Sweeper) Schedule(spec string) (*cron.Cron, error) {
	c := cron.New(cron.WithSeconds())
	if _, err := c.AddFunc(spec, func() {
		if err := s.Sweep(); err != nil {
			log.Printf("WARN: retention: sweep failed: %v", err)
		}
	}); err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}

// Sweep removes every regular file under SamplesDir whose modification
// time is older than MaxAge. A missing directory is not an error.
func (s *Sweeper) Sweep() error {
	if s.SamplesDir == "" || s.MaxAge <= 0 {
		return nil
	}

	entries, err := os.ReadDir(s.SamplesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	cutoff := time.Now().Add(-s.MaxAge)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			_ = os.Remove(filepath.Join(s.SamplesDir, e.Name()))
		}
	}
	return nil
}

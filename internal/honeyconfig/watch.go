package honeyconfig

import (
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the mutable subset of Config (the deception table and
// banner strings) whenever the config file changes on disk, grounded on
// the teacher's blocklist/allowlist fsnotify watch loop.
type Watcher struct {
	fw   *fsnotify.Watcher
	path string
}

// WatchReplacements starts watching path's directory (not the file itself,
// since editors commonly replace-on-save rather than write in place, which
// would silently drop a direct file watch) and calls onReload with the
// freshly parsed Config each time path changes.
func WatchReplacements(path string, onReload func(*Config)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, err
	}

	w := &Watcher{fw: fw, path: path}
	go w.loop(onReload)
	return w, nil
}

func (w *Watcher) loop(onReload func(*Config)) {
	target := filepath.Clean(w.path)
	for {
		select {
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			cfg, err := Load(w.path)
			if err != nil {
				log.Printf("WARN: honeyconfig: reload of %s failed: %v", w.path, err)
				continue
			}
			if onReload != nil {
				onReload(cfg)
			}
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			log.Printf("WARN: honeyconfig: watcher error: %v", err)
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.fw.Close()
}

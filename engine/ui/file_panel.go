package ui

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Carmen-Shannon/oxy-deferred/engine/config"
	"github.com/fsnotify/fsnotify"
)

// filePanel is a Panel whose edits come from a config file. Every write of the file stages its
// [lights] and [post] tables; panel edits are never written back.
type filePanel struct {
	*panel

	path    string
	watcher *fsnotify.Watcher
	done    chan struct{}
	exited  chan struct{}
}

var _ Panel = &filePanel{}

// NewFilePanel creates a Panel that watches a config file for edits. The file's directory is
// watched so that editors replacing the file on save are seen too.
//
// Parameters:
//   - path: the config file
//   - opts: variadic list of PanelBuilderOption functions
//
// Returns:
//   - Panel: the panel
//   - error: an error if the watcher could not be started
func NewFilePanel(path string, opts ...PanelBuilderOption) (Panel, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to start config watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", path, err)
	}

	p := &filePanel{
		panel:   NewPanel(opts...).(*panel),
		path:    abs,
		watcher: watcher,
		done:    make(chan struct{}),
		exited:  make(chan struct{}),
	}
	go p.watch()
	return p, nil
}

func (p *filePanel) watch() {
	defer close(p.exited)
	for {
		select {
		case <-p.done:
			return
		case event, ok := <-p.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != p.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				p.reload()
			}
		case err, ok := <-p.watcher.Errors:
			if !ok {
				return
			}
			p.logger.Warnf("config watcher: %v", err)
		}
	}
}

// reload stages the lights and post tables of the file. A file that fails to parse is logged
// and ignored; the next write is tried again. An empty file is a save in progress.
func (p *filePanel) reload() {
	f, err := os.Open(p.path)
	if err != nil {
		return
	}
	defer f.Close()
	if info, err := f.Stat(); err != nil || info.Size() == 0 {
		return
	}

	cfg, err := config.Parse(p.path, f)
	if err != nil {
		p.logger.Warnf("config edit ignored: %v", err)
		return
	}
	p.Edit(func(v *Values) {
		v.Lights = cfg.Lights
		v.Post = cfg.Post
	})
	p.logger.Infof("config edit staged from %s", p.path)
}

func (p *filePanel) Close() error {
	select {
	case <-p.done:
		return nil
	default:
	}
	close(p.done)
	err := p.watcher.Close()
	<-p.exited
	return err
}

package preset

import (
	"github.com/fsnotify/fsnotify"

	"github.com/slangchain/filterchain/internal/corelog"
)

// Watcher republishes a freshly-decoded Preset whenever its source file
// changes on disk. This is not part of the core filter chain runtime
//; it is a
// convenience the distilled spec dropped but production slang runtimes
// provide (RetroArch reloads shader presets on file change).
type Watcher struct {
	path    string
	fsw     *fsnotify.Watcher
	updates chan *Preset
	errs    chan error
	done    chan struct{}
}

// Watch starts watching path and returns a Watcher whose Updates channel
// receives a newly decoded Preset after every write. Call Close to stop.
func Watch(path string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(path); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		path:    path,
		fsw:     fsw,
		updates: make(chan *Preset, 1),
		errs:    make(chan error, 1),
		done:    make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			p, err := Load(w.path)
			if err != nil {
				corelog.Warn("preset: reload failed", "path", w.path, "err", err)
				select {
				case w.errs <- err:
				default:
				}
				continue
			}
			select {
			case w.updates <- p:
			default:
				// Drop the stale pending update in favor of the fresh one.
				select {
				case <-w.updates:
				default:
				}
				w.updates <- p
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			corelog.Warn("preset: watch error", "path", w.path, "err", err)
		}
	}
}

// Updates returns the channel of freshly reloaded presets.
func (w *Watcher) Updates() <-chan *Preset {
	return w.updates
}

// Errors returns the channel of reload errors.
func (w *Watcher) Errors() <-chan error {
	return w.errs
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}

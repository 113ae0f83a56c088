package testhost

import (
	"log/slog"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/wharflab/lspbridge/protocol"
)

// ProjectModel watches a root directory with fsnotify and turns renames
// and removals into protocol.FileEvent values, feeding
// workspace/didChangeWatchedFiles (docsync.ProjectModel, spec.md §4.D
// supplemented feature).
type ProjectModel struct {
	watcher *fsnotify.Watcher
	log     *slog.Logger

	mu          sync.Mutex
	subscribers map[int]func(protocol.FileEvent)
	nextID      int

	done chan struct{}
}

// NewProjectModel starts watching root. Callers must call Close when
// done.
func NewProjectModel(root string, log *slog.Logger) (*ProjectModel, error) {
	if log == nil {
		log = slog.Default()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(root); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	p := &ProjectModel{
		watcher:     watcher,
		log:         log,
		subscribers: make(map[int]func(protocol.FileEvent)),
		done:        make(chan struct{}),
	}
	go p.run()
	return p, nil
}

func (p *ProjectModel) run() {
	defer close(p.done)
	for {
		select {
		case ev, ok := <-p.watcher.Events:
			if !ok {
				return
			}
			p.handle(ev)
		case err, ok := <-p.watcher.Errors:
			if !ok {
				return
			}
			p.log.Warn("testhost: watch error", "error", err)
		}
	}
}

func (p *ProjectModel) handle(ev fsnotify.Event) {
	var kind protocol.FileChangeType
	switch {
	case ev.Has(fsnotify.Create):
		kind = protocol.FileCreated
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		kind = protocol.FileDeleted
	case ev.Has(fsnotify.Write):
		kind = protocol.FileChanged
	default:
		return
	}

	fe := protocol.FileEvent{
		URI:  protocol.DocumentURI("file://" + ev.Name),
		Type: kind,
	}

	p.mu.Lock()
	listeners := make([]func(protocol.FileEvent), 0, len(p.subscribers))
	for _, fn := range p.subscribers {
		listeners = append(listeners, fn)
	}
	p.mu.Unlock()
	for _, fn := range listeners {
		fn(fe)
	}
}

func (p *ProjectModel) Subscribe(fn func(protocol.FileEvent)) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.subscribers[id] = fn
	p.mu.Unlock()
	return func() {
		p.mu.Lock()
		delete(p.subscribers, id)
		p.mu.Unlock()
	}
}

// Close stops the watcher.
func (p *ProjectModel) Close() error {
	err := p.watcher.Close()
	<-p.done
	return err
}

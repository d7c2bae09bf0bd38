// Package watch runs a handler for files created in a directory.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Handler processes one newly created file.
type Handler func(ctx context.Context, path string) error

type Options struct {
	// Accept filters paths before they are queued. Nil accepts everything.
	Accept func(path string) bool
	// Settle is how long a file must go without create or write events
	// before it is handled, so writers can finish.
	Settle        time.Duration
	MaxConcurrent int
}

type Watcher struct {
	dir     string
	handler Handler
	opts    Options
	log     zerolog.Logger
	watcher *fsnotify.Watcher
	sem     chan struct{}
	ready   chan string
	wg      sync.WaitGroup

	mu      sync.Mutex
	pending map[string]*time.Timer
	claimed map[string]bool // in flight or handled successfully
}

func New(dir string, handler Handler, opts Options, log zerolog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("add watch path: %w", err)
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 2
	}
	if opts.Settle < 0 {
		opts.Settle = 0
	}
	return &Watcher{
		dir:     dir,
		handler: handler,
		opts:    opts,
		log:     log,
		watcher: fw,
		sem:     make(chan struct{}, opts.MaxConcurrent),
		ready:   make(chan string),
		pending: map[string]*time.Timer{},
		claimed: map[string]bool{},
	}, nil
}

// Start blocks until ctx ends, then waits for in-flight handlers.
// A path is handled once it has been quiet for Settle. After a successful
// run it is never handled again, so a handler that replaces its own file does
// not trigger itself; after a failed run the next write retries it.
func (w *Watcher) Start(ctx context.Context) error {
	w.log.Info().Str("dir", w.dir).Int("max_concurrent", w.opts.MaxConcurrent).Msg("watching for new files")
	defer w.stopTimers()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("waiting for in-flight files")
			w.wg.Wait()
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				w.wg.Wait()
				return fmt.Errorf("watcher events channel closed")
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			path := filepath.Clean(event.Name)
			if w.opts.Accept != nil && !w.opts.Accept(path) {
				w.log.Debug().Str("file", path).Msg("ignoring file")
				continue
			}
			w.touch(ctx, path)

		case path := <-w.ready:
			if !w.claim(path) {
				continue
			}
			w.log.Info().Str("file", path).Msg("new file ready")

			select {
			case w.sem <- struct{}{}:
			case <-ctx.Done():
				w.wg.Wait()
				return ctx.Err()
			}
			w.wg.Add(1)
			go func(path string) {
				defer w.wg.Done()
				defer func() { <-w.sem }()
				if err := w.handler(ctx, path); err != nil {
					w.log.Error().Str("file", path).Err(err).Msg("failed to process file, will retry on next write")
					w.release(path)
				}
			}(path)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				w.wg.Wait()
				return fmt.Errorf("watcher errors channel closed")
			}
			w.log.Error().Err(err).Msg("watcher error")
		}
	}
}

// touch (re)starts the settle timer for path unless it is already claimed.
func (w *Watcher) touch(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.claimed[path] {
		return
	}
	if t, ok := w.pending[path]; ok {
		t.Reset(w.opts.Settle)
		return
	}
	w.pending[path] = time.AfterFunc(w.opts.Settle, func() {
		select {
		case w.ready <- path:
		case <-ctx.Done():
		}
	})
}

func (w *Watcher) claim(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.pending, path)
	if w.claimed[path] {
		return false
	}
	w.claimed[path] = true
	return true
}

func (w *Watcher) release(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.claimed, path)
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for p, t := range w.pending {
		t.Stop()
		delete(w.pending, p)
	}
}

func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

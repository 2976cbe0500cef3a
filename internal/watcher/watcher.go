// Package watcher monitors a local inbox directory for freshly delivered
// diarization transcripts and triggers boundary detection for each one. The
// expected filename is the edit id with a .json extension.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Handler is invoked once per delivered transcript.
type Handler func(ctx context.Context, editID uuid.UUID) error

// Watcher follows the transcript inbox.
type Watcher struct {
	inboxDir string
	handler  Handler
	fs       *fsnotify.Watcher
	log      *logrus.Logger
}

// New creates a Watcher on inboxDir.
func New(inboxDir string, handler Handler, log *logrus.Logger) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fs.Add(inboxDir); err != nil {
		fs.Close()
		return nil, fmt.Errorf("watch %s: %w", inboxDir, err)
	}
	return &Watcher{inboxDir: inboxDir, handler: handler, fs: fs, log: log}, nil
}

// Start blocks, dispatching the handler for every transcript that lands in
// the inbox, until the context is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	w.log.WithField("dir", w.inboxDir).Info("Transcript inbox watcher started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info("Transcript inbox watcher stopped")
			return ctx.Err()

		case event, ok := <-w.fs.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if event.Op&fsnotify.Create != fsnotify.Create {
				continue
			}
			editID, ok := editIDFromPath(event.Name)
			if !ok {
				w.log.WithField("path", event.Name).Debug("Ignoring non-transcript file")
				continue
			}

			// Give the delivering process a moment to finish writing.
			time.Sleep(500 * time.Millisecond)

			w.log.WithField("edit_id", editID).Info("Transcript delivered")
			if err := w.handler(ctx, editID); err != nil {
				w.log.WithError(err).WithField("edit_id", editID).Error("Transcript handler failed")
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.log.WithError(err).Error("Watcher error")
		}
	}
}

// Stop closes the underlying filesystem watcher.
func (w *Watcher) Stop() error {
	return w.fs.Close()
}

// editIDFromPath extracts the edit id from an inbox filename shaped
// <uuid>.json.
func editIDFromPath(path string) (uuid.UUID, bool) {
	base := filepath.Base(path)
	if !strings.HasSuffix(strings.ToLower(base), ".json") {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(strings.TrimSuffix(base, filepath.Ext(base)))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

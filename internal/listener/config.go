package listener

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// listenForConfigChanges watches the persisted state file. The directory is
// watched since the store replaces the file by rename.
func (l *Listener) listenForConfigChanges(ctx context.Context, events chan<- Event) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating state file watcher: %w", err)
	}
	slog.Debug("config watcher: fsnotify watcher created")

	defer func() {
		if err := w.Close(); err != nil {
			slog.Error("closing state file watcher", "error", err)
		}
	}()

	dir := filepath.Dir(l.statePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	if err := w.Add(dir); err != nil {
		return fmt.Errorf("adding state directory to watcher: %w", err)
	}
	slog.Debug("config watcher: fsnotify watch list", "list", w.WatchList())

	// Seed with the current contents so the first event is a real change.
	lastHash, err := fileHash(l.statePath)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("config watcher: hashing state file", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.Events:
			if !ok {
				return nil
			}

			if filepath.Clean(event.Name) != filepath.Clean(l.statePath) {
				continue
			}

			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}

			h, err := fileHash(l.statePath)
			if err != nil {
				continue
			}

			if h == lastHash {
				slog.Debug("config watcher: received identical hash for file update, no changes needed")
				continue
			}

			lastHash = h

			slog.Debug("fsnotify: file modified", "file", event.Name, "op", event.Op.String())
			if !send(ctx, events, Event{Type: ConfigUpdatedEvent, Details: l.statePath}) {
				return nil
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("config watcher fsnotify error: %w", err)
		}
	}
}

func fileHash(path string) ([32]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return [32]byte{}, err
	}
	return sha256.Sum256(data), nil
}

package auth

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// WatchPolicy reloads the policy file into store whenever it changes. A file
// that fails to parse leaves the previous policy in place. It blocks until
// ctx is done.
func WatchPolicy(ctx context.Context, path string, store *PolicyStore, logger *zap.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("policy watch: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: editors and config mounts replace files by rename.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("policy watch %s: %w", path, err)
	}
	target := filepath.Clean(path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
				continue
			}
			policy, err := LoadPolicyFile(path)
			if err != nil {
				logger.Warn("policy reload failed; keeping previous policy", zap.String("file", path), zap.Error(err))
				continue
			}
			store.Swap(policy)
			logger.Info("policy reloaded", zap.String("file", path))
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("policy watcher error", zap.Error(err))
		}
	}
}

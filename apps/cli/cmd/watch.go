package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// watchPlan is the set of local files whose changes trigger a re-run.
type watchPlan struct {
	dirs  []string
	files map[string]bool
	// suiteDirs accept any suite file, including ones created later.
	suiteDirs map[string]bool
}

func (s *session) watchPlan() *watchPlan {
	p := &watchPlan{files: make(map[string]bool), suiteDirs: make(map[string]bool)}
	seen := make(map[string]bool)
	addDir := func(dir string) {
		dir = filepath.Clean(dir)
		if !seen[dir] {
			seen[dir] = true
			p.dirs = append(p.dirs, dir)
		}
	}

	addDir(s.cfg.Dir)
	p.files[filepath.Join(s.cfg.Dir, s.cfg.Expect.ReadmeFile)] = true
	p.files[filepath.Join(s.cfg.Dir, s.cfg.Expect.IgnoreFile)] = true

	for _, path := range s.cfg.Suites {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if info.IsDir() {
			addDir(path)
			p.suiteDirs[filepath.Clean(path)] = true
			continue
		}
		addDir(filepath.Dir(path))
		p.files[filepath.Clean(path)] = true
	}
	return p
}

func (p *watchPlan) matches(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	name := filepath.Clean(event.Name)
	if p.files[name] {
		return true
	}
	ext := filepath.Ext(name)
	return p.suiteDirs[filepath.Dir(name)] && (ext == ".yaml" || ext == ".yml")
}

// watch re-runs the session whenever a watched file changes, until ctx is
// cancelled. Re-runs happen on this goroutine, one at a time.
func (s *session) watch(ctx context.Context, out io.Writer) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	plan := s.watchPlan()
	for _, dir := range plan.dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	fmt.Fprintf(out, "\nWatching for changes... (press Ctrl+C to stop)\n\n")

	var debounceTimer *time.Timer
	rerun := make(chan string, 1)

	for {
		select {
		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !plan.matches(event) {
				continue
			}
			s.logger.Debug("watched file changed", zap.String("file", event.Name), zap.String("op", event.Op.String()))
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			name := event.Name
			debounceTimer = time.AfterFunc(WatchDebounceDelay, func() {
				select {
				case rerun <- name:
				default:
				}
			})

		case name := <-rerun:
			fmt.Fprintf(out, "\n\nFile changed: %s\nRe-running checks...\n\n", name)
			if _, err := s.run(ctx); err != nil {
				s.logger.Warn("re-run failed", zap.Error(err))
			}
			fmt.Fprintf(out, "\nWatching for changes... (press Ctrl+C to stop)\n")

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

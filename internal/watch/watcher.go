// Package watch monitors event-glue source files and triggers
// recompilation when they change.
package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"
	"go.uber.org/zap"
)

// FileWatcher monitors file system changes and triggers callbacks.
type FileWatcher struct {
	watcher   *fsnotify.Watcher
	debouncer *Debouncer
	patterns  []glob.Glob
	ignored   []glob.Glob
	onChange  func([]string) error
	log       *zap.Logger
	stopChan  chan struct{}
	wg        sync.WaitGroup
}

// NewFileWatcher creates a watcher over the given root directories. A file
// triggers onChange when its base name matches one of patterns and none of
// ignored. A nil logger disables logging.
func NewFileWatcher(patterns, ignored []string, onChange func([]string) error, log *zap.Logger) (*FileWatcher, error) {
	if log == nil {
		log = zap.NewNop()
	}

	compiled, err := compileGlobs(patterns)
	if err != nil {
		return nil, err
	}
	compiledIgnored, err := compileGlobs(ignored)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	fw := &FileWatcher{
		watcher:   watcher,
		debouncer: NewDebouncer(100 * time.Millisecond),
		patterns:  compiled,
		ignored:   compiledIgnored,
		onChange:  onChange,
		log:       log,
		stopChan:  make(chan struct{}),
	}

	fw.debouncer.SetCallback(func(files []string) {
		if err := fw.onChange(files); err != nil {
			fw.log.Error("error handling file changes", zap.Error(err))
		}
	})

	return fw, nil
}

func compileGlobs(patterns []string) ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", p, err)
		}
		globs = append(globs, g)
	}
	return globs, nil
}

// Start begins watching the given directories and all their
// subdirectories.
func (fw *FileWatcher) Start(roots []string) error {
	dirs, err := findDirectories(roots)
	if err != nil {
		return err
	}

	for _, dir := range dirs {
		if err := fw.watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
		fw.log.Debug("watching directory", zap.String("dir", dir))
	}

	fw.wg.Add(1)
	go fw.watch()

	return nil
}

// Stop stops the file watcher.
func (fw *FileWatcher) Stop() error {
	select {
	case <-fw.stopChan:
		// Already stopped
		return nil
	default:
		close(fw.stopChan)
	}

	fw.wg.Wait()
	fw.debouncer.Stop()
	return fw.watcher.Close()
}

// watch is the main event loop.
func (fw *FileWatcher) watch() {
	defer fw.wg.Done()

	for {
		select {
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}

			// Only Write and Create trigger recompilation.
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			if fw.Matches(event.Name) {
				fw.log.Debug("file changed", zap.String("file", event.Name))
				fw.debouncer.Add(event.Name)
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.log.Error("watch error", zap.Error(err))

		case <-fw.stopChan:
			return
		}
	}
}

// Matches reports whether a path's base name matches the watch patterns
// and is not ignored. Hidden files never match.
func (fw *FileWatcher) Matches(path string) bool {
	base := filepath.Base(path)
	if len(base) > 0 && base[0] == '.' {
		return false
	}

	for _, g := range fw.ignored {
		if g.Match(base) {
			return false
		}
	}

	if len(fw.patterns) == 0 {
		return true
	}
	for _, g := range fw.patterns {
		if g.Match(base) {
			return true
		}
	}
	return false
}

// findDirectories expands the root directories into themselves plus all
// their visible subdirectories.
func findDirectories(roots []string) ([]string, error) {
	var dirs []string
	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}
			base := filepath.Base(path)
			if path != root && len(base) > 0 && base[0] == '.' {
				return filepath.SkipDir
			}
			dirs = append(dirs, path)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", root, err)
		}
	}
	return dirs, nil
}

// Package watch rebuilds the catalog whenever the data root changes.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/temirov/explorer/internal/utils"
)

// DefaultDebounce is the quiet period used when Options.Debounce is not positive.
const DefaultDebounce = 300 * time.Millisecond

const (
	logWatchingDirectory   = "watching directory"
	logWatchDirectoryError = "failed to watch directory"
	logChangeDetected      = "change detected"
	logRebuildFailed       = "rebuild failed"
	logWatcherError        = "watcher error"
	logWatchStarted        = "watching data root for changes"
	logFieldPath           = "path"
	logFieldPaths          = "paths"

	errorCreateWatcherFormat = "creating file watcher: %w"
	errorWatchRootFormat     = "watching %s: %w"
	errorAbsoluteRootFormat  = "resolving data root %s: %w"
)

// RebuildFunc regenerates the catalog. It receives the changed paths of one burst.
type RebuildFunc func(ctx context.Context, changedPaths []string) error

// Options configures a Service.
type Options struct {
	DataRoot string
	// IgnorePatterns are doublestar globs relative to the data root.
	IgnorePatterns []string
	SkipHidden     bool
	// ExcludedPaths are files whose changes never trigger a rebuild, such as the output file.
	ExcludedPaths []string
	Debounce      time.Duration
	Logger        *zap.Logger
}

// Service watches every directory below the data root and serializes rebuilds.
type Service struct {
	options         Options
	dataRootPath    string
	excludedPaths   map[string]struct{}
	rebuild         RebuildFunc
	fileWatcher     *fsnotify.Watcher
	rebuildRequests chan []string
}

// NewService prepares a watcher for options.DataRoot. Run starts it.
func NewService(options Options, rebuild RebuildFunc) (*Service, error) {
	dataRootPath, absoluteError := filepath.Abs(options.DataRoot)
	if absoluteError != nil {
		return nil, fmt.Errorf(errorAbsoluteRootFormat, options.DataRoot, absoluteError)
	}
	if options.Debounce <= 0 {
		options.Debounce = DefaultDebounce
	}
	if options.Logger == nil {
		options.Logger = zap.NewNop()
	}
	excludedPaths := make(map[string]struct{}, len(options.ExcludedPaths))
	for _, excludedPath := range options.ExcludedPaths {
		if absolutePath, pathError := filepath.Abs(excludedPath); pathError == nil {
			excludedPaths[absolutePath] = struct{}{}
		}
	}
	return &Service{
		options:         options,
		dataRootPath:    dataRootPath,
		excludedPaths:   excludedPaths,
		rebuild:         rebuild,
		rebuildRequests: make(chan []string, 1),
	}, nil
}

// Run watches until ctx is canceled. Bursts of changes are coalesced by the
// debounce window and at most one rebuild runs at a time. Rebuild failures are
// logged and do not stop the watcher.
func (service *Service) Run(ctx context.Context) error {
	fileWatcher, watcherError := fsnotify.NewWatcher()
	if watcherError != nil {
		return fmt.Errorf(errorCreateWatcherFormat, watcherError)
	}
	service.fileWatcher = fileWatcher
	defer fileWatcher.Close()

	if addError := fileWatcher.Add(service.dataRootPath); addError != nil {
		return fmt.Errorf(errorWatchRootFormat, service.dataRootPath, addError)
	}
	service.watchDescendants(service.dataRootPath)

	debouncer := NewDebouncer(service.options.Debounce, service.requestRebuild)
	defer debouncer.Stop()

	logger := service.options.Logger
	logger.Info(logWatchStarted, zap.String(logFieldPath, service.dataRootPath))

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, open := <-fileWatcher.Events:
			if !open {
				return nil
			}
			service.handleEvent(event, debouncer)
		case watchError, open := <-fileWatcher.Errors:
			if !open {
				return nil
			}
			logger.Warn(logWatcherError, zap.Error(watchError))
		case changedPaths := <-service.rebuildRequests:
			logger.Info(logChangeDetected, zap.Strings(logFieldPaths, changedPaths))
			if rebuildError := service.rebuild(ctx, changedPaths); rebuildError != nil && !errors.Is(rebuildError, context.Canceled) {
				logger.Error(logRebuildFailed, zap.Error(rebuildError))
			}
		}
	}
}

func (service *Service) handleEvent(event fsnotify.Event, debouncer *Debouncer) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}
	if !service.isRelevant(event.Name) {
		return
	}
	if event.Has(fsnotify.Create) {
		if info, statError := os.Stat(event.Name); statError == nil && info.IsDir() {
			service.watchDirectory(event.Name)
			service.watchDescendants(event.Name)
		}
	}
	debouncer.Add(event.Name)
}

// requestRebuild merges changedPaths into the pending request so that a burst
// arriving during a rebuild yields one more rebuild, not several.
func (service *Service) requestRebuild(changedPaths []string) {
	for {
		select {
		case service.rebuildRequests <- changedPaths:
			return
		case pendingPaths := <-service.rebuildRequests:
			changedPaths = utils.DeduplicatePatterns(append(pendingPaths, changedPaths...))
		}
	}
}

func (service *Service) watchDescendants(directoryPath string) {
	directoryEntries, readError := os.ReadDir(directoryPath)
	if readError != nil {
		service.options.Logger.Debug(logWatchDirectoryError, zap.String(logFieldPath, directoryPath), zap.Error(readError))
		return
	}
	for _, directoryEntry := range directoryEntries {
		childPath := filepath.Join(directoryPath, directoryEntry.Name())
		if !directoryEntry.IsDir() || !service.isRelevant(childPath) {
			continue
		}
		if service.watchDirectory(childPath) {
			service.watchDescendants(childPath)
		}
	}
}

func (service *Service) watchDirectory(directoryPath string) bool {
	if addError := service.fileWatcher.Add(directoryPath); addError != nil {
		service.options.Logger.Debug(logWatchDirectoryError, zap.String(logFieldPath, directoryPath), zap.Error(addError))
		return false
	}
	service.options.Logger.Debug(logWatchingDirectory, zap.String(logFieldPath, directoryPath))
	return true
}

// isRelevant reports whether a change at changedPath can affect the catalog.
func (service *Service) isRelevant(changedPath string) bool {
	absolutePath, absoluteError := filepath.Abs(changedPath)
	if absoluteError != nil {
		return false
	}
	if _, excluded := service.excludedPaths[absolutePath]; excluded {
		return false
	}
	relativePath := utils.RelativePathOrSelf(absolutePath, service.dataRootPath)
	if relativePath == "." {
		return true
	}
	if strings.HasPrefix(relativePath, "../") || relativePath == ".." {
		return false
	}
	if service.options.SkipHidden {
		for _, pathSegment := range strings.Split(relativePath, "/") {
			if utils.IsHiddenName(pathSegment) {
				return false
			}
		}
	}
	return !utils.ShouldIgnoreByPath(relativePath, service.options.IgnorePatterns)
}

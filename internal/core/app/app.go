package app

import (
	"context"
	"log/slog"
	"sync"

	"cproof/internal/core/config"
	"cproof/internal/core/errors"
	"cproof/internal/core/pipeline"
	"cproof/internal/core/ports"
	"cproof/internal/core/watcher"
	"cproof/internal/data/api"
	"cproof/internal/engine/graph"
	"cproof/internal/engine/parser"
	"cproof/internal/shared/util"
)

// App wires the configuration, the external service clients, and the
// pipeline into a single facade for the CLI and the watcher.
type App struct {
	Config    *config.Config
	annotator ports.Annotator
	verifier  ports.Verifier

	progressMu sync.RWMutex
	onProgress pipeline.ProgressFunc
}

func New(cfg *config.Config) (*App, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, errors.Wrap(err, errors.CodeValidation, "invalid configuration")
	}

	var limiter *util.Limiter
	if cfg.API.Rate.Enabled {
		limiter = util.NewLimiter(cfg.API.Rate.RequestsPerSecond, cfg.API.Rate.Burst)
	}
	opts := api.Options{
		Timeout:   cfg.API.Timeout,
		AuthToken: cfg.API.AuthToken,
		Limiter:   limiter,
	}

	return &App{
		Config:    cfg,
		annotator: api.NewAnnotatorClient(cfg.API.AnnotatorURL, opts),
		verifier:  api.NewVerifierClient(cfg.API.VerifierURL, opts),
	}, nil
}

// WithCollaborators swaps the annotator and verifier, primarily so
// tests can drive the pipeline without live services.
func (a *App) WithCollaborators(annotator ports.Annotator, verifier ports.Verifier) *App {
	a.annotator = annotator
	a.verifier = verifier
	return a
}

// SetProgressHandler registers a callback for stage progress events.
// It may be swapped between runs but not during one.
func (a *App) SetProgressHandler(handler pipeline.ProgressFunc) {
	a.progressMu.Lock()
	defer a.progressMu.Unlock()
	a.onProgress = handler
}

func (a *App) emitProgress(e pipeline.ProgressEvent) {
	a.progressMu.RLock()
	handler := a.onProgress
	a.progressMu.RUnlock()
	if handler != nil {
		handler(e)
	}
}

// Verify runs the full pipeline for one entry file.
func (a *App) Verify(ctx context.Context, entryPath string) pipeline.Result {
	p := pipeline.New(a.Config, a.annotator, a.verifier, a.emitProgress)
	return p.Run(ctx, pipeline.Request{
		EntryPath:   entryPath,
		ProjectRoot: a.Config.Paths.ProjectRoot,
	})
}

// DependencyPaths resolves the entry's include closure without running
// the pipeline. The watcher uses it to know which files to observe.
func (a *App) DependencyPaths(entryPath string) ([]string, error) {
	root := a.Config.Paths.ProjectRoot
	if root == "" {
		return nil, errors.New(errors.CodeValidation, "project root is not configured")
	}
	classifier, err := parser.NewClassifier(root)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeResolution, "invalid project root")
	}
	builder := graph.NewBuilder(classifier, a.Config.Verification.MaxFileSize)
	if !a.Config.Verification.InlineEnabled() {
		builder = builder.WithoutExpansion()
	}
	g, err := builder.Build(entryPath)
	if err != nil {
		return nil, err
	}

	paths := make([]string, 0, g.NodeCount())
	for _, f := range g.Files() {
		paths = append(paths, f.Path)
	}
	return paths, nil
}

// StartWatcher re-verifies entryPath whenever it or any file in its
// include closure changes. Blocks until ctx is cancelled.
func (a *App) StartWatcher(ctx context.Context, entryPath string, onResult func(pipeline.Result)) error {
	var w *watcher.Watcher
	w, err := watcher.New(
		a.Config.Watch.Debounce,
		a.Config.Exclude.Dirs,
		a.Config.Exclude.Files,
		func(paths []string) {
			slog.Info("detected changes", "count", len(paths))
			res := a.Verify(ctx, entryPath)
			if onResult != nil {
				onResult(res)
			}
			// The change may have altered the include closure.
			if deps, err := a.DependencyPaths(entryPath); err == nil {
				if err := w.Rewatch(deps); err != nil {
					slog.Warn("failed to refresh watch set", "error", err)
				}
			}
		},
	)
	if err != nil {
		return err
	}
	defer w.Close()

	deps, err := a.DependencyPaths(entryPath)
	if err != nil {
		return err
	}
	if err := w.Watch(deps); err != nil {
		return err
	}

	<-ctx.Done()
	return nil
}

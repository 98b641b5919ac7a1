// Package pipeline sequences one verification run through the six
// working stages, from Init to Format, with cooperative cancellation
// and per-stage failure classification.
package pipeline

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"cproof/internal/core/config"
	"cproof/internal/core/errors"
	"cproof/internal/core/ports"
	"cproof/internal/engine/graph"
	"cproof/internal/engine/merge"
	"cproof/internal/engine/parser"
	"cproof/internal/shared/observability"
	"cproof/internal/shared/util"
)

// Request identifies one verification run.
type Request struct {
	EntryPath   string
	ProjectRoot string // defaults to the entry file's directory
}

// RunError is the terminal error descriptor of a failed run.
type RunError struct {
	Kind    errors.ErrorCode `json:"kind"`
	Message string           `json:"message"`
	File    string           `json:"file,omitempty"`
}

// Result is the terminal result reported to the external caller. A
// failed run never carries partial merged or annotated artifacts.
type Result struct {
	RunID         string
	Status        Status
	Verification  *ports.VerifyResponse
	Err           *RunError
	Merged        *merge.MergedUnit
	AnnotatedPath string // temp artifact path, empty unless preserved
	Elapsed       time.Duration
}

// Pipeline drives runs. It is stateless between runs; every Run owns
// its own state, so independent runs may execute concurrently.
type Pipeline struct {
	cfg       *config.Config
	annotator ports.Annotator
	verifier  ports.Verifier
	progress  ProgressFunc
}

func New(cfg *config.Config, annotator ports.Annotator, verifier ports.Verifier, progress ProgressFunc) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		annotator: annotator,
		verifier:  verifier,
		progress:  progress,
	}
}

// run is the per-invocation state machine.
type run struct {
	id         string
	stage      Stage
	stageStart time.Time
	progress   ProgressFunc
}

// Run executes the pipeline to a terminal state. Cancellation is
// cooperative via ctx: it is checked at every stage boundary and
// propagated into in-flight external calls, which are asked to abort
// but not guaranteed to stop instantly.
func (p *Pipeline) Run(ctx context.Context, req Request) Result {
	r := &run{id: uuid.NewString(), progress: p.progress}

	ctx, span := observability.Tracer.Start(ctx, "pipeline.Run", trace.WithAttributes(
		attribute.String("run.id", r.id),
		attribute.String("entry.path", req.EntryPath),
	))
	defer span.End()

	start := time.Now()
	res := p.execute(ctx, r, req)
	res.RunID = r.id
	res.Elapsed = time.Since(start)

	observability.RunsTotal.WithLabelValues(res.Status.String()).Inc()
	switch res.Status {
	case StatusDone:
		slog.Info("pipeline completed", "run_id", r.id, "elapsed", res.Elapsed,
			"verified", res.Verification != nil && res.Verification.Verified)
	case StatusCancelled:
		slog.Info("pipeline cancelled", "run_id", r.id, "stage", r.stage)
	case StatusFailed:
		slog.Error("pipeline failed", "run_id", r.id, "kind", res.Err.Kind, "error", res.Err.Message)
	}
	return res
}

func (p *Pipeline) execute(ctx context.Context, r *run, req Request) Result {
	if !r.enter(ctx, StageInit) {
		return r.cancelled()
	}
	projectRoot, err := p.validateEntry(req)
	if err != nil {
		return r.failed(err)
	}

	if !r.enter(ctx, StageResolve) {
		return r.cancelled()
	}
	g, err := p.resolve(req.EntryPath, projectRoot)
	if err != nil {
		return r.failed(err)
	}

	if !r.enter(ctx, StageMerge) {
		return r.cancelled()
	}
	unit, err := merge.Merge(g)
	if err != nil {
		return r.failed(err)
	}

	if !r.enter(ctx, StageAnnotate) {
		return r.cancelled()
	}
	annotated, artifact, err := p.annotate(ctx, r, unit)
	if err != nil {
		if ctx.Err() != nil {
			return r.cancelled()
		}
		return r.failed(coerce(err, errors.CodeAnnotator))
	}

	if !r.enter(ctx, StageVerify) {
		r.cleanupArtifact(artifact, p.cfg.Verification.PreserveTempArtifacts)
		return r.cancelled()
	}
	verification, err := p.verify(ctx, annotated)
	if err != nil {
		r.cleanupArtifact(artifact, p.cfg.Verification.PreserveTempArtifacts)
		if ctx.Err() != nil {
			return r.cancelled()
		}
		return r.failed(coerce(err, errors.CodeVerifier))
	}

	if !r.enter(ctx, StageFormat) {
		r.cleanupArtifact(artifact, p.cfg.Verification.PreserveTempArtifacts)
		return r.cancelled()
	}
	attributeErrors(&verification, unit)
	if !p.cfg.Verification.PreserveTempArtifacts {
		r.cleanupArtifact(artifact, false)
		artifact = ""
	}

	r.stage = StageDone
	return Result{
		Status:        StatusDone,
		Verification:  &verification,
		Merged:        unit,
		AnnotatedPath: artifact,
	}
}

// validateEntry enforces the pre-Resolve rejections: extension not in
// the supported set, missing entry, empty entry, and the byte cap.
func (p *Pipeline) validateEntry(req Request) (string, error) {
	ext := strings.ToLower(filepath.Ext(req.EntryPath))
	supported := false
	for _, e := range p.cfg.Verification.SupportedExtensions {
		if strings.EqualFold(e, ext) {
			supported = true
			break
		}
	}
	if !supported {
		return "", errors.AddContext(
			errors.Newf(errors.CodeValidation, "unsupported file extension %q", ext),
			errors.CtxPath, req.EntryPath)
	}

	info, err := os.Stat(req.EntryPath)
	if err != nil {
		return "", errors.AddContext(
			errors.Wrap(err, errors.CodeValidation, "entry file is not readable"),
			errors.CtxPath, req.EntryPath)
	}
	if info.Size() == 0 {
		return "", errors.AddContext(
			errors.New(errors.CodeValidation, "entry file is empty"),
			errors.CtxPath, req.EntryPath)
	}
	if max := p.cfg.Verification.MaxFileSize; max > 0 && info.Size() > max {
		return "", errors.AddContext(
			errors.Newf(errors.CodeSize, "entry exceeds %d byte cap (%d bytes)", max, info.Size()),
			errors.CtxPath, req.EntryPath)
	}

	root := req.ProjectRoot
	if strings.TrimSpace(root) == "" {
		root = filepath.Dir(req.EntryPath)
	}
	return root, nil
}

func (p *Pipeline) resolve(entryPath, projectRoot string) (*graph.DependencyGraph, error) {
	start := time.Now()
	defer func() {
		observability.ResolveDuration.Observe(time.Since(start).Seconds())
	}()

	classifier, err := parser.NewClassifier(projectRoot)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeResolution, "invalid project root")
	}

	builder := graph.NewBuilder(classifier, p.cfg.Verification.MaxFileSize)
	if !p.cfg.Verification.InlineEnabled() {
		builder = builder.WithoutExpansion()
	}
	g, err := builder.Build(entryPath)
	if err != nil {
		return nil, err
	}

	if cycles := g.DetectCycles(); len(cycles) > 0 {
		slog.Warn("include graph contains cycles; guarded headers merge once each",
			"count", len(cycles))
	}
	for _, ref := range g.Unresolved() {
		slog.Warn("unresolved local include treated as external",
			"target", ref.Target, "line", ref.Line)
	}
	return g, nil
}

func (p *Pipeline) annotate(ctx context.Context, r *run, unit *merge.MergedUnit) (string, string, error) {
	callCtx, cancel := context.WithTimeout(ctx, p.cfg.API.Timeout)
	defer cancel()

	ctx, span := observability.Tracer.Start(callCtx, "pipeline.annotate")
	defer span.End()

	resp, err := p.annotator.Annotate(ctx, ports.AnnotateRequest{Source: unit.Text})
	if err != nil {
		return "", "", err
	}

	annotated := resp.AnnotatedSource
	if strings.TrimSpace(annotated) == "" {
		// Degraded response: proceed with the unannotated merged unit.
		// Missing annotations limit verification precision, nothing more.
		slog.Warn("annotator returned no annotations", "run_id", r.id)
		annotated = unit.Text
	}

	artifact, err := util.SaveTempArtifact(p.cfg.Paths.TempDir, "cproof-annotated-*.c", annotated)
	if err != nil {
		slog.Warn("failed to save annotated artifact", "error", err)
		artifact = ""
	}
	return annotated, artifact, nil
}

func (p *Pipeline) verify(ctx context.Context, annotated string) (ports.VerifyResponse, error) {
	callCtx, cancel := context.WithTimeout(ctx, p.cfg.API.Timeout)
	defer cancel()

	ctx, span := observability.Tracer.Start(callCtx, "pipeline.verify")
	defer span.End()

	return p.verifier.Verify(ctx, ports.VerifyRequest{AnnotatedSource: annotated})
}

// attributeErrors maps verifier line numbers against the merged unit
// back to original project files where possible.
func attributeErrors(v *ports.VerifyResponse, unit *merge.MergedUnit) {
	for i, e := range v.Errors {
		if e.Line <= 0 || e.File != "" {
			continue
		}
		if file, line, ok := unit.Map.Attribute(e.Line); ok {
			v.Errors[i].File = file
			v.Errors[i].Line = line
		}
	}
}

// enter advances the state machine. It observes the previous stage's
// duration, checks the cancellation token, and emits the progress
// event for the new stage. Returns false when the run is cancelled.
func (r *run) enter(ctx context.Context, s Stage) bool {
	r.finishStage()

	if ctx.Err() != nil {
		return false
	}

	r.stage = s
	r.stageStart = time.Now()
	slog.Debug("pipeline stage", "run_id", r.id, "stage", s.String())

	if r.progress != nil {
		r.progress(ProgressEvent{
			RunID:   r.id,
			Stage:   s,
			Ordinal: s.Ordinal(),
			Percent: float64(s.Ordinal()) / workingStages * 100,
		})
	}
	return true
}

func (r *run) finishStage() {
	if r.stageStart.IsZero() {
		return
	}
	observability.StageDuration.WithLabelValues(r.stage.String()).
		Observe(time.Since(r.stageStart).Seconds())
	r.stageStart = time.Time{}
}

func (r *run) failed(err error) Result {
	r.finishStage()
	r.stage = StageFailed
	return Result{
		Status: StatusFailed,
		Err: &RunError{
			Kind:    errors.CodeOf(err),
			Message: err.Error(),
			File:    errors.PathOf(err),
		},
	}
}

func (r *run) cancelled() Result {
	r.finishStage()
	r.stage = StageCancelled
	return Result{Status: StatusCancelled}
}

func (r *run) cleanupArtifact(path string, preserve bool) {
	if path == "" || preserve {
		return
	}
	if err := util.RemoveArtifacts([]string{path}); err != nil {
		slog.Warn("failed to remove temp artifact", "path", path, "error", err)
	}
}

// coerce forces non-domain errors from a collaborator onto the stage's
// taxonomy code without double-wrapping ones already classified.
func coerce(err error, code errors.ErrorCode) error {
	if errors.IsCode(err, code) {
		return err
	}
	return errors.Wrap(err, code, "external call failed")
}

package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/Tomas-vilte/MateGrade/internal/ai"
	"github.com/Tomas-vilte/MateGrade/internal/collector"
	domainErrors "github.com/Tomas-vilte/MateGrade/internal/errors"
	"github.com/Tomas-vilte/MateGrade/internal/feedback"
	"github.com/Tomas-vilte/MateGrade/internal/grading"
	"github.com/Tomas-vilte/MateGrade/internal/logger"
	"github.com/Tomas-vilte/MateGrade/internal/metrics"
	"github.com/Tomas-vilte/MateGrade/internal/models"
	"github.com/Tomas-vilte/MateGrade/internal/ports"
	"github.com/Tomas-vilte/MateGrade/internal/regex"
	"github.com/Tomas-vilte/MateGrade/internal/rules"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// GradingService runs the grading pipeline. It keeps no per-run state and is
// safe for concurrent use.
type GradingService struct {
	criteria   ports.CriteriaStore
	results    ports.ResultStore
	source     ports.RepositorySource
	evaluator  *ai.Evaluator
	collector  *collector.Collector
	engine     *rules.Engine
	parser     *feedback.Parser
	aggregator *grading.Aggregator
	metrics    *metrics.Recorder
	extension  string
	observer   func(Stage)
	now        func() time.Time
}

type GradingOption func(*GradingService)

func WithCollector(c *collector.Collector) GradingOption {
	return func(s *GradingService) {
		s.collector = c
	}
}

func WithAggregator(a *grading.Aggregator) GradingOption {
	return func(s *GradingService) {
		s.aggregator = a
	}
}

func WithMetrics(r *metrics.Recorder) GradingOption {
	return func(s *GradingService) {
		s.metrics = r
	}
}

// WithExtension sets the source file extension to grade.
func WithExtension(ext string) GradingOption {
	return func(s *GradingService) {
		s.extension = ext
	}
}

// WithStageObserver registers a callback invoked on every stage change.
func WithStageObserver(fn func(Stage)) GradingOption {
	return func(s *GradingService) {
		s.observer = fn
	}
}

func NewGradingService(
	criteria ports.CriteriaStore,
	results ports.ResultStore,
	source ports.RepositorySource,
	evaluator *ai.Evaluator,
	opts ...GradingOption,
) *GradingService {
	s := &GradingService{
		criteria:   criteria,
		results:    results,
		source:     source,
		evaluator:  evaluator,
		collector:  collector.NewCollector(nil),
		engine:     rules.NewEngine(),
		parser:     feedback.NewParser(),
		aggregator: grading.NewAggregator(0),
		extension:  collector.DefaultExtension,
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StudentIDFromURL returns the account that owns a GitHub repository URL,
// or models.UnknownStudent.
func StudentIDFromURL(repoURL string) string {
	if m := regex.GitHubOwner.FindStringSubmatch(repoURL); len(m) > 1 && m[1] != "" {
		return m[1]
	}
	return models.UnknownStudent
}

// GradeAssignment grades one submission and appends the result. When only
// persistence fails, the computed result is returned together with the error.
func (s *GradingService) GradeAssignment(ctx context.Context, req models.GradeRequest) (*models.GradingResult, error) {
	studentID := StudentIDFromURL(req.RepoURL)
	ctx = logger.With(ctx, "assignment", req.AssignmentName, "student", studentID)
	run := newPipelineRun(s)

	if err := validateRequest(req); err != nil {
		return nil, run.fail(ctx, err)
	}

	run.enter(ctx, StageLoadingCriteria)
	criteria, err := s.criteria.GetCriteria(ctx, req.AssignmentName)
	if err != nil {
		return nil, run.fail(ctx, err)
	}

	run.enter(ctx, StageAcquiring)
	ws, err := s.source.Acquire(ctx, ports.AcquireRequest{
		URL:        req.RepoURL,
		Credential: req.Credential,
		Subfolder:  req.AssignmentName,
	})
	if err != nil {
		return nil, run.fail(ctx, err)
	}
	defer func() {
		if cerr := ws.Close(); cerr != nil {
			logger.Warn(ctx, "could not remove working directory", "path", ws.Root, "error", cerr)
		}
	}()

	run.enter(ctx, StageCollecting)
	files, err := s.collector.Collect(ctx, ws.Root, req.AssignmentName, s.extension)
	if err != nil {
		return nil, run.fail(ctx, err)
	}

	run.enter(ctx, StageEvaluating, "count", len(files))
	var (
		ruleOutcome rules.Outcome
		evaluation  ai.Evaluation
		parsed      feedback.Outcome
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ruleOutcome = s.engine.Evaluate(gctx, files, criteria.Rules)
		return nil
	})
	g.Go(func() error {
		evaluation = s.evaluator.Evaluate(gctx, files, criteria.Rubric, req.EvaluatorAPIKey)
		if evaluation.Available {
			parsed = s.parser.Parse(gctx, evaluation.Feedback)
		}
		return nil
	})
	_ = g.Wait()

	s.metrics.RulesSkipped(len(ruleOutcome.Skipped))
	if !evaluation.Available {
		s.metrics.EvaluatorUnavailable()
	}
	if evaluation.Truncated {
		s.metrics.PromptTruncated()
	}

	run.enter(ctx, StageAggregating)
	report := s.aggregator.Aggregate(ruleOutcome, parsed, evaluation)
	result := &models.GradingResult{
		ID:             uuid.NewString(),
		AssignmentName: req.AssignmentName,
		StudentID:      studentID,
		Grade:          report.Grade,
		Feedback:       report.Feedback,
		CreatedAt:      s.now(),
	}
	s.metrics.ObserveGrade(report.Grade)

	run.enter(ctx, StagePersisting, "grade", report.Grade)
	if err := s.results.Save(ctx, result); err != nil {
		run.finish(ctx, StageFailed, metrics.OutcomePersistFailed)
		if !domainErrors.IsType(err, domainErrors.TypePersistence) {
			err = domainErrors.ErrSaveResult.WithError(err)
		}
		err = withStage(err, StagePersisting)
		logger.Error(ctx, "grading result not saved", err, "grade", report.Grade)
		return result, err
	}

	run.finish(ctx, StageDone, metrics.OutcomeSuccess)
	logger.Info(ctx, "assignment graded", "grade", result.Grade, "id", result.ID)
	return result, nil
}

func validateRequest(req models.GradeRequest) error {
	if strings.TrimSpace(req.AssignmentName) == "" {
		return domainErrors.ErrMissingArgument.WithContext("argument", "assignment")
	}
	if strings.TrimSpace(req.RepoURL) == "" {
		return domainErrors.ErrMissingArgument.WithContext("argument", "repo")
	}
	if !filepath.IsLocal(filepath.FromSlash(req.AssignmentName)) {
		return domainErrors.ErrConfigInvalid.
			WithError(fmt.Errorf("assignment name %q is not a relative folder", req.AssignmentName))
	}
	return nil
}

// pipelineRun tracks the stage of a single GradeAssignment call.
type pipelineRun struct {
	svc     *GradingService
	stage   Stage
	started time.Time
}

func newPipelineRun(s *GradingService) *pipelineRun {
	return &pipelineRun{svc: s, stage: StageIdle, started: time.Now()}
}

func (r *pipelineRun) enter(ctx context.Context, to Stage, args ...any) {
	if !r.stage.CanTransition(to) {
		logger.Error(ctx, "illegal pipeline transition",
			fmt.Errorf("%s -> %s", r.stage, to))
	}
	r.observe()

	r.stage = to
	r.started = time.Now()
	logger.Debug(ctx, "pipeline stage", append([]any{"stage", string(to)}, args...)...)
	if r.svc.observer != nil {
		r.svc.observer(to)
	}
}

func (r *pipelineRun) observe() {
	if r.stage != StageIdle {
		r.svc.metrics.ObserveStage(string(r.stage), time.Since(r.started))
	}
}

func (r *pipelineRun) finish(ctx context.Context, to Stage, outcome string) {
	failedAt := r.stage
	r.observe()
	r.stage = to
	r.svc.metrics.ObserveGrading(outcome)
	if to == StageFailed {
		logger.Debug(ctx, "pipeline stage", "stage", string(to), "failed_at", string(failedAt))
	}
	if r.svc.observer != nil {
		r.svc.observer(to)
	}
}

// fail moves the run to Failed and returns err annotated with the stage it
// failed in.
func (r *pipelineRun) fail(ctx context.Context, err error) error {
	stage := r.stage
	err = withStage(err, stage)
	logger.Error(ctx, "grading failed", err, "stage", string(stage))
	r.finish(ctx, StageFailed, metrics.OutcomeFailed)
	return err
}

func withStage(err error, stage Stage) error {
	var appErr *domainErrors.AppError
	if errors.As(err, &appErr) {
		return appErr.WithContext("stage", string(stage))
	}
	return domainErrors.NewAppError(domainErrors.TypeInternal, "Unexpected grading failure", err).
		WithContext("stage", string(stage))
}

package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domainErrors "github.com/Tomas-vilte/MateGrade/internal/errors"
	"github.com/Tomas-vilte/MateGrade/internal/logger"
	"github.com/Tomas-vilte/MateGrade/internal/models"
	"github.com/Tomas-vilte/MateGrade/internal/ports"
)

const DefaultTimeout = 120 * time.Second

// Evaluation is the outcome of a rubric evaluation. When Available is false
// Feedback holds the unavailability notice and Cause the reason.
type Evaluation struct {
	Feedback  string
	Available bool
	Truncated bool
	Cause     error
}

// Evaluator grades source files against a natural-language rubric using a
// text generation model. It never fails: errors degrade to an unavailable
// Evaluation so grading can continue with regex rules only.
type Evaluator struct {
	generator ports.TextGenerator
	maxChars  int
	timeout   time.Duration
}

func NewEvaluator(generator ports.TextGenerator, maxChars int, timeout time.Duration) *Evaluator {
	if maxChars <= 0 {
		maxChars = DefaultMaxPromptChars
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Evaluator{
		generator: generator,
		maxChars:  maxChars,
		timeout:   timeout,
	}
}

func (e *Evaluator) Evaluate(ctx context.Context, files []models.SourceFile, rubric, apiKey string) Evaluation {
	prompt, truncated, err := BuildGradingPrompt(rubric, files, e.maxChars)
	if err != nil {
		return e.unavailable(ctx, domainErrors.NewAppError(domainErrors.TypeInternal, "Failed to build prompt", err), apiKey, truncated)
	}
	if truncated {
		logger.Info(ctx, "code context truncated", "max_chars", e.maxChars, "count", len(files))
	}

	if e.generator == nil {
		return e.unavailable(ctx, domainErrors.ErrProviderNotFound, apiKey, truncated)
	}
	if strings.TrimSpace(apiKey) == "" {
		return e.unavailable(ctx, domainErrors.ErrAPIKeyMissing, apiKey, truncated)
	}

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	text, err := e.generator.Generate(callCtx, prompt, apiKey)
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) && !domainErrors.IsType(err, domainErrors.TypeEvaluator) {
			err = domainErrors.ErrEvaluatorTimeout.WithContext("timeout", e.timeout.String())
		}
		return e.unavailable(ctx, err, apiKey, truncated)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return e.unavailable(ctx, domainErrors.ErrEvaluatorResponse.WithError(errors.New("empty response")), apiKey, truncated)
	}

	logger.Debug(ctx, "rubric evaluated", "duration_ms", time.Since(start).Milliseconds())
	return Evaluation{
		Feedback:  text,
		Available: true,
		Truncated: truncated,
	}
}

func (e *Evaluator) unavailable(ctx context.Context, cause error, apiKey string, truncated bool) Evaluation {
	reason := describe(cause, apiKey)
	logger.Warn(ctx, "AI evaluation unavailable, continuing with regex rules only", "cause", reason)
	return Evaluation{
		Feedback:  UnavailableFeedback(reason),
		Available: false,
		Truncated: truncated,
		Cause:     cause,
	}
}

// UnavailableFeedback is the detailed feedback used when no model output
// could be obtained.
func UnavailableFeedback(reason string) string {
	return fmt.Sprintf("[AI evaluation unavailable: %s] Could not perform AI-assisted grading. Only regex checks were applied.", reason)
}

func describe(err error, apiKey string) string {
	var reason string
	var appErr *domainErrors.AppError
	if errors.As(err, &appErr) {
		reason = appErr.Message
		if appErr.Err != nil {
			reason = fmt.Sprintf("%s: %v", reason, appErr.Err)
		}
	} else {
		reason = err.Error()
	}
	if apiKey != "" {
		reason = strings.ReplaceAll(reason, apiKey, "***")
	}
	return reason
}

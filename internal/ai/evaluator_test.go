package ai

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	domainErrors "github.com/Tomas-vilte/MateGrade/internal/errors"
	"github.com/Tomas-vilte/MateGrade/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

var sampleFiles = []models.SourceFile{{Path: "Main.java", Content: "class Main {}"}}

func TestEvaluator_Evaluate(t *testing.T) {
	ctx := context.Background()

	t.Run("returns trimmed model feedback", func(t *testing.T) {
		gen := &MockTextGenerator{}
		gen.On("Generate", mock.Anything, mock.MatchedBy(func(p string) bool {
			return strings.Contains(p, "GRADING RUBRIC:\nevaluate design") && strings.Contains(p, "FILE: Main.java")
		}), "key").Return("\n[-10 points] Missing error handling\n", nil).Once()

		eval := NewEvaluator(gen, 0, time.Second).Evaluate(ctx, sampleFiles, "evaluate design", "key")

		assert.True(t, eval.Available)
		assert.Equal(t, "[-10 points] Missing error handling", eval.Feedback)
		assert.NoError(t, eval.Cause)
		gen.AssertExpectations(t)
	})

	t.Run("generator failure degrades softly", func(t *testing.T) {
		gen := &MockTextGenerator{}
		gen.On("Generate", mock.Anything, mock.Anything, "key").
			Return("", domainErrors.ErrEvaluatorQuota).Once()

		eval := NewEvaluator(gen, 0, time.Second).Evaluate(ctx, sampleFiles, "rubric", "key")

		assert.False(t, eval.Available)
		assert.True(t, errors.Is(eval.Cause, domainErrors.ErrEvaluatorQuota))
		assert.Equal(t,
			"[AI evaluation unavailable: AI quota exceeded or rate limited] Could not perform AI-assisted grading. Only regex checks were applied.",
			eval.Feedback)
	})

	t.Run("missing api key never calls the model", func(t *testing.T) {
		gen := &MockTextGenerator{}

		eval := NewEvaluator(gen, 0, time.Second).Evaluate(ctx, sampleFiles, "rubric", "")

		assert.False(t, eval.Available)
		assert.True(t, errors.Is(eval.Cause, domainErrors.ErrAPIKeyMissing))
		gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("empty response is malformed", func(t *testing.T) {
		gen := &MockTextGenerator{}
		gen.On("Generate", mock.Anything, mock.Anything, "key").Return("   \n", nil).Once()

		eval := NewEvaluator(gen, 0, time.Second).Evaluate(ctx, sampleFiles, "rubric", "key")

		assert.False(t, eval.Available)
		assert.True(t, errors.Is(eval.Cause, domainErrors.ErrEvaluatorResponse))
	})

	t.Run("timeout", func(t *testing.T) {
		gen := &MockTextGenerator{}
		gen.On("Generate", mock.Anything, mock.Anything, "key").
			Run(func(args mock.Arguments) {
				<-args.Get(0).(context.Context).Done()
			}).
			Return("", context.DeadlineExceeded).Once()

		eval := NewEvaluator(gen, 0, 20*time.Millisecond).Evaluate(ctx, sampleFiles, "rubric", "key")

		assert.False(t, eval.Available)
		assert.True(t, errors.Is(eval.Cause, domainErrors.ErrEvaluatorTimeout))
	})

	t.Run("api key never leaks into the feedback", func(t *testing.T) {
		gen := &MockTextGenerator{}
		gen.On("Generate", mock.Anything, mock.Anything, "AIzaSecret").
			Return("", errors.New("request to ?key=AIzaSecret failed")).Once()

		eval := NewEvaluator(gen, 0, time.Second).Evaluate(ctx, sampleFiles, "rubric", "AIzaSecret")

		assert.False(t, eval.Available)
		assert.NotContains(t, eval.Feedback, "AIzaSecret")
		assert.Contains(t, eval.Feedback, "***")
	})

	t.Run("no generator configured", func(t *testing.T) {
		eval := NewEvaluator(nil, 0, time.Second).Evaluate(ctx, sampleFiles, "rubric", "key")

		assert.False(t, eval.Available)
		assert.True(t, errors.Is(eval.Cause, domainErrors.ErrProviderNotFound))
	})

	t.Run("reports truncation", func(t *testing.T) {
		gen := &MockTextGenerator{}
		gen.On("Generate", mock.Anything, mock.Anything, "key").Return("Looks fine.", nil).Once()

		files := []models.SourceFile{{Path: "Big.java", Content: strings.Repeat("x", 200)}}
		eval := NewEvaluator(gen, 100, time.Second).Evaluate(ctx, files, "rubric", "key")

		assert.True(t, eval.Available)
		assert.True(t, eval.Truncated)
	})
}

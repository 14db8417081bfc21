package results

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Tomas-vilte/MateGrade/internal/config"
	domainErrors "github.com/Tomas-vilte/MateGrade/internal/errors"
	"github.com/Tomas-vilte/MateGrade/internal/i18n"
	"github.com/Tomas-vilte/MateGrade/internal/models"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

func init() {
	color.NoColor = true
}

func setupResultsTest(t *testing.T, lister Lister) (*cli.Command, *bytes.Buffer) {
	t.Helper()
	translations, err := i18n.NewTranslations("en", "")
	require.NoError(t, err)

	var out bytes.Buffer
	factory := NewResultsCommandFactory(func(context.Context) (Lister, error) {
		return lister, nil
	})
	factory.out = &out

	return &cli.Command{Commands: []*cli.Command{factory.CreateCommand(translations, config.DefaultConfig())}}, &out
}

var stored = []models.GradingResult{
	{
		ID:             "r-1",
		AssignmentName: "strategy",
		StudentID:      "alice",
		Grade:          80,
		Feedback:       "GRADE: 80/100\n",
		CreatedAt:      time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	},
	{
		ID:             "r-2",
		AssignmentName: "strategy",
		StudentID:      "alice",
		Grade:          95,
		Feedback:       "GRADE: 95/100\n",
		CreatedAt:      time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
	},
}

func TestResultsListCommand(t *testing.T) {
	ctx := context.Background()

	t.Run("should list filtered results", func(t *testing.T) {
		// Arrange
		lister := &MockLister{}
		app, out := setupResultsTest(t, lister)
		lister.On("ListResults", mock.Anything, models.ResultFilter{AssignmentName: "strategy", StudentID: "alice"}).
			Return(stored, nil).Once()

		// Act
		err := app.Run(ctx, []string{"mate-grade", "results", "list", "-a", "strategy", "-s", "alice"})

		// Assert
		require.NoError(t, err)
		assert.Contains(t, out.String(), "Found 2 results")
		assert.Contains(t, out.String(), " 80/100")
		assert.Contains(t, out.String(), " 95/100")
		assert.NotContains(t, out.String(), "GRADE:")
		lister.AssertExpectations(t)
	})

	t.Run("should include feedback on request", func(t *testing.T) {
		// Arrange
		lister := &MockLister{}
		app, out := setupResultsTest(t, lister)
		lister.On("ListResults", mock.Anything, models.ResultFilter{}).Return(stored[:1], nil).Once()

		// Act
		err := app.Run(ctx, []string{"mate-grade", "results", "list", "--feedback"})

		// Assert
		require.NoError(t, err)
		assert.Contains(t, out.String(), "    GRADE: 80/100")
	})

	t.Run("should print json", func(t *testing.T) {
		// Arrange
		lister := &MockLister{}
		app, out := setupResultsTest(t, lister)
		lister.On("ListResults", mock.Anything, models.ResultFilter{}).Return(stored, nil).Once()

		// Act
		err := app.Run(ctx, []string{"mate-grade", "results", "list", "--format", "json"})

		// Assert
		require.NoError(t, err)
		var decoded []models.GradingResult
		require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
		assert.Equal(t, stored, decoded)
	})

	t.Run("should print an empty json list", func(t *testing.T) {
		// Arrange
		lister := &MockLister{}
		app, out := setupResultsTest(t, lister)
		lister.On("ListResults", mock.Anything, models.ResultFilter{}).Return(nil, nil).Once()

		// Act
		err := app.Run(ctx, []string{"mate-grade", "results", "list", "--format", "json"})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "[]\n", out.String())
	})

	t.Run("should report no results", func(t *testing.T) {
		// Arrange
		lister := &MockLister{}
		app, out := setupResultsTest(t, lister)
		lister.On("ListResults", mock.Anything, models.ResultFilter{}).Return([]models.GradingResult{}, nil).Once()

		// Act
		err := app.Run(ctx, []string{"mate-grade", "results", "list"})

		// Assert
		require.NoError(t, err)
		assert.Contains(t, out.String(), "No grading results found.")
	})

	t.Run("should reject unknown formats", func(t *testing.T) {
		// Arrange
		lister := &MockLister{}
		app, _ := setupResultsTest(t, lister)

		// Act
		err := app.Run(ctx, []string{"mate-grade", "results", "list", "--format", "xml"})

		// Assert
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Unknown output format xml")
		lister.AssertNotCalled(t, "ListResults", mock.Anything, mock.Anything)
	})

	t.Run("should fail for unknown assignments", func(t *testing.T) {
		// Arrange
		lister := &MockLister{}
		app, _ := setupResultsTest(t, lister)
		lister.On("ListResults", mock.Anything, models.ResultFilter{AssignmentName: "missing"}).
			Return(nil, domainErrors.ErrAssignmentNotFound).Once()

		// Act
		err := app.Run(ctx, []string{"mate-grade", "results", "list", "-a", "missing"})

		// Assert
		assert.True(t, errors.Is(err, domainErrors.ErrAssignmentNotFound))
	})
}

package criteria

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Tomas-vilte/MateGrade/internal/config"
	domainErrors "github.com/Tomas-vilte/MateGrade/internal/errors"
	"github.com/Tomas-vilte/MateGrade/internal/i18n"
	"github.com/Tomas-vilte/MateGrade/internal/models"
	"github.com/Tomas-vilte/MateGrade/internal/ports"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

func init() {
	color.NoColor = true
}

func setupCriteriaTest(t *testing.T, manager Manager) (*cli.Command, *bytes.Buffer) {
	t.Helper()
	return setupCriteriaTestWithFetcher(t, manager, nil)
}

func setupCriteriaTestWithFetcher(t *testing.T, manager Manager, fetcher *MockFileFetcher) (*cli.Command, *bytes.Buffer) {
	t.Helper()
	translations, err := i18n.NewTranslations("en", "")
	require.NoError(t, err)
	cfg := config.DefaultConfig()
	cfg.GitHubToken = "ghp_config"

	var out bytes.Buffer
	var f ports.FileFetcher
	if fetcher != nil {
		f = fetcher
	}
	factory := NewCriteriaCommandFactory(func(context.Context) (Manager, error) {
		return manager, nil
	}, f)
	factory.out = &out

	return &cli.Command{Commands: []*cli.Command{factory.CreateCommand(translations, cfg)}}, &out
}

func TestCriteriaSetCommand(t *testing.T) {
	ctx := context.Background()

	t.Run("should upload the file", func(t *testing.T) {
		// Arrange
		manager := &MockManager{}
		app, out := setupCriteriaTest(t, manager)
		path := filepath.Join(t.TempDir(), "rubric.json")
		data := []byte(`{"natural_language_rubric": "Use strategy", "regex_checks": [{"pattern": "(?<=a)", "deduction": 1, "message": "bad"}]}`)
		require.NoError(t, os.WriteFile(path, data, 0o644))

		manager.On("SaveCriteria", mock.Anything, "strategy", path, data).Return(&models.Criteria{
			AssignmentName: "strategy",
			Rubric:         "Use strategy",
			Rules:          []models.RegexRule{{Pattern: "(?<=a)", Deduction: 1, Message: "bad"}},
		}, nil).Once()

		// Act
		err := app.Run(ctx, []string{"mate-grade", "criteria", "set", "--assignment", "strategy", path})

		// Assert
		require.NoError(t, err)
		assert.Contains(t, out.String(), "Criteria for strategy saved.")
		assert.Contains(t, out.String(), "1 regex checks are invalid")
		manager.AssertExpectations(t)
	})

	t.Run("should fail when the file cannot be read", func(t *testing.T) {
		// Arrange
		manager := &MockManager{}
		app, _ := setupCriteriaTest(t, manager)

		// Act
		err := app.Run(ctx, []string{"mate-grade", "criteria", "set", "-a", "strategy", filepath.Join(t.TempDir(), "missing.json")})

		// Assert
		assert.True(t, errors.Is(err, domainErrors.ErrInvalidCriteria))
		manager.AssertNotCalled(t, "SaveCriteria", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("should fetch the file from a repository", func(t *testing.T) {
		// Arrange
		manager := &MockManager{}
		fetcher := &MockFileFetcher{}
		app, out := setupCriteriaTestWithFetcher(t, manager, fetcher)
		data := []byte("Grade the design.")
		fetcher.On("FetchFile", mock.Anything, "rubrics/strategy.txt", "https://github.com/course/rubrics", "ghp_config").
			Return(data, nil).Once()
		manager.On("SaveCriteria", mock.Anything, "strategy", "rubrics/strategy.txt", data).
			Return(&models.Criteria{AssignmentName: "strategy", Rubric: "Grade the design."}, nil).Once()

		// Act
		err := app.Run(ctx, []string{"mate-grade", "criteria", "set", "-a", "strategy",
			"--repo", "https://github.com/course/rubrics", "rubrics/strategy.txt"})

		// Assert
		require.NoError(t, err)
		assert.Contains(t, out.String(), "Criteria for strategy saved.")
		fetcher.AssertExpectations(t)
		manager.AssertExpectations(t)
	})

	t.Run("should propagate fetch errors", func(t *testing.T) {
		// Arrange
		manager := &MockManager{}
		fetcher := &MockFileFetcher{}
		app, _ := setupCriteriaTestWithFetcher(t, manager, fetcher)
		fetcher.On("FetchFile", mock.Anything, "rubric.txt", "https://github.com/course/rubrics", "ghp_flag").
			Return(nil, domainErrors.ErrRepoNotFound).Once()

		// Act
		err := app.Run(ctx, []string{"mate-grade", "criteria", "set", "-a", "strategy",
			"--repo", "https://github.com/course/rubrics", "--token", "ghp_flag", "rubric.txt"})

		// Assert
		assert.True(t, errors.Is(err, domainErrors.ErrRepoNotFound))
		manager.AssertNotCalled(t, "SaveCriteria", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("should require a file", func(t *testing.T) {
		// Arrange
		app, _ := setupCriteriaTest(t, &MockManager{})

		// Act
		err := app.Run(ctx, []string{"mate-grade", "criteria", "set", "-a", "strategy"})

		// Assert
		assert.True(t, errors.Is(err, domainErrors.ErrMissingArgument))
	})
}

func TestCriteriaShowCommand(t *testing.T) {
	ctx := context.Background()

	t.Run("should print rubric and rules", func(t *testing.T) {
		// Arrange
		manager := &MockManager{}
		app, out := setupCriteriaTest(t, manager)
		manager.On("GetCriteria", mock.Anything, "strategy").Return(&models.Criteria{
			AssignmentName: "strategy",
			Rubric:         "Use the strategy pattern",
			Rules:          []models.RegexRule{{Pattern: `System\.out\.println`, Deduction: 5, Message: "debug print"}},
		}, nil).Once()

		// Act
		err := app.Run(ctx, []string{"mate-grade", "criteria", "show", "-a", "strategy"})

		// Assert
		require.NoError(t, err)
		assert.Contains(t, out.String(), "Use the strategy pattern")
		assert.Contains(t, out.String(), `[-5 points] System\.out\.println : debug print`)
	})

	t.Run("should report rubric without rules", func(t *testing.T) {
		// Arrange
		manager := &MockManager{}
		app, out := setupCriteriaTest(t, manager)
		manager.On("GetCriteria", mock.Anything, "strategy").
			Return(&models.Criteria{AssignmentName: "strategy", Rubric: "Grade it"}, nil).Once()

		// Act
		err := app.Run(ctx, []string{"mate-grade", "criteria", "show", "-a", "strategy"})

		// Assert
		require.NoError(t, err)
		assert.Contains(t, out.String(), "No regex checks.")
	})

	t.Run("should fail when criteria are missing", func(t *testing.T) {
		// Arrange
		manager := &MockManager{}
		app, _ := setupCriteriaTest(t, manager)
		manager.On("GetCriteria", mock.Anything, "strategy").Return(nil, domainErrors.ErrCriteriaNotFound).Once()

		// Act
		err := app.Run(ctx, []string{"mate-grade", "criteria", "show", "-a", "strategy"})

		// Assert
		assert.True(t, errors.Is(err, domainErrors.ErrCriteriaNotFound))
	})
}

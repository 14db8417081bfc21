package grade

import (
	"context"
	"io"
	"os"

	"github.com/Tomas-vilte/MateGrade/internal/config"
	"github.com/Tomas-vilte/MateGrade/internal/i18n"
	"github.com/Tomas-vilte/MateGrade/internal/models"
	"github.com/Tomas-vilte/MateGrade/internal/services"
	"github.com/Tomas-vilte/MateGrade/internal/ui"
	"github.com/urfave/cli/v3"
)

type Grader interface {
	GradeAssignment(ctx context.Context, req models.GradeRequest) (*models.GradingResult, error)
}

// GraderProvider builds the grading service when the command runs. observer
// receives every pipeline stage.
type GraderProvider func(ctx context.Context, observer func(services.Stage)) (Grader, error)

type GradeCommandFactory struct {
	provider GraderProvider
	out      io.Writer
}

func NewGradeCommandFactory(provider GraderProvider) *GradeCommandFactory {
	return &GradeCommandFactory{
		provider: provider,
		out:      os.Stdout,
	}
}

func (f *GradeCommandFactory) CreateCommand(t *i18n.Translations, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:    "grade",
		Aliases: []string{"g"},
		Usage:   t.GetMessage("grade_usage", 0, nil),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "assignment",
				Aliases:  []string{"a"},
				Usage:    t.GetMessage("grade_assignment_flag", 0, nil),
				Required: true,
			},
			&cli.StringFlag{
				Name:     "repo",
				Aliases:  []string{"r"},
				Usage:    t.GetMessage("grade_repo_flag", 0, nil),
				Required: true,
			},
			&cli.StringFlag{
				Name:    "token",
				Aliases: []string{"t"},
				Usage:   t.GetMessage("grade_token_flag", 0, nil),
			},
			&cli.StringFlag{
				Name:  "api-key",
				Usage: t.GetMessage("grade_api_key_flag", 0, nil),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			req := models.GradeRequest{
				AssignmentName:  cmd.String("assignment"),
				RepoURL:         cmd.String("repo"),
				Credential:      firstNonEmpty(cmd.String("token"), cfg.GitHubToken),
				EvaluatorAPIKey: firstNonEmpty(cmd.String("api-key"), cfg.GeminiAPIKey),
			}
			return f.grade(ctx, t, req)
		},
	}
}

func (f *GradeCommandFactory) grade(ctx context.Context, t *i18n.Translations, req models.GradeRequest) error {
	running := t.GetMessage("grade_running", 0, map[string]interface{}{
		"Assignment": req.AssignmentName,
		"Student":    services.StudentIDFromURL(req.RepoURL),
	})
	spinner := ui.NewSmartSpinner(running)

	grader, err := f.provider(ctx, func(stage services.Stage) {
		spinner.UpdateMessage(t.GetMessage("grade_stage", 0, map[string]interface{}{"Stage": string(stage)}))
	})
	if err != nil {
		return err
	}

	ui.PrintInfo(f.out, running)
	spinner.Start()
	result, err := grader.GradeAssignment(ctx, req)
	spinner.Stop()

	if result == nil {
		return err
	}

	_, _ = io.WriteString(f.out, result.Feedback+"\n\n")
	if err != nil {
		ui.PrintWarning(f.out, t.GetMessage("grade_not_saved", 0, nil))
		return err
	}
	ui.PrintSuccess(f.out, t.GetMessage("grade_saved", 0, map[string]interface{}{"ID": result.ID}))
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

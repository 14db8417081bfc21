package results

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Tomas-vilte/MateGrade/internal/config"
	"github.com/Tomas-vilte/MateGrade/internal/i18n"
	"github.com/Tomas-vilte/MateGrade/internal/models"
	"github.com/Tomas-vilte/MateGrade/internal/ui"
	"github.com/fatih/color"
	"github.com/urfave/cli/v3"
)

const (
	formatText = "text"
	formatJSON = "json"
)

type Lister interface {
	ListResults(ctx context.Context, filter models.ResultFilter) ([]models.GradingResult, error)
}

type ListerProvider func(ctx context.Context) (Lister, error)

type ResultsCommandFactory struct {
	provider ListerProvider
	out      io.Writer
}

func NewResultsCommandFactory(provider ListerProvider) *ResultsCommandFactory {
	return &ResultsCommandFactory{
		provider: provider,
		out:      os.Stdout,
	}
}

func (f *ResultsCommandFactory) CreateCommand(t *i18n.Translations, _ *config.Config) *cli.Command {
	return &cli.Command{
		Name:    "results",
		Aliases: []string{"r"},
		Usage:   t.GetMessage("results_usage", 0, nil),
		Commands: []*cli.Command{
			f.newListCommand(t),
		},
	}
}

func (f *ResultsCommandFactory) newListCommand(t *i18n.Translations) *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   t.GetMessage("results_list_usage", 0, nil),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "assignment",
				Aliases: []string{"a"},
				Usage:   t.GetMessage("results_assignment_flag", 0, nil),
			},
			&cli.StringFlag{
				Name:    "student",
				Aliases: []string{"s"},
				Usage:   t.GetMessage("results_student_flag", 0, nil),
			},
			&cli.BoolFlag{
				Name:  "feedback",
				Usage: t.GetMessage("results_feedback_flag", 0, nil),
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: t.GetMessage("results_format_flag", 0, nil),
				Value: formatText,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			format := strings.ToLower(cmd.String("format"))
			if format != formatText && format != formatJSON {
				return errors.New(t.GetMessage("results_unknown_format", 0, map[string]interface{}{"Format": format}))
			}

			lister, err := f.provider(ctx)
			if err != nil {
				return err
			}
			results, err := lister.ListResults(ctx, models.ResultFilter{
				AssignmentName: cmd.String("assignment"),
				StudentID:      cmd.String("student"),
			})
			if err != nil {
				return err
			}

			if format == formatJSON {
				return f.printJSON(results)
			}
			f.printText(t, results, cmd.Bool("feedback"))
			return nil
		},
	}
}

func (f *ResultsCommandFactory) printJSON(results []models.GradingResult) error {
	if results == nil {
		results = []models.GradingResult{}
	}
	enc := json.NewEncoder(f.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("error encoding results: %w", err)
	}
	return nil
}

func (f *ResultsCommandFactory) printText(t *i18n.Translations, results []models.GradingResult, withFeedback bool) {
	if len(results) == 0 {
		ui.PrintInfo(f.out, t.GetMessage("results_empty", 0, nil))
		return
	}

	ui.PrintInfo(f.out, t.GetMessage("results_header", 0, map[string]interface{}{"Count": len(results)}))
	for _, r := range results {
		_, _ = fmt.Fprintf(f.out, "%s  %-20s %-20s %s  %s\n",
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			r.AssignmentName,
			r.StudentID,
			gradeColor(r.Grade).Sprintf("%3d/100", r.Grade),
			ui.Dim.Sprint(r.ID))
		if withFeedback {
			for _, line := range strings.Split(r.Feedback, "\n") {
				_, _ = fmt.Fprintf(f.out, "    %s\n", line)
			}
			_, _ = fmt.Fprintln(f.out)
		}
	}
}

func gradeColor(grade int) *color.Color {
	switch {
	case grade >= 80:
		return color.New(color.FgGreen)
	case grade >= 60:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgRed)
	}
}

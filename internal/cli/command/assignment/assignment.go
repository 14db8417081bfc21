package assignment

import (
	"context"
	"io"
	"os"

	"github.com/Tomas-vilte/MateGrade/internal/config"
	domainErrors "github.com/Tomas-vilte/MateGrade/internal/errors"
	"github.com/Tomas-vilte/MateGrade/internal/i18n"
	"github.com/Tomas-vilte/MateGrade/internal/models"
	"github.com/Tomas-vilte/MateGrade/internal/ui"
	"github.com/urfave/cli/v3"
)

type Creator interface {
	CreateAssignment(ctx context.Context, name string) (*models.Assignment, error)
}

type CreatorProvider func(ctx context.Context) (Creator, error)

type AssignmentCommandFactory struct {
	provider CreatorProvider
	out      io.Writer
}

func NewAssignmentCommandFactory(provider CreatorProvider) *AssignmentCommandFactory {
	return &AssignmentCommandFactory{
		provider: provider,
		out:      os.Stdout,
	}
}

func (f *AssignmentCommandFactory) CreateCommand(t *i18n.Translations, _ *config.Config) *cli.Command {
	return &cli.Command{
		Name:    "assignment",
		Aliases: []string{"as"},
		Usage:   t.GetMessage("assignment_usage", 0, nil),
		Commands: []*cli.Command{
			f.newCreateCommand(t),
		},
	}
}

func (f *AssignmentCommandFactory) newCreateCommand(t *i18n.Translations) *cli.Command {
	return &cli.Command{
		Name:      "create",
		Usage:     t.GetMessage("assignment_create_usage", 0, nil),
		ArgsUsage: "NAME",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			name := cmd.Args().First()
			if name == "" {
				return domainErrors.ErrMissingArgument.
					WithContext("argument", "name").
					WithSuggestion(t.GetMessage("missing_argument", 0, map[string]interface{}{"Name": "NAME"}))
			}

			creator, err := f.provider(ctx)
			if err != nil {
				return err
			}
			assignment, err := creator.CreateAssignment(ctx, name)
			if err != nil {
				return err
			}

			ui.PrintSuccess(f.out, t.GetMessage("assignment_created", 0, map[string]interface{}{"Name": assignment.Name}))
			return nil
		},
	}
}

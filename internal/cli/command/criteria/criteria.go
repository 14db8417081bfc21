package criteria

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/Tomas-vilte/MateGrade/internal/config"
	domainErrors "github.com/Tomas-vilte/MateGrade/internal/errors"
	"github.com/Tomas-vilte/MateGrade/internal/i18n"
	"github.com/Tomas-vilte/MateGrade/internal/models"
	"github.com/Tomas-vilte/MateGrade/internal/ports"
	"github.com/Tomas-vilte/MateGrade/internal/rules"
	"github.com/Tomas-vilte/MateGrade/internal/ui"
	"github.com/urfave/cli/v3"
)

type Manager interface {
	SaveCriteria(ctx context.Context, assignmentName, filename string, data []byte) (*models.Criteria, error)
	GetCriteria(ctx context.Context, assignmentName string) (*models.Criteria, error)
}

type ManagerProvider func(ctx context.Context) (Manager, error)

type CriteriaCommandFactory struct {
	provider ManagerProvider
	fetcher  ports.FileFetcher
	out      io.Writer
}

// NewCriteriaCommandFactory builds the criteria commands. fetcher reads
// criteria files stored in a repository and may be nil.
func NewCriteriaCommandFactory(provider ManagerProvider, fetcher ports.FileFetcher) *CriteriaCommandFactory {
	return &CriteriaCommandFactory{
		provider: provider,
		fetcher:  fetcher,
		out:      os.Stdout,
	}
}

func (f *CriteriaCommandFactory) CreateCommand(t *i18n.Translations, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:    "criteria",
		Aliases: []string{"cr"},
		Usage:   t.GetMessage("criteria_usage", 0, nil),
		Commands: []*cli.Command{
			f.newSetCommand(t, cfg),
			f.newShowCommand(t),
		},
	}
}

func assignmentFlag(t *i18n.Translations) cli.Flag {
	return &cli.StringFlag{
		Name:     "assignment",
		Aliases:  []string{"a"},
		Usage:    t.GetMessage("criteria_assignment_flag", 0, nil),
		Required: true,
	}
}

func (f *CriteriaCommandFactory) newSetCommand(t *i18n.Translations, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     t.GetMessage("criteria_set_usage", 0, nil),
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			assignmentFlag(t),
			&cli.StringFlag{
				Name:  "repo",
				Usage: t.GetMessage("criteria_repo_flag", 0, nil),
			},
			&cli.StringFlag{
				Name:  "token",
				Usage: t.GetMessage("grade_token_flag", 0, nil),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.Args().First()
			if path == "" {
				return domainErrors.ErrMissingArgument.
					WithContext("argument", "file").
					WithSuggestion(t.GetMessage("missing_argument", 0, map[string]interface{}{"Name": "FILE"}))
			}

			data, err := f.read(ctx, cmd, cfg, path)
			if err != nil {
				return err
			}

			manager, err := f.provider(ctx)
			if err != nil {
				return err
			}
			saved, err := manager.SaveCriteria(ctx, cmd.String("assignment"), path, data)
			if err != nil {
				return err
			}

			if issues := rules.Validate(saved.Rules); len(issues) > 0 {
				ui.PrintWarning(f.out, t.GetMessage("criteria_skipped_rules", 0, map[string]interface{}{"Count": len(issues)}))
			}
			ui.PrintSuccess(f.out, t.GetMessage("criteria_saved", 0, map[string]interface{}{"Name": saved.AssignmentName}))
			return nil
		},
	}
}

// read loads FILE from disk, or from the repository given with --repo.
func (f *CriteriaCommandFactory) read(ctx context.Context, cmd *cli.Command, cfg *config.Config, path string) ([]byte, error) {
	repoURL := cmd.String("repo")
	if repoURL == "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, domainErrors.ErrInvalidCriteria.WithError(err).WithContext("file", path)
		}
		return data, nil
	}

	if f.fetcher == nil {
		return nil, domainErrors.ErrConfigInvalid.WithContext("argument", "repo")
	}
	token := cmd.String("token")
	if token == "" {
		token = cfg.GitHubToken
	}
	return f.fetcher.FetchFile(ctx, path, repoURL, token)
}

func (f *CriteriaCommandFactory) newShowCommand(t *i18n.Translations) *cli.Command {
	return &cli.Command{
		Name:  "show",
		Usage: t.GetMessage("criteria_show_usage", 0, nil),
		Flags: []cli.Flag{assignmentFlag(t)},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			manager, err := f.provider(ctx)
			if err != nil {
				return err
			}
			c, err := manager.GetCriteria(ctx, cmd.String("assignment"))
			if err != nil {
				return err
			}

			ui.PrintSectionBanner(f.out, c.AssignmentName)
			_, _ = fmt.Fprintln(f.out, ui.Accent.Sprint(t.GetMessage("criteria_rubric_title", 0, nil)))
			_, _ = fmt.Fprintf(f.out, "%s\n\n", c.Rubric)

			if len(c.Rules) == 0 {
				_, _ = fmt.Fprintln(f.out, t.GetMessage("criteria_no_rules", 0, nil))
				return nil
			}
			_, _ = fmt.Fprintln(f.out, ui.Accent.Sprint(t.GetMessage("criteria_rules_title", 0, nil)))
			for _, r := range c.Rules {
				_, _ = fmt.Fprintf(f.out, "  %s\n", t.GetMessage("criteria_rule_line", 0, map[string]interface{}{
					"Points":  r.Deduction,
					"Pattern": r.Pattern,
					"Message": r.Message,
				}))
			}
			return nil
		},
	}
}

package config

import (
	"context"
	"errors"

	"github.com/Tomas-vilte/MateGrade/internal/config"
	"github.com/Tomas-vilte/MateGrade/internal/i18n"
	"github.com/Tomas-vilte/MateGrade/internal/ui"
	"github.com/urfave/cli/v3"
)

func (c *ConfigCommandFactory) newSetLangCommand(t *i18n.Translations, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "set-lang",
		Usage: t.GetMessage("config_set_lang_usage", 0, nil),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "lang",
				Aliases:  []string{"l"},
				Usage:    t.GetMessage("config_lang_flag", 0, nil),
				Required: true,
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			lang := command.String("lang")
			if lang != "en" && lang != "es" {
				return errors.New(t.GetMessage("config_lang_unsupported", 0, map[string]interface{}{"Lang": lang}))
			}

			cfg.Language = lang
			if err := config.SaveConfig(cfg); err != nil {
				return err
			}

			_ = t.SetLanguage(lang)
			ui.PrintSuccess(c.out, t.GetMessage("config_lang_set", 0, map[string]interface{}{"Lang": lang}))
			return nil
		},
	}
}

package config

import (
	"context"
	"errors"
	"os"

	"github.com/Tomas-vilte/MateGrade/internal/config"
	"github.com/Tomas-vilte/MateGrade/internal/i18n"
	"github.com/Tomas-vilte/MateGrade/internal/ui"
	"github.com/urfave/cli/v3"
)

func (c *ConfigCommandFactory) newInitCommand(t *i18n.Translations, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: t.GetMessage("config_init_usage", 0, nil),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "path",
				Usage: t.GetMessage("config_flag_usage", 0, nil),
				Value: cfg.PathFile,
			},
			&cli.BoolFlag{
				Name:    "force",
				Aliases: []string{"f"},
				Usage:   t.GetMessage("config_force_flag", 0, nil),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			path, err := config.ExpandHome(command.String("path"))
			if err != nil {
				return err
			}

			if _, err := os.Stat(path); err == nil && !command.Bool("force") {
				return errors.New(t.GetMessage("config_exists", 0, map[string]interface{}{"Path": path}))
			}

			if _, err := config.CreateDefaultConfig(path); err != nil {
				return err
			}
			ui.PrintSuccess(c.out, t.GetMessage("config_created", 0, map[string]interface{}{"Path": path}))
			return nil
		},
	}
}

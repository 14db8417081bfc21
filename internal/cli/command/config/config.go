package config

import (
	"io"
	"os"

	"github.com/Tomas-vilte/MateGrade/internal/config"
	"github.com/Tomas-vilte/MateGrade/internal/i18n"
	"github.com/urfave/cli/v3"
)

type ConfigCommandFactory struct {
	out io.Writer
}

func NewConfigCommandFactory() *ConfigCommandFactory {
	return &ConfigCommandFactory{out: os.Stdout}
}

func (c *ConfigCommandFactory) CreateCommand(t *i18n.Translations, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   t.GetMessage("config_usage", 0, nil),
		Commands: []*cli.Command{
			c.newShowCommand(t, cfg),
			c.newInitCommand(t, cfg),
			c.newSetLangCommand(t, cfg),
		},
	}
}

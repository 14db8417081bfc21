package config

import (
	"context"
	"fmt"

	"github.com/Tomas-vilte/MateGrade/internal/config"
	"github.com/Tomas-vilte/MateGrade/internal/i18n"
	"github.com/Tomas-vilte/MateGrade/internal/ui"
	"github.com/urfave/cli/v3"
)

func (c *ConfigCommandFactory) newShowCommand(t *i18n.Translations, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "show",
		Usage: t.GetMessage("config_show_usage", 0, nil),
		Action: func(ctx context.Context, command *cli.Command) error {
			ui.PrintSectionBanner(c.out, t.GetMessage("config_current", 0, nil))

			secret := func(v string) string {
				if v == "" {
					return t.GetMessage("config_key_not_set", 0, nil)
				}
				return t.GetMessage("config_key_set", 0, nil)
			}

			rows := []struct{ key, value string }{
				{"file", cfg.PathFile},
				{"language", cfg.Language},
				{"gemini_api_key", secret(cfg.GeminiAPIKey)},
				{"github_token", secret(cfg.GitHubToken)},
				{"repository.strategy", cfg.Repository.Strategy},
				{"repository.clone_timeout", cfg.Repository.CloneTimeout.String()},
				{"collector.extension", cfg.Collector.Extension},
				{"collector.include", fmt.Sprint(cfg.Collector.Include)},
				{"ai.provider", cfg.AI.Provider},
				{"ai.model", cfg.AI.Model},
				{"ai.max_prompt_chars", fmt.Sprint(cfg.AI.MaxPromptChars)},
				{"ai.timeout", cfg.AI.Timeout.String()},
				{"ai.temperature", fmt.Sprint(cfg.AI.Temperature)},
				{"ai.cache_ttl", cfg.AI.CacheTTL.String()},
				{"ai.cache_dir", cfg.AI.CacheDir},
				{"grading.max_model_deduction", fmt.Sprint(cfg.Grading.MaxModelDeduction)},
				{"storage.path", cfg.Storage.Path},
				{"metrics.textfile", cfg.Metrics.Textfile},
			}
			for _, row := range rows {
				ui.PrintKeyValue(c.out, row.key, row.value)
			}
			return nil
		},
	}
}

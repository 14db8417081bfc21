package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/Tomas-vilte/MateGrade/internal/ai"
	"github.com/Tomas-vilte/MateGrade/internal/ai/registry"
	"github.com/Tomas-vilte/MateGrade/internal/cache"
	"github.com/Tomas-vilte/MateGrade/internal/cli/command/assignment"
	"github.com/Tomas-vilte/MateGrade/internal/cli/command/config"
	"github.com/Tomas-vilte/MateGrade/internal/cli/command/criteria"
	"github.com/Tomas-vilte/MateGrade/internal/cli/command/grade"
	"github.com/Tomas-vilte/MateGrade/internal/cli/command/results"
	cmdregistry "github.com/Tomas-vilte/MateGrade/internal/cli/registry"
	"github.com/Tomas-vilte/MateGrade/internal/collector"
	cfg "github.com/Tomas-vilte/MateGrade/internal/config"
	"github.com/Tomas-vilte/MateGrade/internal/git"
	"github.com/Tomas-vilte/MateGrade/internal/grading"
	"github.com/Tomas-vilte/MateGrade/internal/i18n"
	"github.com/Tomas-vilte/MateGrade/internal/logger"
	"github.com/Tomas-vilte/MateGrade/internal/metrics"
	"github.com/Tomas-vilte/MateGrade/internal/ports"
	"github.com/Tomas-vilte/MateGrade/internal/services"
	"github.com/Tomas-vilte/MateGrade/internal/storage/sqlite"
	"github.com/Tomas-vilte/MateGrade/internal/ui"
	"github.com/Tomas-vilte/MateGrade/internal/vcs/github"
	"github.com/Tomas-vilte/MateGrade/internal/version"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"
)

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	opts := parseGlobalOptions(args[1:])
	logger.Initialize(opts.debug, opts.verbose)
	ctx := context.Background()

	cfgApp, err := loadConfig(opts.configPath)
	if err != nil {
		ui.PrintError(os.Stderr, fmt.Sprintf("error loading configuration: %v", err))
		return 1
	}

	translations, err := i18n.NewTranslations(cfgApp.Language, "")
	if err != nil {
		ui.PrintError(os.Stderr, fmt.Sprintf("error loading translations: %v", err))
		return 1
	}

	app, err := newApplication(cfgApp)
	if err != nil {
		ui.HandleAppError(os.Stderr, err, translations)
		return 1
	}
	defer app.close(ctx)

	command, err := app.command(translations)
	if err != nil {
		ui.HandleAppError(os.Stderr, err, translations)
		return 1
	}

	if err := command.Run(ctx, args); err != nil {
		ui.HandleAppError(os.Stderr, err, translations)
		return 1
	}
	return 0
}

// application owns the process-wide dependencies. The store is opened on
// first use so config commands work without a database.
type application struct {
	cfg      *cfg.Config
	registry *prometheus.Registry
	recorder *metrics.Recorder

	storeOnce sync.Once
	store     *sqlite.Store
	storeErr  error
}

func newApplication(cfgApp *cfg.Config) (*application, error) {
	reg := prometheus.NewRegistry()
	recorder, err := metrics.NewRecorder(reg)
	if err != nil {
		return nil, err
	}
	return &application{
		cfg:      cfgApp,
		registry: reg,
		recorder: recorder,
	}, nil
}

func (a *application) command(t *i18n.Translations) (*cli.Command, error) {
	reg := cmdregistry.NewRegistry(a.cfg, t)

	factories := map[string]cmdregistry.CommandFactory{
		"grade":      grade.NewGradeCommandFactory(a.grader),
		"assignment": assignment.NewAssignmentCommandFactory(a.creator),
		"criteria":   criteria.NewCriteriaCommandFactory(a.criteriaManager, github.NewContentsSource(a.cfg.Repository.CloneTimeout.Duration)),
		"results":    results.NewResultsCommandFactory(a.lister),
		"config":     config.NewConfigCommandFactory(),
	}
	for name, factory := range factories {
		if err := reg.Register(name, factory); err != nil {
			return nil, err
		}
	}

	return &cli.Command{
		Name:        "mate-grade",
		Usage:       t.GetMessage("app_usage", 0, nil),
		Version:     version.FullVersion(),
		Description: t.GetMessage("app_description", 0, nil),
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: t.GetMessage("debug_flag_usage", 0, nil),
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: t.GetMessage("verbose_flag_usage", 0, nil),
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: t.GetMessage("config_flag_usage", 0, nil),
			},
		},
		Commands:              reg.CreateCommands(),
		EnableShellCompletion: true,
	}, nil
}

func (a *application) openStore() (*sqlite.Store, error) {
	a.storeOnce.Do(func() {
		path, err := a.cfg.DatabasePath()
		if err != nil {
			a.storeErr = err
			return
		}
		a.store, a.storeErr = sqlite.NewStore(path)
	})
	return a.store, a.storeErr
}

func (a *application) repositorySource() ports.RepositorySource {
	if a.cfg.Repository.Strategy == cfg.StrategyContents {
		return github.NewContentsSource(a.cfg.Repository.CloneTimeout.Duration)
	}
	return git.NewCloneSource(a.cfg.Repository.CloneTimeout.Duration)
}

func (a *application) grader(ctx context.Context, observer func(services.Stage)) (grade.Grader, error) {
	store, err := a.openStore()
	if err != nil {
		return nil, err
	}

	generator, err := registry.NewDefaultRegistry().CreateGenerator(a.cfg)
	if err != nil {
		// The evaluator reports itself unavailable and grading continues with rules only.
		logger.Warn(ctx, "AI provider could not be created", "provider", a.cfg.AI.Provider, "error", err)
	} else if a.cfg.AI.CacheTTL.Duration > 0 {
		generator = a.cachedGenerator(ctx, generator)
	}

	return services.NewGradingService(
		store,
		store,
		a.repositorySource(),
		ai.NewEvaluator(generator, a.cfg.AI.MaxPromptChars, a.cfg.AI.Timeout.Duration),
		services.WithCollector(collector.NewCollector(a.cfg.Collector.Include)),
		services.WithAggregator(grading.NewAggregator(a.cfg.Grading.MaxModelDeduction)),
		services.WithExtension(a.cfg.Collector.Extension),
		services.WithMetrics(a.recorder),
		services.WithStageObserver(observer),
	), nil
}

func (a *application) cachedGenerator(ctx context.Context, next ports.TextGenerator) ports.TextGenerator {
	dir, err := cfg.ExpandHome(a.cfg.AI.CacheDir)
	if err == nil {
		var c *cache.Cache
		if c, err = cache.NewCache(dir, a.cfg.AI.CacheTTL.Duration); err == nil {
			if cerr := c.CleanExpired(); cerr != nil {
				logger.Warn(ctx, "could not clean expired evaluations", "error", cerr)
			}
			return cache.NewGenerator(next, c, a.cfg.AI.Model)
		}
	}
	logger.Warn(ctx, "response cache disabled", "error", err)
	return next
}

func (a *application) criteriaService() (*services.CriteriaService, error) {
	store, err := a.openStore()
	if err != nil {
		return nil, err
	}
	return services.NewCriteriaService(store, store), nil
}

func (a *application) creator(context.Context) (assignment.Creator, error) {
	return a.criteriaService()
}

func (a *application) criteriaManager(context.Context) (criteria.Manager, error) {
	return a.criteriaService()
}

func (a *application) lister(context.Context) (results.Lister, error) {
	return a.criteriaService()
}

// close releases the store and writes the metrics textfile when configured.
func (a *application) close(ctx context.Context) {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			logger.Warn(ctx, "could not close database", "error", err)
		}
	}
	if path := a.cfg.Metrics.Textfile; path != "" {
		if err := metrics.WriteTextfile(path, a.registry); err != nil {
			logger.Warn(ctx, "could not write metrics", "path", path, "error", err)
		}
	}
}

func loadConfig(path string) (*cfg.Config, error) {
	if path != "" {
		return cfg.LoadConfig(path)
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("could not get the user home directory: %w", err)
	}
	return cfg.LoadConfig(homeDir)
}

type globalOptions struct {
	debug      bool
	verbose    bool
	configPath string
}

// parseGlobalOptions reads the flags needed before the command tree exists.
// The same flags are declared on the root command so they still parse there.
func parseGlobalOptions(args []string) globalOptions {
	var opts globalOptions
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			break
		}
		name, value, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if !strings.HasPrefix(arg, "-") {
			continue
		}
		switch name {
		case "debug":
			opts.debug = !hasValue || value == "true"
		case "verbose":
			opts.verbose = !hasValue || value == "true"
		case "config":
			if hasValue {
				opts.configPath = value
			} else if i+1 < len(args) {
				opts.configPath = args[i+1]
				i++
			}
		}
	}
	return opts
}

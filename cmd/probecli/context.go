package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"

	"probecli/internal/config"
	"probecli/internal/dataprocessing"
	"probecli/internal/files"
	"probecli/internal/infrastructure"
	"probecli/internal/services"
	"probecli/internal/validation"
	"probecli/pkg/contracts/domain"
)

type globalFlags struct {
	config    string
	recursive bool
	workers   int
	verbose   bool
}

type commandContext struct {
	flags *globalFlags

	configOnce sync.Once
	config     *config.Config
	logger     *slog.Logger
	configErr  error
}

func newCommandContext(flags *globalFlags) *commandContext {
	return &commandContext{flags: flags}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var (
			cfg *config.Config
			err error
		)
		if path := strings.TrimSpace(c.flags.config); path != "" {
			cfg, err = config.LoadFrom(path)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			c.configErr = err
			return
		}
		if c.flags.workers >= 0 {
			cfg.Processing.Workers = c.flags.workers
		}

		// stdout belongs to the command output
		logCfg := cfg.Logging
		logCfg.Output = "stderr"
		logCfg.Format = "text"
		logCfg.Level = "warn"
		if c.flags.verbose {
			logCfg.Level = "debug"
		}
		logger, err := infrastructure.NewLogger(logCfg)
		if err != nil {
			c.configErr = err
			return
		}

		c.config = cfg
		c.logger = logger
	})
	return c.config, c.configErr
}

// batch is one analyzed set of files
type batch struct {
	service   *services.AnalysisService
	validator *validation.FileValidator
	result    *services.AnalysisResult
	files     []files.FileInfo
}

// analyze discovers, loads and aggregates the probe files under paths
func (c *commandContext) analyze(ctx context.Context, paths []string) (*batch, error) {
	ctx = infrastructure.EnsureTraceID(ctx)
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	infos, err := files.NewDiscovery("", cfg.Processing.Extensions).Collect(paths, c.flags.recursive)
	if err != nil {
		return nil, err
	}
	if len(infos) == 0 {
		return nil, fmt.Errorf("no %s files found", strings.Join(cfg.Processing.Extensions, " or "))
	}

	sources, err := files.NewLoader(cfg.Processing.MaxFileSize, c.logger).Load(ctx, infos)
	if err != nil {
		return nil, err
	}

	decoder, err := dataprocessing.NewDecoder(cfg.Processing.Encodings)
	if err != nil {
		return nil, err
	}
	aggregator := dataprocessing.NewAggregator(c.logger,
		dataprocessing.WithWorkers(cfg.Processing.Workers),
		dataprocessing.WithDecoder(decoder))
	validator := validation.NewFileValidator(c.logger, cfg.Processing)
	service := services.NewAnalysisService(aggregator, validator, c.logger)

	result, err := service.Analyze(ctx, sources)
	if err != nil {
		return nil, err
	}

	return &batch{service: service, validator: validator, result: result, files: infos}, nil
}

func requirePaths(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return errors.New("at least one file or directory is required")
	}
	return nil
}

type filterFlags struct {
	stations  []string
	operators []string
	statuses  []string
	serials   []string
}

func addFilterFlags(cmd *cobra.Command, f *filterFlags) {
	cmd.Flags().StringSliceVar(&f.stations, "station", nil, "Only files from these test stations")
	cmd.Flags().StringSliceVar(&f.operators, "operator", nil, "Only files from these operators")
	cmd.Flags().StringSliceVar(&f.statuses, "status", nil, "Only files with these verdicts (pass, fail, unknown)")
	cmd.Flags().StringSliceVar(&f.serials, "sn", nil, "Only files with these serial numbers")
}

func (f *filterFlags) filter() (domain.HeaderFilter, error) {
	statuses := make([]string, 0, len(f.statuses))
	for _, s := range f.statuses {
		status, _ := dataprocessing.CanonicalStatus(s)
		statuses = append(statuses, status)
	}

	filter := domain.HeaderFilter{
		Stations:       f.stations,
		Operators:      f.operators,
		ResultStatuses: statuses,
		SerialNumbers:  f.serials,
	}
	if len(filter.ResultStatuses) == 0 {
		filter.ResultStatuses = nil
	}

	if err := validator.New().Struct(filter); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return filter, fmt.Errorf("invalid filter %s: %q", strings.ToLower(verrs[0].StructField()), verrs[0].Value())
		}
		return filter, err
	}
	return filter, nil
}

func parseLimits(entries []string) (map[string]domain.SpecLimits, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	limits := make(map[string]domain.SpecLimits, len(entries))
	for _, entry := range entries {
		section, sectionLimits, err := domain.ParseSectionLimit(entry)
		if err != nil {
			return nil, err
		}
		limits[section] = sectionLimits
	}
	return limits, nil
}

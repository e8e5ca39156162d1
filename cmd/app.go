package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/fiquant/taxpro-bulk/internal/calculator"
	"github.com/fiquant/taxpro-bulk/internal/config"
	"github.com/fiquant/taxpro-bulk/internal/logging"
	"github.com/fiquant/taxpro-bulk/internal/quota"
	"github.com/fiquant/taxpro-bulk/internal/session"
	"github.com/fiquant/taxpro-bulk/internal/spreadsheet"
	"github.com/fiquant/taxpro-bulk/pkg/utils"
)

// app bundles what every command needs.
type app struct {
	cfg    *config.Config
	logger *logrus.Logger
	files  *utils.FileManager

	closers []io.Closer
}

func newApp(cmd *cobra.Command) (*app, error) {
	path := cfgFile
	if !cmd.Flags().Changed("config") && !utils.FileExists(path) {
		path = ""
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg}

	var out io.Writer = os.Stdout
	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		a.closers = append(a.closers, f)
		out = f
	}
	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	a.logger, err = logging.New(level, cfg.LogFormat, out)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.files = utils.NewFileManager(cfg.OutputDir, cfg.ArchiveDir)
	if err := a.files.EnsureDirectories(); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) Close() {
	for _, c := range a.closers {
		_ = c.Close()
	}
}

// tier resolves the --tier flag, falling back to the configured tier.
func (a *app) tier(flag string) (quota.Tier, error) {
	if flag == "" {
		return a.cfg.DefaultTier(), nil
	}
	return quota.ParseTier(flag)
}

func (a *app) quotaStore() (quota.Store, error) {
	q := a.cfg.Quota
	switch q.Store {
	case "memory":
		return quota.NewMemoryStore(quota.State{}), nil
	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: q.RedisAddress})
		a.closers = append(a.closers, rdb)
		return quota.NewRedisStore(rdb, q.Namespace), nil
	case "file":
		return quota.NewFileStore(q.Path, q.Namespace), nil
	default:
		return nil, fmt.Errorf("unknown quota store %q", q.Store)
	}
}

func (a *app) guard() (*quota.Guard, error) {
	store, err := a.quotaStore()
	if err != nil {
		return nil, err
	}
	return quota.NewGuard(store, a.cfg.QuotaLimits(), quota.WithLogger(a.logger)), nil
}

func (a *app) parser() *spreadsheet.Parser {
	return spreadsheet.New(a.cfg.ParserOptions(), a.logger)
}

func (a *app) session(tier quota.Tier) (*session.Session, error) {
	guard, err := a.guard()
	if err != nil {
		return nil, err
	}
	calc := calculator.FlatRate{
		TaxRate:          a.cfg.Calculator.TaxRate,
		BIKInclusionRate: a.cfg.Calculator.BIKInclusionRate,
	}
	return session.New(session.Deps{
		Calculator: calc,
		Guard:      guard,
		Parser:     a.parser(),
		Logger:     a.logger,
		Tier:       tier,
		Workers:    a.cfg.Batch.Workers,
	})
}

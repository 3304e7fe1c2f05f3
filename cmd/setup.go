package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/quizcycle/internal/app"
	"github.com/abhisek/quizcycle/internal/config"
	"github.com/abhisek/quizcycle/internal/logging"
	"github.com/abhisek/quizcycle/internal/progress"
	"github.com/abhisek/quizcycle/internal/question"
	"github.com/abhisek/quizcycle/internal/registry"
	"github.com/abhisek/quizcycle/internal/screen"
	"github.com/abhisek/quizcycle/internal/session"
	"github.com/abhisek/quizcycle/internal/store"
	"github.com/abhisek/quizcycle/internal/store/pgstore"
)

var errNoBank = errors.New("no question bank: pass --bank or set bank in config")

// runtime holds everything a command needs once configuration is loaded.
type runtime struct {
	cfg       *config.Config
	logger    *zap.Logger
	repos     store.Repos
	registry  *registry.Registry
	launcher  *session.Launcher
	learnerID string
}

// setup loads configuration, opens the configured backend and builds the
// session launcher over the question bank.
func setup(cmd *cobra.Command) (*runtime, error) {
	ctx := cmd.Context()

	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if b, _ := cmd.Flags().GetString("bank"); b != "" {
		cfg.Bank = b
	}
	if l, _ := cmd.Flags().GetString("learner"); l != "" {
		cfg.LearnerID = l
	}
	if cfg.Bank == "" {
		return nil, errNoBank
	}

	logFile := cfg.Log.File
	if logFile == "" {
		if dataHome, err := store.DataHome(); err == nil {
			logFile = filepath.Join(dataHome, "quizcycle", "quizcycle.log")
		}
	}
	logger, err := logging.New(cfg.Env, logFile)
	if err != nil {
		return nil, err
	}

	bank, err := question.LoadFile(cfg.Bank)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}

	repos, err := openRepos(ctx, cmd, cfg)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}

	var adapterOpts []progress.Option
	adapterOpts = append(adapterOpts, progress.WithLogger(logger))
	if cfg.Cache.Dir != "" {
		adapterOpts = append(adapterOpts, progress.WithMirror(progress.NewMirror(afero.NewOsFs(), cfg.Cache.Dir)))
	}
	adapter := progress.NewAdapter(repos, adapterOpts...)
	reg := registry.New(repos, registry.WithLogger(logger))

	launcher := session.NewLauncher(bank, adapter, repos, reg,
		session.WithLogger(logger),
		session.WithExamDuration(cfg.Exam.Duration),
		session.WithTimerEnabled(cfg.Exam.TimerEnabled),
	)

	logger.Info("quizcycle started",
		zap.String("driver", cfg.Database.Driver),
		zap.String("learner", cfg.LearnerID),
		zap.String("bank", cfg.Bank),
	)

	return &runtime{
		cfg:       cfg,
		logger:    logger,
		repos:     repos,
		registry:  reg,
		launcher:  launcher,
		learnerID: cfg.LearnerID,
	}, nil
}

func openRepos(ctx context.Context, cmd *cobra.Command, cfg *config.Config) (store.Repos, error) {
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		st, err := pgstore.Open(ctx, cfg.Database.URL, pgstore.PoolConfig{
			MaxConns:        int32(cfg.Database.MaxConnections),
			MaxConnLifetime: cfg.Database.MaxConnLifetime,
		})
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		return st, nil
	default:
		dbPath, err := resolveDBPath(cmd, cfg.Database.Path)
		if err != nil {
			return nil, fmt.Errorf("resolve DB path: %w", err)
		}
		st, err := store.Open(dbPath)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		return st, nil
	}
}

func (rt *runtime) appOptions(initial screen.Screen) app.Options {
	return app.Options{
		Launcher:  rt.launcher,
		LearnerID: rt.learnerID,
		Initial:   initial,
		Logger:    rt.logger,
	}
}

// Close waits for pending pointer writes, then releases the backend.
func (rt *runtime) Close() {
	rt.registry.Wait()
	if err := rt.repos.Close(); err != nil {
		rt.logger.Warn("close store", zap.Error(err))
	}
	_ = rt.logger.Sync()
}

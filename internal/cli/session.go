package cli

import (
	"context"
	"fmt"

	"olympics/internal/config"
	"olympics/internal/datasource/s3"
	"olympics/internal/logger"
	"olympics/internal/metrics"
	"olympics/internal/metrics/datadog"
	"olympics/internal/metrics/prompush"
	"olympics/internal/parser/csv"
	"olympics/internal/pipeline"
	"olympics/internal/storage"
)

// session is the state a command builds from configuration.
type session struct {
	cfg *config.Config
	log *logger.Logger
}

// override adjusts loaded configuration before validation, typically from
// command flags.
type override func(*config.Config)

func openSession(opts *RootOptions, scope config.Scope, overrides ...override) (*session, error) {
	cfg, err := loadConfig(opts, overrides...)
	if err != nil {
		return nil, err
	}
	if err := config.Check(*cfg, scope); err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return &session{cfg: cfg, log: log.With("job", cfg.Job)}, nil
}

func loadConfig(opts *RootOptions, overrides ...override) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if opts.LogMode != "" {
		cfg.Log.Mode = opts.LogMode
	}
	for _, o := range overrides {
		o(cfg)
	}
	return cfg, nil
}

func (s *session) close() { s.log.Sync() }

func (s *session) openRepo(ctx context.Context) (storage.Repository, error) {
	repo, err := storage.New(ctx, storage.Config{Kind: s.cfg.Storage.Kind, DSN: s.cfg.StorageDSN(), Log: s.log})
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", s.cfg.Storage.Kind, err)
	}
	return repo, nil
}

// startMetrics installs the configured backend. The returned func flushes
// and releases it. A backend that fails to initialize leaves metrics off.
func (s *session) startMetrics() func() {
	m := s.cfg.Metrics
	switch m.Backend {
	case "pushgateway":
		b, err := prompush.NewBackend(s.cfg.Job, m.PushgatewayURL)
		if err != nil {
			s.log.Warn("metrics: failed to init prom push backend; using nop", "error", err)
			return func() {}
		}
		s.log.Info("metrics enabled", "backend", m.Backend, "url", m.PushgatewayURL)
		metrics.SetBackend(b)
		return s.flushMetrics

	case "datadog":
		b, err := datadog.NewBackend(datadog.Config{
			Addr:       m.DogStatsDAddr,
			Namespace:  "olympics.",
			GlobalTags: []string{"job:" + s.cfg.Job},
		})
		if err != nil {
			s.log.Warn("metrics: failed to init datadog backend; using nop", "error", err)
			return func() {}
		}
		s.log.Info("metrics enabled", "backend", m.Backend, "addr", m.DogStatsDAddr)
		metrics.SetBackend(b)
		return func() {
			s.flushMetrics()
			if err := b.Close(); err != nil {
				s.log.Warn("metrics: close failed", "error", err)
			}
		}

	default:
		s.log.Debug("metrics disabled", "backend", m.Backend)
		return func() {}
	}
}

func (s *session) flushMetrics() {
	if err := metrics.Flush(); err != nil {
		s.log.Warn("metrics: flush failed", "error", err)
	}
}

// controller wires a pipeline run against repo.
func (s *session) controller(ctx context.Context, repo storage.Repository) (*pipeline.Controller, error) {
	client, err := s3.NewClient(ctx, s3.Credentials{
		AccessKeyID:     s.cfg.AWS.AccessKeyID,
		SecretAccessKey: s.cfg.AWS.SecretAccessKey,
		Region:          s.cfg.AWS.Region,
		Endpoint:        s.cfg.AWS.Endpoint,
	})
	if err != nil {
		return nil, err
	}
	lander := s3.NewLander(client, s.log)
	lander.Concurrency = s.cfg.Source.DownloadConcurrency

	return &pipeline.Controller{
		Lander:        lander,
		Parser:        csv.NewParser(csv.ExtractOptions()),
		Repo:          repo,
		Log:           s.log,
		Job:           s.cfg.Job,
		NormalizeText: true,
	}, nil
}

// sourceFlags are the run parameters shared by run and schedule.
type sourceFlags struct {
	bucket, subfolder, localPath string
}

func (f *sourceFlags) apply(c *config.Config) {
	if f.bucket != "" {
		c.Source.Bucket = f.bucket
	}
	if f.subfolder != "" {
		c.Source.Subfolder = f.subfolder
	}
	if f.localPath != "" {
		c.Source.LocalPath = f.localPath
	}
}

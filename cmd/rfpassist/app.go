package main

import (
	"context"

	"rfpassist/internal/agent"
	"rfpassist/internal/aggregator"
	"rfpassist/internal/answer"
	"rfpassist/internal/config"
	"rfpassist/internal/feedback"
	"rfpassist/internal/index"
	"rfpassist/internal/service"
)

// rfpService is the command-facing surface of *service.RFPService.
type rfpService interface {
	Analyze(ctx context.Context, path string, name agent.Name) (service.Analysis, error)
	Ingest(ctx context.Context, paths []string) (index.Metadata, error)
	Documents() ([]index.Metadata, error)
	Ask(ctx context.Context, folder, question string) (answer.Outcome, error)
	Gather(ctx context.Context, folder string) aggregator.Content
	GenerateProposal(ctx context.Context, folder, out string) (string, error)
	RecordFeedback(e feedback.Entry) error
}

// app holds the state shared by every command.
type app struct {
	cfgPath  string
	logLevel string

	cfg     *config.AppConfig
	svc     rfpService
	closers []func() error
}

// config loads the configuration once.
func (a *app) config() (*config.AppConfig, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}
	var (
		cfg *config.AppConfig
		err error
	)
	if a.cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(a.cfgPath)
	}
	if err != nil {
		return nil, err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	a.cfg = cfg
	return cfg, nil
}

// service wires the application on first use. needsModel reports whether
// the command calls the generative model.
func (a *app) service(ctx context.Context, needsModel bool) (rfpService, error) {
	if a.svc != nil {
		return a.svc, nil
	}
	cfg, err := a.config()
	if err != nil {
		return nil, err
	}
	svc, closer, err := wire(ctx, cfg, needsModel)
	if closer != nil {
		a.closers = append(a.closers, closer)
	}
	if err != nil {
		return nil, err
	}
	a.svc = svc
	return svc, nil
}

func (a *app) close() {
	for _, c := range a.closers {
		_ = c()
	}
	a.closers = nil
}

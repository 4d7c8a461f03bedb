package main

import (
	"context"
	"fmt"

	"github.com/reaandrew/secscanner/clients"
	"github.com/reaandrew/secscanner/config"
	"github.com/reaandrew/secscanner/core"
	"github.com/reaandrew/secscanner/mockdata"
	"github.com/reaandrew/secscanner/normalizers"
	"github.com/reaandrew/secscanner/notifiers"
	"github.com/reaandrew/secscanner/orchestrator"
	"github.com/reaandrew/secscanner/repositories"
	log "github.com/sirupsen/logrus"
)

// App is one initialized scanning session: a store, a remote client and the
// orchestrator that ties them together.
type App struct {
	Config       config.Config
	Orchestrator *orchestrator.ScanOrchestrator
	store        core.HistoryStore
	webhook      *notifiers.WebhookNotifier
}

func NewApp(ctx context.Context, cfg config.Config, notifier core.Notifier) (*App, error) {
	historyPath, err := cfg.HistoryPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve history path: %w", err)
	}

	store, err := repositories.CreateHistoryStore(cfg.History.Backend, historyPath, cfg.History.Key)
	if err != nil {
		return nil, fmt.Errorf("failed to open scan history: %w", err)
	}

	var parameterStore config.ParameterStore
	if cfg.Endpoint.Token == "" && cfg.Endpoint.TokenSSMParameter != "" {
		client, err := config.NewSSMParameterStore(ctx)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		parameterStore = client
	}
	token, err := config.ResolveToken(ctx, cfg.Endpoint, parameterStore)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	if cfg.Endpoint.URL == "" {
		log.Warn("No scan endpoint configured; scans will fall back to generated results")
	}
	fetcher := clients.NewHttpScanClient(cfg.Endpoint.URL, cfg.Endpoint.Path, token)

	return newAppWith(cfg, fetcher, store, notifier), nil
}

func newAppWith(cfg config.Config, fetcher orchestrator.Fetcher, store core.HistoryStore, notifier core.Notifier) *App {
	app := &App{Config: cfg, store: store}

	if cfg.Notifications.WebhookURL != "" {
		app.webhook = notifiers.NewWebhookNotifier(cfg.Notifications.WebhookURL, cfg.Notifications.WebhookHeaders)
		notifier = notifiers.MultiNotifier{notifier, app.webhook}
	}

	app.Orchestrator = orchestrator.NewScanOrchestrator(
		fetcher,
		normalizers.NewResultNormalizer(),
		mockdata.NewMockGenerator(),
		store,
		notifier)
	app.Orchestrator.Initialize()
	return app
}

// Close flushes pending webhook deliveries and releases the history store.
func (a *App) Close() error {
	if a.webhook != nil {
		a.webhook.Wait()
	}
	return a.store.Close()
}

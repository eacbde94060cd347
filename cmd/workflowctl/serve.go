package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/Dev-ALPM/imixs-workflow/internal/adminhttp"
	"github.com/Dev-ALPM/imixs-workflow/internal/audit"
	appconfig "github.com/Dev-ALPM/imixs-workflow/internal/config"
	"github.com/Dev-ALPM/imixs-workflow/internal/itemcollection"
	"github.com/Dev-ALPM/imixs-workflow/internal/kernel"
	"github.com/Dev-ALPM/imixs-workflow/internal/logging"
	"github.com/Dev-ALPM/imixs-workflow/internal/metrics"
	"github.com/Dev-ALPM/imixs-workflow/internal/model"
	"github.com/Dev-ALPM/imixs-workflow/internal/plugin"
	"github.com/Dev-ALPM/imixs-workflow/internal/plugin/builtin"
	"github.com/Dev-ALPM/imixs-workflow/internal/resilience"
	"github.com/Dev-ALPM/imixs-workflow/internal/rules"
	"github.com/Dev-ALPM/imixs-workflow/internal/scheduler"
	"github.com/Dev-ALPM/imixs-workflow/internal/store"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the workflow engine process: load models, start schedulers, serve the admin HTTP surface",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := logging.New("workflowctl", cfg.LogLevel, cfg.LogFormat)

	docs, err := buildStore(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}

	models := model.NewManager()
	if err := loadModels(models, cfg.ModelDir); err != nil {
		logger.WithContext(cmd.Context()).WithError(err).Warn("no BPMN models loaded at startup")
	}

	registry := plugin.NewRegistry()
	mailGuard := resilience.NewGuard[struct{}](resilience.DefaultConfig("mail"), logger)
	registry.Register("mail", func() plugin.Plugin {
		return builtin.NewMailPlugin(&builtin.SMTPMailer{Addr: net.JoinHostPort(cfg.SMTPHost, strconv.Itoa(cfg.SMTPPort)), From: cfg.SMTPFrom}).WithGuard(mailGuard)
	})
	registry.Register("history", func() plugin.Plugin { return builtin.NewHistoryPlugin() })

	ruleEngine := rules.New().WithTimeout(cfg.RuleTimeout)

	k := kernel.New(models, registry, ruleEngine, docs)
	k.WithGuard(resilience.NewGuard[*itemcollection.ItemCollection](resilience.DefaultConfig("plugin-chain"), logger))
	k.WithLogger(logger)

	// The admin surface's /metrics handler serves the default registry.
	k.Subscribe(metrics.NewObserver(prometheus.DefaultRegisterer))
	k.Subscribe(audit.NewObserver(logger))

	sched := scheduler.New(docs, logger)
	defer sched.Shutdown(context.Background())
	if err := sched.StartAllSchedulers(cmd.Context()); err != nil {
		logger.WithContext(cmd.Context()).WithError(err).Warn("failed to start persisted schedulers")
	}

	admin := adminhttp.NewServer(docs, sched)
	httpServer := &http.Server{Addr: cfg.AdminAddr, Handler: admin}

	go func() {
		logger.WithContext(cmd.Context()).WithField("addr", cfg.AdminAddr).Info("admin HTTP surface listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithContext(cmd.Context()).WithError(err).Error("admin HTTP server stopped")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.WithContext(cmd.Context()).Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func buildStore(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (store.DocumentStore, error) {
	if cfg.StoreDriver == "memory" {
		return store.NewMemoryStore(), nil
	}
	pg, err := store.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	return store.NewResilientStore(pg, resilience.DefaultConfig("store"), logger), nil
}

func loadModels(models *model.Manager, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".bpmn" {
			continue
		}
		f, err := os.Open(filepath.Join(dir, e.Name()))
		if err != nil {
			return err
		}
		version := e.Name()[:len(e.Name())-len(filepath.Ext(e.Name()))]
		m, err := model.ParseDefinition(f, model.Definition{Version: version})
		f.Close()
		if err != nil {
			return err
		}
		models.AddModel(m)
	}
	return nil
}

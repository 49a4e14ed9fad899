package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"

	"merchanthaus.com/web/internal/applications"
	"merchanthaus.com/web/internal/config"
	"merchanthaus.com/web/internal/content"
	"merchanthaus.com/web/internal/flash"
	"merchanthaus.com/web/internal/formpost"
	"merchanthaus.com/web/internal/forms"
	"merchanthaus.com/web/internal/i18n"
	"merchanthaus.com/web/internal/leads"
	"merchanthaus.com/web/internal/metrics"
	mw "merchanthaus.com/web/internal/middleware"
	"merchanthaus.com/web/internal/nav"
	"merchanthaus.com/web/internal/observability"
	"merchanthaus.com/web/internal/sqlitedb"
)

const shutdownTimeout = 10 * time.Second

func main() {
	var envFile string
	flag.StringVar(&envFile, "env-file", ".env", "dotenv file with local overrides")
	flag.Parse()

	cfg, err := config.Load(config.WithEnvFile(envFile))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger, err := observability.NewLogger(observability.LogConfig{
		Level:       cfg.Server.LogLevel,
		Console:     cfg.Server.Dev,
		Service:     "merchanthaus-web",
		Environment: cfg.Server.Environment,
	})
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, cleanup, err := buildApp(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("build app", zap.Error(err))
	}
	defer cleanup()

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           a.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ErrorLog:          zap.NewStdLog(logger),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("web listening", zap.String("addr", srv.Addr), zap.Bool("dev", cfg.Server.Dev), zap.String("env", cfg.Server.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			logger.Error("listen", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

// buildApp wires stores, transports and views from cfg. The returned cleanup closes
// every client that was opened.
func buildApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (*app, func(), error) {
		cleanup()
		return nil, func() {}, err
	}

	bundle, err := i18n.Load(cfg.Paths.Locales, "en", []string{"en", "es"})
	if err != nil {
		return fail(fmt.Errorf("load locales: %w", err))
	}
	assets, err := mw.NewAssets("/assets", filepath.Join(cfg.Paths.Public, "assets"))
	if err != nil {
		return fail(fmt.Errorf("hash assets: %w", err))
	}
	rd, err := newRenderer(cfg.Paths.Templates, cfg.Server.Dev, bundle, assets)
	if err != nil {
		return fail(fmt.Errorf("parse templates: %w", err))
	}
	var contentOpts []content.Option
	if cfg.Server.Dev {
		contentOpts = append(contentOpts, content.WithCacheTTL(0))
	}

	var db *sql.DB
	openDB := func() (*sql.DB, error) {
		if db != nil {
			return db, nil
		}
		d, err := sqlitedb.Open(cfg.Leads.SQLitePath)
		if err != nil {
			return nil, err
		}
		closers = append(closers, func() { _ = d.Close() })
		db = d
		return db, nil
	}

	var leadStore leads.Store = leads.NewMemoryStore()
	if cfg.Leads.Store == config.StoreSQLite {
		d, err := openDB()
		if err != nil {
			return fail(err)
		}
		leadStore = leads.NewSQLStore(d)
	}

	var appStore applications.Store = applications.NewMemoryStore()
	switch cfg.Applications.Store {
	case config.StoreSQLite:
		d, err := openDB()
		if err != nil {
			return fail(err)
		}
		appStore = applications.NewSQLStore(d)
	case config.StoreFirestore:
		client, err := applications.NewFirestoreClient(ctx, applications.FirestoreConfig{
			ProjectID:    cfg.Applications.FirestoreProject,
			EmulatorHost: cfg.Applications.FirestoreEmulatorHost,
		})
		if err != nil {
			return fail(err)
		}
		closers = append(closers, func() { _ = client.Close() })
		appStore = applications.NewFirestoreStore(client, cfg.Applications.Collection)
	}

	var notifier applications.Notifier = applications.NewLogNotifier(logger)
	if cfg.Notify.PubSubTopic != "" {
		client, err := pubsub.NewClient(ctx, cfg.Notify.PubSubProject)
		if err != nil {
			return fail(fmt.Errorf("pubsub client: %w", err))
		}
		topic := client.Topic(cfg.Notify.PubSubTopic)
		closers = append(closers, func() { _ = client.Close() }, topic.Stop)
		if notifier, err = applications.NewPubSubNotifier(topic); err != nil {
			return fail(err)
		}
	}

	service, err := applications.NewService(applications.ServiceDeps{
		Store:        appStore,
		Notifier:     notifier,
		Recipient:    cfg.Notify.Recipient,
		DashboardURL: cfg.Notify.DashboardURL,
	})
	if err != nil {
		return fail(err)
	}
	poster, err := formpost.NewClient(cfg.Forms.Endpoint, formpost.WithTimeout(cfg.Forms.Timeout))
	if err != nil {
		return fail(err)
	}

	sessions := mw.NewSessions(cfg.Session.SigningKey, cfg.Session.EncryptionKey, cfg.IsProduction(), logger)
	m := metrics.New()
	a := &app{
		cfg:      cfg,
		logger:   logger,
		bundle:   bundle,
		content:  content.NewStore(cfg.Paths.Content, contentOpts...),
		render:   rd,
		assets:   assets,
		docs:     nav.Docs,
		sessions: sessions,
		flashes:  flash.New(sessions.Codec(), cfg.IsProduction()),
		metrics:  m,
		registry: forms.NewRegistry(forms.WithInstanceOptions(forms.WithObserver(m))),
		transports: map[string]forms.Transport{
			forms.ContactForm:             poster,
			forms.QuoteForm:               poster,
			forms.MerchantApplicationForm: service,
		},
		leads: leads.NewHandler(leadStore, backendSchemas(), leads.WithObserver(m)),
	}
	logger.Info("app wired",
		zap.String("form_endpoint", poster.Endpoint()),
		zap.String("lead_store", cfg.Leads.Store),
		zap.String("application_store", cfg.Applications.Store),
		zap.Bool("pubsub", cfg.Notify.PubSubTopic != ""),
	)
	return a, cleanup, nil
}

// backendSchemas lists the forms delivered through the form backend.
func backendSchemas() map[string]*forms.Schema {
	return map[string]*forms.Schema{
		forms.ContactForm: forms.ContactSchema,
		forms.QuoteForm:   forms.QuoteSchema,
	}
}

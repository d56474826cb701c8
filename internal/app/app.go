package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/dulcehogar/internal/config"
	"github.com/Skotchmaster/dulcehogar/internal/db"
	"github.com/Skotchmaster/dulcehogar/internal/es"
	"github.com/Skotchmaster/dulcehogar/internal/logging"
	"github.com/Skotchmaster/dulcehogar/internal/mykafka"
	"github.com/Skotchmaster/dulcehogar/internal/repo"
	"github.com/Skotchmaster/dulcehogar/internal/service"
	httpserver "github.com/Skotchmaster/dulcehogar/internal/transport/http"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	Cfg    *config.Config
	Logger *slog.Logger
	DB     *gorm.DB

	Producer *mykafka.Producer

	Auth      *service.AuthService
	Users     *service.UserService
	Catalog   *service.CatalogService
	Customers *service.CustomerService
	Orders    *service.OrderService

	Echo *echo.Echo
}

// Open connects the store and builds the services. It does not migrate or serve.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	policy, err := service.ParseDeletePolicy(cfg.CategoryDeletePolicy)
	if err != nil {
		return nil, err
	}

	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	gdb, err := db.Open(openCtx, cfg.Database)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}

	r := &repo.GormRepo{DB: gdb}
	a := &App{
		Cfg:       cfg,
		Logger:    logger,
		DB:        gdb,
		Auth:      &service.AuthService{Repo: r, Secret: cfg.SecretKey, SessionTTL: cfg.SessionTTL},
		Users:     &service.UserService{Repo: r},
		Catalog:   &service.CatalogService{Repo: r, Policy: policy},
		Customers: &service.CustomerService{Repo: r},
		Orders:    &service.OrderService{Repo: r},
	}
	return a, nil
}

// Setup migrates, attaches the optional broker and search index, and seeds
// the admin account.
func (a *App) Setup(ctx context.Context) error {
	l := a.Logger

	if err := db.Migrate(ctx, a.DB); err != nil {
		return err
	}

	if len(a.Cfg.KafkaBrokers) > 0 {
		prod, err := mykafka.NewProducer(a.Cfg.KafkaBrokers)
		if err != nil {
			return fmt.Errorf("kafka producer: %w", err)
		}
		a.Producer = prod
		a.Auth.Events = prod
		a.Users.Events = prod
		a.Catalog.Events = prod
		a.Customers.Events = prod
		a.Orders.Events = prod
		l.Info("kafka_enabled", "brokers", a.Cfg.KafkaBrokers)
	}

	if a.Cfg.ES.URL != "" {
		client, err := es.NewClient(ctx, a.Cfg.ES, nil)
		if err != nil {
			l.Warn("search_index_disabled", "reason", "elasticsearch unreachable", "error", err)
		} else {
			idx := &es.ProductIndex{ES: client, Index: a.Cfg.ES.Index}
			if err := idx.EnsureIndex(ctx); err != nil {
				l.Warn("search_index_disabled", "reason", "cannot create index", "error", err)
			} else {
				a.Catalog.Index = idx
				n, err := a.Catalog.Reindex(ctx)
				if err != nil {
					l.Warn("reindex_failed", "error", err)
				} else {
					l.Info("reindex_done", "products", n)
				}
			}
		}
	}

	if a.Cfg.UsesDefaultSecret() {
		l.Warn("default_secret_key", "reason", "SECRET_KEY is the built-in default; sessions can be forged")
	}
	if _, err := a.Users.Bootstrap(ctx, a.Cfg.Admin); err != nil {
		return err
	}

	e, err := httpserver.New(&httpserver.Deps{
		Logger:        l,
		DB:            a.DB,
		Auth:          a.Auth,
		Users:         a.Users,
		Catalog:       a.Catalog,
		Customers:     a.Customers,
		Orders:        a.Orders,
		SecureCookies: a.Cfg.SecureCookies,
		LoginRate:     a.Cfg.LoginRate,
		LoginBurst:    a.Cfg.LoginBurst,
	})
	if err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	a.Echo = e
	return nil
}

// Serve blocks until ctx is cancelled, then drains in-flight requests.
func (a *App) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.Cfg.Addr(),
		Handler:           a.Echo,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("http_listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.Logger.Info("shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

func (a *App) Close() {
	if a.Producer != nil {
		if err := a.Producer.Close(); err != nil {
			a.Logger.Error("kafka_close_error", "error", err)
		}
	}
	if err := db.Close(a.DB); err != nil {
		a.Logger.Error("db_close_error", "error", err)
	}
	a.Logger.Info("shutdown_complete")
}

// WithLogger returns ctx carrying the app logger.
func (a *App) WithLogger(ctx context.Context) context.Context {
	return logging.IntoContext(ctx, a.Logger)
}

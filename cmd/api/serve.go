package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/donor-service/internal/api/http"
	"github.com/spec-kit/donor-service/internal/api/http/handlers"
	"github.com/spec-kit/donor-service/internal/auth"
	"github.com/spec-kit/donor-service/internal/config"
	"github.com/spec-kit/donor-service/internal/events"
	"github.com/spec-kit/donor-service/internal/integrations/ghl"
	"github.com/spec-kit/donor-service/internal/integrations/plaid"
	"github.com/spec-kit/donor-service/internal/observability"
	"github.com/spec-kit/donor-service/internal/persistence"
	"github.com/spec-kit/donor-service/internal/repository"
	"github.com/spec-kit/donor-service/internal/service"
	"github.com/spec-kit/donor-service/internal/worker"
)

const crmWorkers = 2

func serve(ctx context.Context) error {
	cfg := loadConfig()

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	tokens, err := newTokenManager(cfg.Auth)
	if err != nil {
		logger.Fatal("invalid signing keys", zap.Error(err))
	}

	policies, err := loadPolicy(cfg.Auth, logger)
	if err != nil {
		logger.Fatal("failed to load authorization policy", zap.Error(err))
	}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics("donor_service")
	dispatcher := events.NewInMemoryDispatcher()

	if cfg.NATS.URL != "" {
		conn, err := events.ConnectNATS(cfg.NATS.URL, cfg.App.Name, logger)
		if err != nil {
			logger.Fatal("failed to connect nats", zap.Error(err))
		}
		defer conn.Close()
		events.NewNATSForwarder(conn, cfg.NATS.SubjectPrefix, logger).Register(dispatcher)
	}

	pool := pg.PoolHandle()
	donorRepo := repository.NewDonorRepository(pool)
	adminRepo := repository.NewAdminRepository(pool)
	orgRepo := repository.NewOrganizationRepository(pool)
	txRepo := repository.NewTransactionRepository(pool)
	attemptRepo := repository.NewLoginAttemptRepository(redis.Client)
	dedupeRepo := repository.NewEventDedupeRepository(redis.Client, "stripe")

	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		DonorRepo:    donorRepo,
		AdminRepo:    adminRepo,
		AttemptRepo:  attemptRepo,
		TokenManager: tokens,
		Dispatcher:   dispatcher,
		Logger:       logger,
	})
	donorService := service.NewDonorService(donorRepo, dispatcher, logger)
	orgService := service.NewOrganizationService(orgRepo)
	txService := service.NewTransactionService(txRepo, dispatcher, logger)
	paymentService := service.NewPaymentService(cfg.Stripe, service.PaymentDependencies{
		DonorRepo:    donorRepo,
		DedupeRepo:   dedupeRepo,
		Transactions: txService,
		Logger:       logger,
	})
	bankLinks := newBankLinkService(cfg.Plaid, logger)

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	crm := startCRMSync(workerCtx, cfg.GHL, donorService, dispatcher, logger)
	defer func() {
		stopWorkers()
		if crm != nil {
			crm.Wait()
		}
	}()

	if cfg.Auth.PolicyFile != "" {
		go func() {
			if err := auth.WatchPolicy(ctx, cfg.Auth.PolicyFile, policies, logger); err != nil {
				logger.Error("policy watcher stopped", zap.Error(err))
			}
		}()
	}

	cookie := handlers.CookieSettings{Name: cfg.Auth.CookieName, Secure: cfg.Auth.CookieSecure}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  cfg.App.RequestTimeout(),
		WriteTimeout: cfg.App.RequestTimeout(),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout(), cfg.App.AllowedOrigins)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Gate: auth.GateConfig{
			ProtectedPrefixes: cfg.Gate.ProtectedPrefixes,
			ExemptPaths:       cfg.Gate.ExemptPaths,
			CookieName:        cfg.Auth.CookieName,
			LoginPath:         cfg.Gate.LoginPath,
		},
		Authenticator: auth.NewAuthenticator(tokens, cfg.Auth.CookieName, logger, metrics),
		Policy:        policies,
		Registry:      metrics.Registry(),
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Auth: handlers.NewAuthHandler(authService, donorService, cookie, metrics),
		Admin: handlers.NewAdminHandler(handlers.AdminDependencies{
			Auth:         authService,
			AdminRepo:    adminRepo,
			Transactions: txService,
			Config:       cfg,
			Cookie:       cookie,
			LoginPath:    cfg.Gate.LoginPath,
			Metrics:      metrics,
		}),
		Donors:        handlers.NewDonorsHandler(donorService),
		Organizations: handlers.NewOrganizationsHandler(orgService),
		Transactions:  handlers.NewTransactionsHandler(txService),
		Webhooks:      handlers.NewWebhooksHandler(paymentService),
		Plaid:         handlers.NewPlaidHandler(bankLinks),
	})

	listenErr := make(chan error, 1)
	go func() {
		listenErr <- app.Listen(cfg.App.Addr())
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down", zap.Error(context.Cause(ctx)))
	case err := <-listenErr:
		if err != nil {
			logger.Error("fiber listen", zap.Error(err))
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	return nil
}

// loadPolicy returns the built-in policy unless a policy file is configured.
func loadPolicy(cfg config.AuthConfig, logger *zap.Logger) (*auth.PolicyStore, error) {
	if cfg.PolicyFile == "" {
		return auth.NewPolicyStore(auth.DefaultPolicy()), nil
	}
	p, err := auth.LoadPolicyFile(cfg.PolicyFile)
	if err != nil {
		return nil, err
	}
	logger.Info("authorization policy loaded", zap.String("path", cfg.PolicyFile))
	return auth.NewPolicyStore(p), nil
}

func newBankLinkService(cfg config.PlaidConfig, logger *zap.Logger) *service.BankLinkService {
	client, err := plaid.NewClient(cfg)
	if err != nil {
		if !errors.Is(err, plaid.ErrNotConfigured) {
			logger.Warn("plaid client disabled", zap.Error(err))
		}
		return service.NewBankLinkService(nil, logger)
	}
	return service.NewBankLinkService(client, logger)
}

func startCRMSync(ctx context.Context, cfg config.GHLConfig, donors *service.DonorService, dispatcher events.Dispatcher, logger *zap.Logger) *worker.Worker {
	client, err := ghl.NewClient(cfg)
	if err != nil {
		if !errors.Is(err, ghl.ErrNotConfigured) {
			logger.Warn("crm sync disabled", zap.Error(err))
		} else {
			logger.Info("crm sync not configured")
		}
		return nil
	}
	w := worker.New("crm-sync", service.NewCRMSyncService(client, donors, logger), 256, logger)
	w.Register(dispatcher)
	w.Start(ctx, crmWorkers)
	return w
}

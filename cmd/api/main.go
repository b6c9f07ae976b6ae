package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"urbangen/internal/adapter/repo"
	"urbangen/internal/billing"
	"urbangen/internal/http/handlers"
	"urbangen/internal/http/httpapi"
	"urbangen/internal/infra"
	"urbangen/internal/infra/geoip"
	"urbangen/internal/payment"
	"urbangen/internal/providers/grsai"
	"urbangen/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	sqlRunner := infra.NewSQLRunner(dbpool, logger)
	users := repo.NewUserRepository(sqlRunner)
	orders := repo.NewOrderRepository(sqlRunner)
	records := repo.NewRecordRepository(sqlRunner, users)

	store, err := storage.NewFileStore(cfg.StoragePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init image store")
	}

	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	}

	generator := grsai.NewClient(grsai.Options{
		APIKey:  cfg.GrsaiAPIKey,
		BaseURL: cfg.GrsaiBaseURL,
		Logger:  &logger,
	})

	billingSvc := billing.NewService(billing.Options{
		Users:   users,
		Records: records,
		Orders:  orders,
		Store:   store,
		Logger:  &logger,
	})

	payments, err := payment.NewClient(payment.Options{
		GatewayURL:   cfg.PayGatewayURL,
		AppID:        cfg.PayAppID,
		PublicKeyPEM: loadPaymentKey(cfg, &logger),
		NotifyURL:    cfg.PayNotifyURL,
		Logger:       &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init payment gateway")
	}

	app := &handlers.App{
		Users:     users,
		Records:   records,
		Orders:    orders,
		Generator: generator,
		Billing:   billingSvc,
		Store:     store,
		Payments:  payments,
		GeoIP:     resolver,
		Cfg:       cfg,
		Logger:    &logger,
	}

	router := httpapi.NewRouter(app)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}

func loadPaymentKey(cfg *infra.Config, logger *infra.Logger) string {
	if cfg.PayPublicKeyPath == "" {
		return ""
	}
	data, err := os.ReadFile(cfg.PayPublicKeyPath)
	if err != nil {
		logger.Warn().Err(err).Msg("payment public key unreadable, webhooks disabled")
		return ""
	}
	return string(data)
}

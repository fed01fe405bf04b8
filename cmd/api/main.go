package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"contentflow/internal/adapter/repo"
	"contentflow/internal/callback"
	"contentflow/internal/dispatch"
	"contentflow/internal/http/handlers"
	"contentflow/internal/http/httpapi"
	"contentflow/internal/infra"
	"contentflow/internal/notify"
	"contentflow/internal/publish"
	"contentflow/internal/reaper"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer pool.Close()

	items := repo.NewWorkItemRepository(pool)
	channels := repo.NewChannelRepository(pool)
	notifications := repo.NewNotificationRepository(pool)
	derivatives := repo.NewDerivativeRepository(pool)

	notifier := notify.New(notifications, logger)

	dispatcher := dispatch.NewDispatcher(channels, &http.Client{Timeout: cfg.WebhookTimeout}, logger)
	trigger := dispatch.NewTrigger(items, dispatcher, cfg.CallbackBaseURL+"/v1/callbacks/processing", cfg.ProcessingTimeout, logger)

	reconcilers := callback.NewReconcilers(items, notifier, logger)
	callbacks := callback.NewDefaultRouter(reconcilers, logger)

	var platform publish.Platform
	if cfg.PlatformBaseURL != "" {
		platform, err = publish.NewWPClient(publish.WPOptions{
			BaseURL:     cfg.PlatformBaseURL,
			Username:    cfg.PlatformUser,
			AppPassword: cfg.PlatformAppPass,
			Logger:      &logger,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to configure platform client")
		}
	} else {
		logger.Warn().Msg("PLATFORM_BASE_URL not set, publish endpoint will fail")
	}
	publisher := publish.NewPublisher(items, derivatives, platform, nil, cfg.PublishAuthorEmail, cfg.PublishCategory, logger)

	rpr := reaper.New(items, notifier, logger)

	app := handlers.NewApp(trigger, callbacks, publisher, rpr, logger)
	router := httpapi.NewRouter(app, cfg)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil {
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

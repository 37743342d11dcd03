package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/sirupsen/logrus"

	"minibus-reservation-backend/config"
	"minibus-reservation-backend/internal/api"
	"minibus-reservation-backend/internal/db"
	"minibus-reservation-backend/internal/notification"
	"minibus-reservation-backend/internal/reservation"
	"minibus-reservation-backend/internal/store"
	"minibus-reservation-backend/internal/sweeper"
)

func main() {
	log := logrus.New()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.WithError(err).Fatalf("failed to load configuration from %s", configPath)
	}

	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		log.WithField("level", cfg.Log.Level).Warn("invalid log level, defaulting to info")
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	if cfg.Log.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	log.WithField("path", configPath).Info("configuration loaded")

	if cfg.Push.PublicKey == "" || cfg.Push.PrivateKey == "" {
		log.Fatal("VAPID keys must be configured; generate them and add them to the config file")
	}

	webpushOptions := webpush.Options{
		VAPIDPublicKey:  cfg.Push.PublicKey,
		VAPIDPrivateKey: cfg.Push.PrivateKey,
		Subscriber:      cfg.Push.Subject,
		TTL:             cfg.Push.TTL,
	}

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize database")
	}
	log.Info("database initialized")

	appStore := store.NewGormStore(gormDB)

	generator := notification.NewGenerator(appStore, appStore, appStore, log)
	engine := reservation.NewEngine(appStore, generator, log)
	dispatcher := notification.NewDispatcher(appStore, &webpushOptions, cfg.WorkerPool.Size, log)

	sweeps := sweeper.New(log)
	if err := sweeps.Add("auto-complete", cfg.Sweep.AutoCompleteInterval, engine.AutoCompleteSweep); err != nil {
		log.WithError(err).Fatal("failed to register auto-complete sweep")
	}
	if err := sweeps.Add("dispatch", cfg.Sweep.DispatchInterval, dispatcher.DispatchDue); err != nil {
		log.WithError(err).Fatal("failed to register dispatch sweep")
	}
	sweeps.Start()

	router := api.NewRouter(&cfg.Server, engine, appStore, &webpushOptions)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.WithField("port", cfg.Server.Port).Info("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("HTTP server ListenAndServe")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("shutdown signal received, stopping services")

	sweeps.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Fatal("HTTP server shutdown")
	}

	log.Info("server gracefully stopped")
}

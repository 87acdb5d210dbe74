package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/upworkrevolution/membership-api/api/handlers"
	"github.com/upworkrevolution/membership-api/api/scheduler"
	"github.com/upworkrevolution/membership-api/config"
	"github.com/upworkrevolution/membership-api/databases"
	"github.com/upworkrevolution/membership-api/mailer"
)

func main() {
	conf, err := config.New()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	a := handlers.App{}
	a.Config = *conf

	if err := a.Initialize(); err != nil { //initialize database, discord session and router
		log.Fatalf("failed to initialize: %v", err)
	}

	dbHelper := a.DatabaseHelper()
	sched := scheduler.NewScheduler(
		databases.NewUserDatabase(dbHelper),
		databases.NewOrderDatabase(dbHelper),
		databases.NewSchedulerLockDatabase(dbHelper),
		a.Gateway,
		mailer.NewSendgridNotifier(conf.SendgridAPIKey, conf.MailFromName, conf.MailFromEmail),
		conf,
	)
	sched.Start()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%v", conf.Port),
		Handler: a.Router,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.S().Fatalw("server failed", "error", err)
		}
	}()

	zap.S().Infow("membership-api is up and running",
		"port", conf.Port,
		"url", conf.BaseURL,
	)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	zap.S().Info("shutdown signal received")

	// stop taking new work first, then let in-flight jobs and requests drain
	sched.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zap.S().Errorw("server shutdown failed", "error", err)
	}
	if err := a.Gateway.Close(); err != nil {
		zap.S().Errorw("failed to close discord session", "error", err)
	}

	zap.S().Info("membership-api stopped")
}

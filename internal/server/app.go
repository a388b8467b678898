// Package server wires the application together: configuration, logging,
// the storage backend, the business services, and the HTTP server, with
// graceful shutdown on OS signals.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/dayplanner/internal/logging"
	"github.com/dmitrijs2005/dayplanner/internal/mail"
	"github.com/dmitrijs2005/dayplanner/internal/server/config"
	"github.com/dmitrijs2005/dayplanner/internal/server/httpapi"
	"github.com/dmitrijs2005/dayplanner/internal/server/repositories/storemanager"
	"github.com/dmitrijs2005/dayplanner/internal/server/services"
	"github.com/dmitrijs2005/dayplanner/internal/server/sessions"
)

type App struct {
	config    *config.Config
	logger    logging.Logger
	store     storemanager.Manager
	server    *httpapi.Server
	reminders *services.ReminderService
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewJSONLogger()

	store, err := storemanager.New(ctx, cfg.DatabaseDSN, cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	var sender mail.Sender
	if cfg.SMTPHost != "" {
		sender = mail.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.MailFrom)
	} else {
		sender = mail.NewLogSender(logger)
	}

	verification := services.NewVerificationService(sender, cfg.CodeValidityDuration)
	users := services.NewUserService(store.Accounts(), verification)
	tasks := services.NewTaskService(store.Tasks())
	export := services.NewExportService(store.Tasks(), cfg)
	// Fired reminders are emailed to the account's address when one is on
	// file; the service itself already logs every firing.
	reminders := services.NewReminderService(cfg.ReminderPollInterval, logger, func(r services.Reminder) {
		ctx := context.Background()
		acc, err := store.Accounts().GetByUsername(ctx, r.Owner)
		if err != nil || acc.Email == "" {
			return
		}
		body := fmt.Sprintf("Reminder: %q is due.", r.Title)
		if err := sender.Send(ctx, acc.Email, "Day Planner reminder", body); err != nil {
			logger.Error(ctx, "reminder mail failed", "error", err.Error())
		}
	})

	sessionStore := sessions.NewStore(cfg.SessionValidityDuration)

	srv := httpapi.NewServer(cfg, logger, sessionStore, users, tasks, export, reminders)

	return &App{
		config:    cfg,
		logger:    logger,
		store:     store,
		server:    srv,
		reminders: reminders,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting app")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.reminders.Run(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.server.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	wg.Wait()

	if err := app.store.Close(); err != nil {
		app.logger.Error(ctx, "store close error", "error", err.Error())
	}

	app.logger.Info(ctx, "app stopped")
}

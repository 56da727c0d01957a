// Package cli implements the fieldctl commands, a thin terminal client
// over the synchronization core. It stands in for the screen layer the
// web portal and the mobile app provide.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/fieldsync/fieldsync/internal/config"
	"github.com/fieldsync/fieldsync/internal/credstore"
	"github.com/fieldsync/fieldsync/internal/gateway"
	"github.com/fieldsync/fieldsync/internal/jobs"
	"github.com/fieldsync/fieldsync/internal/session"
	"github.com/fieldsync/fieldsync/internal/syncer"
	"github.com/fieldsync/fieldsync/shared/logger"
)

// App wires the client core for one command invocation.
type App struct {
	Config  *config.Config
	Session *session.Store
	Jobs    *jobs.Service
	Syncer  *syncer.Service

	creds *credstore.SQLiteStore
}

// NewApp builds the full client stack: credential store, session
// store, gateway, job service and synchronizer.
func NewApp(cfg *config.Config) (*App, error) {
	if err := cfg.ValidateClient(); err != nil {
		return nil, err
	}

	appLogger, err := logger.New(&logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, err
	}

	creds, err := credstore.OpenSQLite(cfg.Storage.CredentialsPath)
	if err != nil {
		return nil, err
	}

	sess := session.New(session.Config{
		Credentials: creds,
		Logger:      appLogger.Logger,
	})

	gw := gateway.New(gateway.Config{
		BaseURL: cfg.Client.BaseURL,
		Timeout: cfg.Client.RequestTimeout,
		Session: sess,
		Logger:  appLogger.Logger,
	})
	sess.Bind(gw)

	jobService := jobs.NewService(jobs.ServiceConfig{
		Sender: gw,
		Logger: appLogger.Logger,
	})

	sess.OnSessionEnded(func(session.Snapshot) {
		fmt.Fprintln(os.Stderr, "Session ended by the server. Run 'fieldctl login' to sign in again.")
	})

	return &App{
		Config:  cfg,
		Session: sess,
		Jobs:    jobService,
		Syncer: syncer.New(syncer.Config{
			Jobs:        jobService,
			Logger:      appLogger.Logger,
			Concurrency: cfg.Client.EnrichConcurrency,
		}),
		creds: creds,
	}, nil
}

// Close releases the credential store.
func (a *App) Close() error {
	return a.creds.Close()
}

// RequireSession restores the persisted session and fails when it does
// not resolve Authenticated.
func (a *App) RequireSession(ctx context.Context) (session.Snapshot, error) {
	snap, err := a.Session.Restore(ctx)
	if err != nil {
		return session.Snapshot{}, err
	}
	if !snap.Authenticated() {
		return session.Snapshot{}, fmt.Errorf("not logged in, run 'fieldctl login' first")
	}
	return snap, nil
}

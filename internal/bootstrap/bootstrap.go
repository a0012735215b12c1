// Package bootstrap assembles the engine from a Config. The CLI and the
// daemon share it.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/cargotrack/internal/config"
	"github.com/dmitrijs2005/cargotrack/internal/exporter"
	"github.com/dmitrijs2005/cargotrack/internal/identity"
	"github.com/dmitrijs2005/cargotrack/internal/logging"
	"github.com/dmitrijs2005/cargotrack/internal/metrics"
	"github.com/dmitrijs2005/cargotrack/internal/models"
	"github.com/dmitrijs2005/cargotrack/internal/remote"
	"github.com/dmitrijs2005/cargotrack/internal/session"
	"github.com/dmitrijs2005/cargotrack/internal/storage"
	"github.com/dmitrijs2005/cargotrack/internal/store"
	"github.com/dmitrijs2005/cargotrack/internal/tracker"
	"github.com/prometheus/client_golang/prometheus"
)

// ErrExportDisabled is returned by Export when no bucket is configured.
var ErrExportDisabled = errors.New("snapshot export is not configured")

type Engine struct {
	Tracker  *tracker.Service
	Registry *prometheus.Registry

	cfg      *config.Config
	db       *storage.DB
	metrics  *metrics.Recorder
	exporter *exporter.S3Exporter
	logger   logging.Logger
}

// Options carries collaborators that differ between the CLI and the daemon.
type Options struct {
	// Prompt shows device-code instructions. Required for device login.
	Prompt identity.Prompt
	// ExportOnSync uploads the snapshot after every successful sync.
	ExportOnSync bool
	// Factory replaces the backend selected by the config.
	Factory remote.Factory
	// Identity replaces the identity provider selected by the config.
	Identity identity.Provider
}

// Build opens storage and wires identity, transport, metrics and export
// into a tracker.Service. The caller owns the returned Engine and must Close
// it.
func Build(ctx context.Context, cfg *config.Config, logger logging.Logger, opts Options) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	db, err := storage.Open(ctx, cfg.StorageDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	e := &Engine{
		cfg:      cfg,
		db:       db,
		Registry: prometheus.NewRegistry(),
		logger:   logger.With("module", "bootstrap"),
	}
	e.metrics = metrics.New(e.Registry)

	if cfg.Export.Bucket != "" {
		e.exporter, err = exporter.New(ctx, exporter.Config{
			Bucket:          cfg.Export.Bucket,
			Prefix:          cfg.Export.Prefix,
			Region:          cfg.Export.Region,
			Endpoint:        cfg.Export.Endpoint,
			AccessKeyID:     cfg.Export.AccessKeyID,
			SecretAccessKey: cfg.Export.SecretAccessKey,
			PathStyle:       cfg.Export.PathStyle,
		})
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("exporter init error: %w", err)
		}
	}

	id := opts.Identity
	if id == nil {
		id = newIdentity(ctx, cfg, db, opts.Prompt, logger)
	}
	factory := opts.Factory
	if factory == nil {
		factory = newFactory(ctx, cfg)
	}

	sess := session.NewManager(db.Metadata, session.Fallback{
		Enabled:      cfg.Fallback.Enabled,
		Login:        cfg.Fallback.Login,
		PasswordHash: cfg.Fallback.PasswordHash,
	}, logger)

	topts := []tracker.Option{tracker.WithRecorder(e.metrics)}
	if opts.ExportOnSync && e.exporter != nil {
		topts = append(topts, tracker.WithSyncHook(e.exportHook))
	}

	e.Tracker = tracker.NewService(
		tracker.Config{Collections: cfg.Collections},
		id, factory, store.New(), sess, logger, topts...,
	)
	return e, nil
}

func newIdentity(ctx context.Context, cfg *config.Config, db *storage.DB, prompt identity.Prompt, logger logging.Logger) identity.Provider {
	switch cfg.Identity {
	case config.IdentityClientCredentials:
		return identity.NewClientCredentials(ctx, identity.ClientCredentialsConfig{
			TenantID:     cfg.TenantID,
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
		})
	case config.IdentityStatic:
		token := cfg.StaticToken
		if token == "" && cfg.Backend == config.BackendMemory {
			token = "memory"
		}
		return identity.NewStatic(token)
	default:
		return identity.NewDeviceFlow(identity.DeviceFlowConfig{
			TenantID: cfg.TenantID,
			ClientID: cfg.ClientID,
		}, db.Metadata, prompt, logger)
	}
}

func newFactory(ctx context.Context, cfg *config.Config) remote.Factory {
	switch cfg.Backend {
	case config.BackendFirestore:
		return remote.FirestoreFactory(ctx, remote.FirestoreOptions{
			ProjectID:       cfg.FirestoreProject,
			CredentialsFile: cfg.FirestoreCredentials,
		})
	case config.BackendMemory:
		return remote.MemoryFactory(remote.NewMemoryClient())
	default:
		return remote.GraphFactory(remote.GraphOptions{
			BaseURL:    cfg.GraphBaseURL,
			MaxRetries: cfg.GraphMaxRetries,
		})
	}
}

// Sync runs one sync cycle bounded by the configured timeout, if any.
func (e *Engine) Sync(ctx context.Context) error {
	if e.cfg.SyncTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.SyncTimeout)
		defer cancel()
	}
	return e.Tracker.Sync(ctx)
}

// Export uploads the current snapshot and returns the object key.
func (e *Engine) Export(ctx context.Context) (string, error) {
	if e.exporter == nil {
		return "", ErrExportDisabled
	}
	key, err := e.exporter.Export(ctx, e.Tracker.View().Snapshot)
	e.metrics.ObserveExport(err)
	return key, err
}

func (e *Engine) exportHook(ctx context.Context, snap models.Snapshot) {
	key, err := e.exporter.Export(ctx, snap)
	e.metrics.ObserveExport(err)
	if err != nil {
		e.logger.Error(ctx, "snapshot export failed", "error", err)
		return
	}
	e.logger.Info(ctx, "snapshot exported", "key", key)
}

// Logout ends the session, then removes the session and identity keys in
// one transaction. Unlike Tracker.Logout it fails when they cannot be
// removed.
func (e *Engine) Logout(ctx context.Context) error {
	if err := e.Tracker.Logout(ctx); err != nil {
		return err
	}
	return e.db.DeleteKeys(ctx, session.CurrentUserKey, identity.TokenKey)
}

func (e *Engine) Close() error {
	return e.db.Close()
}

// View returns the tracker view.
func (e *Engine) View() tracker.View {
	return e.Tracker.View()
}

package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"

	"afterglow/internal/config"
	"afterglow/internal/fs"
	"afterglow/internal/history"
	"afterglow/internal/keychain"
	"afterglow/internal/publish"
	"afterglow/internal/remote"
	"afterglow/internal/siteassets"
	"afterglow/internal/thumbnail"
)

// Options tune how an AfterglowApp is built.
type Options struct {
	// Operation names the CLI command being run (e.g. "publish"). It prefixes
	// the operation id stamped on every log line.
	Operation string
	// Passphrase unlocks the age credentials store when it is needed.
	Passphrase keychain.PassphraseFunc
	// Emitter receives publish events. Nil discards them.
	Emitter publish.Emitter
	// LogEcho additionally receives every log record. May be nil.
	LogEcho io.Writer
	// LogLevel is the minimum level logged.
	LogLevel slog.Level
	// LocalOnly skips credentials and remote setup. Only Thumbnails and
	// History work on such an app.
	LocalOnly bool
}

// ErrLocalOnly is returned by remote operations of a LocalOnly app.
var ErrLocalOnly = errors.New("app was opened without a remote")

// AfterglowApp is the application layer between the CLI and publish.Service.
// It constructs all dependencies from config, records executions in the
// history log, and releases everything on Close.
type AfterglowApp struct {
	cfg     *config.Config
	store   publish.ObjectStore
	service *publish.Service
	history history.Log
	clock   publish.Clock
	logger  publish.Logger
	logFile *os.File
}

// NewAfterglowApp creates a fully wired AfterglowApp from the given config.
// Credentials are loaded only when the remote or CDN needs them.
// The caller must call Close when done.
func NewAfterglowApp(ctx context.Context, cfg *config.Config, opts Options) (*AfterglowApp, error) {
	if cfg.Workspace == "" {
		return nil, fmt.Errorf("no workspace configured")
	}

	var (
		store publish.ObjectStore
		cdn   publish.Invalidator
	)
	if !opts.LocalOnly {
		var err error
		store, cdn, err = newRemote(ctx, cfg, opts.Passphrase)
		if err != nil {
			return nil, err
		}
	}

	hist, err := history.NewLogFromConfig(cfg.History)
	if err != nil {
		return nil, fmt.Errorf("creating history log: %w", err)
	}

	clock := publish.RealClock{}
	op := opts.Operation
	if op == "" {
		op = "afterglow"
	}
	opID := op + "-" + clock.Now().UTC().Format("20060102T150405Z")
	l, logFile, err := newLogger(cfg.LogDir, opID, opts.LogEcho, opts.LogLevel)
	if err != nil {
		hist.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: l}

	emitter := opts.Emitter
	if emitter == nil {
		emitter = publish.NopEmitter{}
	}

	fsmgr := fs.NewOSFilesystemManager()
	svc := publish.NewService(store, cdn, fsmgr, emitter, logger, clock, publish.UUIDGenerator{}, publish.Options{
		RemoteRoot:     cfg.Remote.Prefix,
		DistributionID: cfg.DistributionID(),
		StagingDir:     cfg.StagingDir,
		SiteAssets:     siteassets.FS(),
	})

	return &AfterglowApp{
		cfg:     cfg,
		store:   store,
		service: svc,
		history: hist,
		clock:   clock,
		logger:  logger,
		logFile: logFile,
	}, nil
}

// newRemote builds the object store and CDN invalidator, loading
// credentials only when the remote or CDN needs them.
func newRemote(ctx context.Context, cfg *config.Config, passphrase keychain.PassphraseFunc) (publish.ObjectStore, publish.Invalidator, error) {
	var awsCfg *aws.Config
	if remote.NeedsAWS(cfg) {
		creds, err := LoadCredentials(cfg, passphrase)
		if err != nil {
			return nil, nil, err
		}
		c, err := keychain.AWSConfig(ctx, creds, cfg.Region())
		if err != nil {
			return nil, nil, err
		}
		awsCfg = &c
	}

	store, err := remote.NewStoreFromConfig(cfg, awsCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("creating remote store: %w", err)
	}
	cdn, err := remote.NewInvalidatorFromConfig(cfg, awsCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("creating cdn invalidator: %w", err)
	}
	return store, cdn, nil
}

// Store returns the object store the app publishes to, or nil for a
// LocalOnly app.
func (a *AfterglowApp) Store() publish.ObjectStore {
	return a.store
}

// Thumbnails generates and prunes the workspace thumbnail cache.
func (a *AfterglowApp) Thumbnails(ctx context.Context) (thumbnail.Results, error) {
	return a.service.Thumbnails(ctx, a.cfg.Workspace)
}

// Preview computes a publish plan for the configured workspace.
func (a *AfterglowApp) Preview(ctx context.Context) (*publish.Plan, error) {
	if a.store == nil {
		return nil, ErrLocalOnly
	}
	return a.service.Preview(ctx, a.cfg.Workspace)
}

// Execute applies a previewed plan and records the execution in the
// history log. A cancelled or failed plan is discarded afterwards: this
// process never retries it.
func (a *AfterglowApp) Execute(ctx context.Context, planID string) (*publish.Result, error) {
	if a.store == nil {
		return nil, ErrLocalOnly
	}
	plan, err := a.service.Plans().Get(planID)
	if err != nil {
		return nil, err
	}

	op := NewPublishOperation(planID)
	id, err := a.history.Start(planID, plan.RemoteRoot, a.clock.Now())
	if err != nil {
		a.logger.Warn("recording publish start failed", "plan", planID, "error", err)
	} else {
		op.ID = id
	}

	res, execErr := a.service.Execute(ctx, planID)
	op.Complete(res, execErr)

	if op.Persisted() {
		if err := a.history.Finish(op.ID, a.clock.Now(), op.Outcome()); err != nil {
			a.logger.Warn("recording publish outcome failed", "plan", planID, "error", err)
		}
	}

	if op.Status != history.StatusSuccess {
		if err := a.service.Discard(planID); err != nil {
			a.logger.Warn("discarding plan failed", "plan", planID, "error", err)
		}
	}
	return res, execErr
}

// Cancel stops a running Execute of planID at its next check.
func (a *AfterglowApp) Cancel(planID string) error {
	return a.service.Cancel(planID)
}

// Discard drops a plan the user declined to execute.
func (a *AfterglowApp) Discard(planID string) error {
	return a.service.Discard(planID)
}

// History returns the most recent publish executions.
func (a *AfterglowApp) History(limit int) ([]history.Operation, error) {
	return a.history.List(limit)
}

// Close discards outstanding plans, then closes the history log and the log file.
func (a *AfterglowApp) Close() error {
	var firstErr error

	if err := a.service.Close(); err != nil {
		firstErr = fmt.Errorf("closing publish service: %w", err)
	}
	if err := a.history.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("closing history log: %w", err)
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}

// OpenHistory opens just the history log, for commands that only read it.
func OpenHistory(cfg *config.Config) (history.Log, error) {
	return history.NewLogFromConfig(cfg.History)
}

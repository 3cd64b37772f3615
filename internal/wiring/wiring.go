// Package wiring assembles repositories, adapters and services from the runtime
// configuration. Both the API server and the admin CLI start from here.
package wiring

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/climbing-section/backoffice/internal/adapters/mailer"
	memadminrepo "github.com/climbing-section/backoffice/internal/adapters/memory/adminrepo"
	memblobstore "github.com/climbing-section/backoffice/internal/adapters/memory/blobstore"
	memidempotency "github.com/climbing-section/backoffice/internal/adapters/memory/idempotency"
	meminvitationrepo "github.com/climbing-section/backoffice/internal/adapters/memory/invitationrepo"
	memmemberrepo "github.com/climbing-section/backoffice/internal/adapters/memory/memberrepo"
	memmembershiprepo "github.com/climbing-section/backoffice/internal/adapters/memory/membershiprepo"
	memseasonrepo "github.com/climbing-section/backoffice/internal/adapters/memory/seasonrepo"
	postgres "github.com/climbing-section/backoffice/internal/adapters/postgres"
	pgadminrepo "github.com/climbing-section/backoffice/internal/adapters/postgres/adminrepo"
	pgidempotency "github.com/climbing-section/backoffice/internal/adapters/postgres/idempotency"
	pginvitationrepo "github.com/climbing-section/backoffice/internal/adapters/postgres/invitationrepo"
	pgmemberrepo "github.com/climbing-section/backoffice/internal/adapters/postgres/memberrepo"
	pgmembershiprepo "github.com/climbing-section/backoffice/internal/adapters/postgres/membershiprepo"
	pgseasonrepo "github.com/climbing-section/backoffice/internal/adapters/postgres/seasonrepo"
	"github.com/climbing-section/backoffice/internal/adapters/s3blob"
	"github.com/climbing-section/backoffice/internal/app/admins"
	"github.com/climbing-section/backoffice/internal/app/export"
	"github.com/climbing-section/backoffice/internal/app/members"
	"github.com/climbing-section/backoffice/internal/app/memberships"
	"github.com/climbing-section/backoffice/internal/app/seasons"
	"github.com/climbing-section/backoffice/internal/platform/auth/session"
	platformclock "github.com/climbing-section/backoffice/internal/platform/clock"
	"github.com/climbing-section/backoffice/internal/platform/config"
	"github.com/climbing-section/backoffice/internal/platform/password"
	"github.com/climbing-section/backoffice/internal/ports/out/adminrepo"
	"github.com/climbing-section/backoffice/internal/ports/out/blobstore"
	clockport "github.com/climbing-section/backoffice/internal/ports/out/clock"
	"github.com/climbing-section/backoffice/internal/ports/out/idempotency"
	"github.com/climbing-section/backoffice/internal/ports/out/invitationrepo"
	mailerport "github.com/climbing-section/backoffice/internal/ports/out/mailer"
	"github.com/climbing-section/backoffice/internal/ports/out/memberrepo"
	"github.com/climbing-section/backoffice/internal/ports/out/membershiprepo"
	"github.com/climbing-section/backoffice/internal/ports/out/seasonrepo"
)

type Options struct {
	// Migrate applies pending schema migrations when the storage backend is Postgres.
	Migrate bool
	// Clock defaults to the system clock.
	Clock clockport.Clock
}

type Repos struct {
	Members     memberrepo.Repository
	Seasons     seasonrepo.Repository
	Memberships membershiprepo.Repository
	Admins      adminrepo.Repository
	Invitations invitationrepo.Repository
	Idempotency idempotency.Store
}

// App is the assembled back office.
type App struct {
	Config config.Config
	Logger *zap.Logger
	Clock  clockport.Clock

	// Pool is nil with the memory storage backend.
	Pool     *pgxpool.Pool
	Repos    Repos
	Blobs    blobstore.Store
	Mailer   mailerport.Mailer
	Sessions *session.Manager

	Members     *members.Service
	Seasons     *seasons.Service
	Memberships *memberships.Service
	Admins      *admins.Service
	Export      *export.Service
}

func New(ctx context.Context, cfg config.Config, logger *zap.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	clk := opts.Clock
	if clk == nil {
		clk = platformclock.NewSystemClock()
	}
	app := &App{Config: cfg, Logger: logger, Clock: clk}

	switch cfg.Storage.Backend {
	case config.BackendPostgres:
		pool, err := postgres.NewPool(ctx, cfg.Storage.DatabaseURL, postgres.PoolOptions{MaxConns: cfg.Storage.MaxConns})
		if err != nil {
			return nil, err
		}
		if opts.Migrate {
			if err := postgres.MigratePool(ctx, pool); err != nil {
				pool.Close()
				return nil, err
			}
		}
		app.Pool = pool
		app.Repos = Repos{
			Members:     pgmemberrepo.NewRepo(pool),
			Seasons:     pgseasonrepo.NewRepo(pool),
			Memberships: pgmembershiprepo.NewRepo(pool),
			Admins:      pgadminrepo.NewRepo(pool),
			Invitations: pginvitationrepo.NewRepo(pool),
			Idempotency: pgidempotency.NewStore(pool),
		}
	case config.BackendMemory:
		app.Repos = Repos{
			Members:     memmemberrepo.NewRepo(),
			Seasons:     memseasonrepo.NewRepo(),
			Memberships: memmembershiprepo.NewRepo(),
			Admins:      memadminrepo.NewRepo(),
			Invitations: meminvitationrepo.NewRepo(),
			Idempotency: memidempotency.NewStore(),
		}
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	switch cfg.Blob.Backend {
	case config.BackendS3:
		store, err := s3blob.New(ctx, cfg.Blob)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.Blobs = store
	default:
		app.Blobs = memblobstore.NewStore()
	}

	switch cfg.Mail.Backend {
	case config.BackendSMTP:
		m, err := mailer.NewSMTPMailer(cfg.Mail)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.Mailer = m
	default:
		app.Mailer = mailer.NewLogMailer(logger.Named("mail"))
	}

	app.Sessions = session.NewWithOptions(cfg.Session, clk)

	app.Members = members.NewService(app.Repos.Members, app.Repos.Memberships, app.Blobs, clk, logger.Named("members"))
	if cfg.PictureMaxBytes > 0 {
		app.Members.PictureMaxBytes = cfg.PictureMaxBytes
	}
	app.Seasons = seasons.NewService(app.Repos.Seasons, app.Repos.Memberships, clk, logger.Named("seasons"))
	app.Memberships = memberships.NewService(app.Repos.Memberships, app.Repos.Members, app.Repos.Seasons, clk, logger.Named("memberships"))
	app.Admins = admins.NewService(
		app.Repos.Admins,
		app.Repos.Invitations,
		app.Sessions,
		password.Hasher{},
		app.Mailer,
		clk,
		logger.Named("admins"),
		admins.Options{InvitationTTL: cfg.InvitationTTL, PublicBaseURL: cfg.PublicBaseURL},
	)
	app.Export = export.NewService(app.Repos.Members, app.Repos.Memberships, app.Repos.Seasons, clk, logger.Named("export"))
	app.Export.FontPath = cfg.PDFFontPath

	return app, nil
}

func (a *App) Close() {
	if a.Pool != nil {
		a.Pool.Close()
	}
}

// BootstrapAdmin creates the configured first admin, if any.
func (a *App) BootstrapAdmin(ctx context.Context) error {
	if a.Config.BootstrapAdminEmail == "" {
		return nil
	}
	admin, created, err := a.Admins.BootstrapAdmin(ctx, a.Config.BootstrapAdminEmail, a.Config.BootstrapAdminPassword)
	if err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	if created {
		a.Logger.Info("bootstrap admin created", zap.String("adminId", string(admin.ID)))
	}
	return nil
}

// RunIdempotencyJanitor deletes idempotency records older than ttl every interval until
// ctx is done.
func RunIdempotencyJanitor(ctx context.Context, store idempotency.Store, clk clockport.Clock, ttl, every time.Duration, logger *zap.Logger) {
	if ttl <= 0 || every <= 0 {
		return
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		sweepIdempotency(ctx, store, clk, ttl, logger)
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

func sweepIdempotency(ctx context.Context, store idempotency.Store, clk clockport.Clock, ttl time.Duration, logger *zap.Logger) {
	n, err := store.DeleteBefore(ctx, clk.Now().Add(-ttl))
	if err != nil {
		if ctx.Err() == nil {
			logger.Warn("idempotency sweep failed", zap.Error(err))
		}
		return
	}
	if n > 0 {
		logger.Info("idempotency records expired", zap.Int("deleted", n))
	}
}

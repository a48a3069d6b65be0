package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/gofiber/fiber/v2"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/taskhive/identity"
)

// Config is read from the environment
type Config struct {
	HTTPAddr       string        `env:"HTTP_ADDR" envDefault:":9000"`
	DSN            string        `env:"DSN" envDefault:"file:identity.db?cache=shared"`
	SigningKey     string        `env:"SIGNING_KEY,required"`
	Issuer         string        `env:"ISSUER" envDefault:"identity"`
	AccessTTL      time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"15m"`
	RefreshTTL     time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"168h"`
	ProfileURL     string        `env:"PROFILE_SERVICE_URL,required"`
	ProfileTimeout time.Duration `env:"PROFILE_SERVICE_TIMEOUT" envDefault:"10s"`
	Debug          bool          `env:"DEBUG" envDefault:"false"`
}

func (c Config) GetSigningKey() string             { return c.SigningKey }
func (c Config) GetIssuer() string                 { return c.Issuer }
func (c Config) GetAccessTokenTTL() time.Duration  { return c.AccessTTL }
func (c Config) GetRefreshTokenTTL() time.Duration { return c.RefreshTTL }

func main() {
	slogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := identity.NewSlogLogger(slogger)

	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		slogger.Error("failed to parse configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bunDB, err := openDB(ctx, cfg.DSN)
	if err != nil {
		slogger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer bunDB.Close()

	repo := identity.NewRepositoryManager(bunDB)
	repo.MustValidate()

	profiles := identity.NewHTTPProfileClient(cfg.ProfileURL, identity.WithProfileLogger(logger))

	provisioner := identity.NewProvisionAccountHandler(repo, profiles,
		identity.WithProvisionLogger(logger),
		identity.WithProvisionRemoteTimeout(cfg.ProfileTimeout),
		identity.WithProvisionReconciler(identity.NewLogReconciliationSink(logger)),
	)

	svc := identity.NewIdentityService(repo, profiles, cfg).
		WithLogger(logger).
		WithProvisioner(provisioner)

	app := fiber.New(fiber.Config{
		AppName:               "identityd",
		DisableStartupMessage: !cfg.Debug,
	})

	identity.RegisterAuthRoutes(app.Group("/auth"),
		identity.WithAuther(svc),
		identity.WithControllerLogger(logger),
		identity.WithControllerDebug(cfg.Debug),
	)

	go func() {
		<-ctx.Done()
		slogger.Info("shutting down")
		_ = app.ShutdownWithTimeout(5 * time.Second)
	}()

	slogger.Info("identityd listening", "addr", cfg.HTTPAddr)
	if err := app.Listen(cfg.HTTPAddr); err != nil {
		slogger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func openDB(ctx context.Context, dsn string) (*bun.DB, error) {
	db, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, err
	}

	bunDB := bun.NewDB(db, sqlitedialect.New())

	models := []any{
		(*identity.Account)(nil),
		(*identity.RefreshToken)(nil),
	}

	for _, model := range models {
		if _, err := bunDB.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			_ = bunDB.Close()
			return nil, err
		}
	}

	return bunDB, nil
}

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/proxy"

	"github.com/taskhive/identity"
	"github.com/taskhive/identity/middleware/gatewayware"
)

// Config is read from the environment. The gateway shares the signing key
// with identityd so it can verify tokens locally without a network hop.
type Config struct {
	HTTPAddr    string        `env:"HTTP_ADDR" envDefault:":8080"`
	SigningKey  string        `env:"SIGNING_KEY,required"`
	Issuer      string        `env:"ISSUER" envDefault:"identity"`
	AuthURL     string        `env:"AUTH_UPSTREAM,required"`
	UpstreamURL string        `env:"APP_UPSTREAM,required"`
	AccessTTL   time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"15m"`
	RefreshTTL  time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"168h"`
}

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

	tokens := identity.NewTokenService(
		[]byte(cfg.SigningKey),
		cfg.AccessTTL,
		cfg.RefreshTTL,
		cfg.Issuer,
		logger,
	)

	app := fiber.New(fiber.Config{
		AppName: "gatewayd",
	})

	app.Use(gatewayware.New(gatewayware.Config{
		Validator: gatewayware.TokenValidatorFunc(func(raw string) (gatewayware.AuthClaims, error) {
			return tokens.Validate(raw)
		}),
		AllowPrefixes: []string{"/auth"},
	}))

	app.All("/auth/*", forward(cfg.AuthURL))
	app.All("/*", forward(cfg.UpstreamURL))

	go func() {
		<-ctx.Done()
		slogger.Info("shutting down")
		_ = app.ShutdownWithTimeout(5 * time.Second)
	}()

	slogger.Info("gatewayd listening", "addr", cfg.HTTPAddr)
	if err := app.Listen(cfg.HTTPAddr); err != nil {
		slogger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

// forward proxies the request to the upstream, preserving the original path
// and query string
func forward(upstream string) fiber.Handler {
	base := strings.TrimSuffix(upstream, "/")

	return func(c *fiber.Ctx) error {
		target := base + c.OriginalURL()
		if err := proxy.Do(c, target); err != nil {
			return err
		}
		// The upstream answers for itself; strip hop-by-hop server identity
		c.Response().Header.Del(fiber.HeaderServer)
		return nil
	}
}

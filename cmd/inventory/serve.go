package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/django/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-inventory"
	"github.com/goliatone/go-inventory/activitymap"
	"github.com/goliatone/go-inventory/advisor"
	"github.com/goliatone/go-inventory/middleware/jwtware"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard and the JSON API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.repo.Validate(); err != nil {
		return err
	}

	srv, limiters, err := newServer(ctx, a)
	if err != nil {
		return err
	}

	log := a.GetLogger("server")
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("listening", "addr", a.cfg.Listen)
		return srv.Listen(a.cfg.Listen)
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down", "timeout", a.cfg.ShutdownTimeout)
		return srv.ShutdownWithTimeout(a.cfg.ShutdownTimeout)
	})

	g.Go(func() error {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				for _, l := range limiters {
					if n := l.Cleanup(); n > 0 {
						log.Debug("rate limiter cleanup", "evicted", n)
					}
				}
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// newServer wires the authentication stack and the controller on a fiber app.
func newServer(ctx context.Context, a *app) (*fiber.App, []*inventory.KeyedLimiter, error) {
	cfg := a.cfg
	isDebug := debug || cfg.Debug

	metrics := inventory.NewMetrics()
	sink := inventory.MultiActivitySink(
		activitymap.LoggerSink(a.GetLogger("activity")),
		metrics.ActivitySink(),
	)

	users := inventory.NewUserProvider(a.repo.Users()).
		WithLoggerProvider(a.provider)

	auther := inventory.NewAuthenticator(users, cfg).
		WithLogger(a.GetLogger("auth")).
		WithActivitySink(sink).
		WithClaimsDecorator(inventory.ApprovalClaimsDecorator())

	validator, err := tokenValidator(ctx, a, auther)
	if err != nil {
		return nil, nil, err
	}
	auther.WithTokenValidator(validator)

	httpAuth, err := inventory.NewHTTPAuthenticator(auther, cfg)
	if err != nil {
		return nil, nil, err
	}
	httpAuth.WithLogger(a.GetLogger("http.auth")).
		WithSecureCookies(cfg.Auth.SecureCookies)

	adv, err := advisor.New(ctx, advisor.Config{
		APIKey:           cfg.Advisor.APIKey,
		DescriptionModel: cfg.Advisor.DescriptionModel,
		AnalysisModel:    cfg.Advisor.AnalysisModel,
		CacheSize:        cfg.Advisor.CacheSize,
		Timeout:          cfg.Advisor.Timeout,
	},
		advisor.WithLogger(a.GetLogger("advisor")),
		advisor.WithCallObserver(metrics.ObserveAdvisorCall),
	)
	if err != nil {
		return nil, nil, err
	}

	engine := django.NewFileSystem(http.FS(inventory.GetViewsFS()), ".html")
	engine.AddFuncMap(inventory.TemplateHelpers())
	engine.Reload(isDebug)

	srv := fiber.New(fiber.Config{
		AppName:           "inventory",
		UnescapePath:      true,
		StrictRouting:     false,
		PassLocalsToViews: true,
		ReadTimeout:       cfg.RequestTimeout,
		WriteTimeout:      cfg.RequestTimeout,
		Views:             engine,
		ErrorHandler:      inventory.NewErrorHandler(a.GetLogger("http.errors")),
	})

	ctrl := inventory.RegisterRoutes(srv,
		inventory.WithControllerRepo(a.repo),
		inventory.WithControllerAuther(httpAuth),
		inventory.WithControllerValidator(validator),
		inventory.WithControllerAdvisor(adv),
		inventory.WithControllerMetrics(metrics),
		inventory.WithControllerLogger(a.GetLogger("http.controller")),
		inventory.WithControllerSuperAdmin(cfg.SuperAdminEmail),
		inventory.WithControllerRateLimits(cfg.Limits.LoginPerMinute, cfg.Limits.AdvisorPerMinute, cfg.Limits.Burst),
		inventory.WithControllerPhoneRegion(cfg.PhoneRegion),
		inventory.WithControllerActivitySink(sink),
		inventory.WithControllerHandlerOptions(
			inventory.WithHandlerLogger(a.GetLogger("commands")),
			inventory.WithHandlerTimeout(cfg.RequestTimeout),
		),
		inventory.WithControllerDebug(isDebug),
	)

	return srv, []*inventory.KeyedLimiter{ctrl.LoginLimiter, ctrl.AdvisorLimiter}, nil
}

// tokenValidator accepts our own session tokens, and tokens from the hosted
// identity provider when a JWKS url is configured.
func tokenValidator(ctx context.Context, a *app, auther *inventory.Auther) (inventory.TokenValidator, error) {
	chain := inventory.NewTokenChain(auther.TokenService())

	if a.cfg.Auth.HostedJWKSURL == "" {
		return chain, nil
	}

	keyFunc, err := jwtware.NewKeyfunc(ctx, jwtware.KeyConfig{
		JWKSetURLs: []string{a.cfg.Auth.HostedJWKSURL},
	})
	if err != nil {
		return nil, err
	}

	a.GetLogger("auth").Info("hosted identity provider enabled", "jwks", a.cfg.Auth.HostedJWKSURL)
	hosted := inventory.NewHostedTokenValidator(keyFunc, a.cfg.Auth.HostedIssuer, a.cfg.HostedAudience())
	return chain.WithHosted(hosted), nil
}

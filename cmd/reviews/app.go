package main

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-router"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-reviews"
	"github.com/goliatone/go-reviews/activitymap"
	"github.com/goliatone/go-reviews/internal/config"
)

// app holds the wired services behind the API
type app struct {
	controller *reviews.APIController
	authn      *reviews.RouteAuthenticator
}

func newApp(ctx *commandContext, cfg *config.Config, db *bun.DB) (*app, error) {
	repo := reviews.NewRepositoryManager(db)
	if err := repo.Validate(); err != nil {
		return nil, err
	}

	tokens := reviews.NewTokenServiceFromConfig(cfg, ctx.getLogger("tokens"))

	codes, err := reviews.NewCodeGenerator(
		[]byte(cfg.GetSigningKey()),
		reviews.WithCodeTimeout(cfg.GetConfirmationTimeout()),
	)
	if err != nil {
		return nil, err
	}

	activity := newActivityLog(ctx.getLogger("activity"))
	emailAuth := reviews.NewEmailAuthenticator(repo, codes, tokens,
		reviews.WithMailer(reviews.LogMailer{From: cfg.GetFrom(), Logger: ctx.getLogger("mail")}),
		reviews.WithMailConfig(cfg),
		reviews.WithFeatureGate(cfg.FeatureGate()),
		reviews.WithAuthLogger(ctx.getLogger("auth")),
		reviews.WithActivitySink(activity),
	)

	serviceOpts := []reviews.ServiceOption{
		reviews.WithServiceLogger(ctx.getLogger("services")),
		reviews.WithServiceActivitySink(activity),
	}
	controller := reviews.NewAPIController(repo, emailAuth,
		reviews.WithControllerLogger(ctx.getLogger("api")),
		reviews.WithServiceOptions(repo, serviceOpts...),
	)

	authn := reviews.NewHTTPAuthenticator(tokens, repo.Users(), cfg).
		WithLogger(ctx.getLogger("authn"))

	return &app{
		controller: controller,
		authn:      authn,
	}, nil
}

func (a *app) newHTTPServer(ctx *commandContext, cfg *config.Config) router.Server[*fiber.App] {
	srv := router.NewFiberAdapter(func(f *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			UnescapePath:      true,
			EnablePrintRoutes: cfg.HTTP.Debug,
			StrictRouting:     false,
		}))
	})

	srv.Router().WithLogger(ctx.getLogger("router"))

	srv.Router().Get("/healthz", func(c router.Context) error {
		return c.JSON(router.StatusOK, map[string]string{"status": "ok"})
	})

	reviews.RegisterAPIRoutes(srv.Router(), a.controller, a.authn.OptionalRoute())

	return srv
}

// newActivityLog writes every activity event as one structured log line
func newActivityLog(logger reviews.Logger) reviews.ActivitySink {
	return activitymap.Sink(func(n activitymap.Normalized) error {
		logger.Info(n.Verb,
			"channel", n.Channel,
			"actor", n.ActorID,
			"object", n.ObjectType+":"+n.ObjectID,
			"metadata", n.Metadata,
			"at", n.OccurredAt.Format(time.RFC3339),
		)
		return nil
	})
}

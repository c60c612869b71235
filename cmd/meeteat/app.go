package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/tbourn/meet-eat-backend/internal/callback"
	"github.com/tbourn/meet-eat-backend/internal/config"
	httpapi "github.com/tbourn/meet-eat-backend/internal/http"
	"github.com/tbourn/meet-eat-backend/internal/http/handlers"
	"github.com/tbourn/meet-eat-backend/internal/notify"
	"github.com/tbourn/meet-eat-backend/internal/observability"
	"github.com/tbourn/meet-eat-backend/internal/render"
	"github.com/tbourn/meet-eat-backend/internal/repo"
	"github.com/tbourn/meet-eat-backend/internal/services"
	"github.com/tbourn/meet-eat-backend/internal/sysutil"
	"github.com/tbourn/meet-eat-backend/internal/telegram"
	"github.com/tbourn/meet-eat-backend/internal/worker"
)

// app owns every long-lived dependency of a running process.
type app struct {
	cfg config.Config
	log zerolog.Logger

	db     *gorm.DB
	nc     *nats.Conn
	tg     *telegram.Client
	render *render.Renderer
	pool   *notify.Pool
	sink   *notify.Sink
	msgr   *notify.Deliverer

	invites       *services.InviteService
	surveys       *services.SurveyService
	reviews       *services.ReviewService
	notifications *services.NotificationService

	shutdownOTel func(context.Context) error
}

// newLogger builds the process logger and installs it as the zerolog global,
// which the HTTP middleware derives request loggers from.
func newLogger(cfg config.Config) zerolog.Logger {
	l := sysutil.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogPretty).With().Str("service", cfg.OTEL.ServiceName).Logger()
	zlog.Logger = l
	return l
}

func openDB(cfg config.Config) (*gorm.DB, error) {
	db, err := repo.Open(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		closeDB(db)
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func newApp(ctx context.Context, cfg config.Config, version string) (*app, error) {
	a := &app{cfg: cfg, log: newLogger(cfg)}
	if err := a.init(ctx, version); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func (a *app) init(ctx context.Context, version string) (err error) {
	cfg := a.cfg
	if a.shutdownOTel, err = observability.SetupOTel(ctx, cfg.OTEL, version); err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	if a.db, err = openDB(cfg); err != nil {
		return err
	}
	if a.render, err = render.New(cfg.Locale.TimeZone, cfg.Locale.Language); err != nil {
		return fmt.Errorf("render: %w", err)
	}

	a.tg = telegram.New(telegram.Config{
		Token:   cfg.Telegram.BotToken,
		BaseURL: cfg.Telegram.APIBaseURL,
		Timeout: cfg.Telegram.RequestTimeout,
	})
	if !a.tg.Enabled() {
		a.log.Warn().Msg("BOT_TOKEN not set; outbound messages are disabled")
	}
	a.msgr = notify.NewDeliverer(a.tg, cfg.Survey.DeliveryAttempts, cfg.Survey.RetryBackoff, cfg.Survey.RetryMaxDelay, a.log)
	a.pool = notify.NewPool(cfg.Notify.Workers, cfg.Notify.TaskTimeout, a.log)

	a.sink = &notify.Sink{Log: a.log}
	if cfg.NATS.URL != "" {
		a.nc, err = nats.Connect(cfg.NATS.URL,
			nats.Name(cfg.OTEL.ServiceName),
			nats.MaxReconnects(-1),
			nats.DisconnectErrHandler(func(_ *nats.Conn, derr error) {
				if derr != nil {
					a.log.Warn().Err(derr).Msg("nats disconnected")
				}
			}),
		)
		if err != nil {
			return fmt.Errorf("nats connect: %w", err)
		}
		a.sink.Publisher = &notify.NATSPublisher{Conn: a.nc, Prefix: cfg.NATS.SubjectPrefix}
	}

	outbox := &services.Outbox{Sink: a.sink, Messenger: a.msgr, Async: a.pool, Log: a.log}
	a.invites = &services.InviteService{
		DB:             a.db,
		Render:         a.render,
		Outbox:         outbox,
		ProfileBaseURL: cfg.Telegram.PublicBaseURL,
		IdempotencyTTL: cfg.IdempotencyTTL,
	}
	a.surveys = &services.SurveyService{DB: a.db, Render: a.render, Outbox: outbox}
	a.reviews = &services.ReviewService{DB: a.db}
	a.notifications = &services.NotificationService{DB: a.db}
	return nil
}

func (a *app) dispatcher() *worker.SurveyDispatcher {
	return &worker.SurveyDispatcher{
		DB:        a.db,
		Sink:      a.sink,
		Messenger: a.msgr,
		Render:    a.render,
		Log:       a.log.With().Str("component", "survey_dispatcher").Logger(),
		Grace:     a.cfg.Survey.GraceInterval,
		Interval:  a.cfg.Survey.PollInterval,
		Batch:     a.cfg.Survey.BatchSize,

		PromptTimeout: a.cfg.Notify.TaskTimeout,
	}
}

func (a *app) handler() http.Handler {
	gin.SetMode(a.cfg.GinMode)
	cb := callback.NewRouter(a.invites, a.surveys, a.reviews, a.tg, a.render,
		a.log.With().Str("component", "callbacks").Logger())
	h := handlers.New(handlers.Deps{
		Invites:       a.invites,
		Surveys:       a.surveys,
		Reviews:       a.reviews,
		Notifications: a.notifications,
		Callbacks:     cb,
		WebhookSecret: a.cfg.Telegram.WebhookSecret,
	})
	r := gin.New()
	httpapi.RegisterRoutes(r, a.db, h, a.cfg)
	return r
}

// serve runs the HTTP server and, when enabled, the survey dispatcher until
// ctx is cancelled or either fails, then drains in-flight requests.
func (a *app) serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           a.handler(),
		ReadTimeout:       a.cfg.ReadTimeout,
		ReadHeaderTimeout: a.cfg.ReadHeaderTimeout,
		WriteTimeout:      a.cfg.WriteTimeout,
		IdleTimeout:       a.cfg.IdleTimeout,
		MaxHeaderBytes:    a.cfg.MaxHeaderBytes,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.log.Info().Str("addr", srv.Addr).Str("api_base", a.cfg.APIBasePath).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.ShutdownTimeout)
		defer cancel()
		a.log.Info().Msg("shutting down http server")
		return srv.Shutdown(sctx)
	})
	if a.cfg.Survey.Enabled {
		d := a.dispatcher()
		g.Go(func() error { return d.Run(gctx) })
	} else {
		a.log.Info().Msg("survey dispatcher disabled")
	}
	return g.Wait()
}

// close releases resources in reverse order of acquisition. Safe on a
// partially built app.
func (a *app) close() {
	timeout := a.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if a.pool != nil {
		if err := a.pool.Close(ctx); err != nil {
			a.log.Warn().Err(err).Msg("notification pool did not drain")
		}
	}
	if a.nc != nil {
		if err := a.nc.Drain(); err != nil {
			a.log.Warn().Err(err).Msg("nats drain")
		}
	}
	if a.db != nil {
		closeDB(a.db)
	}
	if a.shutdownOTel != nil {
		if err := a.shutdownOTel(ctx); err != nil {
			a.log.Warn().Err(err).Msg("otel shutdown")
		}
	}
}

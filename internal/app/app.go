package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/marketbarrio/internal/handler"
	"github.com/xenking/marketbarrio/internal/session"
	"github.com/xenking/marketbarrio/pkg/health"
	"github.com/xenking/marketbarrio/pkg/httpmiddleware"
)

const serviceName = "marketbarrio-api"

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("store", cfg.Store.Driver),
	)

	catalog, err := LoadCatalog(cfg.Catalog.Path)
	if err != nil {
		return errors.Wrap(err, "load catalog")
	}
	lg.Info("Catalog loaded", zap.Int("products", catalog.Len()))

	store, err := OpenStore(ctx, cfg.Store)
	if err != nil {
		return errors.Wrap(err, "open store")
	}
	defer func() { _ = store.Close() }()

	policy, err := cfg.Pricing.Policy()
	if err != nil {
		return errors.Wrap(err, "pricing")
	}

	sessions, err := session.NewManager(session.ManagerOptions{
		Catalog: catalog,
		Store:   store,
		Policy:  policy,
		TTL:     cfg.Session.TTL,
		Meter:   m.MeterProvider().Meter("github.com/xenking/marketbarrio/internal/session"),
	})
	if err != nil {
		return errors.Wrap(err, "create session manager")
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.Add(health.Readiness, "store", 5*time.Second, storeCheck(store))
	healthSvc.Add(health.Liveness, "goroutines", time.Second, health.GoroutineCountCheck(10000))

	// Routes: health endpoints + API on one server.
	router := mux.NewRouter()
	router.HandleFunc("/livez", healthSvc.LiveEndpoint).Methods(http.MethodGet)
	router.HandleFunc("/readyz", healthSvc.ReadyEndpoint).Methods(http.MethodGet)
	handler.New(handler.Config{
		CookieName:   cfg.Session.CookieName,
		CookieSecure: cfg.Session.CookieSecure,
		CookieMaxAge: cfg.Session.CookieMaxAge,
	}, catalog, sessions).Register(router)

	limiter := httpmiddleware.NewLimiter(httpmiddleware.RateLimitConfig{
		Max:            cfg.RateLimit.Max,
		Window:         cfg.RateLimit.Window,
		TrustForwarded: cfg.RateLimit.TrustForwarded,
	})
	routeFinder := httpmiddleware.MakeRouteFinder(router)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(router,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", httpmiddleware.RequestIDHeader},
				ExposeHeaders:    []string{httpmiddleware.RequestIDHeader},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			limiter.Middleware(),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Instrument(serviceName, routeFinder, m),
			httpmiddleware.LogRequests(routeFinder),
			httpmiddleware.Labeler(routeFinder),
		),
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error { return healthSvc.Run(gCtx, 10*time.Second) })
	g.Go(func() error { return limiter.Run(gCtx) })
	g.Go(func() error { return sessions.Run(gCtx) })
	g.Go(func() error {
		// Graceful shutdown: wait for cancellation, drain, then stop.
		<-gCtx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		return nil
	})
	g.Go(func() error {
		healthSvc.SetReady(true)
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})
	return g.Wait()
}

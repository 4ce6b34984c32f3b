package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/appie1702/storefront/internal/auth"
	"github.com/appie1702/storefront/internal/domain/checkout"
	"github.com/appie1702/storefront/internal/domain/order"
	"github.com/appie1702/storefront/internal/domain/refund"
	"github.com/appie1702/storefront/internal/handler"
	"github.com/appie1702/storefront/internal/payment"
	"github.com/appie1702/storefront/internal/storage/postgres"
	"github.com/appie1702/storefront/pkg/health"
	"github.com/appie1702/storefront/pkg/httpmiddleware"
)

const maxGoroutines = 10000

// Run wires the storefront together and serves it until ctx is
// cancelled, then drains and shuts the server down.
func Run(ctx context.Context, lg *zap.Logger, _ *app.Telemetry, cfg *Config) error {
	lg.Info("Starting storefront", zap.String("addr", cfg.Addr))

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "migrations")
	}

	healthSvc := newHealth(ctx, pool)

	server := newServer(ctx, cfg, buildMux(cfg, lg, pool, healthSvc))

	done := make(chan struct{})
	go shutdownOnCancel(ctx, lg, cfg, server, healthSvc, done)

	lg.Info("Accepting connections", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "serve")
	}
	<-done
	return nil
}

// buildMux assembles repositories, domain services, and handlers, and
// mounts the storefront routes next to the health probes.
func buildMux(cfg *Config, lg *zap.Logger, pool *pgxpool.Pool, healthSvc *health.Health) *http.ServeMux {
	itemRepo := postgres.NewItemRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	addressRepo := postgres.NewAddressRepository(pool)
	couponRepo := postgres.NewCouponRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)
	refundRepo := postgres.NewRefundRepository(pool)
	checkoutStore := postgres.NewCheckoutStore(pool)

	cartService := order.NewService(itemRepo, orderRepo, couponRepo)
	checkoutService := checkout.NewService(orderRepo, addressRepo, checkoutStore)
	refundService := refund.NewService(orderRepo, refundRepo)
	authManager := auth.NewManager([]byte(cfg.JWTSecret), cfg.TokenTTL)

	var gateway payment.Gateway
	if cfg.Razorpay.KeyID != "" {
		gateway = payment.NewRazorpayGateway(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret)
	} else {
		lg.Warn("No payment provider credentials, using local gateway")
		gateway = payment.NewLocalGateway()
	}

	h := handler.New(
		handler.Config{Currency: cfg.Currency, PageSize: cfg.PageSize},
		itemRepo,
		userRepo,
		addressRepo,
		cartService,
		checkoutService,
		refundService,
		authManager,
		gateway,
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/", h.Router())
	return mux
}

func newHealth(ctx context.Context, pool *pgxpool.Pool) *health.Health {
	svc := health.New()
	svc.AddReadinessCheck("postgres", 5*time.Second, func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	svc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(maxGoroutines))
	svc.Start(ctx, 10*time.Second)
	svc.SetReady(true)
	return svc
}

func newServer(ctx context.Context, cfg *Config, mux http.Handler) *http.Server {
	chain := httpmiddleware.Wrap(mux,
		httpmiddleware.Recovery(),
		httpmiddleware.CORS(httpmiddleware.CORSConfig{
			Origins:     cfg.CORS.Origins,
			Headers:     []string{"Content-Type", "Authorization"},
			Credentials: cfg.CORS.AllowCredentials,
			MaxAge:      86400,
		}),
		httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
			Max:    cfg.RateLimit.Max,
			Window: cfg.RateLimit.Window,
		}),
		httpmiddleware.RequestID(),
		httpmiddleware.InjectLogger(zctx.From(ctx)),
		httpmiddleware.LogRequests(),
	)

	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           chain,
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
}

// shutdownOnCancel flips readiness off first so load balancers stop
// routing here, waits out the drain delay, then stops the server.
func shutdownOnCancel(
	ctx context.Context,
	lg *zap.Logger,
	cfg *Config,
	server *http.Server,
	healthSvc *health.Health,
	done chan<- struct{},
) {
	defer close(done)
	<-ctx.Done()

	healthSvc.SetReady(false)
	lg.Info("Draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
	time.Sleep(cfg.Graceful.ReadinessDelay)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
	defer cancel()

	lg.Info("Stopping server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
	if err := server.Shutdown(shutdownCtx); err != nil {
		lg.Error("Shutdown", zap.Error(err))
	}
	healthSvc.Stop()
}

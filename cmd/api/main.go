package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"github.com/gwangju-cafe/cafe-backend/internal/auth"
	"github.com/gwangju-cafe/cafe-backend/internal/cart"
	"github.com/gwangju-cafe/cafe-backend/internal/checkout"
	"github.com/gwangju-cafe/cafe-backend/internal/inventory"
	"github.com/gwangju-cafe/cafe-backend/internal/messaging"
	"github.com/gwangju-cafe/cafe-backend/internal/orders"
	"github.com/gwangju-cafe/cafe-backend/internal/sales"
	"github.com/gwangju-cafe/cafe-backend/internal/telemetry"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, "api", "0.1.0")
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider("api", "0.1.0")
	if err != nil {
		logger.Error("failed to initialize meter", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(ctx) }()

	postgresURL := os.Getenv("POSTGRES_URL")
	if postgresURL == "" {
		logger.Error("POSTGRES_URL environment variable is required")
		os.Exit(1)
	}

	db, err := telemetry.OpenDB("postgres", postgresURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		logger.Error("REDIS_URL environment variable is required")
		os.Exit(1)
	}

	sessionTTL := 72 * time.Hour
	if raw := os.Getenv("SESSION_TTL"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			logger.Error("invalid SESSION_TTL", "error", err)
			os.Exit(1)
		}
		sessionTTL = ttl
	}

	sessions, err := auth.NewRedisSessions(redisURL, sessionTTL)
	if err != nil {
		logger.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer func() { _ = sessions.Close() }()

	users := auth.NewRepository(db)
	products := inventory.NewRepository(db)
	cartLines := cart.NewRepository(db)
	orderStore := orders.NewRepository(db)

	if err := bootstrapAdmin(ctx, users, logger); err != nil {
		logger.Error("failed to bootstrap admin account", "error", err)
		os.Exit(1)
	}

	var placedProducer, statusProducer *messaging.Producer
	kafkaBrokers := os.Getenv("KAFKA_BROKERS")
	if kafkaBrokers != "" {
		brokers := strings.Split(kafkaBrokers, ",")
		placedProducer = messaging.NewProducer(brokers, messaging.TopicOrderPlaced)
		defer func() { _ = placedProducer.Close() }()
		statusProducer = messaging.NewProducer(brokers, messaging.TopicOrderStatus)
		defer func() { _ = statusProducer.Close() }()
	}

	var placedPublisher checkout.Publisher
	var statusPublisher orders.Publisher
	if placedProducer != nil {
		placedPublisher = placedProducer
		statusPublisher = statusProducer
	}

	cartService := cart.NewService(cartLines, products, logger)
	checkoutService := checkout.NewService(cartLines, products, orderStore, placedPublisher, logger)

	authHandler := auth.NewHandler(users, sessions, logger)
	mw := auth.NewMiddleware(users, sessions, logger)
	inventoryHandler := inventory.NewHandler(products, logger)
	cartHandler := cart.NewHandler(cartService, logger)
	checkoutHandler := checkout.NewHandler(checkoutService, logger)
	ordersHandler := orders.NewHandler(orderStore, users, statusPublisher, logger)
	salesHandler := sales.NewHandler(orderStore, products, logger)

	mux := http.NewServeMux()

	route := func(pattern string, handler http.HandlerFunc) {
		mux.HandleFunc(pattern, telemetry.WithHTTPRoute(handler))
	}

	route("POST /api/auth/signup", authHandler.HandleSignUp)
	route("POST /api/auth/login", authHandler.HandleLogIn)
	route("POST /api/auth/logout", authHandler.HandleLogOut)
	route("GET /api/auth/me", mw.RequireUser(authHandler.HandleMe))

	route("GET /api/products", inventoryHandler.HandleList)
	route("GET /api/products/{id}", inventoryHandler.HandleGet)

	route("GET /api/cart", mw.RequireUser(cartHandler.HandleGet))
	route("POST /api/cart/items", mw.RequireUser(cartHandler.HandleAddItem))
	route("DELETE /api/cart/items/{id}", mw.RequireUser(cartHandler.HandleRemoveItem))
	route("DELETE /api/cart", mw.RequireUser(cartHandler.HandleClear))

	route("GET /api/checkout/preview", mw.RequireUser(checkoutHandler.HandlePreview))
	route("POST /api/checkout", mw.RequireUser(checkoutHandler.HandlePlaceOrder))

	route("GET /api/orders", mw.RequireUser(ordersHandler.HandleListMine))
	route("GET /api/orders/{id}", mw.RequireUser(ordersHandler.HandleGet))
	route("POST /api/orders/{id}/received", mw.RequireUser(ordersHandler.HandleMarkReceived))
	route("POST /api/orders/{id}/rating", mw.RequireUser(ordersHandler.HandleRate))

	route("POST /api/admin/products", mw.RequireAdmin(inventoryHandler.HandleCreate))
	route("PUT /api/admin/products/{id}", mw.RequireAdmin(inventoryHandler.HandleUpdate))
	route("DELETE /api/admin/products/{id}", mw.RequireAdmin(inventoryHandler.HandleDelete))
	route("POST /api/admin/products/seed", mw.RequireAdmin(inventoryHandler.HandleSeed))
	route("GET /api/admin/orders/active", mw.RequireAdmin(ordersHandler.HandleListActive))
	route("GET /api/admin/orders/completed", mw.RequireAdmin(ordersHandler.HandleListCompleted))
	route("PATCH /api/admin/orders/{id}/status", mw.RequireAdmin(ordersHandler.HandleUpdateStatus))
	route("GET /api/admin/sales", mw.RequireAdmin(salesHandler.HandleReport))

	mux.Handle("GET /metrics", metricsHandler)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	server := &http.Server{
		Addr: ":" + port,
		Handler: otelhttp.NewHandler(mux, "api",
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				if r.Pattern != "" {
					return r.Pattern
				}
				return r.Method + " " + r.URL.Path
			}),
		),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting api service", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}

// bootstrapAdmin creates the staff account on first boot. Without
// ADMIN_EMAIL and ADMIN_PASSWORD the service runs customer-only.
func bootstrapAdmin(ctx context.Context, users *auth.Repository, logger *slog.Logger) error {
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		logger.Warn("ADMIN_EMAIL or ADMIN_PASSWORD not set, skipping admin bootstrap")
		return nil
	}

	username := os.Getenv("ADMIN_USERNAME")
	if username == "" {
		username = "admin"
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	if err := users.EnsureAdmin(ctx, email, username, string(hash)); err != nil {
		return err
	}

	logger.Info("admin account ready", "username", username)
	return nil
}

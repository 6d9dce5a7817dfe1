package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/csrf"
	"google.golang.org/grpc"

	"github.com/authenticindia/order-desk/internal/adapter/geo"
	"github.com/authenticindia/order-desk/internal/adapter/handler"
	"github.com/authenticindia/order-desk/internal/adapter/orderapi"
	"github.com/authenticindia/order-desk/internal/adapter/storage"
	"github.com/authenticindia/order-desk/internal/config"
	"github.com/authenticindia/order-desk/internal/core/domain"
	"github.com/authenticindia/order-desk/internal/core/service"
	"github.com/authenticindia/order-desk/internal/port"
)

const (
	sessionIdleTimeout = 30 * time.Minute
	pruneInterval      = time.Minute
	journalTimeout     = 5 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := cfg.Log.NewLogger(os.Stdout)
	slog.SetDefault(logger)
	logger.Info("starting order desk", "config", cfg.String())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize store
	backend, err := storage.Open(ctx, cfg.Store)
	if err != nil {
		logger.Error("failed to open store", "store", cfg.Store.Kind, "error", err)
		os.Exit(1)
	}
	logger.Info("connected to store", "store", cfg.Store.Kind)

	// Initialize adapters
	httpClient := &http.Client{Timeout: cfg.OrderAPI.Timeout}
	orderAPI, err := orderapi.NewHTTPClient(cfg.OrderAPI.URL, httpClient)
	if err != nil {
		logger.Error("invalid order api", "error", err)
		os.Exit(1)
	}
	orderAPI.WithLogger(logger)
	geocoder := geo.NewNominatim(cfg.Geo.GeocoderURL, cfg.Geo.UserAgent, httpClient)
	position := positionProvider(cfg, httpClient)

	// Initialize services
	orderService := service.NewOrderService(orderAPI, cfg.Workers.QueueSize, logger)
	lookupService := service.NewLookupService(orderAPI, logger)
	locationService := service.NewLocationService(position, geocoder, logger)
	catalog := domain.DefaultCatalog(cfg.Currency)

	registry := service.NewSessionRegistry(catalog, service.SessionDeps{
		Orders:   orderService,
		Location: locationService,
		Store:    backend.Locations,
		Logger:   logger,
		OnConfirmed: func(c domain.Confirmation) {
			logger.Info("order confirmed", "order_id", c.OrderID, "total", c.Order.TotalPrice.StringFixed(2))
		},
	})

	// Start worker pool
	var wg sync.WaitGroup
	if queue := orderService.Confirmations(); queue != nil {
		for i := 0; i < cfg.Workers.Count; i++ {
			wg.Add(1)
			go func(id int) {
				defer wg.Done()
				workerLoop(id, queue, backend.Journal, logger)
			}(i)
		}
		logger.Info("started journal workers", "count", cfg.Workers.Count)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		pruneLoop(ctx, registry, logger)
	}()

	// Initialize gRPC server
	grpcServer := grpc.NewServer()
	handler.RegisterOrderDeskServer(grpcServer, handler.NewGRPCHandler(catalog, orderService, lookupService, logger))

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("failed to listen", "addr", cfg.Server.GRPCAddr, "error", err)
		os.Exit(1)
	}

	go func() {
		logger.Info("gRPC server listening", "addr", cfg.Server.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC server error", "error", err)
		}
	}()

	// Initialize HTTP server
	cookies := handler.NewCookieStore([]byte(cfg.Server.SessionKey), cfg.Server.CookieSecure, sessionIdleTimeout)

	httpHandler := handler.NewHTTPHandler(registry, lookupService, cookies, logger)
	protect := csrf.Protect(
		[]byte(cfg.Server.CSRFKey),
		csrf.Secure(cfg.Server.CookieSecure),
		csrf.Path("/"),
	)

	httpServer := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           plaintext(!cfg.Server.CookieSecure, protect(exposeCSRFToken(httpHandler.Routes()))),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", "addr", cfg.Server.HTTPAddr)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			stop()
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown failed", "error", err)
	}
	logger.Info("HTTP server stopped")

	grpcServer.GracefulStop()
	logger.Info("gRPC server stopped")

	// Close confirmation queue and wait for workers
	orderService.Close()
	wg.Wait()
	logger.Info("workers stopped")

	if err := backend.Close(); err != nil {
		logger.Error("failed to close store", "error", err)
	}
	logger.Info("store closed")
}

func positionProvider(cfg *config.Config, client *http.Client) port.PositionProvider {
	switch cfg.Geo.PositionProvider {
	case config.PositionStatic:
		at := cfg.Geo.Default
		return geo.StaticPosition{At: &at}
	case config.PositionDenied:
		return geo.StaticPosition{}
	default:
		return geo.NewIPLocator(cfg.Geo.IPAPIURL, client)
	}
}

func workerLoop(id int, queue <-chan domain.Confirmation, journal port.ReceiptJournal, logger *slog.Logger) {
	for c := range queue {
		ctx, cancel := context.WithTimeout(context.Background(), journalTimeout)

		if err := journal.RecordReceipt(ctx, c); err != nil {
			logger.Error("failed to journal order", "worker", id, "order_id", c.OrderID, "error", err)
		} else {
			logger.Debug("journaled order", "worker", id, "order_id", c.OrderID)
		}

		cancel()
	}
}

func pruneLoop(ctx context.Context, registry *service.SessionRegistry, logger *slog.Logger) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := registry.Prune(sessionIdleTimeout); n > 0 {
				logger.Info("pruned idle order sessions", "count", n, "open", registry.Len())
			}
		}
	}
}

// exposeCSRFToken hands the token to the storefront script, which echoes it
// back in the X-CSRF-Token header on writes.
func exposeCSRFToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-CSRF-Token", csrf.Token(r))
		next.ServeHTTP(w, r)
	})
}

// plaintext marks requests as plain HTTP so the CSRF origin check does not
// demand a TLS referer during local development.
func plaintext(enabled bool, next http.Handler) http.Handler {
	if !enabled {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
	})
}

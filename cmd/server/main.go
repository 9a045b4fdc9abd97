package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sharada-markets/internal/bootstrap"
	"sharada-markets/internal/bot"
	"sharada-markets/internal/config"
	"sharada-markets/internal/handler"
	"sharada-markets/internal/job"
	"sharada-markets/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const serviceName = "sharada-markets"

var (
	loadEnvFunc            = godotenv.Load
	loadConfigFunc         = config.Load
	initTracerFunc         = tracing.InitTracer
	openCacheFunc          = bootstrap.OpenCache
	newRemoteClientFunc    = bootstrap.NewRemoteClient
	newMarketServiceFunc   = bootstrap.NewMarketService
	newDashboardFunc       = bootstrap.NewDashboard
	startDashboardFunc     = func(d *job.Dashboard, ctx context.Context) { go d.Start(ctx) }
	startTelegramBotFunc   = bot.StartTelegramBot
	newHandlerFunc         = handler.New
	newRouterFunc          = gin.Default
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, tracer, err := initTracerFunc(ctx, tracing.Options{
		ServiceName: serviceName,
		Enabled:     cfg.TracingEnabled,
		Endpoint:    cfg.OTLPEndpoint,
	})
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	store, closeCache := openCacheFunc(ctx, cfg.RedisURL)
	defer closeCache()

	client := newRemoteClientFunc(cfg, tracer)
	marketService := newMarketServiceFunc(cfg, tracer, client, store)

	// Hooks run until ctx is cancelled on shutdown.
	dashboard := newDashboardFunc(cfg, tracer, marketService, nil)
	startDashboardFunc(dashboard, ctx)

	startTelegramBotFunc(ctx, cfg.TelegramBotToken, marketService)

	h := newHandlerFunc(tracer, marketService, dashboard, cfg.AdminAPIKey, handler.WithAllowedOrigin(cfg.SiteOrigin))

	r := newRouterFunc()
	r.Use(otelgin.Middleware(serviceName))
	h.RegisterRoutes(r)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: r,
	}

	go func() {
		log.Printf("HTTP server listening on %s", srv.Addr)
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}

package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"sharada-markets/internal/bootstrap"
	"sharada-markets/internal/config"
	"sharada-markets/internal/mcpserver"
	"sharada-markets/internal/remote"
	"sharada-markets/pkg/tracing"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const serviceName = "sharada-markets-mcp"

var (
	loadEnvFunc            = godotenv.Load
	loadConfigFunc         = config.Load
	initTracerFunc         = tracing.InitTracer
	openCacheFunc          = bootstrap.OpenCache
	newRemoteClientFunc    = bootstrap.NewRemoteClient
	newMarketServiceFunc   = bootstrap.NewMarketService
	runStdioFunc           = func(ctx context.Context, server *mcp.Server) error { return server.Run(ctx, &mcp.StdioTransport{}) }
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
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
	server := mcpserver.NewServer(tracer, marketService)

	if cfg.MCPTransport != "http" {
		log.Println("MCP server running on stdio")
		if err := runStdioFunc(ctx, server); err != nil && ctx.Err() == nil {
			log.Fatalf("mcp stdio: %v", err)
		}
		return
	}

	if cfg.MCPAuthToken == "" {
		log.Println("Warning: MCP_AUTH_TOKEN not set, HTTP transport is unauthenticated")
	}
	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.MCPHTTPBind, strconv.Itoa(cfg.MCPHTTPPort)),
		Handler:           mcpserver.HTTPHandler(server, cfg.MCPAuthToken, remote.PerMinute(cfg.MCPRateLimitPerMin)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("MCP server listening on %s", srv.Addr)
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down MCP server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("MCP server forced to shutdown:", err)
	}

	log.Println("MCP server exiting")
}

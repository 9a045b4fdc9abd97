package main

import (
	"context"
	"fmt"
	"log"
	"os"
	ossignal "os/signal"
	"strings"
	"syscall"
	"time"

	"sharada-markets/internal/bootstrap"
	"sharada-markets/internal/config"
	"sharada-markets/internal/job"
	"sharada-markets/internal/tui"
	"sharada-markets/pkg/tracing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"
	"github.com/charmbracelet/wish/logging"
	"github.com/joho/godotenv"
	gossh "golang.org/x/crypto/ssh"
)

var (
	loadEnvFunc          = godotenv.Load
	loadConfigFunc       = config.Load
	initTracerFunc       = tracing.InitTracer
	openCacheFunc        = bootstrap.OpenCache
	newRemoteClientFunc  = bootstrap.NewRemoteClient
	newMarketServiceFunc = bootstrap.NewMarketService
	newDashboardFunc     = bootstrap.NewDashboard
	startDashboardFunc   = func(d *job.Dashboard, ctx context.Context) { go d.Start(ctx) }
	newWishServerFunc    = wish.NewServer
	setupSignalNotify    = ossignal.Notify
	waitForSignalFunc    = func(quit <-chan os.Signal) { <-quit }
)

// allowList admits public keys by their SHA256 fingerprint.
type allowList map[string]struct{}

func newAllowList(fingerprints []string) allowList {
	out := make(allowList, len(fingerprints))
	for _, fp := range fingerprints {
		if fp = strings.TrimSpace(fp); fp != "" {
			out[fp] = struct{}{}
		}
	}
	return out
}

func (a allowList) allows(key gossh.PublicKey) (string, bool) {
	fingerprint := gossh.FingerprintSHA256(key)
	_, ok := a[fingerprint]
	return fingerprint, ok
}

func main() {
	loadEnvFunc()
	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, tracer, err := initTracerFunc(ctx, tracing.Options{
		ServiceName: "sharada-markets-ssh",
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
	dashboard := newDashboardFunc(cfg, tracer, marketService, nil)
	startDashboardFunc(dashboard, ctx)

	allowed := newAllowList(cfg.SSHAllowedFingerprint)
	if len(allowed) == 0 {
		log.Println("Warning: SSH_ALLOWED_FINGERPRINTS not set, every key will be refused")
	}

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.SSHPort)

	srv, err := newWishServerFunc(
		wish.WithAddress(addr),
		wish.WithHostKeyPath(cfg.SSHHostKeyPath),
		wish.WithPublicKeyAuth(func(ctx ssh.Context, key ssh.PublicKey) bool {
			fingerprint, ok := allowed.allows(key)
			if !ok {
				log.Printf("SSH auth denied: user=%s fingerprint=%s", ctx.User(), fingerprint)
				return false
			}
			log.Printf("SSH auth accepted: user=%s fingerprint=%s", ctx.User(), fingerprint)
			return true
		}),
		wish.WithMiddleware(
			bubbletea.Middleware(func(s ssh.Session) (tea.Model, []tea.ProgramOption) {
				model := tui.NewAppModel(tui.Services{Board: dashboard, Username: s.User()})
				pty, _, _ := s.Pty()
				model.SetSize(pty.Window.Width, pty.Window.Height)

				return model, []tea.ProgramOption{tea.WithAltScreen()}
			}),
			logging.Middleware(),
		),
	)
	if err != nil {
		log.Fatalf("failed to create SSH server: %v", err)
	}

	if srv != nil {
		go func() {
			log.Printf("SSH server listening on %s", addr)
			if err := srv.ListenAndServe(); err != nil {
				log.Printf("SSH server stopped: %v", err)
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down SSH server...")

	cancel()

	if srv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("SSH server shutdown error: %v", err)
		}
	}

	log.Println("SSH server exited")
}

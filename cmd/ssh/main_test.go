package main

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"os"
	"testing"
	"time"

	"sharada-markets/internal/cache"
	"sharada-markets/internal/config"
	"sharada-markets/internal/job"
	"sharada-markets/pkg/tracing"

	"github.com/charmbracelet/ssh"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	gossh "golang.org/x/crypto/ssh"
)

func TestMainBootstrap(t *testing.T) {
	restore := stubSSHDeps()
	defer restore()

	var serverOpts int
	newWishServerFunc = func(ops ...ssh.Option) (*ssh.Server, error) {
		serverOpts = len(ops)
		return nil, nil
	}

	done := make(chan struct{})
	go func() {
		main()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("main did not exit")
	}
	if serverOpts != 4 {
		t.Fatalf("expected address, host key, auth and middleware options, got %d", serverOpts)
	}
}

func TestAllowListMatchesFingerprints(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	key, err := gossh.NewPublicKey(pub)
	if err != nil {
		t.Fatalf("wrap key: %v", err)
	}
	fingerprint := gossh.FingerprintSHA256(key)

	if _, ok := newAllowList(nil).allows(key); ok {
		t.Fatal("empty allow-list should refuse every key")
	}
	got, ok := newAllowList([]string{" ", " " + fingerprint + " "}).allows(key)
	if !ok || got != fingerprint {
		t.Fatalf("expected %s to be allowed, got %s %v", fingerprint, got, ok)
	}
	if _, ok := newAllowList([]string{"SHA256:other"}).allows(key); ok {
		t.Fatal("unlisted key should be refused")
	}
}

func stubSSHDeps() func() {
	origLoadEnv := loadEnvFunc
	origLoadConfig := loadConfigFunc
	origInitTracer := initTracerFunc
	origOpenCache := openCacheFunc
	origStartDashboard := startDashboardFunc
	origNewWishServer := newWishServerFunc
	origSetupSignal := setupSignalNotify
	origWait := waitForSignalFunc

	loadEnvFunc = func(...string) error { return nil }
	loadConfigFunc = func() *config.Config {
		return &config.Config{
			SSHPort:        2222,
			SSHHostKeyPath: ".ssh/test_key",
		}
	}
	initTracerFunc = func(ctx context.Context, opts tracing.Options) (*sdktrace.TracerProvider, trace.Tracer, error) {
		tp := sdktrace.NewTracerProvider()
		return tp, tp.Tracer("test"), nil
	}
	openCacheFunc = func(ctx context.Context, redisURL string) (*cache.Cache, func()) {
		return cache.New(cache.NewMemoryBackend()), func() {}
	}
	startDashboardFunc = func(*job.Dashboard, context.Context) {}
	newWishServerFunc = func(ops ...ssh.Option) (*ssh.Server, error) {
		return nil, nil
	}
	setupSignalNotify = func(c chan<- os.Signal, sig ...os.Signal) {}
	waitForSignalFunc = func(<-chan os.Signal) {}

	return func() {
		loadEnvFunc = origLoadEnv
		loadConfigFunc = origLoadConfig
		initTracerFunc = origInitTracer
		openCacheFunc = origOpenCache
		startDashboardFunc = origStartDashboard
		newWishServerFunc = origNewWishServer
		setupSignalNotify = origSetupSignal
		waitForSignalFunc = origWait
	}
}

package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/encanta/encanta/config"
	"github.com/encanta/encanta/internal/app"
	"github.com/encanta/encanta/pkg/logger"
)

// fakeApp satisfies app.AppInterface; Start blocks until Shutdown is called
type fakeApp struct {
	app.AppInterface

	initErr     error
	startErr    error
	shutdownErr error
	blockStop   bool

	mu              sync.Mutex
	shutdownCalled  bool
	shutdownTimeout time.Duration
	stopped         chan struct{}
}

func newFakeApp() *fakeApp {
	return &fakeApp{stopped: make(chan struct{})}
}

func (f *fakeApp) Initialize() error { return f.initErr }

func (f *fakeApp) Start() error {
	if f.startErr != nil {
		return f.startErr
	}
	<-f.stopped
	return nil
}

func (f *fakeApp) Shutdown(ctx context.Context) error {
	f.mu.Lock()
	f.shutdownCalled = true
	f.mu.Unlock()

	if f.blockStop {
		<-ctx.Done()
		return ctx.Err()
	}
	close(f.stopped)
	return f.shutdownErr
}

func (f *fakeApp) SetShutdownTimeout(timeout time.Duration) { f.shutdownTimeout = timeout }
func (f *fakeApp) GetActiveRequestCount() int64              { return 0 }
func (f *fakeApp) GetDB() *sql.DB                            { return nil }
func (f *fakeApp) GetHandler() http.Handler                  { return nil }

func (f *fakeApp) wasShutdown() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.shutdownCalled
}

// useFakeApp swaps the app constructor and signal hook; each registered
// channel receives SIGTERM in registration order, once per value in signals
func useFakeApp(t *testing.T, fake *fakeApp, signals int) {
	origNewApp, origNotify := newApp, signalNotify
	t.Cleanup(func() {
		newApp, signalNotify = origNewApp, origNotify
	})

	newApp = func(*config.Config, ...app.AppOption) app.AppInterface { return fake }

	var registered int
	signalNotify = func(c chan<- os.Signal, _ ...os.Signal) {
		registered++
		if registered <= signals {
			go func() {
				time.Sleep(20 * time.Millisecond)
				c <- syscall.SIGTERM
			}()
		}
	}
}

func TestRunServer_GracefulShutdown(t *testing.T) {
	fake := newFakeApp()
	useFakeApp(t, fake, 1)

	err := runServer(&config.Config{}, logger.NewMockLogger(t))
	require.NoError(t, err)
	assert.True(t, fake.wasShutdown())
	assert.Equal(t, 30*time.Second, fake.shutdownTimeout)
}

func TestRunServer_ShutdownError(t *testing.T) {
	fake := newFakeApp()
	fake.shutdownErr = errors.New("database close failed")
	useFakeApp(t, fake, 1)

	err := runServer(&config.Config{}, logger.NewMockLogger(t))
	assert.EqualError(t, err, "database close failed")
}

func TestRunServer_ForcedShutdown(t *testing.T) {
	fake := newFakeApp()
	fake.blockStop = true
	useFakeApp(t, fake, 2)

	err := runServer(&config.Config{}, logger.NewMockLogger(t))
	assert.EqualError(t, err, "forced shutdown")
}

func TestRunServer_InitializeError(t *testing.T) {
	fake := newFakeApp()
	fake.initErr = errors.New("failed to run migrations")
	useFakeApp(t, fake, 0)

	err := runServer(&config.Config{}, logger.NewMockLogger(t))
	assert.EqualError(t, err, "failed to run migrations")
	assert.False(t, fake.wasShutdown())
}

func TestRunServer_StartError(t *testing.T) {
	fake := newFakeApp()
	fake.startErr = errors.New("listen tcp :8080: bind: address already in use")
	useFakeApp(t, fake, 0)

	err := runServer(&config.Config{}, logger.NewMockLogger(t))
	assert.Error(t, err)
	assert.False(t, fake.wasShutdown())
}

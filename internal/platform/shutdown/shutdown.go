package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/yungbote/interview-backend/internal/platform/logger"
)

// NotifyContext is cancelled by the first SIGINT or SIGTERM so the caller
// can drain. A second signal before stop is called exits the process.
func NotifyContext(parent context.Context, log *logger.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	stopped := make(chan struct{})

	go func() {
		select {
		case sig := <-sigs:
			log.Info("shutdown requested, draining", "signal", sig.String())
			cancel()
		case <-stopped:
			return
		}
		select {
		case sig := <-sigs:
			log.Warn("second signal, exiting now", "signal", sig.String())
			os.Exit(1)
		case <-stopped:
		}
	}()

	var once sync.Once
	return ctx, func() {
		once.Do(func() {
			signal.Stop(sigs)
			close(stopped)
			cancel()
		})
	}
}

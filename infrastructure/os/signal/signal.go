package signal

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// interruptSignals defines the signals that cancel an interrupt context.
var interruptSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

// InterruptContext returns a copy of parent that is canceled on the first
// SIGINT or SIGTERM. The returned CancelFunc stops listening for signals
// and must be called.
func InterruptContext(parent context.Context) (context.Context, context.CancelFunc) {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, interruptSignals...)
	ctx, cancel := listen(parent, signals)
	return ctx, func() {
		signal.Stop(signals)
		cancel()
	}
}

func listen(parent context.Context, signals <-chan os.Signal) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	go func() {
		select {
		case sig := <-signals:
			log.Infof("Received signal (%s). Shutting down...", sig)
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

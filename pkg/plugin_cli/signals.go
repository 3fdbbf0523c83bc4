// pkg/plugin_cli/signals.go
//
// Signal handling for long-running lifecycle operations.

package plugin_cli

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// SignalHandler cancels its context on SIGINT/SIGTERM. Commands unwind
// through their own deferred calls once the context is done.
type SignalHandler struct {
	ctx      context.Context
	cancel   context.CancelFunc
	sigChan  chan os.Signal
	done     chan struct{}
	stopOnce sync.Once
}

// NewSignalHandler creates a new signal handler
func NewSignalHandler(ctx context.Context) *SignalHandler {
	ctx, cancel := context.WithCancel(ctx)

	h := &SignalHandler{
		ctx:     ctx,
		cancel:  cancel,
		sigChan: make(chan os.Signal, 1),
		done:    make(chan struct{}),
	}

	signal.Notify(h.sigChan, os.Interrupt, syscall.SIGTERM)
	go h.handleSignals()

	return h
}

// Context returns the context cancelled on the first signal.
func (h *SignalHandler) Context() context.Context {
	return h.ctx
}

func (h *SignalHandler) handleSignals() {
	select {
	case sig := <-h.sigChan:
		otelzap.Ctx(h.ctx).Warn("Received signal, cancelling operation",
			zap.String("signal", sig.String()))
		h.cancel()
	case <-h.done:
	}
}

// Stop releases the signal subscription and the context.
func (h *SignalHandler) Stop() {
	h.stopOnce.Do(func() {
		signal.Stop(h.sigChan)
		close(h.done)
		h.cancel()
	})
}

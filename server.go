package fcgi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

// ExitReason explains why a running Server stopped accepting connections.
type ExitReason struct {
	// Err is non-nil if the accept loop stopped because of a listener
	// error other than a graceful Stop.
	Err error
	// Panic holds the recovered value if the accept loop itself panicked
	// (as opposed to a per-connection handler panic, which is contained
	// by invokeHandler and never reaches here).
	Panic any
}

func (r ExitReason) String() string {
	switch {
	case r.Panic != nil:
		return fmt.Sprintf("panic: %v", r.Panic)
	case r.Err != nil:
		return fmt.Sprintf("error: %v", r.Err)
	default:
		return "normal"
	}
}

// Handle is a running Server returned by Start. It lets the embedding
// application wait for the server to stop (Join) or ask it to stop
// (Stop), mirroring the predecessor client's Dial/Close pairing on the
// server side.
type Handle struct {
	address  string
	listener net.Listener
	done     chan struct{}
	exit     ExitReason
}

// Address returns the address the server is bound to. Useful when Start
// was called with a ":0" port and the kernel picked one.
func (h *Handle) Address() string { return h.address }

// Join blocks until the server stops accepting connections (because Stop
// was called, or the listener failed) and every in-flight connection has
// finished, then returns the reason it stopped.
func (h *Handle) Join() ExitReason {
	<-h.done
	return h.exit
}

// Stop asks the server to stop accepting new connections and waits for
// every in-flight connection to finish before returning. Unlike the
// predecessor implementation's mio-Waker-driven wakeup (needed because the
// standard library gave no portable way to interrupt a blocking accept),
// closing a net.Listener in Go already unblocks any goroutine blocked in
// Accept, so no separate wakeup channel is required.
func (h *Handle) Stop() {
	h.listener.Close()
	<-h.done
}

// Start binds address and begins accepting FastCGI connections, dispatching
// each to handler on its own goroutine up to opts' concurrency limit. It
// returns once the listener is bound; serving happens in the background.
func Start(address string, handler Handler, opts ...Option) (*Handle, error) {
	o := buildOptions(opts)

	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, wrap(ErrConfig, err, "binding fastcgi listener")
	}

	h := &Handle{
		address:  listener.Addr().String(),
		listener: listener,
		done:     make(chan struct{}),
	}

	o.log.Infow("fastcgi server listening", "address", h.address)

	go h.acceptLoop(handler, o)

	return h, nil
}

func (h *Handle) acceptLoop(handler Handler, o *options) {
	defer close(h.done)

	sem := semaphore.NewWeighted(int64(o.config.MaxWorkers))
	var wg sync.WaitGroup

	defer func() {
		if v := recover(); v != nil {
			h.exit = ExitReason{Panic: v}
		}
		wg.Wait()
	}()

	for {
		conn, err := h.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				h.exit = ExitReason{}
				return
			}
			o.log.Warnw("fastcgi listener accept failed, server loop exiting", "error", err)
			h.exit = ExitReason{Err: err}
			return
		}

		if err := sem.Acquire(context.Background(), 1); err != nil {
			conn.Close()
			continue
		}

		o.metrics.connectionAccepted()
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)
			serveConn(conn, handler, o)
		}()
	}
}

func serveConn(conn net.Conn, handler Handler, o *options) {
	id := uuid.NewString()
	defer o.metrics.connectionClosed()
	defer conn.Close()

	if o.config.ReadTimeout > 0 {
		if err := conn.SetReadDeadline(time.Now().Add(o.config.ReadTimeout)); err != nil {
			o.log.Warnw("failed setting read deadline", "fcgi.connID", id, "error", err)
		}
	}

	s := newSession(NewConn(conn), handler, o.log, o.metrics, id)
	s.serve()
}

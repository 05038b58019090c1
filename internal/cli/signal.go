package cli

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// forceExitGrace is how long a command gets to stop on its own after the
// first signal. A second signal, or the end of the window, exits at once.
const forceExitGrace = 2 * time.Second

// interrupts watches for SIGINT/SIGTERM during the current invocation.
var interrupts *interruptWatcher

type interruptWatcher struct {
	mu      sync.Mutex
	sig     os.Signal
	onForce func(code int)
}

// notifyContext returns a context cancelled by SIGINT or SIGTERM.
func notifyContext(parent context.Context) (context.Context, *interruptWatcher, func()) {
	ctx, cancel := context.WithCancel(parent)
	w := &interruptWatcher{onForce: os.Exit}

	ch := make(chan os.Signal, 2)
	signal.Notify(ch, unix.SIGINT, unix.SIGTERM)
	done := make(chan struct{})
	go w.watch(ch, done, cancel)

	var once sync.Once
	stop := func() {
		once.Do(func() {
			signal.Stop(ch)
			close(done)
			cancel()
		})
	}
	return ctx, w, stop
}

func (w *interruptWatcher) watch(ch <-chan os.Signal, done <-chan struct{}, cancel context.CancelFunc) {
	select {
	case <-done:
		return
	case s := <-ch:
		w.mu.Lock()
		w.sig = s
		w.mu.Unlock()
		cancel()
	}

	timer := time.NewTimer(forceExitGrace)
	defer timer.Stop()
	select {
	case <-done:
		return
	case <-ch:
	case <-timer.C:
	}

	w.mu.Lock()
	force, code := w.onForce, exitCodeFor(w.sig)
	w.mu.Unlock()
	force(code)
}

// setForce replaces what happens when the grace window runs out.
func (w *interruptWatcher) setForce(f func(code int)) {
	if w == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onForce = f
}

// code returns the exit code for the received signal, or 0.
func (w *interruptWatcher) code() int {
	if w == nil {
		return 0
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return exitCodeFor(w.sig)
}

// exitCodeFor follows the shell convention of 128 + signal number:
// 130 for SIGINT, 143 for SIGTERM.
func exitCodeFor(sig os.Signal) int {
	s, ok := sig.(unix.Signal)
	if !ok {
		return 0
	}
	return 128 + int(s)
}

package psconfig

import (
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
)

// NotifyStop raises stop when one of sig (interrupt and terminate if none
// are given) is delivered. The returned function stops the notification.
func NotifyStop(stop *atomic.Bool, sig ...os.Signal) func() {
	if len(sig) == 0 {
		sig = []os.Signal{os.Interrupt, syscall.SIGTERM}
	}

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sig...)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ch:
				stop.Store(true)
			case <-done:
				return
			}
		}
	}()

	return func() {
		signal.Stop(ch)
		close(done)
	}
}

package psconfig

import (
	"sync/atomic"
	"syscall"
	"testing"
	"time"
)

func TestNotifyStop(t *testing.T) {
	stop := new(atomic.Bool)
	cancel := NotifyStop(stop, syscall.SIGUSR1)
	defer cancel()

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGUSR1); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for !stop.Load() {
		if time.Now().After(deadline) {
			t.Fatal("stop flag not raised")
		}
		time.Sleep(time.Millisecond)
	}
}

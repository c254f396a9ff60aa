package raspberry

import (
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	MEM_DEVICE = "/dev/mem"
	PAGE_SIZE  = 4096
)

var (
	ErrDeviceOpen = errors.New("memory device open error")
	ErrMap        = errors.New("register map error")
)

// Window is a shared read/write mapping of a block of peripheral registers.
// All accesses are single 32 bit loads and stores.
type Window struct {
	mem    []byte
	base   uint64
	unmap  func([]byte) error
	closed atomic.Bool
}

// Map opens dev and maps size bytes (at least one page) of it starting at the
// physical address base. The file descriptor is closed once the mapping exists.
func Map(dev string, base uint64, size int) (*Window, error) {
	if size < PAGE_SIZE {
		size = PAGE_SIZE
	}

	f, err := os.OpenFile(dev, os.O_RDWR|unix.O_SYNC, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDeviceOpen, err)
	}

	mem, err := unix.Mmap(int(f.Fd()), int64(base), size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	f.Close()
	if err != nil {
		return nil, fmt.Errorf("%w: %s at %#x: %w", ErrMap, dev, base, err)
	}

	w := newWindow(mem)
	w.base = base
	w.unmap = unix.Munmap
	return w, nil
}

func newWindow(mem []byte) *Window {
	return &Window{mem: mem, unmap: func([]byte) error { return nil }}
}

// Base returns the physical address the window starts at.
func (w *Window) Base() uint64 {
	return w.base
}

// Size returns the mapped length in bytes.
func (w *Window) Size() int {
	return len(w.mem)
}

func (w *Window) word(off uintptr) *uint32 {
	return (*uint32)(unsafe.Pointer(&w.mem[off]))
}

// Load reads the 32 bit register at byte offset off.
func (w *Window) Load(off uintptr) uint32 {
	return atomic.LoadUint32(w.word(off))
}

// Store writes the 32 bit register at byte offset off.
func (w *Window) Store(off uintptr, v uint32) {
	atomic.StoreUint32(w.word(off), v)
}

// Close releases the mapping. Only the first call unmaps.
func (w *Window) Close() error {
	if !w.closed.CompareAndSwap(false, true) {
		return nil
	}
	mem := w.mem
	w.mem = nil
	return w.unmap(mem)
}

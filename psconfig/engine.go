package psconfig

import (
	"sync/atomic"
	"time"
)

// Engine clocks a bitstream into an FPGA in passive serial mode: DATA0 is
// sampled by the FPGA on the rising edge of DCLK, LSB of each byte first.
//
// [Altera|Passive Serial (PS) configuration timing]
// nCONFIG high (or nCE low) -> DATA0/DCLK per bit -> DCLK keeps toggling
// until CONF_DONE is high plus at least two falling edges.
type Engine struct {
	Port       Port
	Pins       Pins
	EdgeWrites int           // identical register writes per DCLK edge
	TailClocks int           // DCLK pulses after the last data bit
	Settle     time.Duration // wait after entering configuration mode
	Stop       *atomic.Bool
}

// NewEngine returns an engine on port using the pins and timings of c.
func NewEngine(port Port, c *Config, stop *atomic.Bool) *Engine {
	return &Engine{
		Port:       port,
		Pins:       c.Pins,
		EdgeWrites: c.EdgeWrites,
		TailClocks: c.TailClocks,
		Settle:     c.Settle,
		Stop:       stop,
	}
}

// Configure puts dev into configuration mode and shifts image into it. The
// returned duration covers the data and tail clocking only. If the stop flag
// is raised the transfer ends early with ErrInterrupted and the device is
// left unconfigured.
func (e *Engine) Configure(dev Device, image []byte) (time.Duration, error) {
	e.selectDevice(dev)

	start := time.Now()
	complete := e.shift(image)
	complete = e.tail() && complete
	elapsed := time.Since(start)

	if !complete {
		return elapsed, ErrInterrupted
	}
	return elapsed, nil
}

// a device with its own select line is picked by pulling nCE low and nCONFIG
// is left as it is, low if no device without a select line was configured
// before it
func (e *Engine) selectDevice(dev Device) {
	if dev.hasSelect() {
		e.Port.Clear(uint8(dev.SelectPin))
	} else {
		e.Port.Set(e.Pins.NCONFIG)
	}
	if e.Settle > 0 {
		time.Sleep(e.Settle)
	}
}

func (e *Engine) stopped() bool {
	return e.Stop != nil && e.Stop.Load()
}

// shift sends every bit of image and reports whether it got to the end.
func (e *Engine) shift(image []byte) bool {
	for _, value := range image {
		if e.stopped() {
			return false
		}
		for i := 0; i < 8; i++ {
			if (value>>i)&0x1 != 0 {
				e.Port.Set(e.Pins.DATA0)
			} else {
				e.Port.Clear(e.Pins.DATA0)
			}
			e.rise()
			e.fall()
		}
	}
	return true
}

// tail keeps DCLK running after the data: the FPGA needs at least two
// falling edges after it releases CONF_DONE.
func (e *Engine) tail() bool {
	for n := 0; n < e.TailClocks; n++ {
		if e.stopped() {
			return false
		}
		e.rise()
		e.fall()
	}
	return true
}

// rise and fall hold each DCLK level for the minimum pulse width by
// repeating the same set/clear write, there is no timer fine enough.
func (e *Engine) rise() {
	for i := 0; i < e.edgeWrites(); i++ {
		e.Port.Set(e.Pins.DCLK)
	}
}

func (e *Engine) fall() {
	for i := 0; i < e.edgeWrites(); i++ {
		e.Port.Clear(e.Pins.DCLK)
	}
}

func (e *Engine) edgeWrites() int {
	if e.EdgeWrites < 1 {
		return 1
	}
	return e.EdgeWrites
}

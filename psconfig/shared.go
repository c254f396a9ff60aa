package psconfig

import (
	"errors"
	"time"

	"periph.io/x/conn/v3/gpio"
)

const (
	NUM_CONSECUTIVE_GPIO_WRITES = 5
	NUM_TAIL_DCLKS              = 10
	SETTLE_TIME                 = time.Millisecond
	MAX_IMAGE_SIZE              = 64 << 20

	// NoPin marks a device that is entered by driving nCONFIG high rather
	// than by pulling a select line low.
	NoPin = -1
)

var (
	ErrFileNotFound = errors.New("bitstream file not found")
	ErrAllocation   = errors.New("bitstream buffer allocation failed")
	ErrShortRead    = errors.New("bitstream short read")
	ErrInterrupted  = errors.New("transfer interrupted")
	ErrUnknownBoard = errors.New("unknown board profile")
)

// Port is the set of pin operations the configuration sequence needs. Pins
// are set up once, before any level is driven.
type Port interface {
	Output(pin uint8)
	Input(pin uint8, pull gpio.Pull)
	Set(pin uint8)
	Clear(pin uint8)
	Read(pin uint8) gpio.Level
	Close() error
}

// OpenFunc establishes the register window for the SoC whose peripherals
// start at base and returns a Port on it.
type OpenFunc func(base uint64) (Port, error)

// Pins are the BCM GPIO numbers of the configuration bus.
type Pins struct {
	DCLK     uint8
	DATA0    uint8
	NCONFIG  uint8
	BoardRev [2]uint8
}

// Device is one FPGA on the configuration bus.
type Device struct {
	Name      string
	File      string
	SelectPin int // nCE, driven low to select; NoPin if none
}

func (d Device) hasSelect() bool {
	return d.SelectPin >= 0
}

type Config struct {
	Profile        string
	MemDevice      string
	PeripheralBase uint64 // 0 = detect
	Pins           Pins
	Devices        []Device
	EdgeWrites     int
	TailClocks     int
	Settle         time.Duration
	MaxImageSize   int64
	DumpRegisters  bool
}

// selectPins returns the select lines of all devices in c.
func (c *Config) selectPins() []uint8 {
	var pins []uint8
	for _, d := range c.Devices {
		if d.hasSelect() {
			pins = append(pins, uint8(d.SelectPin))
		}
	}
	return pins
}

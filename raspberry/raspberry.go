package raspberry

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
)

// BCM2711 ARM Peripherals, 5.2 Register View
const (
	GPIO_REGISTER_BASE = 0x200000

	GPFSEL0         = 0x00
	GPSET0          = 0x1C
	GPCLR0          = 0x28
	GPLEV0          = 0x34
	GPIO_PUP_PDN_0  = 0xE4
	GPIO_PIN_COUNT  = 58
	GPIO_BLOCK_SIZE = 0xF4
)

// function select field encodings, 3 bits per pin, 10 pins per register
const (
	fselInput  = 0b000
	fselOutput = 0b001
	fselMask   = 0b111
)

// pull control encodings, 2 bits per pin, 16 pins per register
const (
	pullNone = 0b00
	pullUp   = 0b01
	pullDown = 0b10
	pullMask = 0b11
)

// GPIO drives pins of the BCM2711 GPIO block through a register window.
// Pin indices are not range checked.
type GPIO struct {
	w    *Window
	regs registers
}

type registers interface {
	Load(off uintptr) uint32
	Store(off uintptr, v uint32)
}

// Open maps the GPIO register block of the SoC whose peripherals start at
// peripheralBase.
func Open(dev string, peripheralBase uint64) (*GPIO, error) {
	w, err := Map(dev, peripheralBase+GPIO_REGISTER_BASE, PAGE_SIZE)
	if err != nil {
		return nil, err
	}
	return &GPIO{w: w, regs: w}, nil
}

func (g *GPIO) String() string {
	return fmt.Sprintf("gpio@%#x", g.w.Base())
}

// Output selects the output function for pin.
func (g *GPIO) Output(pin uint8) {
	g.fsel(pin, fselOutput)
}

// Input selects the input function for pin and sets its pull resistor.
// The pull register is written twice: first with the field cleared, then
// with the new code.
func (g *GPIO) Input(pin uint8, pull gpio.Pull) {
	g.fsel(pin, fselInput)

	var code uint32
	switch pull {
	case gpio.PullNoChange:
		return
	case gpio.PullUp:
		code = pullUp
	case gpio.PullDown:
		code = pullDown
	default:
		code = pullNone
	}

	off := uintptr(GPIO_PUP_PDN_0) + 4*uintptr(pin/16)
	shift := uint(pin%16) * 2
	v := g.regs.Load(off) &^ (pullMask << shift)
	g.regs.Store(off, v)
	g.regs.Store(off, v|code<<shift)
}

func (g *GPIO) fsel(pin uint8, fn uint32) {
	off := uintptr(GPFSEL0) + 4*uintptr(pin/10)
	shift := uint(pin%10) * 3
	v := g.regs.Load(off)
	v &^= fselMask << shift
	v |= fn << shift
	g.regs.Store(off, v)
}

// Set drives pin high with a single write to the set register.
func (g *GPIO) Set(pin uint8) {
	g.regs.Store(GPSET0+4*uintptr(pin/32), 1<<(pin%32))
}

// Clear drives pin low with a single write to the clear register.
func (g *GPIO) Clear(pin uint8) {
	g.regs.Store(GPCLR0+4*uintptr(pin/32), 1<<(pin%32))
}

// Read returns the current level of pin.
func (g *GPIO) Read(pin uint8) gpio.Level {
	return (g.regs.Load(GPLEV0+4*uintptr(pin/32))>>(pin%32))&1 != 0
}

// Close unmaps the register block.
func (g *GPIO) Close() error {
	return g.w.Close()
}

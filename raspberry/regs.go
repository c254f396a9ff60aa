package raspberry

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/lunixbochs/struc"
	"periph.io/x/conn/v3/gpio"
)

// Registers is a decoded copy of the GPIO register block.
// Write-only and event registers read back as whatever the SoC returns.
type Registers struct {
	FSel      [6]uint32  `struc:"[6]uint32,little"`
	Res0      uint32     `struc:"uint32,little"`
	Set       [2]uint32  `struc:"[2]uint32,little"`
	Res1      uint32     `struc:"uint32,little"`
	Clr       [2]uint32  `struc:"[2]uint32,little"`
	Res2      uint32     `struc:"uint32,little"`
	Lev       [2]uint32  `struc:"[2]uint32,little"`
	Res3      uint32     `struc:"uint32,little"`
	EDS       [2]uint32  `struc:"[2]uint32,little"`
	Res4      uint32     `struc:"uint32,little"`
	REN       [2]uint32  `struc:"[2]uint32,little"`
	Res5      uint32     `struc:"uint32,little"`
	FEN       [2]uint32  `struc:"[2]uint32,little"`
	Res6      uint32     `struc:"uint32,little"`
	HEN       [2]uint32  `struc:"[2]uint32,little"`
	Res7      uint32     `struc:"uint32,little"`
	LEN       [2]uint32  `struc:"[2]uint32,little"`
	Res8      uint32     `struc:"uint32,little"`
	AREN      [2]uint32  `struc:"[2]uint32,little"`
	Res9      uint32     `struc:"uint32,little"`
	AFEN      [2]uint32  `struc:"[2]uint32,little"`
	Reserved  [21]uint32 `struc:"[21]uint32,little"`
	PullCntrl [4]uint32  `struc:"[4]uint32,little"`
}

// Snapshot reads the whole register block word by word and decodes it.
func (g *GPIO) Snapshot() (*Registers, error) {
	raw := make([]byte, GPIO_BLOCK_SIZE)
	for off := uintptr(0); off < GPIO_BLOCK_SIZE; off += 4 {
		binary.LittleEndian.PutUint32(raw[off:], g.regs.Load(off))
	}

	regs := &Registers{}
	if err := struc.Unpack(bytes.NewReader(raw), regs); err != nil {
		return nil, fmt.Errorf("decode gpio registers: %w", err)
	}
	return regs, nil
}

// Function returns the 3 bit function select code of pin.
func (r *Registers) Function(pin uint8) uint32 {
	return (r.FSel[pin/10] >> (uint(pin%10) * 3)) & fselMask
}

// Pull returns the pull resistor setting of pin.
func (r *Registers) Pull(pin uint8) gpio.Pull {
	switch (r.PullCntrl[pin/16] >> (uint(pin%16) * 2)) & pullMask {
	case pullUp:
		return gpio.PullUp
	case pullDown:
		return gpio.PullDown
	default:
		return gpio.Float
	}
}

// Level returns the level of pin as latched in the level register.
func (r *Registers) Level(pin uint8) gpio.Level {
	return (r.Lev[pin/32]>>(pin%32))&1 != 0
}

// Describe formats function, pull and level for each of pins.
func (r *Registers) Describe(pins ...uint8) string {
	var b strings.Builder
	for i, pin := range pins {
		if i > 0 {
			b.WriteString(", ")
		}
		fn := "alt"
		switch r.Function(pin) {
		case fselInput:
			fn = "in"
		case fselOutput:
			fn = "out"
		}
		fmt.Fprintf(&b, "GPIO%d=%s/%s/%s", pin, fn, r.Pull(pin), r.Level(pin))
	}
	return b.String()
}

// Dump snapshots the register block and describes pins.
func (g *GPIO) Dump(pins ...uint8) (string, error) {
	regs, err := g.Snapshot()
	if err != nil {
		return "", err
	}
	return regs.Describe(pins...), nil
}

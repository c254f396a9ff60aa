package psconfig

import (
	"fmt"
	"sort"

	"periph.io/x/conn/v3/gpio"
)

type op struct {
	Kind string
	Pin  uint8
}

func (o op) String() string {
	return fmt.Sprintf("%s(%d)", o.Kind, o.Pin)
}

// fakePort records every pin operation in order.
type fakePort struct {
	ops    []op
	levels map[uint8]gpio.Level
	closed int

	// afterWrite, when set, runs after every Set or Clear
	afterWrite func(op)
}

func newFakePort() *fakePort {
	return &fakePort{levels: map[uint8]gpio.Level{}}
}

func (p *fakePort) record(o op) {
	p.ops = append(p.ops, o)
	if p.afterWrite != nil && (o.Kind == "set" || o.Kind == "clr") {
		p.afterWrite(o)
	}
}

func (p *fakePort) Output(pin uint8) { p.record(op{"out", pin}) }
func (p *fakePort) Set(pin uint8)    { p.record(op{"set", pin}) }
func (p *fakePort) Clear(pin uint8)  { p.record(op{"clr", pin}) }

func (p *fakePort) Input(pin uint8, pull gpio.Pull) {
	p.record(op{"in:" + pull.String(), pin})
}

func (p *fakePort) Read(pin uint8) gpio.Level {
	p.record(op{"read", pin})
	return p.levels[pin]
}

func (p *fakePort) Close() error {
	p.closed++
	return nil
}

// trace is the bus activity of a transfer reduced to what the FPGA sees.
type trace struct {
	Bits   []int // DATA0 level at each rising edge that follows a DATA0 write
	Pulses int   // DCLK rising edges
	Tail   int   // rising edges with no DATA0 write since the previous one
	Widths []int // distinct numbers of writes per DCLK edge
}

func decode(ops []op, pins Pins) trace {
	var t trace
	data, fresh := 0, false
	widths := map[int]bool{}
	for i := 0; i < len(ops); {
		o := ops[i]
		switch {
		case o.Pin == pins.DATA0 && (o.Kind == "set" || o.Kind == "clr"):
			data = 0
			if o.Kind == "set" {
				data = 1
			}
			fresh = true
			i++
		case o.Pin == pins.DCLK && (o.Kind == "set" || o.Kind == "clr"):
			n := 0
			for i < len(ops) && ops[i] == o {
				n++
				i++
			}
			widths[n] = true
			if o.Kind != "set" {
				continue
			}
			t.Pulses++
			if fresh {
				t.Bits = append(t.Bits, data)
				fresh = false
			} else {
				t.Tail++
			}
		default:
			i++
		}
	}
	for w := range widths {
		t.Widths = append(t.Widths, w)
	}
	sort.Ints(t.Widths)
	return t
}

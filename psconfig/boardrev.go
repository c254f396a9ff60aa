package psconfig

import "periph.io/x/conn/v3/gpio"

// board revision straps, bit 0 = first revision pin, bit 1 = second
var boardRevisions = [4]string{"D", "B", "C", "A"}

// BoardRevision decodes the two pulled-up revision strap inputs.
func BoardRevision(pin1, pin2 gpio.Level) string {
	rev := 0
	if pin1 {
		rev |= 1
	}
	if pin2 {
		rev |= 2
	}
	return boardRevisions[rev]
}

package raspberry

import (
	"errors"
	"fmt"
	"strings"

	"periph.io/x/host/v3/distro"
)

// BCM2711_PI4_PERIPHERAL_BASE is the ARM physical address of the BCM2711
// peripherals in low peripheral mode.
const BCM2711_PI4_PERIPHERAL_BASE uint64 = 0xFE000000

var ErrUnsupportedSoC = errors.New("unsupported SoC")

// the pull control registers at 0xE4 only exist from the BCM2711 on
var peripheralBases = map[string]uint64{
	"brcm,bcm2711": BCM2711_PI4_PERIPHERAL_BASE,
}

// PeripheralBase detects the peripheral base address from the device tree.
// It also returns the board model string for display.
func PeripheralBase() (uint64, string, error) {
	return peripheralBaseOf(distro.DTModel(), distro.DTCompatible())
}

func peripheralBaseOf(model string, compatible []string) (uint64, string, error) {
	for _, c := range compatible {
		if base, ok := peripheralBases[strings.TrimSpace(c)]; ok {
			return base, model, nil
		}
	}
	if model == "" {
		model = "unknown board"
	}
	return 0, model, fmt.Errorf("%w: %s (%s)", ErrUnsupportedSoC, model, strings.Join(compatible, ", "))
}

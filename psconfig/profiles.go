package psconfig

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// Profile describes one board build: where its images live and how its
// FPGAs are wired.
type Profile struct {
	Name           string
	FirmwareDir    string
	PeripheralBase uint64
	Pins           Pins
	Devices        []Device // File is relative to FirmwareDir
}

var defaultPins = Pins{
	DCLK:     3,
	DATA0:    16,
	NCONFIG:  17,
	BoardRev: [2]uint8{20, 21},
}

var profiles = map[string]Profile{
	// two FPGAs sharing DCLK/DATA0/nCONFIG, the second behind nCE on GPIO2
	"nina": {
		Name:           "nina",
		FirmwareDir:    "/home/root/nina/firmware/",
		PeripheralBase: 0xFE000000,
		Pins:           defaultPins,
		Devices: []Device{
			{Name: "FPGA1", File: "synthia_fpga_1.rbf", SelectPin: NoPin},
			{Name: "FPGA2", File: "synthia_fpga_2.rbf", SelectPin: 2},
		},
	},
	"delia": {
		Name:           "delia",
		FirmwareDir:    "/home/root/delia/firmware/",
		PeripheralBase: 0xFE000000,
		Pins:           defaultPins,
		Devices: []Device{
			{Name: "FPGA1", File: "monique.rbf", SelectPin: NoPin},
		},
	},
}

// Profiles returns the names of the built-in profiles.
func Profiles() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func LookupProfile(name string) (Profile, error) {
	p, ok := profiles[strings.ToLower(name)]
	if !ok {
		return Profile{}, fmt.Errorf("%w %q (known: %s)", ErrUnknownBoard, name, strings.Join(Profiles(), ", "))
	}
	p.Devices = append([]Device(nil), p.Devices...)
	return p, nil
}

// Config expands the profile into a run configuration with default timings.
// A non-empty dir replaces the firmware directory and non-empty files
// replace the image names of the first len(files) devices.
func (p Profile) Config(dir string, files []string) *Config {
	if dir == "" {
		dir = p.FirmwareDir
	}

	devices := make([]Device, len(p.Devices))
	for i, d := range p.Devices {
		if i < len(files) && files[i] != "" {
			d.File = files[i]
		}
		if !filepath.IsAbs(d.File) {
			d.File = filepath.Join(dir, d.File)
		}
		devices[i] = d
	}

	return &Config{
		Profile:        p.Name,
		MemDevice:      "/dev/mem",
		PeripheralBase: p.PeripheralBase,
		Pins:           p.Pins,
		Devices:        devices,
		EdgeWrites:     NUM_CONSECUTIVE_GPIO_WRITES,
		TailClocks:     NUM_TAIL_DCLKS,
		Settle:         SETTLE_TIME,
		MaxImageSize:   MAX_IMAGE_SIZE,
	}
}

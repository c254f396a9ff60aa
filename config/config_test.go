package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shufps/fpgaconfig/psconfig"
	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func loadArgs(t *testing.T, args ...string) *viper.Viper {
	t.Helper()
	v := viper.New()
	fs := flag.NewFlagSet("fpgaconfig", flag.ContinueOnError)
	if err := load(v, fs, args); err != nil {
		t.Fatal(err)
	}
	return v
}

func TestDefaults(t *testing.T) {
	c, err := PSConfig(loadArgs(t))
	if err != nil {
		t.Fatal(err)
	}

	p, _ := psconfig.LookupProfile("nina")
	want := p.Config("", nil)
	if diff := cmp.Diff(want, c); diff != "" {
		t.Fatalf("defaults differ from the nina profile: %s", diff)
	}
}

func TestFlags(t *testing.T) {
	v := loadArgs(t,
		"--profile", "delia",
		"--firmware.dir", "/srv/fw",
		"--firmware.files", "a.rbf",
		"--board.peripheralBase", "0x3F000000",
		"--transfer.edgeWrites", "3",
		"--transfer.settle", "5ms",
		"--debug.registers",
	)
	c, err := PSConfig(v)
	if err != nil {
		t.Fatal(err)
	}

	if c.Profile != "delia" || c.PeripheralBase != 0x3F000000 {
		t.Errorf("profile %s base %#x", c.Profile, c.PeripheralBase)
	}
	if diff := cmp.Diff([]psconfig.Device{{Name: "FPGA1", File: "/srv/fw/a.rbf", SelectPin: psconfig.NoPin}}, c.Devices); diff != "" {
		t.Errorf("devices differ: %s", diff)
	}
	if c.EdgeWrites != 3 || c.Settle != 5*time.Millisecond || !c.DumpRegisters {
		t.Errorf("transfer settings %+v", c)
	}
}

func TestDetect(t *testing.T) {
	c, err := PSConfig(loadArgs(t, "--board.detect"))
	if err != nil {
		t.Fatal(err)
	}
	if c.PeripheralBase != 0 {
		t.Fatalf("base %#x, want 0 for detection", c.PeripheralBase)
	}
}

func TestConfigFileAndEnv(t *testing.T) {
	file := filepath.Join(t.TempDir(), DEFAULT_CONFIG_FILE)
	data := `{"profile": "delia", "transfer": {"tailClocks": 20, "edgeWrites": 2}}`
	if err := os.WriteFile(file, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FPGACONFIG_TRANSFER_TAILCLOCKS", "30")

	c, err := PSConfig(loadArgs(t, "--config", file, "--transfer.edgeWrites", "4"))
	if err != nil {
		t.Fatal(err)
	}
	if c.Profile != "delia" {
		t.Errorf("profile %s from file", c.Profile)
	}
	if c.TailClocks != 30 {
		t.Errorf("tail clocks %d, env should win over file", c.TailClocks)
	}
	if c.EdgeWrites != 4 {
		t.Errorf("edge writes %d, flag should win over file", c.EdgeWrites)
	}
}

func TestMissingExplicitConfigFile(t *testing.T) {
	v := viper.New()
	fs := flag.NewFlagSet("fpgaconfig", flag.ContinueOnError)
	err := load(v, fs, []string{"--config", filepath.Join(t.TempDir(), "absent.json")})
	if err == nil {
		t.Fatal("explicit missing config file accepted")
	}
}

func TestPSConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown profile", []string{"--profile", "monique"}},
		{"no edge writes", []string{"--transfer.edgeWrites", "0"}},
		{"negative tail", []string{"--transfer.tailClocks", "-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := PSConfig(loadArgs(t, tt.args...)); err == nil {
				t.Fatal("accepted")
			}
		})
	}
}

func TestStartUnknownFlag(t *testing.T) {
	args := os.Args
	defer func() { os.Args = args }()
	os.Args = []string{"fpgaconfig", "--bogus"}

	// an exiting flag set would end the test binary here
	if err := Start(); err == nil {
		t.Fatal("unknown flag accepted")
	}
}

func TestPeripheralBaseFromFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "board.json")
	if err := os.WriteFile(file, []byte(`{"board": {"peripheralBase": 1056964608}}`), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := PSConfig(loadArgs(t, "--config", file))
	if err != nil {
		t.Fatal(err)
	}
	if c.PeripheralBase != 0x3F000000 {
		t.Fatalf("base %#x", c.PeripheralBase)
	}
}

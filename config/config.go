package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/shufps/fpgaconfig/logs"
	"github.com/shufps/fpgaconfig/psconfig"
	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	AppConfig = viper.New()
)

const (
	ENV_PREFIX          = "FPGACONFIG"
	DEFAULT_CONFIG_FILE = "fpgaconfig.config.json"
)

/*
PRECEDENCE (Higher number overrides the others):
1. default
2. key/value store
3. config
4. env
5. flag
6. explicit call to Set
*/
func Start() error {
	// a bad flag is reported, never fatal
	flag.CommandLine.Init(os.Args[0], flag.ContinueOnError)
	return load(AppConfig, flag.CommandLine, os.Args[1:])
}

func load(v *viper.Viper, fs *flag.FlagSet, args []string) error {
	declareBoardConfigs(fs)
	declareTransferConfigs(fs)
	declareLogConfigs(fs)

	var configPath = fs.StringP("config", "c", DEFAULT_CONFIG_FILE, "Config file path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := v.BindPFlags(fs); err != nil {
		return err
	}

	v.SetEnvPrefix(ENV_PREFIX)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	logs.SetConfig(v)

	if err := loadAppConfigFile(v, fs, *configPath); err != nil {
		return err
	}
	// the file may have changed log.level
	logs.SetConfig(v)

	cfg, _ := json.MarshalIndent(v.AllSettings(), "", "  ")
	logs.Log.Debugf("Settings loaded: \n %+v", string(cfg))
	return nil
}

func declareBoardConfigs(fs *flag.FlagSet) {
	fs.StringP("profile", "b", "nina", fmt.Sprintf("Board profile (%s)", strings.Join(psconfig.Profiles(), ", ")))

	fs.String("firmware.dir", "", "Firmware directory, overrides the profile's")
	fs.StringSlice("firmware.files", nil, "Image file per FPGA, in configuration order")

	fs.Uint64("board.peripheralBase", 0, "SoC peripheral base address, 0 keeps the profile's")
	fs.Bool("board.detect", false, "Detect the peripheral base from the device tree")
	fs.String("board.memDevice", "/dev/mem", "Physical memory device")
}

func declareTransferConfigs(fs *flag.FlagSet) {
	fs.Int("transfer.edgeWrites", psconfig.NUM_CONSECUTIVE_GPIO_WRITES, "Identical register writes per DCLK edge")
	fs.Int("transfer.tailClocks", psconfig.NUM_TAIL_DCLKS, "DCLK pulses after the last data bit")
	fs.Duration("transfer.settle", psconfig.SETTLE_TIME, "Wait after setup and after entering configuration mode")
	fs.Int64("transfer.maxImageSize", psconfig.MAX_IMAGE_SIZE, "Largest accepted bitstream in bytes")
}

func declareLogConfigs(fs *flag.FlagSet) {
	fs.String("log.level", "INFO", "DEBUG, INFO, NOTICE, WARNING, ERROR or CRITICAL")
	fs.Bool("debug.registers", false, "Log the decoded GPIO registers after setup")
}

func loadAppConfigFile(v *viper.Viper, fs *flag.FlagSet, configPath string) error {
	if len(configPath) == 0 {
		return nil
	}
	_, err := os.Stat(configPath)
	if !fs.Changed("config") && os.IsNotExist(err) {
		// Standard config file not found => skip
		logs.Log.Info("Standard config file not found. Loading default settings.")
		return nil
	}

	logs.Log.Infof("Loading config from: %s", configPath)
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("config could not be loaded from: %s (%w)", configPath, err)
	}
	return nil
}

// PSConfig builds the run configuration from the profile named in v and
// the overrides set next to it.
func PSConfig(v *viper.Viper) (*psconfig.Config, error) {
	profile, err := psconfig.LookupProfile(v.GetString("profile"))
	if err != nil {
		return nil, err
	}

	c := profile.Config(v.GetString("firmware.dir"), v.GetStringSlice("firmware.files"))

	if base := v.GetInt64("board.peripheralBase"); base != 0 {
		c.PeripheralBase = uint64(base)
	}
	if v.GetBool("board.detect") {
		c.PeripheralBase = 0
	}
	if dev := v.GetString("board.memDevice"); dev != "" {
		c.MemDevice = dev
	}

	c.EdgeWrites = v.GetInt("transfer.edgeWrites")
	c.TailClocks = v.GetInt("transfer.tailClocks")
	c.Settle = v.GetDuration("transfer.settle")
	c.MaxImageSize = v.GetInt64("transfer.maxImageSize")
	c.DumpRegisters = v.GetBool("debug.registers")

	switch {
	case c.EdgeWrites < 1:
		return nil, fmt.Errorf("transfer.edgeWrites must be at least 1, got %d", c.EdgeWrites)
	case c.TailClocks < 0:
		return nil, fmt.Errorf("transfer.tailClocks must not be negative, got %d", c.TailClocks)
	case c.Settle < 0:
		return nil, fmt.Errorf("transfer.settle must not be negative, got %v", c.Settle)
	}
	return c, nil
}

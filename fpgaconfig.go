package main

import (
	"errors"
	"sync/atomic"

	"github.com/shufps/fpgaconfig/config"
	"github.com/shufps/fpgaconfig/logs"
	"github.com/shufps/fpgaconfig/psconfig"
	"github.com/shufps/fpgaconfig/raspberry"
	flag "github.com/spf13/pflag"
)

const APP_VERSION = "1.1.0"

func main() {
	logs.Start()
	run()
}

// run never fails: configuration problems are logged and the run is
// reported complete like any other
func run() {
	if err := config.Start(); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		logs.Log.Errorf("Configuration error: %v", err)
		logs.Log.Notice("FPGA Config completed")
		return
	}

	logs.Log.Info("FPGA CONFIG")
	logs.Log.Infof("Version %s", APP_VERSION)

	cfg, err := config.PSConfig(config.AppConfig)
	if err != nil {
		logs.Log.Errorf("Configuration error: %v", err)
		logs.Log.Notice("FPGA Config completed")
		return
	}

	stop := new(atomic.Bool)
	cancel := psconfig.NotifyStop(stop)
	defer cancel()

	session := psconfig.Session{
		Config: cfg,
		Open:   openGPIO(cfg.MemDevice),
		Stop:   stop,
		Log:    logs.Log,
	}
	session.Run()
}

// openGPIO maps the GPIO block through dev, detecting the peripheral base
// when none is configured.
func openGPIO(dev string) psconfig.OpenFunc {
	return func(base uint64) (psconfig.Port, error) {
		if base == 0 {
			detected, model, err := raspberry.PeripheralBase()
			if err != nil {
				return nil, err
			}
			logs.Log.Infof("%s, peripheral base %#x", model, detected)
			base = detected
		}

		gpio, err := raspberry.Open(dev, base)
		if err != nil {
			return nil, err
		}
		logs.Log.Debugf("GPIO registers mapped at %s", gpio)
		return gpio, nil
	}
}

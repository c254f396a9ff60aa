package logs

import (
	"io"
	"os"

	"github.com/op/go-logging"
	"github.com/spf13/viper"
)

var (
	logFormat = "%{color}[%{level:.4s}] %{time:15:04:05.000000} [%{shortpkg}] %{shortfunc} -> %{color:reset}%{message}"
	Log       = logging.MustGetLogger("fpgaconfig")
	config    *viper.Viper
)

func Start() {
	logging.SetFormatter(logging.MustStringFormatter(logFormat))
}

func SetConfig(viperConfig *viper.Viper) {
	setConfig(viperConfig, os.Stdout)
}

func setConfig(viperConfig *viper.Viper, w io.Writer) {
	config = viperConfig
	consoleBackEnd := logging.NewLogBackend(w, "", 0)
	consoleBackEndLeveled := logging.AddModuleLevel(consoleBackEnd)

	level, err := logging.LogLevel(config.GetString("log.level"))
	if err != nil {
		level = logging.INFO
	}
	// empty module applies to every logger, psconfig included
	consoleBackEndLeveled.SetLevel(level, "")
	logging.SetBackend(consoleBackEndLeveled)

	if err != nil {
		Log.Warningf("Could not set log level to %v: %v", config.GetString("log.level"), err)
		Log.Warning("Using default log level")
	}
}

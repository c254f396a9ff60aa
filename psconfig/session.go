package psconfig

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/op/go-logging"
	"periph.io/x/conn/v3/gpio"
)

// LoadFunc reads a bitstream image; LoadBitstream is the default.
type LoadFunc func(path string, limit int64) ([]byte, error)

// Session runs one configuration pass over every device of Config. Failures
// are logged and the affected step is skipped; Run always gets to the end.
type Session struct {
	Config *Config
	Open   OpenFunc
	Load   LoadFunc
	Stop   *atomic.Bool
	Log    *logging.Logger
}

type DeviceReport struct {
	Name    string
	File    string
	Size    int
	Elapsed time.Duration
	Err     error
}

// Report summarises a Run. GPIOErr is set when the register window could
// not be established, in which case nothing else was attempted.
type Report struct {
	GPIOErr  error
	Revision string
	Devices  []DeviceReport
}

// dumper is implemented by ports that can describe their register state.
type dumper interface {
	Dump(pins ...uint8) (string, error)
}

func (s *Session) Run() Report {
	var r Report
	if s.Log == nil {
		s.Log = logging.MustGetLogger("psconfig")
	}

	port, err := s.open()
	if err != nil {
		r.GPIOErr = err
		s.Log.Errorf("GPIO open/setup error: %v", err)
	} else {
		s.setup(port)
		s.Log.Info("GPIO open and setup")

		pins := s.Config.Pins
		r.Revision = BoardRevision(port.Read(pins.BoardRev[0]), port.Read(pins.BoardRev[1]))
		s.Log.Infof("Detected Board Rev %s", r.Revision)

		r.Devices = s.configure(port)
		s.close(port)
	}

	s.Log.Notice("FPGA Config completed")
	return r
}

func (s *Session) open() (Port, error) {
	if s.Open == nil {
		return nil, errors.New("no GPIO backend")
	}
	return s.Open(s.Config.PeripheralBase)
}

func (s *Session) stopped() bool {
	return s.Stop != nil && s.Stop.Load()
}

// setup puts every pin in its direction, then parks the bus: select lines
// high, DCLK, DATA0 and nCONFIG low.
func (s *Session) setup(port Port) {
	pins := s.Config.Pins
	selects := s.Config.selectPins()

	port.Output(pins.NCONFIG)
	for _, pin := range selects {
		port.Output(pin)
	}
	port.Output(pins.DCLK)
	port.Output(pins.DATA0)
	port.Input(pins.BoardRev[0], gpio.PullUp)
	port.Input(pins.BoardRev[1], gpio.PullUp)

	for _, pin := range selects {
		port.Set(pin)
	}
	port.Clear(pins.DCLK)
	port.Clear(pins.DATA0)
	port.Clear(pins.NCONFIG)
	if s.Config.Settle > 0 {
		time.Sleep(s.Config.Settle)
	}

	if !s.Config.DumpRegisters {
		return
	}
	d, ok := port.(dumper)
	if !ok {
		return
	}
	all := append([]uint8{pins.DCLK, pins.DATA0, pins.NCONFIG}, selects...)
	all = append(all, pins.BoardRev[:]...)
	desc, err := d.Dump(all...)
	if err != nil {
		s.Log.Warningf("GPIO register dump: %v", err)
		return
	}
	s.Log.Debugf("GPIO registers: %s", desc)
}

func (s *Session) configure(port Port) []DeviceReport {
	engine := NewEngine(port, s.Config, s.Stop)
	reports := make([]DeviceReport, 0, len(s.Config.Devices))

	for _, dev := range s.Config.Devices {
		if s.stopped() {
			s.Log.Warningf("%s skipped, exit requested", dev.Name)
			reports = append(reports, DeviceReport{Name: dev.Name, File: dev.File, Err: ErrInterrupted})
			continue
		}
		reports = append(reports, s.configureDevice(engine, dev))
	}
	return reports
}

// the image is only referenced from here, so at most one is resident
func (s *Session) configureDevice(engine *Engine, dev Device) DeviceReport {
	r := DeviceReport{Name: dev.Name, File: dev.File}

	load := s.Load
	if load == nil {
		load = LoadBitstream
	}
	image, err := load(dev.File, s.Config.MaxImageSize)
	switch {
	case errors.Is(err, ErrShortRead):
		s.Log.Warningf("%s binary file: %v", dev.Name, err)
	case err != nil:
		s.Log.Errorf("Could not load the %s binary file: %v", dev.Name, err)
		r.Err = err
		return r
	}

	r.Size = len(image)
	s.Log.Infof("%s binary file size: %d bytes", dev.Name, r.Size)

	r.Elapsed, r.Err = engine.Configure(dev, image)
	if r.Err != nil {
		s.Log.Warningf("%s not configured: %v after %dms", dev.Name, r.Err, r.Elapsed.Milliseconds())
		return r
	}
	s.Log.Infof("%s configured, %dms", dev.Name, r.Elapsed.Milliseconds())
	return r
}

// close leaves DCLK and DATA0 low and releases the register window. nCONFIG
// stays high so the FPGAs keep their configuration.
func (s *Session) close(port Port) {
	pins := s.Config.Pins
	port.Clear(pins.DCLK)
	port.Clear(pins.DATA0)

	if err := port.Close(); err != nil {
		s.Log.Errorf("GPIO port close: %v", err)
		return
	}
	s.Log.Info("GPIO port closed")
}

package sensors

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/bmxx80"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/flight_computer/internal/env"
)

type bmxReader struct {
	dev *bmxx80.Dev
}

// NewBMX280 opens a BMP280/BME280 on the given SPI device.
func NewBMX280(spiDev string, log *logrus.Entry) (BaroReader, error) {
	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(err, "periph host init")
	}

	bus, err := spireg.Open(spiDev)
	if err != nil {
		return nil, errors.Wrapf(err, "barometer SPI open %s", spiDev)
	}

	dev, err := bmxx80.NewSPI(bus, &bmxx80.DefaultOpts)
	if err != nil {
		bus.Close()
		return nil, errors.Wrap(err, "barometer init")
	}

	log.WithField("component", "baro").Infof("barometer initialized on %s", spiDev)
	return &bmxReader{dev: dev}, nil
}

// Read senses temperature and pressure.
func (b *bmxReader) Read() (env.Sample, error) {
	var e physic.Env
	if err := b.dev.Sense(&e); err != nil {
		return env.Sample{}, errors.Wrap(err, "barometer sense")
	}
	return env.Sample{
		Temperature: e.Temperature.Celsius(),
		Pressure:    float64(e.Pressure) / float64(physic.Pascal),
	}, nil
}

package gps

import (
	"bufio"
	"context"
	"io"
	"time"

	serial "github.com/jacobsa/go-serial/serial"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Reader reads NMEA from a serial GPS receiver.
type Reader struct {
	PortName string // /dev/serial0, /dev/ttyAMA0, /dev/ttyUSB0, ...
	BaudRate uint
	Log      *logrus.Entry
}

// Run opens the port and calls onFix for every completed epoch until ctx is
// cancelled or the port fails.
func (r *Reader) Run(ctx context.Context, onFix func(Fix)) error {
	serialOpts := serial.OpenOptions{
		PortName:              r.PortName,
		BaudRate:              r.BaudRate,
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}

	port, err := serial.Open(serialOpts)
	if err != nil {
		return errors.Wrapf(err, "failed to open GPS port %s", r.PortName)
	}
	r.Log.Infof("GPS serial port opened on %s at %d baud", r.PortName, r.BaudRate)

	// Closing the port unblocks the pending read.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		port.Close()
	}()

	err = Scan(port, time.Now, r.Log, onFix)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// Scan feeds every line of src through a Parser. now stamps each line for
// the up-velocity derivation.
func Scan(src io.Reader, now func() time.Time, log *logrus.Entry, onFix func(Fix)) error {
	var p Parser
	reader := bufio.NewReader(src)
	for {
		line, err := reader.ReadString('\n')
		if len(line) > 0 {
			done, perr := p.Feed(line, now())
			if perr != nil {
				// noisy receivers produce partial sentences
				log.Debugf("%v (line: %q)", perr, line)
			} else if done {
				onFix(p.Fix())
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "GPS read")
		}
	}
}

package bootloader

import (
	"context"
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/moffa90/go-ezusb/ihex"
	"github.com/moffa90/go-ezusb/protocol"
)

// Transport issues vendor control requests on endpoint 0. It has the same
// shape as (*gousb.Device).Control; usbdev.Device implements it.
//
// Failures should be *protocol.TransportError so timeouts can be told
// apart; any other error is treated as protocol.TransportOther.
type Transport interface {
	Control(rType, request uint8, val, idx uint16, data []byte) (int, error)
}

// Programmer downloads firmware into EZ-USB RAM and boot EEPROMs.
//
// A Programmer issues strictly sequential requests and is not safe for
// concurrent use; use one per device.
type Programmer struct {
	device Transport
	config Config
}

// New creates a new Programmer with the given device and options.
//
// Example:
//
//	dev, _ := usbdev.Open("/dev/bus/usb/001/004")
//	prog := bootloader.New(dev,
//	    bootloader.WithLogger(myLogger),
//	    bootloader.WithVerbosity(1),
//	)
func New(device Transport, opts ...Option) *Programmer {
	if device == nil {
		panic("device cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Programmer{
		device: device,
		config: cfg,
	}
}

// Action selects what Program does after the second-stage loader is resident.
type Action int

const (
	// ActionRAM downloads firmware into RAM
	ActionRAM Action = iota

	// ActionEEPROM writes firmware and/or identity into the boot EEPROM
	ActionEEPROM

	// ActionErase erases the boot EEPROM
	ActionErase
)

// Job describes a complete download.
type Job struct {
	// Chip is the target variant
	Chip *protocol.ChipProfile

	// Loader is the second-stage loader image; nil for a single-stage load
	Loader io.ReadSeeker

	// Firmware is the image to download; may be nil for ActionErase and for
	// identity-only ActionEEPROM
	Firmware io.ReadSeeker

	// Action selects the second step
	Action Action

	// EEPROM configures ActionEEPROM and ActionErase
	EEPROM EEPROMOptions
}

// Program runs a complete download:
//  1. Without a loader: single-stage load of Firmware into on-chip RAM
//  2. With a loader: load the loader into on-chip RAM, then
//     erase the EEPROM, write the EEPROM, or do a two-stage RAM load
//
// Example:
//
//	chip, _ := protocol.Lookup("fx2lp")
//	err := prog.Program(ctx, bootloader.Job{
//	    Chip:     chip,
//	    Loader:   vendAx,
//	    Firmware: fw,
//	    Action:   bootloader.ActionEEPROM,
//	    EEPROM:   bootloader.EEPROMOptions{Config: 0x01, VendorID: -1, ProductID: -1},
//	})
func (p *Programmer) Program(ctx context.Context, job Job) error {
	if job.Chip == nil {
		return errNoChip("program")
	}

	if job.Loader == nil {
		if job.Action != ActionRAM {
			return &protocol.ProtocolError{
				Operation: "program",
				Reason:    "need 2nd stage loader to write EEPROM",
			}
		}
		if job.Firmware == nil {
			return errNoFirmware("program")
		}
		p.logV(1, "single stage: load on-chip memory")
		return p.LoadRAM(ctx, job.Firmware, job.Chip, SingleStage)
	}

	p.logV(1, "1st stage: load 2nd stage loader")
	if err := p.LoadRAM(ctx, job.Loader, job.Chip, SingleStage); err != nil {
		return errors.Wrap(err, "load 2nd stage loader")
	}

	switch job.Action {
	case ActionErase:
		return p.EraseEEPROM(ctx, job.EEPROM.LargeEEPROM)
	case ActionEEPROM:
		var image io.Reader
		if job.Firmware != nil {
			image = job.Firmware
		}
		return p.LoadEEPROM(ctx, image, job.Chip, job.EEPROM)
	default:
		if job.Firmware == nil {
			return errNoFirmware("program")
		}
		return p.LoadRAM(ctx, job.Firmware, job.Chip, SecondStage)
	}
}

// write issues a vendor OUT request.
func (p *Programmer) write(label string, request uint8, addr uint16, data []byte) error {
	p.logV(1, label, "addr", fmt.Sprintf("0x%04x", addr), "len", len(data))

	n, err := p.device.Control(protocol.RequestTypeOut, request, addr, 0, data)
	return p.checkTransfer(label, len(data), n, err)
}

// read issues a vendor IN request.
func (p *Programmer) read(label string, request uint8, addr uint16, data []byte) error {
	p.logV(1, label, "addr", fmt.Sprintf("0x%04x", addr), "len", len(data))

	n, err := p.device.Control(protocol.RequestTypeIn, request, addr, 0, data)
	return p.checkTransfer(label, len(data), n, err)
}

func (p *Programmer) checkTransfer(label string, want, got int, err error) error {
	if err != nil {
		te := transportError(label, err)
		p.logError(label, "error", te.Err, "kind", te.Kind.String())
		return te
	}
	if got != want {
		p.logError(label, "transferred", got, "want", want)
		return &protocol.TransportError{
			Operation: label,
			Kind:      protocol.TransportOther,
			Err:       &protocol.ShortTransferError{Want: want, Got: got},
		}
	}
	return nil
}

// writeRetry is write, repeated while the transport reports timeouts.
// Control requests are dropped rather than rejected, so a timeout is the
// only failure worth another attempt.
func (p *Programmer) writeRetry(label string, request uint8, addr uint16, data []byte) error {
	for attempt := 0; ; attempt++ {
		err := p.write(label, request, addr, data)
		if err == nil || !protocol.IsTimeout(err) || attempt >= p.config.Retries {
			return err
		}
		p.logV(1, "retrying after timeout", "op", label, "retry", attempt+1, "limit", p.config.Retries)
	}
}

// setCPU writes CPUCS to halt or release the 8051.
func (p *Programmer) setCPU(cpucs uint16, run bool) error {
	if run {
		p.logV(1, "reset CPU")
	} else {
		p.logV(1, "stop CPU")
	}

	if err := p.write("modify CPUCS", protocol.RequestInternal, cpucs, protocol.BuildCPUCSValue(run)); err != nil {
		return &DeviceStateError{Address: cpucs, Run: run, Err: err}
	}
	return nil
}

// newScanner returns an image scanner that traces lines at verbosity 3.
func (p *Programmer) newScanner(image io.Reader, chip *protocol.ChipProfile) *ihex.Scanner {
	s := ihex.NewScanner(image, chip.Classify)
	if p.config.Verbosity >= 3 {
		s.Trace = func(line int, text string) {
			p.logV(3, "** LINE", "line", line, "text", text)
		}
	}
	return s
}

// runImage drives a scanner over image, handing each segment to poke.
// Read failures come back as *IOError; format and sink failures as-is.
func (p *Programmer) runImage(ctx context.Context, image io.Reader, chip *protocol.ChipProfile, poke ihex.Sink) error {
	s := p.newScanner(image, chip)
	err := s.Run(func(seg ihex.Segment) error {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, "cancelled")
		}
		return poke(seg)
	})
	if err == nil {
		p.logV(2, "EOF on hexfile", "lines", s.Line())
		return nil
	}

	var se *ihex.SinkError
	if !errors.As(err, &se) && !ihex.IsFormatError(err) {
		return &IOError{Op: "read image", Err: err}
	}
	return err
}

// transportError normalizes a transport failure into a *protocol.TransportError
// labelled with the failed request.
func transportError(label string, err error) *protocol.TransportError {
	var te *protocol.TransportError
	if errors.As(err, &te) {
		return &protocol.TransportError{Operation: label, Kind: te.Kind, Err: te.Err}
	}
	return &protocol.TransportError{Operation: label, Kind: protocol.TransportOther, Err: err}
}

func errNoChip(op string) error {
	return &protocol.ProtocolError{Operation: op, Reason: "no chip profile"}
}

func errNoFirmware(op string) error {
	return &protocol.ProtocolError{Operation: op, Reason: "no firmware image"}
}

// reportProgress calls the progress callback if configured.
func (p *Programmer) reportProgress(progress Progress) {
	if p.config.ProgressCallback != nil {
		p.config.ProgressCallback(progress)
	}
}

// logV logs a debug message if the configured verbosity reaches level.
func (p *Programmer) logV(level int, msg string, keysAndValues ...interface{}) {
	if p.config.Logger != nil && p.config.Verbosity >= level {
		p.config.Logger.Debug(msg, keysAndValues...)
	}
}

// logInfo logs an info message if a logger is configured.
func (p *Programmer) logInfo(msg string, keysAndValues ...interface{}) {
	if p.config.Logger != nil {
		p.config.Logger.Info(msg, keysAndValues...)
	}
}

// logError logs an error message if a logger is configured.
func (p *Programmer) logError(msg string, keysAndValues ...interface{}) {
	if p.config.Logger != nil {
		p.config.Logger.Error(msg, keysAndValues...)
	}
}

// Package usbdev opens EZ-USB devices with gousb and exposes them as a
// bootloader.Transport.
package usbdev

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/gousb"
	"github.com/pkg/errors"

	"github.com/moffa90/go-ezusb/protocol"
)

// Device is one opened USB device.
type Device struct {
	ctx *gousb.Context
	dev *gousb.Device
}

// Open opens the device named by a usbfs path (/dev/bus/usb/BBB/DDD,
// /proc/bus/usb/BBB/DDD) or by "BBB:DDD", both numbers decimal.
func Open(name string) (*Device, error) {
	bus, addr, err := ParseDeviceName(name)
	if err != nil {
		return nil, err
	}
	return OpenBusAddr(bus, addr)
}

// OpenBusAddr opens the device at the given bus number and address.
func OpenBusAddr(bus, addr int) (*Device, error) {
	return open(fmt.Sprintf("%03d:%03d", bus, addr), func(desc *gousb.DeviceDesc) bool {
		return desc.Bus == bus && desc.Address == addr
	})
}

// OpenVIDPID opens the only device with the given IDs.
func OpenVIDPID(vid, pid uint16) (*Device, error) {
	return open(fmt.Sprintf("%04x:%04x", vid, pid), func(desc *gousb.DeviceDesc) bool {
		return desc.Vendor == gousb.ID(vid) && desc.Product == gousb.ID(pid)
	})
}

func open(what string, match func(*gousb.DeviceDesc) bool) (*Device, error) {
	ctx := gousb.NewContext()

	devs, err := ctx.OpenDevices(match)
	if err != nil && len(devs) == 0 {
		ctx.Close()
		return nil, errors.Wrapf(err, "open device %s", what)
	}
	if len(devs) != 1 {
		for _, d := range devs {
			d.Close()
		}
		ctx.Close()
		if len(devs) == 0 {
			return nil, errors.Errorf("no USB device %s found", what)
		}
		return nil, errors.Errorf("found %d USB devices matching %s", len(devs), what)
	}

	dev := devs[0]
	dev.ControlTimeout = protocol.ControlTimeoutMillis * time.Millisecond
	return &Device{ctx: ctx, dev: dev}, nil
}

// Control issues a control request. Failures are returned as
// *protocol.TransportError; libusb timeouts are TransportTimeout.
func (d *Device) Control(rType, request uint8, val, idx uint16, data []byte) (int, error) {
	n, err := d.dev.Control(rType, request, val, idx, data)
	if err != nil {
		return n, mapError(err)
	}
	return n, nil
}

// Close releases the device and its libusb context.
func (d *Device) Close() error {
	err := d.dev.Close()
	if cerr := d.ctx.Close(); err == nil {
		err = cerr
	}
	return errors.Wrap(err, "close device")
}

func (d *Device) String() string {
	return fmt.Sprintf("%03d:%03d (%s:%s)", d.dev.Desc.Bus, d.dev.Desc.Address, d.dev.Desc.Vendor, d.dev.Desc.Product)
}

func mapError(err error) error {
	kind := protocol.TransportOther
	if errors.Is(err, gousb.ErrorTimeout) || errors.Is(err, gousb.TransferTimedOut) {
		kind = protocol.TransportTimeout
	}
	return &protocol.TransportError{Kind: kind, Err: err}
}

// ParseDeviceName parses "BBB:DDD" or a usbfs path ending in BBB/DDD.
func ParseDeviceName(name string) (bus, addr int, err error) {
	var b, a string
	if strings.Contains(name, "/") {
		clean := filepath.Clean(name)
		a = filepath.Base(clean)
		b = filepath.Base(filepath.Dir(clean))
	} else {
		var ok bool
		b, a, ok = strings.Cut(name, ":")
		if !ok {
			return 0, 0, errors.Errorf("invalid device %q: want BBB:DDD or a usbfs path", name)
		}
	}

	bus, err = strconv.Atoi(b)
	if err != nil || bus <= 0 {
		return 0, 0, errors.Errorf("invalid bus number in device %q", name)
	}
	addr, err = strconv.Atoi(a)
	if err != nil || addr <= 0 || addr > 127 {
		return 0, 0, errors.Errorf("invalid device address in device %q", name)
	}
	return bus, addr, nil
}

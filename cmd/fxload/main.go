// Command fxload downloads firmware into Cypress EZ-USB devices (AN21xx,
// FX, FX2, FX2LP): into RAM, or into a boot EEPROM through a second-stage
// loader.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/moffa90/go-ezusb/bootloader"
	"github.com/moffa90/go-ezusb/ihex"
	"github.com/moffa90/go-ezusb/protocol"
	"github.com/moffa90/go-ezusb/usbdev"
)

func main() {
	// glog owns the default flag set; fxload flags live in their own.
	flag.Set("logtostderr", "true")
	flag.CommandLine.Parse(nil)
	defer glog.Flush()

	cfg, err := parseArgs(os.Args[1:], os.Getenv, os.Stderr)
	switch {
	case err == errVersion:
		fmt.Println(Version())
		return
	case err == flag.ErrHelp:
		return
	case err != nil:
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprint(os.Stderr, usage)
		glog.Flush()
		os.Exit(2)
	}

	if err := run(cfg); err != nil {
		glog.Errorf("%v", err)
		glog.Flush()
		os.Exit(1)
	}
}

func run(cfg *Config) error {
	chip, err := protocol.Lookup(cfg.Type)
	if err != nil {
		return err
	}
	if cfg.Verbose > 0 {
		glog.Infof("microcontroller type: %s", chip.Name())
	}

	if cfg.Strict {
		for _, path := range []string{cfg.Loader, cfg.Firmware} {
			if path == "" {
				continue
			}
			if err := ihex.VerifyFile(path); err != nil {
				return errors.Wrapf(err, "%s", path)
			}
		}
	}

	if cfg.List {
		return listSegments(os.Stdout, cfg.Firmware, chip)
	}

	dev, err := openDevice(cfg)
	if err != nil {
		return err
	}
	defer dev.Close()

	job := bootloader.Job{
		Chip: chip,
		EEPROM: bootloader.EEPROMOptions{
			LargeEEPROM: cfg.LargeEEPROM,
			VendorID:    cfg.VendorID,
			ProductID:   cfg.ProductID,
		},
	}
	switch {
	case cfg.Erase:
		job.Action = bootloader.ActionErase
	case cfg.ConfigByte >= 0:
		job.Action = bootloader.ActionEEPROM
		job.EEPROM.Config = byte(cfg.ConfigByte)
	default:
		job.Action = bootloader.ActionRAM
	}

	if cfg.Loader != "" {
		f, err := os.Open(cfg.Loader)
		if err != nil {
			return &bootloader.IOError{Op: "open", Path: cfg.Loader, Err: err}
		}
		defer f.Close()
		job.Loader = f
	}
	if cfg.Firmware != "" {
		f, err := os.Open(cfg.Firmware)
		if err != nil {
			return &bootloader.IOError{Op: "open", Path: cfg.Firmware, Err: err}
		}
		defer f.Close()
		job.Firmware = f
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	prog := bootloader.New(dev,
		bootloader.WithLogger(glogLogger{}),
		bootloader.WithVerbosity(cfg.Verbose),
	)
	return prog.Program(ctx, job)
}

func openDevice(cfg *Config) (*usbdev.Device, error) {
	if cfg.Device != "" {
		return usbdev.Open(cfg.Device)
	}
	vid, pid, err := parseVIDPID(cfg.Open)
	if err != nil {
		return nil, err
	}
	return usbdev.OpenVIDPID(vid, pid)
}

// listSegments prints the segments of an image as the chip classifies them.
func listSegments(w io.Writer, path string, chip *protocol.ChipProfile) error {
	segs, err := ihex.ParseFile(path, chip.Classify)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "ADDRESS\tLENGTH\tMEMORY")
	total := 0
	for _, seg := range segs {
		memory := "on-chip"
		if seg.External {
			memory = "external"
		}
		fmt.Fprintf(tw, "0x%04x\t%d\t%s\n", seg.Address, seg.Len(), memory)
		total += seg.Len()
	}
	fmt.Fprintf(tw, "\t%d\t%d segments (%s)\n", total, len(segs), chip.Name())
	return tw.Flush()
}

package bootloader

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/moffa90/go-ezusb/ihex"
	"github.com/moffa90/go-ezusb/protocol"
)

// EEPROMOptions configures a boot EEPROM write.
type EEPROMOptions struct {
	// Config is the chip config byte; it is masked to the variant's bits
	Config byte

	// LargeEEPROM selects 16-bit EEPROM addressing
	LargeEEPROM bool

	// VendorID and ProductID override the variant's default identity.
	// Negative values keep the default.
	VendorID  int
	ProductID int
}

type eepromContext struct {
	request uint8
	addr    uint16 // next free address
	last    bool
	count   int
	total   int
	start   time.Time
}

// LoadEEPROM writes a boot EEPROM through a running second-stage loader.
// image may be nil to write only the identity (FX2 and FX2LP).
//
// The type byte at offset 0 is cleared first and set last, so a device
// whose write fails part way will not boot from the EEPROM. EEPROM writes
// are not retried.
func (p *Programmer) LoadEEPROM(ctx context.Context, image io.Reader, chip *protocol.ChipProfile, opts EEPROMOptions) error {
	if chip == nil {
		return errNoChip("load EEPROM")
	}
	if image == nil && chip.RequiresFirmware {
		return &protocol.ProtocolError{
			Operation: "load EEPROM",
			Reason:    fmt.Sprintf("%s can't flash only VID/PID, firmware required", chip.Name()),
		}
	}
	id, err := resolveIdentity(chip, opts)
	if err != nil {
		return err
	}
	if image == nil && !id.Valid() {
		return &protocol.ProtocolError{
			Operation: "load EEPROM",
			Reason:    "neither firmware nor VID/PID to write",
		}
	}

	ec := &eepromContext{
		request: protocol.EEPROMRequest(opts.LargeEEPROM),
		addr:    chip.EEPROMStart,
		start:   time.Now(),
	}

	bootType := chip.BootType
	if image == nil {
		bootType = chip.IdentityBootType
	}

	if image != nil {
		if err := p.probeEEPROM(); err != nil {
			return err
		}
	}

	p.logV(1, "2nd stage: write boot EEPROM")
	config := p.reportConfig(chip, bootType, opts.Config)

	if err := p.write("mark EEPROM as unbootable", ec.request, protocol.EEPROMTypeOffset, []byte{protocol.EEPROMUnbootable}); err != nil {
		return err
	}

	if id.Valid() {
		p.logInfo("Writing identity", "vid", fmt.Sprintf("0x%04x", id.VendorID), "pid", fmt.Sprintf("0x%04x", id.ProductID))
		if err := p.write("load VID, PID", ec.request, protocol.EEPROMIdentityOffset, protocol.BuildIdentityRecord(id)); err != nil {
			return err
		}
	}

	if image != nil {
		err := p.runImage(ctx, image, chip, func(seg ihex.Segment) error {
			return p.eepromPoke(ec, seg)
		})
		if err != nil {
			p.logError("unable to write EEPROM", "error", err)
			return err
		}

		// Reset the CPU after the boot loader has replayed the image.
		ec.last = true
		reset := ihex.Segment{Address: chip.CPUCS, Data: protocol.BuildCPUCSValue(true)}
		if err := p.eepromPoke(ec, reset); err != nil {
			p.logError("unable to append reset to EEPROM", "error", err)
			return err
		}
	}

	if chip.HasConfigByte {
		if err := p.write("write config byte", ec.request, protocol.EEPROMConfigOffset, []byte{config}); err != nil {
			return err
		}
	}

	if chip.HasReservedByte {
		if err := p.write("write reserved byte", ec.request, protocol.EEPROMReservedOffset, []byte{0}); err != nil {
			return err
		}
	}

	if err := p.write("write EEPROM type byte", ec.request, protocol.EEPROMTypeOffset, []byte{bootType}); err != nil {
		return err
	}

	p.reportProgress(Progress{Phase: PhaseComplete, Segments: ec.count, BytesWritten: ec.total, Address: ec.addr, ElapsedTime: time.Since(ec.start)})
	return nil
}

// LoadEEPROMFile opens path and writes it with LoadEEPROM. An empty path
// writes only the identity.
func (p *Programmer) LoadEEPROMFile(ctx context.Context, path string, chip *protocol.ChipProfile, opts EEPROMOptions) error {
	if path == "" {
		return p.LoadEEPROM(ctx, nil, chip, opts)
	}

	f, err := os.Open(path)
	if err != nil {
		p.logError("unable to open for input", "path", path)
		return &IOError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()

	p.logV(1, "open EEPROM hexfile image", "path", path)
	err = p.LoadEEPROM(ctx, f, chip, opts)
	if ioErr, ok := err.(*IOError); ok && ioErr.Path == "" {
		ioErr.Path = path
	}
	return err
}

// eepromPoke frames one segment at the cursor: header, then payload.
func (p *Programmer) eepromPoke(ec *eepromContext, seg ihex.Segment) error {
	if seg.External {
		p.logError("EEPROM can't init external memory", "len", seg.Len(), "addr", fmt.Sprintf("0x%04x", seg.Address))
		return &protocol.ProtocolError{
			Operation: "write EEPROM segment",
			Address:   seg.Address,
			Length:    seg.Len(),
			Reason:    "EEPROM can't init external memory",
		}
	}

	if int(ec.addr)+protocol.SegmentHeaderSize+seg.Len() >= protocol.EEPROMAddressSpace {
		p.logError("EEPROM full", "len", seg.Len(), "cursor", fmt.Sprintf("0x%04x", ec.addr))
		return &protocol.ProtocolError{
			Operation: "write EEPROM segment",
			Address:   seg.Address,
			Length:    seg.Len(),
			Reason:    fmt.Sprintf("frame at EEPROM offset 0x%04x overruns the address space", ec.addr),
		}
	}

	header, err := protocol.BuildSegmentHeader(seg.Address, seg.Len(), ec.last)
	if err != nil {
		p.logError("not fragmenting segment", "len", seg.Len())
		return err
	}

	if err := p.write("write EEPROM segment header", ec.request, ec.addr, header); err != nil {
		return err
	}
	if err := p.write("write EEPROM segment", ec.request, ec.addr+protocol.SegmentHeaderSize, seg.Data); err != nil {
		return err
	}

	ec.addr += uint16(protocol.SegmentHeaderSize + seg.Len())
	ec.count++
	ec.total += seg.Len()

	p.reportProgress(Progress{
		Phase:        PhaseEEPROM,
		Segments:     ec.count,
		BytesWritten: ec.total,
		Address:      ec.addr,
		ElapsedTime:  time.Since(ec.start),
	})
	return nil
}

// probeEEPROM asks the loader which EEPROM is attached. An 8-bit or absent
// EEPROM is reported and ignored; any other unexpected answer is fatal.
func (p *Programmer) probeEEPROM() error {
	buf := make([]byte, protocol.EEPROMSizeResponseSize)
	if err := p.read("get EEPROM size", protocol.RequestEEPROMSize, 0, buf); err != nil {
		return err
	}

	value, err := protocol.ParseEEPROMSizeResponse(buf)
	if err != nil {
		return err
	}

	switch value {
	case protocol.EEPROMLarge:
		return nil
	case protocol.EEPROMSmallOrAbsent:
		p.logError("don't see a large enough EEPROM (ignored)", "val", value)
		return nil
	default:
		p.logError("don't see a large enough EEPROM", "val", value)
		return &protocol.ProtocolError{
			Operation: "get EEPROM size",
			Reason:    fmt.Sprintf("unexpected EEPROM size reply 0x%02x", value),
		}
	}
}

// reportConfig logs what the config byte selects and returns it masked.
func (p *Programmer) reportConfig(chip *protocol.ChipProfile, bootType, config byte) byte {
	config &= chip.ConfigMask

	i2c := 100
	if config&0x01 != 0 {
		i2c = 400
	}

	switch chip.Variant {
	case protocol.VariantFX2, protocol.VariantFX2LP:
		connected := "connected"
		if config&0x40 != 0 {
			connected = "disconnected"
		}
		p.logInfo(chip.Name(), "type", fmt.Sprintf("0x%02x", bootType), "config", fmt.Sprintf("0x%02x", config),
			"usb", connected, "i2c_khz", i2c)
	case protocol.VariantFX:
		mhz := 24
		if config&0x04 != 0 {
			mhz = 48
		}
		p.logInfo(chip.Name(), "type", fmt.Sprintf("0x%02x", bootType), "config", fmt.Sprintf("0x%02x", config),
			"cpu_mhz", mhz, "inverted", config&0x02 != 0, "i2c_khz", i2c)
	default:
		p.logInfo(chip.Name() + ": no EEPROM config byte")
	}
	return config
}

// resolveIdentity applies the overrides in opts to the chip default.
func resolveIdentity(chip *protocol.ChipProfile, opts EEPROMOptions) (protocol.Identity, error) {
	id := chip.DefaultIdentity
	for _, o := range []struct {
		name  string
		value int
		dst   *uint16
	}{
		{"vendor ID", opts.VendorID, &id.VendorID},
		{"product ID", opts.ProductID, &id.ProductID},
	} {
		if o.value < 0 {
			continue
		}
		if o.value > 0xFFFF {
			return id, &protocol.ProtocolError{
				Operation: "load EEPROM",
				Reason:    fmt.Sprintf("%s 0x%x out of range", o.name, o.value),
			}
		}
		*o.dst = uint16(o.value)
	}
	return id, nil
}

// DefaultEEPROMOptions returns options that keep the variant's default
// identity, a zero config byte and 8-bit addressing.
func DefaultEEPROMOptions() EEPROMOptions {
	return EEPROMOptions{VendorID: -1, ProductID: -1}
}

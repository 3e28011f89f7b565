package main

import (
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/moffa90/go-ezusb/protocol"
)

// errVersion is returned by parseArgs when -V was given.
var errVersion = errors.New("version requested")

// Config defines program configuration.
type Config struct {
	Type        string // Microcontroller type: an21, fx, fx2, fx2lp.
	TypeSet     bool   // Was the type given explicitly?
	Device      string // usbfs path or BBB:DDD of the target.
	Open        string // VID:PID of the target, instead of Device.
	Firmware    string // Hex image to download.
	Loader      string // Second-stage loader hex image.
	ConfigByte  int    // EEPROM config byte; -1 means no EEPROM write.
	LargeEEPROM bool   // Use 16-bit EEPROM addressing.
	Erase       bool   // Erase the EEPROM.
	VendorID    int    // EEPROM vendor ID; -1 keeps the chip default.
	ProductID   int    // EEPROM product ID; -1 keeps the chip default.
	Verbose     int    // Diagnostic level.
	Strict      bool   // Verify record checksums before loading.
	List        bool   // Print the segments of Firmware and exit.
}

// usage is printed on argument errors.
const usage = `usage: fxload [-vVEe] [-t type] [-D devpath] [-u VID:PID]
		[-I firmware_hexfile] [-s loader] [-c config_byte] [-d VID:PID]
		[-strict] [-list]
... [-D devpath] overrides DEVICE= in env
... device types:  one of an21, fx, fx2, fx2lp
... at least one of -I, -E, -d is required
options -c and -d affect only EEPROM content
`

// parseArgs parses command line arguments. env provides the DEVICE default.
//
// errVersion is returned when version information is requested.
func parseArgs(args []string, env func(string) string, output io.Writer) (*Config, error) {
	c := Config{
		Type:       protocol.VariantFX.String(),
		ConfigByte: -1,
		VendorID:   -1,
		ProductID:  -1,
	}

	fs := flag.NewFlagSet("fxload", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprint(output, usage)
		fs.PrintDefaults()
	}

	typ := fs.String("t", "", "Microcontroller type: an21, fx, fx2, fx2lp.")
	fx2 := fs.Bool("2", false, "Same as -t fx2.")
	fs.StringVar(&c.Device, "D", "", "Device to load: usbfs path or BBB:DDD. Defaults to $DEVICE.")
	fs.StringVar(&c.Open, "u", "", "Open the only device with this VID:PID instead of -D.")
	fs.StringVar(&c.Firmware, "I", "", "Firmware hex file.")
	fs.StringVar(&c.Loader, "s", "", "Second-stage loader hex file.")
	fs.Var((*configFlag)(&c.ConfigByte), "c", "EEPROM config byte; writes the boot EEPROM.")
	fs.BoolVar(&c.LargeEEPROM, "e", false, "Use 16-bit EEPROM addressing.")
	fs.BoolVar(&c.Erase, "E", false, "Erase the EEPROM.")
	ids := fs.String("d", "", "VID:PID to write into the EEPROM.")
	fs.Var((*countFlag)(&c.Verbose), "v", "Increase verbosity; may be repeated.")
	fs.BoolVar(&c.Strict, "strict", false, "Verify record checksums before loading.")
	fs.BoolVar(&c.List, "list", false, "Print the segments of -I and exit.")
	version := fs.Bool("V", false, "Display version information.")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if *version {
		return nil, errVersion
	}
	if fs.NArg() > 0 {
		return nil, errors.Errorf("unexpected argument %q", fs.Arg(0))
	}

	if *fx2 {
		c.Type, c.TypeSet = protocol.VariantFX2.String(), true
	}
	if *typ != "" {
		if _, err := protocol.ParseVariant(*typ); err != nil {
			return nil, errors.Errorf("illegal microcontroller type: %s", *typ)
		}
		c.Type, c.TypeSet = strings.ToLower(*typ), true
	}

	if *ids != "" {
		vid, pid, err := parseVIDPID(*ids)
		if err != nil {
			return nil, err
		}
		c.VendorID, c.ProductID = int(vid), int(pid)
	}

	if c.List {
		if c.Firmware == "" {
			return nil, errors.New("-list needs a firmware file (-I)")
		}
		return &c, nil
	}

	if c.ConfigByte >= 0 {
		if !c.TypeSet {
			return nil, errors.New("must specify microcontroller type to write EEPROM!")
		}
		if c.Loader == "" {
			return nil, errors.New("need 2nd stage loader to write EEPROM!")
		}
		if c.Firmware == "" && (c.VendorID == 0 || c.ProductID == 0) {
			return nil, errors.New("firmware or VID:PID to write EEPROM!")
		}
	} else if *ids != "" {
		return nil, errors.New("-d affects only EEPROM content, use it with -c")
	}

	if c.Erase && c.Loader == "" {
		return nil, errors.New("need 2nd stage loader to erase EEPROM!")
	}

	if c.Device == "" && env != nil {
		c.Device = env("DEVICE")
	}
	if c.Device == "" && c.Open == "" {
		return nil, errors.New("no device specified!")
	}

	if c.Firmware == "" && !c.Erase && c.ConfigByte < 0 {
		return nil, errors.New("missing request! (firmware, erase or device id)")
	}

	return &c, nil
}

// parseVIDPID parses two hex numbers joined by one separator, as "04b4:8613".
func parseVIDPID(s string) (vid, pid uint16, err error) {
	i := strings.IndexFunc(s, func(r rune) bool {
		return !strings.ContainsRune("0123456789abcdefABCDEF", r)
	})
	if i <= 0 || i == len(s)-1 {
		return 0, 0, errors.Errorf("invalid VID:PID %q", s)
	}

	v, err := strconv.ParseUint(s[:i], 16, 16)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "invalid vendor ID in %q", s)
	}
	p, err := strconv.ParseUint(s[i+1:], 16, 16)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "invalid product ID in %q", s)
	}
	return uint16(v), uint16(p), nil
}

// configFlag is the -c value: 0..255 in C notation (0x.., 0..., decimal).
type configFlag int

func (f *configFlag) String() string {
	if f == nil || *f < 0 {
		return ""
	}
	return fmt.Sprintf("0x%02x", int(*f))
}

func (f *configFlag) Set(s string) error {
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil || v > 0xFF {
		return errors.Errorf("illegal config byte: %s", s)
	}
	*f = configFlag(v)
	return nil
}

// countFlag counts repeated boolean flags; -v=N sets the count.
type countFlag int

func (f *countFlag) String() string {
	if f == nil {
		return "0"
	}
	return strconv.Itoa(int(*f))
}

func (f *countFlag) Set(s string) error {
	if s == "true" {
		*f++
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return errors.Errorf("invalid count %q", s)
	}
	*f = countFlag(n)
	return nil
}

func (f *countFlag) IsBoolFlag() bool { return true }

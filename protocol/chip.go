package protocol

import "fmt"

// ChipProfile describes the memory layout and EEPROM conventions of one
// variant. Profiles are immutable; obtain them with Lookup or Profile.
type ChipProfile struct {
	// Variant is the chip family member
	Variant Variant

	// CPUCS is the address of the CPU control register
	CPUCS uint16

	// EEPROMStart is the first free EEPROM address after the fixed header
	EEPROMStart uint16

	// ConfigMask selects the config byte bits meaningful for the variant
	ConfigMask byte

	// HasConfigByte reports whether the EEPROM header carries a config byte
	HasConfigByte bool

	// HasReservedByte reports whether a zero reserved byte follows the config byte
	HasReservedByte bool

	// BootType is the type byte of an EEPROM holding firmware
	BootType byte

	// IdentityBootType is the type byte of an EEPROM holding only VID/PID,
	// or 0 if the variant cannot boot that way
	IdentityBootType byte

	// DefaultIdentity is written when no override is given; zero means none
	DefaultIdentity Identity

	// RequiresFirmware reports whether EEPROM images must include firmware
	RequiresFirmware bool

	classify func(addr uint16, length int) bool
}

// Classify reports whether [addr, addr+length) reaches into external memory.
func (c *ChipProfile) Classify(addr uint16, length int) bool {
	return c.classify(addr, length)
}

// Name returns the variant name.
func (c *ChipProfile) Name() string {
	return c.Variant.String()
}

// EEPROMRequest returns the vendor request that writes a boot EEPROM with
// 16-bit (large) or 8-bit addressing.
func EEPROMRequest(large bool) uint8 {
	if large {
		return RequestEEPROMLarge
	}
	return RequestEEPROM
}

var profiles = [...]ChipProfile{
	VariantFX: {
		Variant:          VariantFX,
		CPUCS:            CPUCSFX,
		EEPROMStart:      9,
		ConfigMask:       0x07,
		HasConfigByte:    true,
		HasReservedByte:  true,
		BootType:         0xB6,
		RequiresFirmware: true,
		classify:         fxIsExternal,
	},
	VariantFX2: {
		Variant:          VariantFX2,
		CPUCS:            CPUCSFX2,
		EEPROMStart:      8,
		ConfigMask:       0x4f,
		HasConfigByte:    true,
		BootType:         0xC2,
		IdentityBootType: 0xC0,
		DefaultIdentity:  Identity{VendorID: 0x04B4, ProductID: 0x6473},
		classify:         fx2IsExternal,
	},
	VariantFX2LP: {
		Variant:          VariantFX2LP,
		CPUCS:            CPUCSFX2,
		EEPROMStart:      8,
		ConfigMask:       0x4f,
		HasConfigByte:    true,
		BootType:         0xC2,
		IdentityBootType: 0xC0,
		DefaultIdentity:  Identity{VendorID: 0x04B4, ProductID: 0x8613},
		classify:         fx2lpIsExternal,
	},
	VariantAN21: {
		Variant:          VariantAN21,
		CPUCS:            CPUCSFX,
		EEPROMStart:      7,
		BootType:         0xB2,
		RequiresFirmware: true,
		classify:         fxIsExternal,
	},
}

// Profile returns the profile of v.
func Profile(v Variant) (*ChipProfile, error) {
	if v < 0 || int(v) >= len(profiles) {
		return nil, &ProtocolError{
			Operation: "select chip",
			Reason:    fmt.Sprintf("unknown chip variant %d", int(v)),
		}
	}
	p := profiles[v]
	return &p, nil
}

// Lookup returns the profile for a type name such as "fx2lp".
func Lookup(name string) (*ChipProfile, error) {
	v, err := ParseVariant(name)
	if err != nil {
		return nil, err
	}
	return Profile(v)
}

// fxIsExternal classifies AnchorChips EZ-USB and Cypress EZ-USB FX ranges.
// With 8KB of RAM, 0x0000-0x1b3f can be written; a 4KB part can't be told
// apart here. Above that there may be more RAM, but it isn't known to be
// writable by the hardware loader.
func fxIsExternal(addr uint16, length int) bool {
	if addr <= 0x1b3f {
		return int(addr)+length > 0x1b40
	}
	return true
}

// fx2IsExternal classifies FX2 ranges: 8KB code/data at 0x0000-0x1fff and
// 512 bytes of data at 0xe000-0xe1ff are on-chip.
func fx2IsExternal(addr uint16, length int) bool {
	return windowedIsExternal(addr, length, 0x2000)
}

// fx2lpIsExternal classifies FX2LP ranges: like the FX2 with 16KB of
// code/data at 0x0000-0x3fff.
func fx2lpIsExternal(addr uint16, length int) bool {
	return windowedIsExternal(addr, length, 0x4000)
}

func windowedIsExternal(addr uint16, length int, lowEnd int) bool {
	end := int(addr) + length
	switch {
	case int(addr) < lowEnd:
		return end > lowEnd
	case addr >= 0xe000 && addr <= 0xe1ff:
		return end > 0xe200
	default:
		return true
	}
}

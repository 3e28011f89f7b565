package protocol

import (
	"fmt"
	"strings"
)

// Variant identifies a member of the EZ-USB family.
type Variant int

const (
	// VariantFX covers Cypress EZ-USB FX parts
	VariantFX Variant = iota

	// VariantFX2 covers Cypress EZ-USB FX2 parts
	VariantFX2

	// VariantFX2LP covers Cypress EZ-USB FX2LP parts
	VariantFX2LP

	// VariantAN21 covers the original AnchorChips AN21xx parts
	VariantAN21
)

var variantNames = [...]string{
	VariantFX:    "fx",
	VariantFX2:   "fx2",
	VariantFX2LP: "fx2lp",
	VariantAN21:  "an21",
}

func (v Variant) String() string {
	if v < 0 || int(v) >= len(variantNames) {
		return fmt.Sprintf("Variant(%d)", int(v))
	}
	return variantNames[v]
}

// ParseVariant maps a type name ("an21", "fx", "fx2", "fx2lp") to a Variant.
func ParseVariant(name string) (Variant, error) {
	for v, n := range variantNames {
		if strings.EqualFold(name, n) {
			return Variant(v), nil
		}
	}
	return 0, &ProtocolError{
		Operation: "select chip",
		Reason:    fmt.Sprintf("unrecognized microcontroller type %q", name),
	}
}

// Identity is the VID/PID pair written into the EEPROM header.
type Identity struct {
	VendorID  uint16
	ProductID uint16
}

// Valid reports whether both IDs are nonzero.
func (id Identity) Valid() bool {
	return id.VendorID != 0 && id.ProductID != 0
}

func (id Identity) String() string {
	return fmt.Sprintf("%04x:%04x", id.VendorID, id.ProductID)
}

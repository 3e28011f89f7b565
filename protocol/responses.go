package protocol

import "fmt"

// EEPROMSizeResponseSize is the data size of a RequestEEPROMSize reply.
const EEPROMSizeResponseSize = 1

// EEPROM addressing reported by RequestEEPROMSize.
const (
	// EEPROMSmallOrAbsent means an 8-bit addressed EEPROM, or none
	EEPROMSmallOrAbsent = 0x00

	// EEPROMLarge means a 16-bit addressed EEPROM is present
	EEPROMLarge = 0x01
)

// ParseEEPROMSizeResponse parses the RequestEEPROMSize reply.
//
// Data format (1 byte):
//   - 0: 8-bit addressed EEPROM or no EEPROM
//   - 1: 16-bit addressed EEPROM
func ParseEEPROMSizeResponse(data []byte) (byte, error) {
	if len(data) != EEPROMSizeResponseSize {
		return 0, fmt.Errorf("invalid data length for EEPROM size response: got %d bytes, expected %d", len(data), EEPROMSizeResponseSize)
	}

	return data[0], nil
}

package protocol

// Vendor request codes understood by the EZ-USB hardware loader and by
// "Vend_Ax" compatible second-stage loaders.
const (
	// RequestInternal reads or writes on-chip RAM and CPUCS (hardware loader)
	RequestInternal = 0xA0

	// RequestEEPROM writes a boot EEPROM using 8-bit addressing
	RequestEEPROM = 0xA2

	// RequestMemory writes external memory (second-stage loader)
	RequestMemory = 0xA3

	// RequestEEPROMSize reports whether a 16-bit addressed EEPROM is present
	RequestEEPROMSize = 0xA5

	// RequestEEPROMLarge writes a boot EEPROM using 16-bit addressing
	RequestEEPROMLarge = 0xA9
)

// bmRequestType values for vendor requests to the device recipient.
const (
	// RequestTypeOut is host-to-device | vendor | device
	RequestTypeOut = 0x40

	// RequestTypeIn is device-to-host | vendor | device
	RequestTypeIn = 0xC0
)

// CPUCS register values.
const (
	// CPUHalt holds the 8051 in reset
	CPUHalt = 0x01

	// CPURun releases the 8051 from reset
	CPURun = 0x00
)

// CPUCS register addresses.
const (
	// CPUCSFX is the CPUCS address on AN21xx and FX parts
	CPUCSFX = 0x7f92

	// CPUCSFX2 is the CPUCS address on FX2 and FX2LP parts
	CPUCSFX2 = 0xe600
)

// Boot EEPROM layout. The fixed header precedes the segment frames.
const (
	// EEPROMTypeOffset holds the boot type byte; 0 means "do not boot"
	EEPROMTypeOffset = 0

	// EEPROMIdentityOffset holds the VID/PID/DID record
	EEPROMIdentityOffset = 1

	// EEPROMConfigOffset holds the chip config byte (FX, FX2, FX2LP)
	EEPROMConfigOffset = 7

	// EEPROMReservedOffset holds the FX reserved byte
	EEPROMReservedOffset = 8

	// EEPROMUnbootable is written to the type byte before anything else
	EEPROMUnbootable = 0x00
)

// Boot EEPROM frame sizes.
const (
	// SegmentHeaderSize is the size of a segment frame header
	SegmentHeaderSize = 4

	// MaxSegmentLength is the largest payload a frame header can describe
	MaxSegmentLength = 1023

	// LastSegmentFlag marks the final frame in the header's first byte
	LastSegmentFlag = 0x80

	// EEPROMAddressSpace bounds the frame cursor; frames past it would wrap
	// onto the fixed header
	EEPROMAddressSpace = 0x10000

	// IdentityRecordSize is the size of the VID/PID/DID record
	IdentityRecordSize = 6

	// IdentityRevision is the device release written with the identity record
	// (0xAnnn, where nnn is the chip revision, first silicon = 001)
	IdentityRevision = 0xA005
)

// EEPROM erase geometry. A 24LC64 (8 KiB) part is assumed.
const (
	// EraseSize is the number of bytes overwritten by an erase
	EraseSize = 8192

	// EraseChunkSize is the number of bytes per erase request
	EraseChunkSize = 32

	// EraseFill is the value written by an erase
	EraseFill = 0xFF
)

// RetryLimit is the default number of retries for a RAM write that timed out.
const RetryLimit = 5

// ControlTimeoutMillis is the control transfer timeout used by transports.
const ControlTimeoutMillis = 10000

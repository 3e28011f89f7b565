package protocol

import (
	"encoding/binary"
	"fmt"
)

// BuildSegmentHeader constructs the 4-byte header of a boot EEPROM frame.
//
// Header structure:
//
//	[LEN_H | LAST][LEN_L][ADDR_H][ADDR_L]
//
// LAST (0x80) marks the final frame; the loader resets the CPU after it.
func BuildSegmentHeader(addr uint16, length int, last bool) ([]byte, error) {
	if length < 0 || length > MaxSegmentLength {
		return nil, &ProtocolError{
			Operation: "frame segment",
			Address:   addr,
			Length:    length,
			Reason:    fmt.Sprintf("not fragmenting %d bytes, maximum is %d", length, MaxSegmentLength),
		}
	}

	header := make([]byte, SegmentHeaderSize)
	binary.BigEndian.PutUint16(header[0:2], uint16(length))
	binary.BigEndian.PutUint16(header[2:4], addr)
	if last {
		header[0] |= LastSegmentFlag
	}

	return header, nil
}

// ParseSegmentHeader decodes a frame header built by BuildSegmentHeader.
func ParseSegmentHeader(header []byte) (addr uint16, length int, last bool, err error) {
	if len(header) != SegmentHeaderSize {
		return 0, 0, false, fmt.Errorf("invalid segment header length: got %d bytes, expected %d", len(header), SegmentHeaderSize)
	}

	last = header[0]&LastSegmentFlag != 0
	length = int(binary.BigEndian.Uint16(header[0:2]) &^ (LastSegmentFlag << 8))
	addr = binary.BigEndian.Uint16(header[2:4])

	return addr, length, last, nil
}

// BuildIdentityRecord constructs the VID/PID/DID record stored at
// EEPROMIdentityOffset.
//
// Record structure (all little-endian):
//
//	[VID(2)][PID(2)][DID(2)]
func BuildIdentityRecord(id Identity) []byte {
	record := make([]byte, IdentityRecordSize)
	binary.LittleEndian.PutUint16(record[0:2], id.VendorID)
	binary.LittleEndian.PutUint16(record[2:4], id.ProductID)
	binary.LittleEndian.PutUint16(record[4:6], IdentityRevision)
	return record
}

// BuildCPUCSValue returns the single CPUCS byte that halts or runs the CPU.
func BuildCPUCSValue(run bool) []byte {
	if run {
		return []byte{CPURun}
	}
	return []byte{CPUHalt}
}

// BuildEraseChunk returns one chunk of erase fill.
func BuildEraseChunk() []byte {
	chunk := make([]byte, EraseChunkSize)
	for i := range chunk {
		chunk[i] = EraseFill
	}
	return chunk
}

package ihex

// MaxSegmentSize is the default merge capacity. Boot EEPROM frames carry
// a 10-bit length, so no segment may exceed 1023 bytes.
const MaxSegmentSize = 1023

// Segment is a contiguous run of bytes reconstructed from one or more
// data records.
type Segment struct {
	// Address is the target load address of Data[0]
	Address uint16

	// Data holds the merged record payloads
	Data []byte

	// External reports whether the classifier placed the segment in
	// external memory. It is evaluated once per segment, using its start
	// address and total length.
	External bool
}

// Len returns the number of bytes in the segment.
func (s Segment) Len() int {
	return len(s.Data)
}

// Classifier decides whether the range [addr, addr+length) reaches into
// external memory. It must be pure.
type Classifier func(addr uint16, length int) bool

// Sink receives each flushed segment. Returning an error aborts parsing.
type Sink func(Segment) error

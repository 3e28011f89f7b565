// Package ihex reconstructs memory segments from Intel HEX firmware images.
//
// # Image Format
//
// An image is line oriented. Each record line looks like:
//
//	:LLAAAATT[DD...]CC
//	  LL   = data byte count
//	  AAAA = 16-bit load offset (big-endian)
//	  TT   = record type (00 = data, 01 = end of file)
//	  DD   = LL data bytes
//	  CC   = record checksum
//
// Lines starting with '#' are comments and are skipped, so firmware
// images can carry copyright notices. Record checksums are read but not
// checked; use Verify for an explicit strict pass.
//
// # Segments
//
// Hex tools usually emit 16 data bytes per line. The parser merges
// records that continue exactly where the previous one ended into a single
// Segment, flushing whenever the next record is discontiguous or would
// push the segment past its capacity (MaxSegmentSize by default, the
// largest segment a boot EEPROM frame can describe).
//
// # Usage
//
// Iterate lazily:
//
//	chip, _ := protocol.Lookup("fx2")
//	s := ihex.NewScanner(f, chip.Classify)
//	for s.Scan() {
//	    seg := s.Segment()
//	    fmt.Printf("0x%04x %d bytes external=%v\n", seg.Address, len(seg.Data), seg.External)
//	}
//	if err := s.Err(); err != nil {
//	    log.Fatal(err)
//	}
//
// Or hand each segment to a sink:
//
//	err := ihex.Parse(f, classify, func(seg ihex.Segment) error {
//	    return write(seg.Address, seg.Data)
//	})
package ihex

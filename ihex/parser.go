package ihex

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// Record types understood by the parser.
const (
	RecordData = 0x00
	RecordEOF  = 0x01
)

const (
	// recordHeaderLength covers ':' + LL + AAAA + TT
	recordHeaderLength = 9

	// recordOverhead is the header plus the CC checksum field
	recordOverhead = recordHeaderLength + 2

	// maxLineLength bounds a scanned line, comments included
	maxLineLength = 64 * 1024
)

// record is one decoded image line.
type record struct {
	offset   uint16
	typ      byte
	data     []byte
	checksum byte
}

// Scanner produces the segments of an image one at a time. It reads the
// image lazily and only once; to walk an image again, rewind the reader
// and create a new Scanner.
type Scanner struct {
	lines    *bufio.Scanner
	classify Classifier
	capacity int

	// Trace, if set, is called with every line read, comments included.
	Trace func(line int, text string)

	lineNum int
	addr    uint16
	buf     []byte
	seg     Segment
	eof     bool
	done    bool
	err     error
}

// NewScanner returns a Scanner merging records up to MaxSegmentSize bytes.
// classify may be nil, in which case every segment is internal.
func NewScanner(r io.Reader, classify Classifier) *Scanner {
	return NewScannerSize(r, classify, MaxSegmentSize)
}

// NewScannerSize is like NewScanner with an explicit merge capacity.
// A single record longer than capacity is still emitted whole.
func NewScannerSize(r io.Reader, classify Classifier, capacity int) *Scanner {
	if capacity <= 0 {
		capacity = MaxSegmentSize
	}
	lines := bufio.NewScanner(r)
	lines.Buffer(make([]byte, 0, 512), maxLineLength)

	return &Scanner{
		lines:    lines,
		classify: classify,
		capacity: capacity,
		buf:      make([]byte, 0, capacity),
	}
}

// Scan advances to the next segment, which is then available through
// Segment. It returns false when the end-of-file record has been reached
// and all buffered data flushed, or when an error occurs.
func (s *Scanner) Scan() bool {
	if s.done {
		return false
	}

	for !s.eof {
		rec, err := s.next()
		if err != nil {
			s.fail(err)
			return false
		}

		if rec.typ == RecordEOF {
			s.eof = true
			break
		}

		// Flush when the record does not continue the buffer or would overflow it
		if len(s.buf) > 0 &&
			(int(rec.offset) != int(s.addr)+len(s.buf) || len(s.buf)+len(rec.data) > s.capacity) {
			s.flush()
			s.addr = rec.offset
			s.buf = append(s.buf, rec.data...)
			return true
		}

		if len(s.buf) == 0 {
			s.addr = rec.offset
		}
		s.buf = append(s.buf, rec.data...)
	}

	if len(s.buf) > 0 {
		s.flush()
		return true
	}

	s.done = true
	return false
}

// Segment returns the segment produced by the last successful Scan.
func (s *Scanner) Segment() Segment {
	return s.seg
}

// Err returns the first error encountered, or nil after a clean end.
func (s *Scanner) Err() error {
	return s.err
}

// Line returns the number of lines consumed so far.
func (s *Scanner) Line() int {
	return s.lineNum
}

// Run drives the scanner to completion, handing each segment to sink.
// A sink failure stops the scan and is returned as a *SinkError.
func (s *Scanner) Run(sink Sink) error {
	for s.Scan() {
		seg := s.Segment()
		if err := sink(seg); err != nil {
			s.fail(&SinkError{Address: seg.Address, Length: len(seg.Data), Err: err})
			return s.err
		}
	}
	return s.Err()
}

func (s *Scanner) fail(err error) {
	s.err = err
	s.done = true
}

// flush moves the buffered bytes into s.seg, classifying them once.
func (s *Scanner) flush() {
	data := make([]byte, len(s.buf))
	copy(data, s.buf)

	external := false
	if s.classify != nil {
		external = s.classify(s.addr, len(data))
	}

	s.seg = Segment{
		Address:  s.addr,
		Data:     data,
		External: external,
	}
	s.buf = s.buf[:0]
}

// next returns the next data or end-of-file record, skipping comments.
func (s *Scanner) next() (*record, error) {
	for s.lines.Scan() {
		s.lineNum++
		line := strings.TrimRight(s.lines.Text(), "\r")

		if s.Trace != nil {
			s.Trace(s.lineNum, line)
		}

		// Skip empty lines and "# comment" lines
		if line == "" || line[0] == '#' {
			continue
		}

		if line[0] != ':' {
			return nil, &FormatError{Line: s.lineNum, Reason: fmt.Sprintf("not an ihex record: %q", line)}
		}

		rec, err := parseRecord(line)
		if err != nil {
			return nil, &FormatError{Line: s.lineNum, Reason: err.Error()}
		}
		return rec, nil
	}

	if err := s.lines.Err(); err != nil {
		return nil, errors.Wrap(err, "ihex: read image")
	}

	return nil, &FormatError{Reason: "EOF without EOF record"}
}

// parseRecord decodes a single ':' line.
//
// Record format:
//
//	[':'][LEN(1)][OFFSET(2)][TYPE(1)][DATA(LEN)][CHECKSUM(1)]
//
// The checksum is decoded but not verified.
func parseRecord(line string) (*record, error) {
	if len(line) < recordHeaderLength {
		return nil, fmt.Errorf("record too short: got %d characters, minimum is %d", len(line), recordHeaderLength)
	}

	header, err := hex.DecodeString(line[1:recordHeaderLength])
	if err != nil {
		return nil, fmt.Errorf("invalid hex data: %w", err)
	}

	length := int(header[0])
	rec := &record{
		offset: uint16(header[1])<<8 | uint16(header[2]),
		typ:    header[3],
	}

	switch rec.typ {
	case RecordEOF:
		return rec, nil
	case RecordData:
	default:
		return nil, fmt.Errorf("unsupported record type: %d", rec.typ)
	}

	if want := length*2 + recordOverhead; len(line) < want {
		return nil, fmt.Errorf("record too short: got %d characters, expected %d for %d data bytes", len(line), want, length)
	}

	rec.data, err = hex.DecodeString(line[recordHeaderLength : recordHeaderLength+length*2])
	if err != nil {
		return nil, fmt.Errorf("invalid hex data: %w", err)
	}

	cc, err := hex.DecodeString(line[recordHeaderLength+length*2 : recordOverhead+length*2])
	if err != nil {
		return nil, fmt.Errorf("invalid checksum field: %w", err)
	}
	rec.checksum = cc[0]

	return rec, nil
}

// Parse reads an image from r and hands each segment to sink, classifying
// it with classify first.
//
// Example:
//
//	f, _ := os.Open("firmware.ihx")
//	err := ihex.Parse(f, chip.Classify, func(seg ihex.Segment) error {
//	    fmt.Printf("0x%04x: %d bytes\n", seg.Address, len(seg.Data))
//	    return nil
//	})
func Parse(r io.Reader, classify Classifier, sink Sink) error {
	return NewScanner(r, classify).Run(sink)
}

// ReadSegments collects every segment of the image read from r.
func ReadSegments(r io.Reader, classify Classifier) ([]Segment, error) {
	var segs []Segment
	err := Parse(r, classify, func(seg Segment) error {
		segs = append(segs, seg)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return segs, nil
}

// ParseFile collects every segment of the image stored at path.
func ParseFile(path string, classify Classifier) ([]Segment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open file")
	}
	defer func() { _ = f.Close() }()

	return ReadSegments(f, classify)
}

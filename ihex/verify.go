package ihex

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/marcinbor85/gohex"
	"github.com/pkg/errors"
)

// Verify runs a strict pass over the image read from r, checking every
// record checksum and the record structure. Comment lines are dropped
// before the check. Parse never does this on its own; callers that want
// strict images call Verify first.
func Verify(r io.Reader) error {
	var clean bytes.Buffer

	lines := bufio.NewScanner(r)
	lines.Buffer(make([]byte, 0, 512), maxLineLength)
	for lines.Scan() {
		line := strings.TrimRight(lines.Text(), "\r")
		if line == "" || line[0] == '#' {
			continue
		}
		clean.WriteString(line)
		clean.WriteByte('\n')
	}
	if err := lines.Err(); err != nil {
		return errors.Wrap(err, "ihex: read image")
	}

	mem := gohex.NewMemory()
	if err := mem.ParseIntelHex(&clean); err != nil {
		return &FormatError{Reason: "strict check: " + err.Error()}
	}
	return nil
}

// VerifyFile is Verify on the image stored at path.
func VerifyFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "failed to open file")
	}
	defer func() { _ = f.Close() }()

	return Verify(f)
}

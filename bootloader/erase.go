package bootloader

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/moffa90/go-ezusb/protocol"
)

// EraseEEPROM overwrites the first 8KB of the boot EEPROM (a 24LC64) with
// 0xFF through a running second-stage loader.
func (p *Programmer) EraseEEPROM(ctx context.Context, large bool) error {
	start := time.Now()
	request := protocol.EEPROMRequest(large)
	chunk := protocol.BuildEraseChunk()

	p.logV(1, "2nd stage: erase boot EEPROM", "bytes", protocol.EraseSize)
	p.reportProgress(Progress{Phase: PhaseErasing})

	for addr := 0; addr < protocol.EraseSize; addr += protocol.EraseChunkSize {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, "erase cancelled")
		}

		if err := p.write("overwrite EEPROM with 0xff", request, uint16(addr), chunk); err != nil {
			return err
		}

		p.reportProgress(Progress{
			Phase:        PhaseErasing,
			Segments:     addr/protocol.EraseChunkSize + 1,
			BytesWritten: addr + protocol.EraseChunkSize,
			Address:      uint16(addr),
			ElapsedTime:  time.Since(start),
		})
	}

	p.reportProgress(Progress{Phase: PhaseComplete, BytesWritten: protocol.EraseSize, ElapsedTime: time.Since(start)})
	return nil
}

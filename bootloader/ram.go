package bootloader

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/moffa90/go-ezusb/ihex"
	"github.com/moffa90/go-ezusb/protocol"
)

// Stage selects how RAM is written.
type Stage int

const (
	// SingleStage uses only the hardware loader: on-chip memory and CPUCS.
	SingleStage Stage = iota

	// SecondStage expects a second-stage loader to be running already, so
	// external memory can be written too.
	SecondStage
)

// ramMode is the per-pass policy for segments.
type ramMode int

const (
	internalOnly ramMode = iota // CPU halted; external is an error
	skipInternal                // CPU running the loader
	skipExternal                // CPU halted
)

type ramContext struct {
	chip  *protocol.ChipProfile
	mode  ramMode
	total int
	count int
	start time.Time
}

// LoadRAM downloads an image into RAM and then starts the CPU.
//
// With SingleStage the CPU is halted and every segment must be on-chip.
// With SecondStage the image is read twice: first, with the loader still
// running, external segments are written; then the CPU is halted, the
// image is rewound and on-chip segments are written over the loader.
//
// Any failure leaves the CPU as it is; it is not restarted.
func (p *Programmer) LoadRAM(ctx context.Context, image io.ReadSeeker, chip *protocol.ChipProfile, stage Stage) error {
	if chip == nil {
		return errNoChip("load RAM")
	}
	if image == nil {
		return errNoFirmware("load RAM")
	}

	rc := &ramContext{chip: chip, start: time.Now()}

	if stage == SingleStage {
		rc.mode = internalOnly
		p.reportProgress(Progress{Phase: PhaseHalting, Address: chip.CPUCS})
		if err := p.setCPU(chip.CPUCS, false); err != nil {
			return err
		}
	} else {
		rc.mode = skipInternal
		p.logV(1, "2nd stage: write external memory")
	}

	if err := p.ramPass(ctx, image, rc); err != nil {
		p.logError("unable to download image", "error", err)
		return err
	}

	if stage != SingleStage {
		rc.mode = skipExternal

		p.reportProgress(Progress{Phase: PhaseHalting, Segments: rc.count, BytesWritten: rc.total, Address: chip.CPUCS, ElapsedTime: time.Since(rc.start)})
		if err := p.setCPU(chip.CPUCS, false); err != nil {
			return err
		}

		// At least the interrupt vectors at 0x0000 must be rewritten.
		if _, err := image.Seek(0, io.SeekStart); err != nil {
			return &IOError{Op: "rewind image", Err: err}
		}
		p.logV(1, "2nd stage: write on-chip memory")
		if err := p.ramPass(ctx, image, rc); err != nil {
			p.logError("unable to completely download image", "error", err)
			return err
		}
	}

	avg := 0
	if rc.count > 0 {
		avg = rc.total / rc.count
	}
	p.logV(1, "... WROTE", "bytes", rc.total, "segments", rc.count, "avg", avg)

	p.reportProgress(Progress{Phase: PhaseResuming, Segments: rc.count, BytesWritten: rc.total, Address: chip.CPUCS, ElapsedTime: time.Since(rc.start)})
	if err := p.setCPU(chip.CPUCS, true); err != nil {
		return err
	}

	p.reportProgress(Progress{Phase: PhaseComplete, Segments: rc.count, BytesWritten: rc.total, ElapsedTime: time.Since(rc.start)})
	return nil
}

// LoadRAMFile opens path and loads it with LoadRAM.
func (p *Programmer) LoadRAMFile(ctx context.Context, path string, chip *protocol.ChipProfile, stage Stage) error {
	f, err := os.Open(path)
	if err != nil {
		p.logError("unable to open for input", "path", path)
		return &IOError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()

	p.logV(1, "open RAM hexfile image", "path", path)
	err = p.LoadRAM(ctx, f, chip, stage)
	if ioErr, ok := err.(*IOError); ok && ioErr.Path == "" {
		ioErr.Path = path
	}
	return err
}

func (p *Programmer) ramPass(ctx context.Context, image io.Reader, rc *ramContext) error {
	return p.runImage(ctx, image, rc.chip, func(seg ihex.Segment) error {
		return p.ramPoke(rc, seg)
	})
}

// ramPoke applies the pass policy to one segment and writes it.
func (p *Programmer) ramPoke(rc *ramContext, seg ihex.Segment) error {
	switch rc.mode {
	case internalOnly:
		if seg.External {
			p.logError("can't write external memory", "len", seg.Len(), "addr", fmt.Sprintf("0x%04x", seg.Address))
			return &protocol.ProtocolError{
				Operation: "write on-chip",
				Address:   seg.Address,
				Length:    seg.Len(),
				Reason:    "can't write external memory without a 2nd stage loader",
			}
		}
	case skipInternal:
		if !seg.External {
			p.logV(2, "SKIP on-chip RAM", "len", seg.Len(), "addr", fmt.Sprintf("0x%04x", seg.Address))
			return nil
		}
	case skipExternal:
		if seg.External {
			p.logV(2, "SKIP external RAM", "len", seg.Len(), "addr", fmt.Sprintf("0x%04x", seg.Address))
			return nil
		}
	}

	label, phase := "write on-chip", PhaseInternal
	var request uint8 = protocol.RequestInternal
	if seg.External {
		label, request, phase = "write external", protocol.RequestMemory, PhaseExternal
	}

	rc.total += seg.Len()
	rc.count++

	if err := p.writeRetry(label, request, seg.Address, seg.Data); err != nil {
		return err
	}

	p.reportProgress(Progress{
		Phase:        phase,
		Segments:     rc.count,
		BytesWritten: rc.total,
		Address:      seg.Address,
		ElapsedTime:  time.Since(rc.start),
	})
	return nil
}

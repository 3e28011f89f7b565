package bootloader

import (
	"context"
	"strings"
	"testing"

	"github.com/pkg/errors"

	"github.com/moffa90/go-ezusb/protocol"
)

func TestNew(t *testing.T) {
	device := NewMockDevice(mustChip(t, "fx2"))

	tests := []struct {
		name          string
		options       []Option
		wantRetries   int
		wantVerbosity int
	}{
		{
			name:        "with no options",
			wantRetries: protocol.RetryLimit,
		},
		{
			name: "with all options",
			options: []Option{
				WithProgressCallback(func(p Progress) {}),
				WithLogger(&MockLogger{}),
				WithVerbosity(2),
				WithRetries(1),
			},
			wantRetries:   1,
			wantVerbosity: 2,
		},
		{
			name:        "negative values ignored",
			options:     []Option{WithVerbosity(-1), WithRetries(-3)},
			wantRetries: protocol.RetryLimit,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog := New(device, tt.options...)
			if prog == nil {
				t.Fatal("New() returned nil")
			}
			if prog.device != device {
				t.Error("device not set correctly")
			}
			if prog.config.Retries != tt.wantRetries {
				t.Errorf("Retries = %d, want %d", prog.config.Retries, tt.wantRetries)
			}
			if prog.config.Verbosity != tt.wantVerbosity {
				t.Errorf("Verbosity = %d, want %d", prog.config.Verbosity, tt.wantVerbosity)
			}
		})
	}
}

func TestNewNilDevice(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("New(nil) did not panic")
		}
	}()
	New(nil)
}

func TestProgram(t *testing.T) {
	loader := hexImage(hexRecord(0x0000, []byte{0x02, 0x01, 0x00}))
	firmware := hexImage(
		hexRecord(0x0000, []byte{0x02, 0x00, 0x80}),
		hexRecord(0x4000, fill(4, 0x77)),
	)
	internalOnly := hexImage(hexRecord(0x0080, fill(4, 0x01)))

	tests := []struct {
		name      string
		loader    string
		firmware  string
		action    Action
		wantCalls int
		wantType  int // -1: don't check
		wantErr   bool
		errMsg    string
	}{
		{
			name:      "single stage",
			firmware:  internalOnly,
			action:    ActionRAM,
			wantCalls: 3,
			wantType:  -1,
		},
		{
			name:     "single stage rejects external",
			firmware: firmware,
			action:   ActionRAM,
			wantErr:  true,
			errMsg:   "can't write external memory",
		},
		{
			name:      "two stage RAM",
			loader:    loader,
			firmware:  firmware,
			action:    ActionRAM,
			wantCalls: 3 + 4,
			wantType:  -1,
		},
		{
			name:      "erase",
			loader:    loader,
			action:    ActionErase,
			wantCalls: 3 + protocol.EraseSize/protocol.EraseChunkSize,
			wantType:  0xFF,
		},
		{
			name:      "EEPROM",
			loader:    loader,
			firmware:  internalOnly,
			action:    ActionEEPROM,
			wantCalls: 3 + 9,
			wantType:  0xC2,
		},
		{
			name:      "EEPROM identity only",
			loader:    loader,
			action:    ActionEEPROM,
			wantCalls: 3 + 4,
			wantType:  0xC0,
		},
		{
			name:     "EEPROM needs loader",
			firmware: internalOnly,
			action:   ActionEEPROM,
			wantErr:  true,
			errMsg:   "need 2nd stage loader",
		},
		{
			name:    "erase needs loader",
			action:  ActionErase,
			wantErr: true,
			errMsg:  "need 2nd stage loader",
		},
		{
			name:    "RAM needs firmware",
			loader:  loader,
			action:  ActionRAM,
			wantErr: true,
			errMsg:  "no firmware image",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chip := mustChip(t, "fx2")
			dev := NewMockDevice(chip)

			job := Job{Chip: chip, Action: tt.action, EEPROM: DefaultEEPROMOptions()}
			if tt.loader != "" {
				job.Loader = strings.NewReader(tt.loader)
			}
			if tt.firmware != "" {
				job.Firmware = strings.NewReader(tt.firmware)
			}

			err := New(dev).Program(context.Background(), job)

			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error containing %q, got nil", tt.errMsg)
				}
				if !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("error = %v, want substring %q", err, tt.errMsg)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(dev.calls) != tt.wantCalls {
				t.Errorf("got %d calls, want %d", len(dev.calls), tt.wantCalls)
			}
			if tt.wantType >= 0 && dev.eeprom[0] != byte(tt.wantType) {
				t.Errorf("type byte = 0x%02x, want 0x%02x", dev.eeprom[0], tt.wantType)
			}
			if dev.halted {
				t.Error("CPU left halted")
			}
		})
	}
}

func TestProgramLoaderFailure(t *testing.T) {
	chip := mustChip(t, "fx2")
	dev := NewMockDevice(chip)
	dev.fail = func(index int, _ Call) error {
		if index == 2 {
			return errors.New("stall")
		}
		return nil
	}

	err := New(dev).Program(context.Background(), Job{
		Chip:   chip,
		Loader: strings.NewReader(hexImage(hexRecord(0x0000, []byte{0x01}))),
		Action: ActionErase,
	})
	if err == nil || !strings.Contains(err.Error(), "load 2nd stage loader") {
		t.Fatalf("error = %v, want loader failure", err)
	}
	if !isTransportError(err) {
		t.Errorf("error chain lost the TransportError: %v", err)
	}
	if len(dev.calls) != 2 {
		t.Errorf("got %d calls, want 2", len(dev.calls))
	}
}

func TestCheckTransfer(t *testing.T) {
	dev := NewMockDevice(mustChip(t, "fx2"))
	prog := New(dev)

	tests := []struct {
		name     string
		err      error
		got      int
		wantKind protocol.TransportKind
		wantNil  bool
		errMsg   string
	}{
		{name: "complete", got: 4, wantNil: true},
		{name: "short", got: 2, wantKind: protocol.TransportOther, errMsg: "write on-chip: control transfer failed (other): short transfer: 2 of 4 bytes"},
		{name: "plain error", err: errors.New("pipe"), wantKind: protocol.TransportOther, errMsg: "write on-chip: control transfer failed (other): pipe"},
		{name: "timeout keeps kind", err: timeoutErr(), wantKind: protocol.TransportTimeout, errMsg: "write on-chip: control transfer failed (timeout)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := prog.checkTransfer("write on-chip", 4, tt.got, tt.err)
			if tt.wantNil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			var te *protocol.TransportError
			if !errors.As(err, &te) {
				t.Fatalf("error = %v, want TransportError", err)
			}
			if te.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", te.Kind, tt.wantKind)
			}
			if !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("error = %v, want substring %q", err, tt.errMsg)
			}
		})
	}
}

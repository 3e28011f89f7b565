package main

import (
	"io"
	"strings"
	"testing"
)

func TestParseArgs(t *testing.T) {
	env := func(dev string) func(string) string {
		return func(key string) string {
			if key == "DEVICE" {
				return dev
			}
			return ""
		}
	}

	tests := []struct {
		name    string
		args    []string
		env     string
		want    Config
		wantErr bool
		errMsg  string
	}{
		{
			name: "single stage RAM",
			args: []string{"-D", "/dev/bus/usb/001/004", "-I", "fw.ihx"},
			want: Config{Type: "fx", Device: "/dev/bus/usb/001/004", Firmware: "fw.ihx", ConfigByte: -1, VendorID: -1, ProductID: -1},
		},
		{
			name: "device from environment",
			args: []string{"-t", "FX2LP", "-I", "fw.ihx", "-v", "-v"},
			env:  "001:004",
			want: Config{Type: "fx2lp", TypeSet: true, Device: "001:004", Firmware: "fw.ihx", ConfigByte: -1, VendorID: -1, ProductID: -1, Verbose: 2},
		},
		{
			name: "-2 alias",
			args: []string{"-2", "-D", "1:4", "-I", "fw.ihx", "-v=3"},
			want: Config{Type: "fx2", TypeSet: true, Device: "1:4", Firmware: "fw.ihx", ConfigByte: -1, VendorID: -1, ProductID: -1, Verbose: 3},
		},
		{
			name: "EEPROM with identity",
			args: []string{"-t", "fx2", "-D", "1:4", "-s", "vend_ax.hex", "-c", "0x01", "-d", "04b4:1004", "-e"},
			want: Config{Type: "fx2", TypeSet: true, Device: "1:4", Loader: "vend_ax.hex", ConfigByte: 1, LargeEEPROM: true, VendorID: 0x04b4, ProductID: 0x1004},
		},
		{
			name: "erase by VID:PID",
			args: []string{"-u", "04b4:8613", "-s", "vend_ax.hex", "-E"},
			want: Config{Type: "fx", Open: "04b4:8613", Loader: "vend_ax.hex", Erase: true, ConfigByte: -1, VendorID: -1, ProductID: -1},
		},
		{
			name: "list needs no device",
			args: []string{"-list", "-strict", "-t", "an21", "-I", "fw.ihx"},
			want: Config{Type: "an21", TypeSet: true, Firmware: "fw.ihx", List: true, Strict: true, ConfigByte: -1, VendorID: -1, ProductID: -1},
		},
		{
			name:    "version",
			args:    []string{"-V"},
			wantErr: true,
			errMsg:  "version requested",
		},
		{
			name:    "unknown type",
			args:    []string{"-t", "fx3", "-D", "1:4", "-I", "fw.ihx"},
			wantErr: true,
			errMsg:  "illegal microcontroller type: fx3",
		},
		{
			name:    "config byte too large",
			args:    []string{"-c", "256"},
			wantErr: true,
			errMsg:  "illegal config byte: 256",
		},
		{
			name:    "EEPROM needs type",
			args:    []string{"-D", "1:4", "-s", "l.hex", "-c", "0", "-I", "fw.ihx"},
			wantErr: true,
			errMsg:  "must specify microcontroller type",
		},
		{
			name:    "EEPROM needs loader",
			args:    []string{"-t", "fx2", "-D", "1:4", "-c", "0", "-I", "fw.ihx"},
			wantErr: true,
			errMsg:  "need 2nd stage loader",
		},
		{
			name:    "EEPROM needs firmware or identity",
			args:    []string{"-t", "fx2", "-D", "1:4", "-s", "l.hex", "-c", "0", "-d", "0:0"},
			wantErr: true,
			errMsg:  "firmware or VID:PID",
		},
		{
			name:    "identity without config byte",
			args:    []string{"-t", "fx2", "-D", "1:4", "-s", "l.hex", "-d", "04b4:1004"},
			wantErr: true,
			errMsg:  "use it with -c",
		},
		{
			name:    "erase needs loader",
			args:    []string{"-D", "1:4", "-E"},
			wantErr: true,
			errMsg:  "need 2nd stage loader to erase",
		},
		{
			name:    "no device",
			args:    []string{"-I", "fw.ihx"},
			wantErr: true,
			errMsg:  "no device specified",
		},
		{
			name:    "no request",
			args:    []string{"-D", "1:4"},
			wantErr: true,
			errMsg:  "missing request",
		},
		{
			name:    "stray argument",
			args:    []string{"-D", "1:4", "fw.ihx"},
			wantErr: true,
			errMsg:  "unexpected argument",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseArgs(tt.args, env(tt.env), io.Discard)

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
			if *got != tt.want {
				t.Errorf("parseArgs() =\n %+v\nwant\n %+v", *got, tt.want)
			}
		})
	}
}

func TestParseVIDPID(t *testing.T) {
	tests := []struct {
		input   string
		vid     uint16
		pid     uint16
		wantErr bool
	}{
		{input: "04b4:8613", vid: 0x04b4, pid: 0x8613},
		{input: "4B4/1004", vid: 0x04b4, pid: 0x1004},
		{input: "0:0", vid: 0, pid: 0},
		{input: "04b4", wantErr: true},
		{input: ":8613", wantErr: true},
		{input: "04b4:", wantErr: true},
		{input: "104b4:8613", wantErr: true},
		{input: "04b4:86x3", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			vid, pid, err := parseVIDPID(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("parseVIDPID(%q) = %04x:%04x, want error", tt.input, vid, pid)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if vid != tt.vid || pid != tt.pid {
				t.Errorf("parseVIDPID(%q) = %04x:%04x, want %04x:%04x", tt.input, vid, pid, tt.vid, tt.pid)
			}
		})
	}
}

func TestConfigFlag(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{input: "0", want: 0},
		{input: "255", want: 255},
		{input: "0x4f", want: 0x4f},
		{input: "010", want: 8},
		{input: "-1", wantErr: true},
		{input: "0x100", wantErr: true},
		{input: "fast", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			f := configFlag(-1)
			err := f.Set(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Set(%q) = nil, want error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if int(f) != tt.want {
				t.Errorf("Set(%q) = %d, want %d", tt.input, int(f), tt.want)
			}
		})
	}
}

package bootloader

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/moffa90/go-ezusb/protocol"
)

// Call is one control request seen by MockDevice.
type Call struct {
	RType   uint8
	Request uint8
	Value   uint16
	Data    []byte
}

func (c Call) String() string {
	return fmt.Sprintf("%02x %02x @%04x % x", c.RType, c.Request, c.Value, c.Data)
}

// MockDevice simulates an EZ-USB chip with a second-stage loader: 64KB of
// RAM, an EEPROM and the CPUCS register.
type MockDevice struct {
	cpucs  uint16
	halted bool

	ram    [0x10000]byte
	eeprom [0x10000]byte

	// sizeReply answers RequestEEPROMSize
	sizeReply []byte

	// fail, if set, is consulted for every call (1-based index) before it
	// takes effect
	fail func(index int, c Call) error

	// short makes every OUT transfer report one byte less
	short bool

	calls []Call

	// ramWhileRunning counts on-chip RAM writes with the CPU running
	ramWhileRunning int
}

func NewMockDevice(chip *protocol.ChipProfile) *MockDevice {
	m := &MockDevice{
		cpucs:     chip.CPUCS,
		sizeReply: []byte{protocol.EEPROMLarge},
	}
	for i := range m.eeprom {
		m.eeprom[i] = 0xFF
	}
	return m
}

func (m *MockDevice) Control(rType, request uint8, val, idx uint16, data []byte) (int, error) {
	c := Call{RType: rType, Request: request, Value: val, Data: append([]byte(nil), data...)}
	m.calls = append(m.calls, c)

	if m.fail != nil {
		if err := m.fail(len(m.calls), c); err != nil {
			return 0, err
		}
	}

	if rType == protocol.RequestTypeIn {
		if request != protocol.RequestEEPROMSize {
			return 0, fmt.Errorf("unexpected IN request 0x%02x", request)
		}
		return copy(data, m.sizeReply), nil
	}

	switch request {
	case protocol.RequestInternal:
		if val == m.cpucs && len(data) == 1 {
			m.halted = data[0] == protocol.CPUHalt
		} else if !m.halted {
			m.ramWhileRunning++
		}
		copy(m.ram[val:], data)
	case protocol.RequestMemory:
		copy(m.ram[val:], data)
	case protocol.RequestEEPROM, protocol.RequestEEPROMLarge:
		copy(m.eeprom[val:], data)
	default:
		return 0, fmt.Errorf("unexpected OUT request 0x%02x", request)
	}

	if m.short && len(data) > 0 {
		return len(data) - 1, nil
	}
	return len(data), nil
}

// Writes returns the calls with the given request code.
func (m *MockDevice) Writes(request uint8) []Call {
	var out []Call
	for _, c := range m.calls {
		if c.Request == request && c.RType == protocol.RequestTypeOut {
			out = append(out, c)
		}
	}
	return out
}

// timeoutErr is what a transport returns for a dropped request.
func timeoutErr() error {
	return &protocol.TransportError{Kind: protocol.TransportTimeout, Err: fmt.Errorf("libusb: timeout [code -7]")}
}

// hexRecord formats one data record with a correct checksum.
func hexRecord(addr uint16, data []byte) string {
	sum := byte(len(data)) + byte(addr>>8) + byte(addr)
	for _, b := range data {
		sum += b
	}
	return fmt.Sprintf(":%02X%04X00%s%02X\n", len(data), addr, strings.ToUpper(hex.EncodeToString(data)), -sum)
}

// hexImage joins records and terminates them with an EOF record.
func hexImage(records ...string) string {
	return strings.Join(records, "") + ":00000001FF\n"
}

func fill(n int, b byte) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = b
	}
	return data
}

// MockLogger records messages by level.
type MockLogger struct {
	debugMsgs []string
	infoMsgs  []string
	errorMsgs []string
}

func (l *MockLogger) Debug(msg string, kv ...interface{}) {
	l.debugMsgs = append(l.debugMsgs, msg)
}

func (l *MockLogger) Info(msg string, kv ...interface{}) {
	l.infoMsgs = append(l.infoMsgs, msg)
}

func (l *MockLogger) Error(msg string, kv ...interface{}) {
	l.errorMsgs = append(l.errorMsgs, msg)
}

func (l *MockLogger) hasDebug(prefix string) bool {
	for _, m := range l.debugMsgs {
		if strings.HasPrefix(m, prefix) {
			return true
		}
	}
	return false
}

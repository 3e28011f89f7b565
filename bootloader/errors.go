package bootloader

import "fmt"

// IOError indicates that a firmware image could not be opened, read or
// rewound.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// DeviceStateError indicates that the CPUCS register could not be written,
// so the CPU could not be halted or released.
type DeviceStateError struct {
	Address uint16
	Run     bool
	Err     error
}

func (e *DeviceStateError) Error() string {
	action := "halt"
	if e.Run {
		action = "run"
	}
	return fmt.Sprintf("can't modify CPUCS at 0x%04x (%s): %v", e.Address, action, e.Err)
}

func (e *DeviceStateError) Unwrap() error {
	return e.Err
}

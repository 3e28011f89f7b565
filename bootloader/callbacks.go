package bootloader

import "time"

// Progress phases reported through ProgressCallback.
const (
	// PhaseHalting - holding the CPU in reset
	PhaseHalting = "halting"

	// PhaseExternal - writing external memory through the second-stage loader
	PhaseExternal = "external"

	// PhaseInternal - writing on-chip memory
	PhaseInternal = "internal"

	// PhaseResuming - releasing the CPU
	PhaseResuming = "resuming"

	// PhaseEEPROM - writing boot EEPROM frames
	PhaseEEPROM = "eeprom"

	// PhaseErasing - overwriting the boot EEPROM
	PhaseErasing = "erasing"

	// PhaseComplete - operation completed successfully
	PhaseComplete = "complete"
)

// Progress contains information about a running download.
// Passed to ProgressCallback during load and erase operations.
type Progress struct {
	// Phase is one of the Phase* constants
	Phase string

	// Segments is the number of segments written so far in this operation
	Segments int

	// BytesWritten is the number of payload bytes written so far
	BytesWritten int

	// Address is the target address of the last write: a RAM address for
	// RAM loads, the next free EEPROM address for EEPROM loads
	Address uint16

	// ElapsedTime is the time elapsed since the operation started
	ElapsedTime time.Duration
}

// ProgressCallback is called after every segment and at phase changes.
// Implementations should return quickly to avoid stalling the download.
//
// Example:
//
//	prog := bootloader.New(device,
//	    bootloader.WithProgressCallback(func(p bootloader.Progress) {
//	        fmt.Printf("[%s] %d segments, %d bytes\n", p.Phase, p.Segments, p.BytesWritten)
//	    }),
//	)
type ProgressCallback func(Progress)

// Logger is an optional logging interface that can be provided to the programmer.
// This allows integration with any logging framework.
//
// Example with standard log package:
//
//	type StdLogger struct{}
//	func (l *StdLogger) Debug(msg string, kv ...interface{}) { log.Println(msg, kv) }
//	func (l *StdLogger) Info(msg string, kv ...interface{})  { log.Println(msg, kv) }
//	func (l *StdLogger) Error(msg string, kv ...interface{}) { log.Println(msg, kv) }
//
//	prog := bootloader.New(device, bootloader.WithLogger(&StdLogger{}))
type Logger interface {
	// Debug logs a debug message with optional key-value pairs
	Debug(msg string, keysAndValues ...interface{})

	// Info logs an info message with optional key-value pairs
	Info(msg string, keysAndValues ...interface{})

	// Error logs an error message with optional key-value pairs
	Error(msg string, keysAndValues ...interface{})
}

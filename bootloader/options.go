package bootloader

import "github.com/moffa90/go-ezusb/protocol"

// Config holds the programmer configuration.
type Config struct {
	// ProgressCallback is called during downloads to report progress (optional)
	ProgressCallback ProgressCallback

	// Logger is used for diagnostics (optional)
	Logger Logger

	// Verbosity selects how much detail reaches Logger.Debug:
	//   0 - nothing
	//   1 - every control request, phase changes, totals
	//   2 - skipped segments, end of image
	//   3 - every image line
	Verbosity int

	// Retries is the number of extra attempts for a RAM write that timed out
	Retries int
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Retries: protocol.RetryLimit,
	}
}

// Option is a functional option for configuring the Programmer.
type Option func(*Config)

// WithProgressCallback sets a callback function to track download progress.
//
// Example:
//
//	prog := bootloader.New(device,
//	    bootloader.WithProgressCallback(func(p bootloader.Progress) {
//	        fmt.Printf("%s: %d bytes\n", p.Phase, p.BytesWritten)
//	    }),
//	)
func WithProgressCallback(callback ProgressCallback) Option {
	return func(c *Config) {
		c.ProgressCallback = callback
	}
}

// WithLogger sets a logger for the programmer operations.
//
// Example:
//
//	prog := bootloader.New(device, bootloader.WithLogger(myLogger))
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithVerbosity sets the diagnostic detail level. Negative values are ignored.
//
// Example:
//
//	prog := bootloader.New(device, bootloader.WithVerbosity(2))
func WithVerbosity(level int) Option {
	return func(c *Config) {
		if level >= 0 {
			c.Verbosity = level
		}
	}
}

// WithRetries sets the number of retries for RAM writes that time out.
// Other transport failures are never retried.
//
// Example:
//
//	prog := bootloader.New(device, bootloader.WithRetries(2))
func WithRetries(retries int) Option {
	return func(c *Config) {
		if retries >= 0 {
			c.Retries = retries
		}
	}
}

// Package bootloader downloads firmware into Cypress EZ-USB microcontrollers
// (AN21xx, FX, FX2, FX2LP) over vendor control requests.
//
// # Overview
//
// The hardware loader built into every EZ-USB chip can write on-chip RAM
// and the CPUCS register while the 8051 is held in reset. Anything else
// (external RAM, the boot EEPROM) needs a second-stage loader, itself
// loaded into on-chip RAM first.
//
// This package provides:
//   - LoadRAM: single-stage or two-stage RAM download, then CPU restart
//   - LoadEEPROM: boot EEPROM image and/or VID:PID, written so that a
//     partial write never leaves a bootable EEPROM
//   - EraseEEPROM: overwrite the first 8KB of the EEPROM with 0xFF
//   - Program: the usual sequence of the above
//
// # Basic Usage
//
//	dev, err := usbdev.OpenVIDPID(0x04b4, 0x8613)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer dev.Close()
//
//	chip, _ := protocol.Lookup("fx2lp")
//	prog := bootloader.New(dev)
//	if err := prog.LoadRAMFile(context.Background(), "firmware.ihx", chip, bootloader.SingleStage); err != nil {
//	    log.Fatal(err)
//	}
//
// # Writing the boot EEPROM
//
//	err := prog.Program(ctx, bootloader.Job{
//	    Chip:     chip,
//	    Loader:   vendAx,   // second-stage loader image
//	    Firmware: fw,
//	    Action:   bootloader.ActionEEPROM,
//	    EEPROM:   bootloader.DefaultEEPROMOptions(),
//	})
//
// # Retries
//
// Control requests are never NAKed, only dropped, so a RAM write that times
// out is retried (WithRetries, default 5). Other failures and all EEPROM
// writes are not retried.
//
// # Error Handling
//
// The package returns structured errors:
//   - ihex.FormatError: malformed image line
//   - protocol.ProtocolError: segment the current mode can't write
//   - protocol.TransportError: failed control request (Kind tells timeouts apart)
//   - DeviceStateError: CPUCS could not be written
//   - IOError: image could not be opened, read or rewound
//
// # Hardware Independence
//
// Programmer talks to a Transport, which has the shape of
// (*gousb.Device).Control. usbdev.Device is the gousb implementation; tests
// and examples use simulated devices.
package bootloader

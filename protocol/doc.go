// Package protocol describes the EZ-USB download protocol: vendor request
// codes, per-chip memory maps and boot EEPROM layout.
//
// # Requests
//
// All requests are vendor requests on control endpoint 0 with the target
// address in wValue:
//
//	0xA0  read/write on-chip RAM and CPUCS (built into the silicon)
//	0xA3  write external memory            (second-stage loader)
//	0xA2  write boot EEPROM, 8-bit addr    (second-stage loader)
//	0xA9  write boot EEPROM, 16-bit addr   (second-stage loader)
//	0xA5  query EEPROM addressing          (second-stage loader)
//
// # Chip Profiles
//
// Each variant fixes the CPUCS address, which address ranges the hardware
// loader can reach (internal) and the EEPROM header layout:
//
//	chip, err := protocol.Lookup("fx2lp")
//	if chip.Classify(0x3f00, 0x200) {
//	    // reaches past on-chip RAM; needs a second-stage loader
//	}
//
// # Boot EEPROM Image
//
//	[TYPE][VID(2)][PID(2)][DID(2)][CONFIG][RESERVED?][FRAME...]
//
// where each frame is
//
//	[LEN_H | LAST][LEN_L][ADDR_H][ADDR_L][DATA(LEN)]
//
// The type byte is written as 0 first and set to the bootable value last,
// so an interrupted write never leaves a bootable partial image.
//
// # Errors
//
// ProtocolError reports requests the protocol cannot carry out.
// TransportError is what transports return; its Kind separates timeouts,
// which may be retried, from everything else:
//
//	if protocol.IsTimeout(err) {
//	    // retry
//	}
package protocol

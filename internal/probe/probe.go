// Package probe implements the vendor-level control requests the
// CC-Debugger firmware understands: get_info, get_state, set_speed,
// reset, and debug_enter. Grounded on the static helpers in
// _examples/original_source/src/ccd.c and the VENDOR_* request codes in
// src/usb.h.
package probe

import (
	"fmt"

	"ccd/internal/usbtransport"
)

// Vendor request codes (bmRequest), per usb.h.
const (
	reqGetInfo    = 0xC0
	reqGetState   = 0xC6
	reqSetSpeed   = 0xCF
	reqReset      = 0xC9
	reqDebugEnter = 0xC5
)

// GetInfo reads the probe's 8-byte firmware info record.
func GetInfo(dev usbtransport.Device) ([8]byte, error) {
	var out [8]byte
	buf := make([]byte, 8)
	if err := dev.Control(usbtransport.In, reqGetInfo, 0, 0, buf); err != nil {
		return out, fmt.Errorf("get_info: %w", err)
	}
	copy(out[:], buf)
	return out, nil
}

// GetState reads the probe's 1-byte activity state. Zero means idle.
func GetState(dev usbtransport.Device) (byte, error) {
	buf := make([]byte, 1)
	if err := dev.Control(usbtransport.In, reqGetState, 0, 0, buf); err != nil {
		return 0, fmt.Errorf("get_state: %w", err)
	}
	return buf[0], nil
}

// SetSpeed selects the debug-link clock speed: slow=true requests the
// slower, more tolerant rate.
func SetSpeed(dev usbtransport.Device, slow bool) error {
	value := uint16(0)
	if slow {
		value = 1
	}
	if err := dev.Control(usbtransport.Out, reqSetSpeed, value, 0, nil); err != nil {
		return fmt.Errorf("set_speed: %w", err)
	}
	return nil
}

// Reset pulses the target reset line, optionally holding it in the
// debug-entry sequence (debug=true).
func Reset(dev usbtransport.Device, debug bool) error {
	index := uint16(0)
	if debug {
		index = 1
	}
	if err := dev.Control(usbtransport.Out, reqReset, 0, index, nil); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	return nil
}

// DebugEnter asks the probe to assert the target's debug-mode request.
func DebugEnter(dev usbtransport.Device) error {
	if err := dev.Control(usbtransport.Out, reqDebugEnter, 0, 0, nil); err != nil {
		return fmt.Errorf("debug_enter: %w", err)
	}
	return nil
}

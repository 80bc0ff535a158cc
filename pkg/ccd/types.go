// Package ccd is the public facade over the CC-Debugger programming
// stack: probe lifecycle, debug-mode entry/exit, target identification,
// flash erase/write/verify, and the handful of generic xdata accessors
// the original tool exposes. It plays the role ccd.h/ccd.c play in
// _examples/original_source/src, composed here over the internal
// usbtransport/target/program/hexfile layers instead of libusb calls.
package ccd

// FirmwareInfo is the probe's 8-byte firmware identification record.
// Chip == 0 means no target is attached, a fatal condition for every
// other operation. Reserved is read but never interpreted by the
// original tool; it is kept for forward compatibility and never
// validated.
type FirmwareInfo struct {
	Chip     uint16
	FwID     uint16
	FwRev    uint16
	Reserved uint16
}

// TargetInfo is decoded from three xdata reads once the target is in
// debug mode.
type TargetInfo struct {
	ChipID      uint8
	ChipVersion uint8
	FlashKiB    int
	SRAMKiB     int
}

// Package target synthesizes the bulk-endpoint command streams understood
// by the CC-Debugger probe firmware: short fixed-length opcodes and the
// longer preamble/fragment/postamble sequences that drive the target CPU
// to read and write its own xdata space. Grounded on the short-opcode table
// in target_read_config/target_write_config/target_read_status/target_erase
// and burst_write in _examples/original_source/src/target.c.
package target

import (
	"fmt"

	"ccd/internal/ccerr"
	"ccd/internal/usbtransport"
)

// Short opcode bytes consumed directly by the probe firmware.
const (
	opReadConfig  = 0x1F
	opReadSelect  = 0x24
	opWriteConfig = 0x4C
	opWriteSelect = 0x1D
	opReadStatus  = 0x34
	opChipErase   = 0x1C
	opEraseSelect = 0x14
	opBurstHeader = 0xEE
)

// ReadConfig reads the target's 1-byte debug-config register: bulk OUT
// {0x1F, 0x24} followed by a 1-byte bulk IN.
func ReadConfig(dev usbtransport.Device) (byte, error) {
	if err := dev.Bulk(usbtransport.Out, []byte{opReadConfig, opReadSelect}); err != nil {
		return 0, fmt.Errorf("read debug-config: %w", err)
	}
	resp := make([]byte, 1)
	if err := dev.Bulk(usbtransport.In, resp); err != nil {
		return 0, fmt.Errorf("read debug-config: %w", err)
	}
	return resp[0], nil
}

// WriteConfig writes the target's 1-byte debug-config register: bulk OUT
// {0x4C, 0x1D, cfg}, no response.
func WriteConfig(dev usbtransport.Device, cfg byte) error {
	if err := dev.Bulk(usbtransport.Out, []byte{opWriteConfig, opWriteSelect, cfg}); err != nil {
		return fmt.Errorf("write debug-config: %w", err)
	}
	return nil
}

// ReadStatus reads the target's 1-byte debug status register: bulk OUT
// {0x1F, 0x34} followed by a 1-byte bulk IN.
func ReadStatus(dev usbtransport.Device) (byte, error) {
	if err := dev.Bulk(usbtransport.Out, []byte{opReadConfig, opReadStatus}); err != nil {
		return 0, fmt.Errorf("read status: %w", err)
	}
	resp := make([]byte, 1)
	if err := dev.Bulk(usbtransport.In, resp); err != nil {
		return 0, fmt.Errorf("read status: %w", err)
	}
	return resp[0], nil
}

// ChipErase issues the chip-erase short command: bulk OUT {0x1C, 0x14}, no
// response. Callers must poll ReadStatus until StatusEraseBusy clears.
func ChipErase(dev usbtransport.Device) error {
	if err := dev.Bulk(usbtransport.Out, []byte{opChipErase, opEraseSelect}); err != nil {
		return fmt.Errorf("chip erase: %w", err)
	}
	return nil
}

// BurstWrite announces, then streams, a burst payload to the target: a
// 2-byte header {0xEE|hi, lo} encoding the big-endian payload length,
// followed by a separate bulk OUT carrying the payload itself. len(payload)
// must fit in 16 bits; the pipeline caller is responsible for chunking to
// at most 1024 bytes per the programming engine's chunk size.
func BurstWrite(dev usbtransport.Device, payload []byte) error {
	if len(payload) > 0xFFFF {
		return fmt.Errorf("burst write: payload too large (%d bytes): %w", len(payload), ccerr.ErrAlignment)
	}
	hi := byte(len(payload) >> 8)
	lo := byte(len(payload) & 0xFF)
	if err := dev.Bulk(usbtransport.Out, []byte{opBurstHeader | hi, lo}); err != nil {
		return fmt.Errorf("burst write header: %w", err)
	}
	if err := dev.Bulk(usbtransport.Out, payload); err != nil {
		return fmt.Errorf("burst write payload: %w", err)
	}
	return nil
}

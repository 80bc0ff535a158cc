package ccd

import (
	"fmt"
	"io"

	"github.com/google/gousb"

	"ccd/internal/ccerr"
	"ccd/internal/hexfile"
	"ccd/internal/probe"
	"ccd/internal/program"
	"ccd/internal/target"
	"ccd/internal/usbtransport"
)

// Vendor and product IDs of the CC-Debugger probe.
const (
	VendorID  = 0x0451
	ProductID = 0x16A2
)

// Config bits applied on entering debug mode, per enter_debug's fixed
// write of TIMER_SUSPEND|SOFT_POWER_MODE.
const enterDebugConfig = target.ConfigTimerSuspend | target.ConfigSoftPowerMode

// Probe owns a single open CC-Debugger handle and drives the full
// programming sequence over it. It is not safe for concurrent use — the
// protocol is single-outstanding-operation.
type Probe struct {
	dev usbtransport.Device
	buf target.CommandBuffer
}

// Open enumerates USB devices and claims the first CC-Debugger found.
func Open() (*Probe, error) {
	dev, err := usbtransport.Open(gousb.ID(VendorID), gousb.ID(ProductID))
	if err != nil {
		return nil, err
	}
	return &Probe{dev: dev}, nil
}

// OpenWithDevice wraps an already-open transport, letting tests and
// alternative front-ends supply a fake usbtransport.Device.
func OpenWithDevice(dev usbtransport.Device) *Probe {
	return &Probe{dev: dev}
}

// Close releases the USB handle.
func (p *Probe) Close() error {
	return p.dev.Close()
}

// FirmwareInfo reads the probe's firmware identification record. Chip==0
// means no target is attached.
func (p *Probe) FirmwareInfo() (FirmwareInfo, error) {
	raw, err := probe.GetInfo(p.dev)
	if err != nil {
		return FirmwareInfo{}, err
	}
	info := FirmwareInfo{
		Chip:     uint16(raw[0]) | uint16(raw[1])<<8,
		FwID:     uint16(raw[2]) | uint16(raw[3])<<8,
		FwRev:    uint16(raw[4]) | uint16(raw[5])<<8,
		Reserved: uint16(raw[6]) | uint16(raw[7])<<8,
	}
	return info, nil
}

// EnterDebug puts the target into debug mode: verifies the probe is
// idle, sets the link speed, resets with the debug strap asserted,
// issues debug_enter, and configures the target's debug-config register.
// It fails with ErrLocked if the resulting status reports DEBUG_LOCKED.
func (p *Probe) EnterDebug(slow bool) error {
	state, err := probe.GetState(p.dev)
	if err != nil {
		return fmt.Errorf("enter debug: %w", err)
	}
	if state != 0 {
		return fmt.Errorf("enter debug: probe state=0x%02x: %w", state, ccerr.ErrBadState)
	}

	if err := probe.SetSpeed(p.dev, slow); err != nil {
		return fmt.Errorf("enter debug: %w", err)
	}
	if err := probe.Reset(p.dev, true); err != nil {
		return fmt.Errorf("enter debug: %w", err)
	}
	if err := probe.DebugEnter(p.dev); err != nil {
		return fmt.Errorf("enter debug: %w", err)
	}

	if _, err := target.ReadConfig(p.dev); err != nil {
		return fmt.Errorf("enter debug: %w", err)
	}
	if err := target.WriteConfig(p.dev, enterDebugConfig); err != nil {
		return fmt.Errorf("enter debug: %w", err)
	}

	status, err := target.ReadStatus(p.dev)
	if err != nil {
		return fmt.Errorf("enter debug: %w", err)
	}
	if status&target.StatusDebugLocked != 0 {
		return fmt.Errorf("enter debug: %w", ccerr.ErrLocked)
	}
	return nil
}

// LeaveDebug releases the target from debug mode.
func (p *Probe) LeaveDebug() error {
	return probe.Reset(p.dev, false)
}

// Reset pulses the target reset line without entering or leaving debug
// mode, a standalone convenience the original tool also exposes.
func (p *Probe) Reset() error {
	return probe.Reset(p.dev, false)
}

// TargetInfo reads chip id, chip version, and chip info and decodes
// flash/SRAM geometry. Requires the target to already be in debug mode.
func (p *Probe) TargetInfo() (TargetInfo, error) {
	id, err := target.ReadXData(p.dev, &p.buf, target.ChipID, 1)
	if err != nil {
		return TargetInfo{}, fmt.Errorf("target info: %w", err)
	}
	version, err := target.ReadXData(p.dev, &p.buf, target.ChipVersion, 1)
	if err != nil {
		return TargetInfo{}, fmt.Errorf("target info: %w", err)
	}
	infoWord, err := target.ReadXData(p.dev, &p.buf, target.ChipInfo, 2)
	if err != nil {
		return TargetInfo{}, fmt.Errorf("target info: %w", err)
	}
	chipInfo := uint16(infoWord[0]) | uint16(infoWord[1])<<8
	flashKiB, sramKiB := target.DecodeChipInfo(chipInfo)

	return TargetInfo{
		ChipID:      id[0],
		ChipVersion: version[0],
		FlashKiB:    flashKiB,
		SRAMKiB:     sramKiB,
	}, nil
}

// Erase performs a full-chip flash erase, blocking until it completes.
func (p *Probe) Erase() error {
	return program.Erase(p.dev)
}

// WriteFlash programs payload into target flash starting at base.
func (p *Probe) WriteFlash(base uint16, payload []byte) error {
	return program.WriteFlash(p.dev, &p.buf, base, payload)
}

// Verify checks that target flash starting at base matches expected via
// the target RNG peripheral's CRC-16 engine.
func (p *Probe) Verify(base uint16, expected []byte) error {
	return program.Verify(p.dev, &p.buf, base, expected)
}

// WriteCode programs and then verifies payload in a single call, the
// combined operation the original tool calls ccd_write_code.
func (p *Probe) WriteCode(base uint16, payload []byte) error {
	if err := p.WriteFlash(base, payload); err != nil {
		return err
	}
	return p.Verify(base, payload)
}

// ReadXData is a generic xdata read, exposed for tooling and diagnostics
// beyond the fixed TargetInfo/firmware accessors.
func (p *Probe) ReadXData(addr uint16, n int) ([]byte, error) {
	return target.ReadXData(p.dev, &p.buf, addr, n)
}

// WriteXData is a generic xdata write, the counterpart to ReadXData.
func (p *Probe) WriteXData(addr uint16, data []byte) error {
	return target.WriteXData(p.dev, &p.buf, addr, data)
}

// ReadFlash is not implemented: the original tool stubs code-memory
// readback entirely, and this spec preserves that as a non-goal.
func (p *Probe) ReadFlash(uint16, int) ([]byte, error) {
	return nil, ccerr.ErrNotImplemented
}

// LoadHex parses an Intel-HEX image and returns the base address and the
// 4-byte-aligned payload ready for WriteCode.
func LoadHex(r io.Reader) (uint16, []byte, error) {
	img, err := hexfile.Parse(r)
	if err != nil {
		return 0, nil, err
	}
	if !img.EOF() {
		return 0, nil, fmt.Errorf("load hex: missing EOF record: %w", ccerr.ErrHexFormat)
	}
	return uint16(img.Min()), img.Bytes(), nil
}

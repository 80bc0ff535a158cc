package target

// Well-known xdata addresses (spec.md §3), grounded on MEM_*/FLASH_*/DMA_*
// enums in _examples/original_source/src/target.h.
const (
	ChipID      uint16 = 0x624A
	ChipVersion uint16 = 0x6249
	ChipInfo    uint16 = 0x6276

	DebugWriteData uint16 = 0x6260

	FlashControl   uint16 = 0x6270
	FlashAddrLow   uint16 = 0x6271
	FlashAddrHigh  uint16 = 0x6272
	FlashWriteData uint16 = 0x6273

	RNGDataLow  uint16 = 0x70BC
	RNGDataHigh uint16 = 0x70BD

	DMAIRQ        uint16 = 0x70D1
	DMA14AddrLow  uint16 = 0x70D2
	DMA14AddrHigh uint16 = 0x70D3
	DMA0AddrLow   uint16 = 0x70D4
	DMA0AddrHigh  uint16 = 0x70D5
	DMAArm        uint16 = 0x70D6
	DMAReq        uint16 = 0x70D7

	XDataFlash uint16 = 0x8000
)

// Flash controller flags (FLASH_CONTROL register bits).
const (
	FlashBusy  uint8 = 0x80
	FlashFull  uint8 = 0x40
	FlashAbort uint8 = 0x20
	FlashCache uint8 = 0x0C
	FlashWrite uint8 = 0x02
	FlashErase uint8 = 0x01
)

// Debug status bits, read via the short "read status" command.
const (
	StatusEraseBusy        uint8 = 0x80
	StatusPconIdle         uint8 = 0x40
	StatusCPUHalted        uint8 = 0x20
	StatusPMActive         uint8 = 0x10
	StatusHaltStatus       uint8 = 0x08
	StatusDebugLocked      uint8 = 0x04
	StatusOscillatorStable uint8 = 0x02
	StatusStackOverflow    uint8 = 0x01
)

// Debug-config bits, written via the short "write config" command.
const (
	ConfigSoftPowerMode uint8 = 0x20
	ConfigTimersOff     uint8 = 0x08
	ConfigDMAPause      uint8 = 0x04
	ConfigTimerSuspend  uint8 = 0x02
)

// DecodeChipInfo interprets a chip_info xdata word into flash/SRAM sizes in KiB.
func DecodeChipInfo(chipInfo uint16) (flashKiB, sramKiB int) {
	flashKiB = 1 << (4 + ((chipInfo & 0x0070) >> 4))
	sramKiB = int((chipInfo&0x0700)>>8) + 1
	return flashKiB, sramKiB
}

package program

import (
	"fmt"
	"time"

	"ccd/internal/ccerr"
	"ccd/internal/target"
	"ccd/internal/usbtransport"
)

// CRC16 computes the CC-family CRC-16 (seed 0xFFFF convention, MSB-first)
// over data starting from seed, matching the target RNG peripheral's CRC
// mode exactly so host and target values can be compared directly.
func CRC16(data []byte, seed uint16) uint16 {
	crc := seed
	for _, b := range data {
		for bit := 7; bit >= 0; bit-- {
			in := ((crc >> 15) & 1) ^ uint16((b>>uint(bit))&1)
			crc = (crc << 1) ^ (in << 15) ^ (in << 2) ^ in
		}
	}
	return crc
}

// dmaIRQBit returns the DMA_IRQ bit that a completed transfer on ch sets.
// The original source arms channel 0 but polls bit 4 unconditionally,
// which is a bug (see design notes); this stack always polls the bit of
// the channel that was actually armed.
func dmaIRQBit(ch Channel) byte {
	return 1 << uint(ch)
}

// Verify configures channel 0 to stream length bytes of flash starting at
// base through the target RNG peripheral's CRC engine, seeds the RNG,
// waits for completion, and compares the target's CRC against the host's
// own computation over expected. It fails with ErrChecksumMismatch on
// disagreement, without retrying.
func Verify(dev usbtransport.Device, buf *target.CommandBuffer, base uint16, expected []byte) error {
	length := uint16(len(expected))

	batch := NewBatch()
	if err := batch.Add(Channel0, Descriptor{
		Src: target.XDataFlash + base, Dst: target.RNGDataHigh, Len: length,
		Trigger: TriggerNone, Mode: ModeBlock,
		SrcInc: true, DstInc: false, WordSize8: true, Priority: PriorityHigh,
	}); err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	if err := Commit(dev, buf, batch, scratchConfig); err != nil {
		return fmt.Errorf("verify: configure channel 0: %w", err)
	}

	// Seed the RNG. The peripheral latches a CRC seed via two
	// consecutive writes to RNG_DATA_LOW (high byte first, then low);
	// this mirrors the original engine's observed behavior rather than
	// the more "obvious" low-then-high-to-respective-registers wiring.
	seedHi := byte(0xFF)
	seedLo := byte(0xFF)
	if err := target.WriteXData(dev, buf, target.RNGDataLow, []byte{seedHi}); err != nil {
		return fmt.Errorf("verify: seed rng: %w", err)
	}
	if err := target.WriteXData(dev, buf, target.RNGDataLow, []byte{seedLo}); err != nil {
		return fmt.Errorf("verify: seed rng: %w", err)
	}

	if err := Arm(dev, buf, Channel0); err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	if err := SoftwareRequest(dev, buf, Channel0); err != nil {
		return fmt.Errorf("verify: %w", err)
	}

	if err := pollDMAIRQ(dev, dmaIRQBit(Channel0)); err != nil {
		return fmt.Errorf("verify: %w", err)
	}

	lo, err := target.ReadXData(dev, buf, target.RNGDataLow, 1)
	if err != nil {
		return fmt.Errorf("verify: read crc: %w", err)
	}
	hi, err := target.ReadXData(dev, buf, target.RNGDataHigh, 1)
	if err != nil {
		return fmt.Errorf("verify: read crc: %w", err)
	}
	crcTarget := uint16(lo[0]) | uint16(hi[0])<<8

	crcHost := CRC16(expected, 0xFFFF)
	if crcTarget != crcHost {
		return fmt.Errorf("verify: target=0x%04x host=0x%04x: %w", crcTarget, crcHost, ccerr.ErrChecksumMismatch)
	}
	return nil
}

// pollDMAIRQ polls DMA_IRQ until bit clears, failing with ErrTimeout after
// chunkDeadline.
func pollDMAIRQ(dev usbtransport.Device, bit byte) error {
	var buf target.CommandBuffer
	deadline := time.Now().Add(chunkDeadline)
	for {
		v, err := target.ReadXData(dev, &buf, target.DMAIRQ, 1)
		if err != nil {
			return err
		}
		if v[0]&bit == 0 {
			return nil
		}
		if time.Now().After(deadline) {
			return ccerr.ErrTimeout
		}
		time.Sleep(pollInterval)
	}
}

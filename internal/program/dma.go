// Package program implements the DMA-orchestrated flash write pipeline and
// CRC-16 verification engine (spec component C4), grounded on
// dma_config_t/dma_config_channel/dma_config_commit/target_write_flash in
// _examples/original_source/src/target.c.
package program

import (
	"fmt"

	"ccd/internal/ccerr"
	"ccd/internal/target"
	"ccd/internal/usbtransport"
)

// TransferMode selects a DMA channel's transfer mode (byte 6, bits 7..5).
type TransferMode uint8

const (
	ModeSingle TransferMode = 0
	ModeBlock  TransferMode = 1
	ModeRepeat TransferMode = 2
)

// Trigger selects what starts a DMA transfer (byte 6, bits 4..0).
type Trigger uint8

const (
	TriggerNone  Trigger = 0x00
	TriggerDebug Trigger = 0x1F
	TriggerFlash Trigger = 0x12
)

// Priority is the DMA arbitration priority (byte 7, bits 1..0).
type Priority uint8

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
)

// Descriptor is one 8-byte DMA channel configuration record.
type Descriptor struct {
	Src, Dst       uint16
	Len            uint16
	Trigger        Trigger
	Mode           TransferMode
	SrcInc, DstInc bool
	WordSize8      bool // true selects byte transfers (the only size this stack uses)
	Priority       Priority
	IRQMask        bool
}

// Serialize renders the descriptor into the 8-byte big-endian layout
// described in spec.md §3: src_hi/lo, dst_hi/lo, len_hi/lo, tmode|trigger,
// flags.
func (d Descriptor) Serialize() [8]byte {
	var out [8]byte
	out[0] = byte(d.Src >> 8)
	out[1] = byte(d.Src & 0xFF)
	out[2] = byte(d.Dst >> 8)
	out[3] = byte(d.Dst & 0xFF)
	out[4] = byte(d.Len >> 8)
	out[5] = byte(d.Len & 0xFF)
	out[6] = byte(d.Mode)<<5 | byte(d.Trigger)&0x1F

	var flags byte
	if d.SrcInc {
		flags |= 1 << 7
	}
	if d.DstInc {
		flags |= 1 << 6
	}
	if d.IRQMask {
		flags |= 1 << 5
	}
	// WORDSIZE (bit 4) is always left clear: this stack only issues
	// byte-size transfers, so d.WordSize8 never needs to set it.
	flags |= byte(d.Priority) & 0x03
	out[7] = flags

	return out
}

// channel identifies a DMA channel. Channel 0 has its own descriptor
// pointer register pair; channels 1-4 share a table at a single base
// pointer.
type Channel int

const (
	Channel0 Channel = 0
	Channel1 Channel = 1
	Channel2 Channel = 2
	Channel3 Channel = 3
	Channel4 Channel = 4
)

// Batch accumulates the channels to configure in a single commit. A batch
// may contain channel 0 alone, or any subset of channels 1..4, but never
// both — the hardware's descriptor-pointer registers are exclusive.
type Batch struct {
	channel0    *Descriptor
	channels1_4 map[Channel]Descriptor
}

func NewBatch() *Batch {
	return &Batch{channels1_4: make(map[Channel]Descriptor)}
}

// Add stages a descriptor for ch. It does not itself validate exclusivity;
// Commit does, so a caller can detect a misconfigured batch without any
// USB traffic having been emitted.
func (b *Batch) Add(ch Channel, d Descriptor) error {
	if ch == Channel0 {
		cp := d
		b.channel0 = &cp
		return nil
	}
	if ch < Channel1 || ch > Channel4 {
		return fmt.Errorf("dma: channel %d out of range: %w", ch, ccerr.ErrConfig)
	}
	b.channels1_4[ch] = d
	return nil
}

// Commit validates the batch's channel-0-xor-1..4 invariant, then writes
// the descriptor table to scratch xdata at tableAddr and points the
// appropriate base-pointer register pair at it. No USB traffic is emitted
// if validation fails.
func Commit(dev usbtransport.Device, buf *target.CommandBuffer, b *Batch, tableAddr uint16) error {
	if b.channel0 != nil && len(b.channels1_4) > 0 {
		return fmt.Errorf("dma: batch mixes channel 0 with channels 1..4: %w", ccerr.ErrConfig)
	}
	if b.channel0 == nil && len(b.channels1_4) == 0 {
		return fmt.Errorf("dma: empty batch: %w", ccerr.ErrConfig)
	}

	var table []byte
	if b.channel0 != nil {
		d := b.channel0.Serialize()
		table = append(table, d[:]...)
	} else {
		for ch := Channel1; ch <= Channel4; ch++ {
			d, ok := b.channels1_4[ch]
			if !ok {
				continue
			}
			ser := d.Serialize()
			table = append(table, ser[:]...)
		}
	}

	if err := target.WriteXData(dev, buf, tableAddr, table); err != nil {
		return fmt.Errorf("dma: commit descriptor table: %w", err)
	}

	var addrHigh, addrLow uint16
	if b.channel0 != nil {
		addrHigh, addrLow = target.DMA0AddrHigh, target.DMA0AddrLow
	} else {
		addrHigh, addrLow = target.DMA14AddrHigh, target.DMA14AddrLow
	}

	hi := byte(tableAddr >> 8)
	lo := byte(tableAddr & 0xFF)
	if err := target.WriteXData(dev, buf, addrHigh, []byte{hi}); err != nil {
		return fmt.Errorf("dma: commit pointer high: %w", err)
	}
	if err := target.WriteXData(dev, buf, addrLow, []byte{lo}); err != nil {
		return fmt.Errorf("dma: commit pointer low: %w", err)
	}
	return nil
}

// Arm sets the given channel's bit in DMA_ARM.
func Arm(dev usbtransport.Device, buf *target.CommandBuffer, ch Channel) error {
	mask := byte(1) << uint(ch)
	if err := target.WriteXData(dev, buf, target.DMAArm, []byte{mask}); err != nil {
		return fmt.Errorf("dma: arm channel %d: %w", ch, err)
	}
	return nil
}

// SoftwareRequest sets the given channel's bit in DMA_REQ, starting a
// channel configured with TriggerNone.
func SoftwareRequest(dev usbtransport.Device, buf *target.CommandBuffer, ch Channel) error {
	mask := byte(1) << uint(ch)
	if err := target.WriteXData(dev, buf, target.DMAReq, []byte{mask}); err != nil {
		return fmt.Errorf("dma: request channel %d: %w", ch, err)
	}
	return nil
}

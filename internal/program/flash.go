package program

import (
	"fmt"
	"time"

	"ccd/internal/ccerr"
	"ccd/internal/target"
	"ccd/internal/usbtransport"
)

const (
	// scratchData and scratchConfig are temporary xdata regions used to
	// stage the DMA descriptor table and the incoming burst payload,
	// named T_DATA/T_CFG in the original programming engine.
	scratchData   uint16 = 0x0000
	scratchConfig uint16 = 0x0800

	// chunkSize is the largest payload streamed through a single
	// burst-write + DMA pass.
	chunkSize = 1024

	pollInterval  = 200 * time.Microsecond
	erasePollIntv = 500 * time.Microsecond

	eraseDeadline = 10 * time.Second
	chunkDeadline = 1 * time.Second
)

// Erase issues a full chip erase and polls target status until the erase
// completes or eraseDeadline elapses.
func Erase(dev usbtransport.Device) error {
	if err := target.ChipErase(dev); err != nil {
		return fmt.Errorf("erase: %w", err)
	}
	deadline := time.Now().Add(eraseDeadline)
	for {
		status, err := target.ReadStatus(dev)
		if err != nil {
			return fmt.Errorf("erase: %w", err)
		}
		if status&target.StatusEraseBusy == 0 {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("erase: %w", ccerr.ErrTimeout)
		}
		time.Sleep(erasePollIntv)
	}
}

// WriteFlash programs payload into target flash starting at base,
// chunking the transfer per spec.md §4.4 steps 1-9. len(payload) must be
// a multiple of 4.
func WriteFlash(dev usbtransport.Device, buf *target.CommandBuffer, base uint16, payload []byte) error {
	if len(payload)%4 != 0 {
		return fmt.Errorf("write flash: %w", ccerr.ErrAlignment)
	}

	addr := base
	remaining := payload
	for len(remaining) > 0 {
		chunk := remaining[:min(len(remaining), chunkSize)]
		if err := writeChunk(dev, buf, addr, chunk); err != nil {
			return err
		}
		addr += uint16(len(chunk))
		remaining = remaining[len(chunk):]
	}
	return nil
}

func writeChunk(dev usbtransport.Device, buf *target.CommandBuffer, addr uint16, chunk []byte) error {
	n := uint16(len(chunk))

	batch := NewBatch()
	if err := batch.Add(Channel1, Descriptor{
		Src: target.DebugWriteData, Dst: scratchData, Len: n,
		Trigger: TriggerDebug, Mode: ModeSingle,
		SrcInc: false, DstInc: true, WordSize8: true, Priority: PriorityHigh,
	}); err != nil {
		return err
	}
	if err := batch.Add(Channel2, Descriptor{
		Src: scratchData, Dst: target.FlashWriteData, Len: n,
		Trigger: TriggerFlash, Mode: ModeSingle,
		SrcInc: true, DstInc: false, WordSize8: true, Priority: PriorityHigh,
	}); err != nil {
		return err
	}
	if err := Commit(dev, buf, batch, scratchConfig); err != nil {
		return fmt.Errorf("write chunk: configure channels 1 and 2: %w", err)
	}

	if err := Arm(dev, buf, Channel1); err != nil {
		return fmt.Errorf("write chunk: %w", err)
	}

	if err := target.BurstWrite(dev, chunk); err != nil {
		return fmt.Errorf("write chunk: %w", err)
	}

	if err := target.WriteXData(dev, buf, target.FlashAddrLow, []byte{byte(addr & 0xFF)}); err != nil {
		return fmt.Errorf("write chunk: set flash address: %w", err)
	}
	if err := target.WriteXData(dev, buf, target.FlashAddrHigh, []byte{byte(addr >> 8)}); err != nil {
		return fmt.Errorf("write chunk: set flash address: %w", err)
	}

	if err := pollFlashControl(dev, target.FlashBusy, false); err != nil {
		return fmt.Errorf("write chunk: wait busy clear: %w", err)
	}

	if err := Arm(dev, buf, Channel2); err != nil {
		return fmt.Errorf("write chunk: %w", err)
	}
	if err := setFlashControl(dev, buf, target.FlashWrite); err != nil {
		return fmt.Errorf("write chunk: %w", err)
	}
	if err := pollFlashControl(dev, target.FlashWrite, false); err != nil {
		return fmt.Errorf("write chunk: wait write clear: %w", err)
	}
	return nil
}

func setFlashControl(dev usbtransport.Device, buf *target.CommandBuffer, bit byte) error {
	cur, err := target.ReadXData(dev, buf, target.FlashControl, 1)
	if err != nil {
		return err
	}
	return target.WriteXData(dev, buf, target.FlashControl, []byte{cur[0] | bit})
}

// pollFlashControl polls FLASH_CONTROL until bit is (or isn't, per want)
// set, failing with ErrTimeout after chunkDeadline.
func pollFlashControl(dev usbtransport.Device, bit byte, want bool) error {
	var buf target.CommandBuffer
	deadline := time.Now().Add(chunkDeadline)
	for {
		v, err := target.ReadXData(dev, &buf, target.FlashControl, 1)
		if err != nil {
			return err
		}
		if (v[0]&bit != 0) == want {
			return nil
		}
		if time.Now().After(deadline) {
			return ccerr.ErrTimeout
		}
		time.Sleep(pollInterval)
	}
}

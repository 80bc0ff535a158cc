package ccd

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ccd/internal/ccerr"
	"ccd/internal/target"
	"ccd/internal/usbtransport"
)

type fakeDevice struct {
	controls   [][]byte
	controlDir []usbtransport.Direction
	sent       [][]byte
	inQueue    [][]byte
	controlIn  [][]byte
}

func (f *fakeDevice) Control(dir usbtransport.Direction, request uint8, value, index uint16, data []byte) error {
	f.controlDir = append(f.controlDir, dir)
	if dir == usbtransport.In {
		resp := f.controlIn[0]
		f.controlIn = f.controlIn[1:]
		copy(data, resp)
	}
	return nil
}

func (f *fakeDevice) Bulk(dir usbtransport.Direction, data []byte) error {
	if dir == usbtransport.Out {
		cp := make([]byte, len(data))
		copy(cp, data)
		f.sent = append(f.sent, cp)
		return nil
	}
	resp := f.inQueue[0]
	f.inQueue = f.inQueue[1:]
	copy(data, resp)
	return nil
}

func (f *fakeDevice) Close() error { return nil }

func TestFirmwareInfoDecodesChipZero(t *testing.T) {
	dev := &fakeDevice{controlIn: [][]byte{{0, 0, 0x10, 0x20, 0x01, 0x00, 0, 0}}}
	p := OpenWithDevice(dev)

	info, err := p.FirmwareInfo()
	require.NoError(t, err)
	assert.Equal(t, uint16(0), info.Chip)
	assert.Equal(t, uint16(0x2010), info.FwID)
	assert.Equal(t, uint16(0x0001), info.FwRev)
}

func TestEnterDebugFailsOnBusyProbe(t *testing.T) {
	dev := &fakeDevice{controlIn: [][]byte{{0x01}}}
	p := OpenWithDevice(dev)

	err := p.EnterDebug(false)
	assert.ErrorIs(t, err, ccerr.ErrBadState)
}

func TestEnterDebugFailsOnLockedTarget(t *testing.T) {
	dev := &fakeDevice{
		controlIn: [][]byte{{0x00}}, // GET_STATE idle
		inQueue: [][]byte{
			{0x00},                     // read debug-config
			{target.StatusDebugLocked}, // read status
		},
	}
	p := OpenWithDevice(dev)

	err := p.EnterDebug(false)
	assert.ErrorIs(t, err, ccerr.ErrLocked)
}

func TestTargetInfoDecodesGeometry(t *testing.T) {
	dev := &fakeDevice{
		inQueue: [][]byte{
			{0xA5},       // chip id
			{0x01},       // chip version
			{0x40, 0x07}, // chip_info low byte first (host reads it little-endian)
		},
	}
	p := OpenWithDevice(dev)

	info, err := p.TargetInfo()
	require.NoError(t, err)
	assert.Equal(t, uint8(0xA5), info.ChipID)
	assert.Equal(t, uint8(0x01), info.ChipVersion)
	assert.Equal(t, 256, info.FlashKiB)
	assert.Equal(t, 8, info.SRAMKiB)
}

func TestReadFlashNotImplemented(t *testing.T) {
	p := OpenWithDevice(&fakeDevice{})
	_, err := p.ReadFlash(0, 1)
	assert.Error(t, err)
}

func TestLoadHexReturnsBaseAndPayload(t *testing.T) {
	const sample = ":10010000214601360121470136007EFE09D2190140\n:00000001FF\n"
	base, payload, err := LoadHex(strings.NewReader(sample))
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0100), base)
	assert.Equal(t, 16, len(payload))
}

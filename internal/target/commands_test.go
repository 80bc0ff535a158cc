package target

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadConfig(t *testing.T) {
	dev := &fakeDevice{inQueue: [][]byte{{0x20}}}
	cfg, err := ReadConfig(dev)
	require.NoError(t, err)
	assert.Equal(t, byte(0x20), cfg)
	assert.Equal(t, []byte{0x1F, 0x24}, dev.sent[0])
}

func TestWriteConfig(t *testing.T) {
	dev := &fakeDevice{}
	err := WriteConfig(dev, ConfigTimerSuspend|ConfigSoftPowerMode)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x4C, 0x1D, ConfigTimerSuspend | ConfigSoftPowerMode}, dev.sent[0])
}

func TestReadStatus(t *testing.T) {
	dev := &fakeDevice{inQueue: [][]byte{{StatusDebugLocked}}}
	status, err := ReadStatus(dev)
	require.NoError(t, err)
	assert.Equal(t, StatusDebugLocked, status)
	assert.Equal(t, []byte{0x1F, 0x34}, dev.sent[0])
}

func TestChipErase(t *testing.T) {
	dev := &fakeDevice{}
	require.NoError(t, ChipErase(dev))
	assert.Equal(t, []byte{0x1C, 0x14}, dev.sent[0])
}

func TestBurstWriteHeaderAndPayload(t *testing.T) {
	dev := &fakeDevice{}
	payload := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	require.NoError(t, BurstWrite(dev, payload))
	require.Len(t, dev.sent, 2)
	assert.Equal(t, []byte{0xEE, 0x04}, dev.sent[0])
	assert.Equal(t, payload, dev.sent[1])
}

func TestBurstWriteHeaderHighBits(t *testing.T) {
	dev := &fakeDevice{}
	payload := make([]byte, 1024)
	require.NoError(t, BurstWrite(dev, payload))
	assert.Equal(t, []byte{0xEE | 0x04, 0x00}, dev.sent[0])
}

package target

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ccd/internal/usbtransport"
)

// fakeDevice is a minimal usbtransport.Device double that records every
// bulk transfer and serves canned IN responses in order.
type fakeDevice struct {
	sent    [][]byte
	dirs    []usbtransport.Direction
	inQueue [][]byte
}

func (f *fakeDevice) Control(usbtransport.Direction, uint8, uint16, uint16, []byte) error {
	return nil
}

func (f *fakeDevice) Bulk(dir usbtransport.Direction, data []byte) error {
	f.dirs = append(f.dirs, dir)
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

func TestReadXDataFraming(t *testing.T) {
	dev := &fakeDevice{inQueue: [][]byte{{0xAA, 0xBB, 0xCC}}}
	var buf CommandBuffer

	got, err := ReadXData(dev, &buf, 0x624A, 3)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xAA, 0xBB, 0xCC}, got)

	require.Len(t, dev.sent, 1)
	out := dev.sent[0]
	assert.Equal(t, 20+5+6*3+10, len(out))
	assert.Equal(t, byte(0x62), out[preambleLen+3])
	assert.Equal(t, byte(0x4A), out[preambleLen+4])
}

func TestReadXDataLastFragmentToggles(t *testing.T) {
	dev := &fakeDevice{inQueue: [][]byte{{1, 2, 3, 4}}}
	var buf CommandBuffer

	_, err := ReadXData(dev, &buf, 0x1000, 4)
	require.NoError(t, err)

	out := dev.sent[0]
	body := out[preambleLen+dptrFragLen : len(out)-postambleLen]
	for i := 0; i < 4; i++ {
		op := body[i*readFragLen]
		if i == 3 {
			assert.Equal(t, movxReadLastOnly, op, "last fragment must use 0x4F")
		} else {
			assert.Equal(t, movxReadLast, op, "fragment %d must use 0x4E", i)
		}
	}
}

func TestWriteXDataFraming(t *testing.T) {
	dev := &fakeDevice{}
	var buf CommandBuffer

	data := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	err := WriteXData(dev, &buf, 0x1000, data)
	require.NoError(t, err)

	require.Len(t, dev.sent, 1)
	out := dev.sent[0]
	assert.Equal(t, 20+5+9*4+10, len(out))
	assert.Equal(t, byte(0x10), out[preambleLen+3])
	assert.Equal(t, byte(0x00), out[preambleLen+4])

	body := out[preambleLen+dptrFragLen : len(out)-postambleLen]
	for i, want := range data {
		frag := body[i*writeFragLen : (i+1)*writeFragLen]
		assert.Equal(t, want, frag[3], "patched data byte at fragment %d", i)
	}
}

func TestReadXDataRejectsZeroLength(t *testing.T) {
	dev := &fakeDevice{}
	var buf CommandBuffer
	_, err := ReadXData(dev, &buf, 0x1000, 0)
	assert.Error(t, err)
	assert.Empty(t, dev.sent, "no USB traffic should be emitted on a rejected request")
}

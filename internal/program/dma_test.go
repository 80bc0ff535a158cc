package program

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ccd/internal/target"
	"ccd/internal/usbtransport"
)

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

func TestDescriptorSerializeLayout(t *testing.T) {
	d := Descriptor{
		Src: 0x6260, Dst: 0x0000, Len: 0x0400,
		Trigger: TriggerDebug, Mode: ModeSingle,
		SrcInc: false, DstInc: true, WordSize8: true, Priority: PriorityHigh,
	}
	out := d.Serialize()
	assert.Equal(t, byte(0x62), out[0])
	assert.Equal(t, byte(0x60), out[1])
	assert.Equal(t, byte(0x00), out[2])
	assert.Equal(t, byte(0x00), out[3])
	assert.Equal(t, byte(0x04), out[4])
	assert.Equal(t, byte(0x00), out[5])
	assert.Equal(t, byte(ModeSingle)<<5|byte(TriggerDebug)&0x1F, out[6])
	assert.Equal(t, byte(1<<6)|byte(PriorityHigh), out[7])
}

func TestBatchRejectsMixedChannels(t *testing.T) {
	dev := &fakeDevice{}
	var buf target.CommandBuffer

	b := NewBatch()
	require.NoError(t, b.Add(Channel0, Descriptor{}))
	require.NoError(t, b.Add(Channel1, Descriptor{}))

	err := Commit(dev, &buf, b, scratchConfig)
	assert.Error(t, err)
	assert.Empty(t, dev.sent, "a rejected batch must emit no USB traffic")
}

func TestBatchCommitChannel1to4(t *testing.T) {
	dev := &fakeDevice{}
	var buf target.CommandBuffer

	b := NewBatch()
	require.NoError(t, b.Add(Channel1, Descriptor{Src: 0x1111, Dst: 0x2222, Len: 4}))
	require.NoError(t, b.Add(Channel2, Descriptor{Src: 0x3333, Dst: 0x4444, Len: 8}))

	require.NoError(t, Commit(dev, &buf, b, scratchConfig))
	require.Len(t, dev.sent, 3) // table write, pointer high, pointer low

	tableWrite := dev.sent[0]
	assert.Equal(t, byte(0x11), tableWrite[preambleLenFor(tableWrite)+3]) // patched data byte of the first write fragment
}

// preambleLenFor returns the length of the fixed preamble+DPTR-fragment
// prefix, i.e. the offset of the first per-byte write fragment.
func preambleLenFor(out []byte) int {
	return 20 + 5
}

func TestArmSetsBitmask(t *testing.T) {
	dev := &fakeDevice{}
	var buf target.CommandBuffer
	require.NoError(t, Arm(dev, &buf, Channel2))
	last := dev.sent[len(dev.sent)-1]
	dataByte := last[20+5+3] // patched data byte of the single write fragment
	assert.Equal(t, byte(1<<2), dataByte)
}

package hexfile

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleHex = ":10010000214601360121470136007EFE09D2190140\n:00000001FF\n"

func TestParseEOF(t *testing.T) {
	img, err := Parse(strings.NewReader(sampleHex))
	require.NoError(t, err)
	assert.True(t, img.EOF())
	assert.Equal(t, 0x0100, img.Min())
	assert.Equal(t, 0x0110, img.Max())
}

func TestParseBadChecksumFails(t *testing.T) {
	bad := strings.Replace(sampleHex, "2146", "2147", 1)
	_, err := Parse(strings.NewReader(bad))
	assert.Error(t, err)
}

func TestParseRejectsSegmentedAddressing(t *testing.T) {
	input := ":020000040001F9\n:00000001FF\n"
	_, err := Parse(strings.NewReader(input))
	assert.Error(t, err)
}

func TestBytesPadsToMultipleOf4(t *testing.T) {
	// Used range [0x0100, 0x010A) -> length 10, padded to 12.
	input := ":0A01000000010203040506070809C8\n:00000001FF\n"
	img, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	out := img.Bytes()
	assert.Equal(t, 12, len(out))
}

func TestRoundTripWriteAndReparse(t *testing.T) {
	img, err := Parse(strings.NewReader(sampleHex))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, img))

	reread, err := Parse(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	assert.Equal(t, img.Min(), reread.Min())
	assert.Equal(t, img.Max(), reread.Max())
	assert.Equal(t, img.Bytes(), reread.Bytes())
}

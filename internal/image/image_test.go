package image

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plcrun/plcrun/internal/buftype"
)

// Check an unmapped cell reads back as unmapped and writes to it are a no-op.
func TestUnmappedCellIsNoop(t *testing.T) {
	img := New(16)

	assert.Nil(t, img.WordCell(buftype.IntMemory, 3))

	img.WriteLowBits(buftype.IntMemory, 3, 0xFF, 0x1234)

	_, mapped := img.ReadBits(buftype.IntMemory, 3, 0xFF)
	assert.False(t, mapped, "expected cell to remain unmapped")
}

// Once glue installs a cell reference it stays installed and WriteLowBits
// mutates through it.
func TestMappedCellWrite(t *testing.T) {
	img := New(16)
	var cell uint16
	img.ptr.IntMemory[3] = &cell

	img.WriteLowBits(buftype.IntMemory, 3, 0xFF, 0x1234)
	require.EqualValues(t, 0x1234, cell)

	value, mapped := img.ReadBits(buftype.IntMemory, 3, 0xFF)
	require.True(t, mapped)
	assert.EqualValues(t, 0x1234, value)
}

// WriteLowBits truncates to the low-order bits of the target width.
func TestWriteLowBitsTruncates(t *testing.T) {
	img := New(4)
	var cell uint16
	img.ptr.IntOutput[0] = &cell

	img.WriteLowBits(buftype.IntOutput, 0, 0xFF, 0x1FFFF)

	assert.EqualValues(t, 0xFFFF, cell)
}

// Bool cells are addressed by (index, bit) within the 8-bit-per-index bank.
func TestBoolCellAddressing(t *testing.T) {
	img := New(4)
	var bit5 bool
	img.SetBoolCell(buftype.BoolOutput, 2, 5, &bit5)

	img.WriteLowBits(buftype.BoolOutput, 2, 5, 1)
	assert.True(t, bit5)

	// Adjacent bits remain unmapped.
	assert.Nil(t, img.BoolCell(buftype.BoolOutput, 2, 4))
}

// Out-of-range index/bit accessors return nil rather than panicking.
func TestOutOfRangeIsNil(t *testing.T) {
	img := New(4)

	assert.Nil(t, img.WordCell(buftype.IntMemory, 99))
	assert.Nil(t, img.BoolCell(buftype.BoolInput, 0, 9))
	assert.Nil(t, img.ByteCell(buftype.Tag(99), 0))
}

// Byte cells have no memory-kind variant; requesting one yields nil.
func TestByteHasNoMemoryVariant(t *testing.T) {
	img := New(4)
	assert.Nil(t, img.byteBank(buftype.IntMemory))
}

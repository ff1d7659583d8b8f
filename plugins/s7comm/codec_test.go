package s7comm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// E3: endian round-trip for u16/u32/u64.
func TestEndianRoundTrip(t *testing.T) {
	b16 := make([]byte, 2)
	putU16(b16, 0xBEEF)
	assert.EqualValues(t, 0xBEEF, getU16(b16))

	b32 := make([]byte, 4)
	putU32(b32, 0xDEADBEEF)
	assert.EqualValues(t, 0xDEADBEEF, getU32(b32))

	b64 := make([]byte, 8)
	putU64(b64, 0x0123456789ABCDEF)
	assert.EqualValues(t, 0x0123456789ABCDEF, getU64(b64))
}

// u16 wire layout is big-endian: 0x00FF reads back as bytes [0x00, 0xFF].
func TestU16IsBigEndianOnWire(t *testing.T) {
	b := make([]byte, 2)
	putU16(b, 0x00FF)
	assert.Equal(t, []byte{0x00, 0xFF}, b)
}

func TestBoolByteRoundTrip(t *testing.T) {
	bits := [8]bool{true, false, true, false, false, false, false, true}
	b := boolByte(bits)
	assert.Equal(t, bits, unpackBoolByte(b))
}
